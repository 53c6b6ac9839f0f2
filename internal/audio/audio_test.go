package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWAV encodes interleaved integer samples into a temporary WAV file
// and returns its path.
func writeTestWAV(t *testing.T, samples []int, sampleRate, channels, bitDepth int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}
	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		t.Fatalf("failed to encode fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		t.Fatalf("failed to finalise fixture: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close fixture: %v", err)
	}
	return path
}

// ramp returns frames*channels samples counting up from -n/2 so every
// position is distinguishable.
func ramp(frames, channels int) []int {
	out := make([]int, frames*channels)
	for i := range out {
		out[i] = i - len(out)/2
	}
	return out
}

func readAll(t *testing.T, d Decoder, block int) []float32 {
	t.Helper()
	ch := d.Info().Channels
	buf := make([]float32, block*ch)
	var out []float32
	for {
		n, err := d.Read(buf)
		out = append(out, buf[:n*ch]...)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if n == 0 {
			t.Fatal("Read returned 0 frames without EOF")
		}
	}
}

func TestStreamInfo(t *testing.T) {
	si := StreamInfo{SampleRate: 48000, Channels: 2, Frames: 96000}
	if err := si.Validate(); err != nil {
		t.Errorf("valid info rejected: %v", err)
	}
	if !si.KnownLength() {
		t.Error("96000 frames should be a known length")
	}
	if got := si.Seconds(24000); got != 0.5 {
		t.Errorf("Seconds(24000) = %v, want 0.5", got)
	}

	si.Frames = UnknownFrames
	if si.KnownLength() {
		t.Error("UnknownFrames reported as known")
	}

	err := StreamInfo{}.Validate()
	if err == nil {
		t.Fatal("zero info accepted")
	}
	for _, want := range []string{"sample rate", "channel count"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q misses %q", err, want)
		}
	}
}

func TestWAVDecoder(t *testing.T) {
	samples := ramp(1500, 2)
	path := writeTestWAV(t, samples, 8000, 2, 16)

	d, err := OpenWAV(path)
	if err != nil {
		t.Fatalf("OpenWAV: %v", err)
	}
	defer d.Close()

	info := d.Info()
	if info.SampleRate != 8000 || info.Channels != 2 || info.Frames != 1500 {
		t.Fatalf("info = %+v", info)
	}

	got := readAll(t, d, 256)
	if len(got) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(samples))
	}
	for i, s := range samples {
		if want := float32(s) / 32768; got[i] != want {
			t.Fatalf("sample %d = %v, want %v", i, got[i], want)
		}
	}

	if n, err := d.Read(make([]float32, 16)); n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("read past end = (%d, %v), want (0, EOF)", n, err)
	}
}

func TestWAVSeekMatchesSequential(t *testing.T) {
	samples := ramp(4000, 1)
	path := writeTestWAV(t, samples, 16000, 1, 24)

	d, err := OpenWAV(path)
	if err != nil {
		t.Fatalf("OpenWAV: %v", err)
	}
	defer d.Close()
	whole := readAll(t, d, 1000)

	// Walk backwards the way the bounds-fast scan does.
	buf := make([]float32, 300)
	for hi := int64(4000); hi > 0; hi -= 300 {
		lo := max(hi-300, 0)
		pos, err := d.SeekFrame(lo)
		if err != nil || pos != lo {
			t.Fatalf("SeekFrame(%d) = (%d, %v)", lo, pos, err)
		}
		n, err := d.Read(buf[:hi-lo])
		if err != nil || int64(n) != hi-lo {
			t.Fatalf("Read at %d = (%d, %v)", lo, n, err)
		}
		for i := 0; i < n; i++ {
			if buf[i] != whole[lo+int64(i)] {
				t.Fatalf("frame %d after seek = %v, sequential %v", lo+int64(i), buf[i], whole[lo+int64(i)])
			}
		}
	}

	// The whole data chunk has been read twice by now; a rewind must still
	// reach the end.
	if _, err := d.SeekFrame(0); err != nil {
		t.Fatalf("rewind: %v", err)
	}
	again := readAll(t, d, 700)
	if len(again) != len(whole) {
		t.Fatalf("re-read after rewind = %d samples, want %d", len(again), len(whole))
	}

	if _, err := d.SeekFrame(4001); err == nil {
		t.Error("seek beyond end accepted")
	}
	if _, err := d.SeekFrame(-1); err == nil {
		t.Error("negative seek accepted")
	}
}

func TestWAV8BitIsUnsigned(t *testing.T) {
	path := writeTestWAV(t, []int{0, 64, 128, 192, 255, 128}, 8000, 1, 8)
	d, err := OpenWAV(path)
	if err != nil {
		t.Fatalf("OpenWAV: %v", err)
	}
	defer d.Close()

	got := readAll(t, d, 8)
	want := []float32{-1, -0.5, 0, 0.5, 127.0 / 128, 0}
	if len(got) != len(want) {
		t.Fatalf("decoded %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestWAVCloseIsIdempotent(t *testing.T) {
	d, err := OpenWAV(writeTestWAV(t, ramp(10, 1), 8000, 1, 16))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	t.Run("unsupported extension", func(t *testing.T) {
		if _, err := Open(filepath.Join(dir, "take1.flac")); err == nil || !strings.Contains(err.Error(), "unsupported") {
			t.Errorf("err = %v, want unsupported file type", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Open(filepath.Join(dir, "missing.wav")); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("err = %v, want not-exist", err)
		}
	})

	t.Run("not a wav", func(t *testing.T) {
		path := filepath.Join(dir, "notes.wav")
		if err := os.WriteFile(path, []byte("this is not audio at all"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Open(path); err == nil {
			t.Error("text file accepted as wav")
		}
	})

	t.Run("uppercase extension", func(t *testing.T) {
		src := writeTestWAV(t, ramp(10, 1), 8000, 1, 16)
		path := filepath.Join(dir, "TAKE.WAV")
		data, err := os.ReadFile(src)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
		d, err := Open(path)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		d.Close()
	})
}

func rawStream(t *testing.T, samples []float32) *bytes.Buffer {
	t.Helper()
	var b bytes.Buffer
	if err := binary.Write(&b, binary.LittleEndian, samples); err != nil {
		t.Fatal(err)
	}
	return &b
}

func TestRawDecoder(t *testing.T) {
	samples := []float32{0.5, -0.5, 0.25, -0.25, 1, -1, 0.125}
	b := rawStream(t, samples)

	d, err := OpenRaw(b, 44100, 2)
	if err != nil {
		t.Fatalf("OpenRaw: %v", err)
	}
	if info := d.Info(); info.Frames != UnknownFrames || info.Channels != 2 {
		t.Errorf("info = %+v", info)
	}

	// the odd trailing sample is not a whole frame
	got := readAll(t, d, 2)
	if len(got) != 6 {
		t.Fatalf("decoded %v, want 3 whole frames", got)
	}
	for i := range got {
		if got[i] != samples[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], samples[i])
		}
	}

	if _, err := d.SeekFrame(0); !errors.Is(err, ErrSeekUnsupported) {
		t.Errorf("SeekFrame err = %v, want ErrSeekUnsupported", err)
	}
}

func TestRawDecoderErrors(t *testing.T) {
	if _, err := OpenRaw(&bytes.Buffer{}, 0, 1); err == nil {
		t.Error("zero sample rate accepted")
	}

	boom := errors.New("pipe broke")
	d, err := OpenRaw(iotest.ErrReader(boom), 8000, 1)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := d.Read(make([]float32, 4)); n != 0 || !errors.Is(err, boom) {
		t.Errorf("Read = (%d, %v), want (0, %v)", n, err, boom)
	}
}

type closeCounter struct {
	io.Reader
	closed int
}

func (c *closeCounter) Close() error { c.closed++; return nil }

func TestRawDecoderClosesSource(t *testing.T) {
	src := &closeCounter{Reader: rawStream(t, []float32{0})}
	d, err := OpenRaw(src, 8000, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if src.closed != 1 {
		t.Errorf("source closed %d times, want 1", src.closed)
	}
}
