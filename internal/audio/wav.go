package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// WAVDecoder decodes integer PCM WAV files with sample-accurate seeking.
type WAVDecoder struct {
	file       *os.File
	dec        *wav.Decoder
	info       StreamInfo
	bitDepth   int
	frameBytes int64
	dataStart  int64
	pos        int64
	ibuf       *goaudio.IntBuffer
	scale      float32
	offset     int
}

// OpenWAV opens a WAV file and positions the decoder on the first PCM frame.
func OpenWAV(path string) (*WAVDecoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("not a valid wav file: %s", path)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		f.Close()
		return nil, fmt.Errorf("unsupported wav encoding %d (integer PCM only): %s", dec.WavAudioFormat, path)
	}
	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to locate PCM data: %w", err)
	}

	// The riff parser reads the file unbuffered, so the file offset now sits
	// on the first byte of the data chunk.
	dataStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read data offset: %w", err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	bytesPerSample := (bitDepth + 7) / 8
	if channels < 1 || bytesPerSample < 1 || bytesPerSample > 4 {
		f.Close()
		return nil, fmt.Errorf("unsupported wav layout (%d channels, %d bit): %s", channels, bitDepth, path)
	}
	frameBytes := int64(channels * bytesPerSample)

	d := &WAVDecoder{
		file: f,
		dec:  dec,
		info: StreamInfo{
			SampleRate: int(dec.SampleRate),
			Channels:   channels,
			Frames:     dec.PCMLen() / frameBytes,
		},
		bitDepth:   bitDepth,
		frameBytes: frameBytes,
		dataStart:  dataStart,
		ibuf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: int(dec.SampleRate)},
			SourceBitDepth: bitDepth,
		},
		scale: 1.0 / float32(int64(1)<<(bytesPerSample*8-1)),
	}
	if bytesPerSample == 1 {
		// 8-bit WAV is unsigned.
		d.offset = 128
	}
	if err := d.info.Validate(); err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

// Info returns the stream layout.
func (d *WAVDecoder) Info() StreamInfo { return d.info }

// Read decodes up to len(buf)/channels frames, never reading past the data chunk.
func (d *WAVDecoder) Read(buf []float32) (int, error) {
	ch := d.info.Channels
	want := int64(len(buf) / ch)
	if remaining := d.info.Frames - d.pos; want > remaining {
		want = remaining
	}
	if want <= 0 {
		return 0, io.EOF
	}

	samples := int(want) * ch
	if cap(d.ibuf.Data) < samples {
		d.ibuf.Data = make([]int, samples)
	}
	d.ibuf.Data = d.ibuf.Data[:samples]

	n, err := d.dec.PCMBuffer(d.ibuf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("failed to decode PCM: %w", err)
	}
	frames := n / ch
	if frames == 0 {
		return 0, io.EOF
	}
	for i := 0; i < frames*ch; i++ {
		buf[i] = float32(d.ibuf.Data[i]-d.offset) * d.scale
	}
	d.pos += int64(frames)
	return frames, nil
}

// SeekFrame moves to an absolute frame inside the data chunk.
func (d *WAVDecoder) SeekFrame(frame int64) (int64, error) {
	if frame < 0 || frame > d.info.Frames {
		return d.pos, fmt.Errorf("audio: seek to frame %d outside [0, %d]", frame, d.info.Frames)
	}
	if _, err := d.file.Seek(d.dataStart+frame*d.frameBytes, io.SeekStart); err != nil {
		return d.pos, fmt.Errorf("audio: seek to frame %d: %w", frame, err)
	}
	// PCMBuffer reads through a LimitReader whose budget only shrinks, so it
	// has to be re-armed with what is left after frame.
	d.dec.PCMChunk.R = io.LimitReader(d.file, (d.info.Frames-frame)*d.frameBytes)
	d.pos = frame
	return frame, nil
}

// Close releases the underlying file.
func (d *WAVDecoder) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
