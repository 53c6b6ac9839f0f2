package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// RawDecoder reads interleaved little-endian float32 PCM from a stream.
// It has no length and cannot seek.
type RawDecoder struct {
	r      *bufio.Reader
	closer io.Closer
	info   StreamInfo
	frame  []byte
}

// OpenRaw wraps r as a raw PCM stream with the given layout.
func OpenRaw(r io.Reader, sampleRate, channels int) (*RawDecoder, error) {
	info := StreamInfo{SampleRate: sampleRate, Channels: channels, Frames: UnknownFrames}
	if err := info.Validate(); err != nil {
		return nil, err
	}
	d := &RawDecoder{
		r:     bufio.NewReaderSize(r, 64*1024),
		info:  info,
		frame: make([]byte, 4*channels),
	}
	if c, ok := r.(io.Closer); ok {
		d.closer = c
	}
	return d, nil
}

// Info returns the stream layout. Frames is always UnknownFrames.
func (d *RawDecoder) Info() StreamInfo { return d.info }

// Read decodes whole frames until buf is full or the stream ends.
// A trailing partial frame is discarded.
func (d *RawDecoder) Read(buf []float32) (int, error) {
	ch := d.info.Channels
	frames := 0
	for ; (frames+1)*ch <= len(buf); frames++ {
		if _, err := io.ReadFull(d.r, d.frame); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return 0, fmt.Errorf("failed to read PCM stream: %w", err)
		}
		for c := 0; c < ch; c++ {
			bits := binary.LittleEndian.Uint32(d.frame[4*c:])
			buf[frames*ch+c] = math.Float32frombits(bits)
		}
	}
	if frames == 0 {
		return 0, io.EOF
	}
	return frames, nil
}

// SeekFrame always fails: a pipe cannot be rewound.
func (d *RawDecoder) SeekFrame(int64) (int64, error) {
	return 0, ErrSeekUnsupported
}

// Close closes the wrapped stream when it is closable.
func (d *RawDecoder) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}
