package codec

import (
	"bytes"
	"context"
	"fmt"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
)

// BeepDecoder decodes mp3, wav and flac in pure Go. The container is
// sniffed from magic bytes since the engine receives bare buffers, not
// file names.
type BeepDecoder struct{}

// NewBeepDecoder returns a stateless pure-Go decoder.
func NewBeepDecoder() *BeepDecoder {
	return &BeepDecoder{}
}

// streamChunk is how many stereo samples are pulled per Stream call.
const streamChunk = 4096

// Decode implements Decoder.
func (d *BeepDecoder) Decode(ctx context.Context, data []byte) (*PCMBuffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio buffer")
	}

	streamer, format, err := decodeSniffed(data)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()

	left := make([]float64, 0, streamChunk)
	right := make([]float64, 0, streamChunk)
	buf := make([][2]float64, streamChunk)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, ok := streamer.Stream(buf)
		for i := 0; i < n; i++ {
			left = append(left, buf[i][0])
			right = append(right, buf[i][1])
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("failed to stream samples: %w", err)
	}
	if len(left) == 0 {
		return nil, fmt.Errorf("decoded zero samples")
	}

	channels := [][]float64{left}
	if format.NumChannels >= 2 {
		channels = append(channels, right)
	}
	return &PCMBuffer{
		Channels:   channels,
		SampleRate: int(format.SampleRate),
	}, nil
}

// decodeSniffed picks the container from magic bytes and opens a fresh
// streamer over the buffer.
func decodeSniffed(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	r := newByteReadSeekCloser(data)
	switch {
	case isWAV(data):
		return wav.Decode(r)
	case isFLAC(data):
		return flac.Decode(r)
	case isMP3(data):
		return mp3.Decode(r)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format")
	}
}

func isWAV(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WAVE"))
}

func isFLAC(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[0:4], []byte("fLaC"))
}

func isMP3(data []byte) bool {
	if len(data) >= 3 && bytes.Equal(data[0:3], []byte("ID3")) {
		return true
	}
	// Bare MPEG frame sync.
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

// byteReadSeekCloser adapts an in-memory buffer to the ReadSeekCloser
// the beep decoders expect. Close is a no-op; the real resource being
// released per call is the streamer.
type byteReadSeekCloser struct {
	*bytes.Reader
}

func newByteReadSeekCloser(data []byte) *byteReadSeekCloser {
	return &byteReadSeekCloser{Reader: bytes.NewReader(data)}
}

func (byteReadSeekCloser) Close() error { return nil }
