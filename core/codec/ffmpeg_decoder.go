package codec

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
)

// FFmpegDecoder shells out to ffmpeg, reading the buffer on stdin and
// pulling f32le mono samples from stdout. It handles every container
// ffmpeg does, at the cost of an external binary.
type FFmpegDecoder struct {
	Path       string // ffmpeg binary
	SampleRate int    // output rate samples are resampled to
}

// NewFFmpegDecoder returns a decoder using the given ffmpeg binary.
func NewFFmpegDecoder(path string) *FFmpegDecoder {
	return &FFmpegDecoder{Path: path, SampleRate: 44100}
}

// Decode implements Decoder.
func (d *FFmpegDecoder) Decode(ctx context.Context, data []byte) (*PCMBuffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio buffer")
	}

	rate := d.SampleRate
	if rate <= 0 {
		rate = 44100
	}

	args := []string{
		"-hide_banner", "-v", "error",
		"-i", "pipe:0",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", rate),
		"-f", "f32le",
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, d.Path, args...)
	cmd.Stdin = bytes.NewReader(data)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &bytes.Buffer{}

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}

	raw := out.Bytes()
	if len(raw) < 4 {
		return nil, fmt.Errorf("decoded zero samples")
	}
	n := len(raw) / 4
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		samples[i] = float64(math.Float32frombits(bits))
	}

	return &PCMBuffer{
		Channels:   [][]float64{samples},
		SampleRate: rate,
	}, nil
}
