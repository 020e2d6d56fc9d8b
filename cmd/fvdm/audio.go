package main

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-fvdm/dsp/core"
)

// readWAV decodes a PCM WAV file into a mono signal scaled to [-1, 1].
func readWAV(path string) (core.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Signal{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return core.Signal{}, fmt.Errorf("%s: not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return core.Signal{}, fmt.Errorf("%s: read PCM: %w", path, err)
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	samples, err := downmix(buf, depth)
	if err != nil {
		return core.Signal{}, fmt.Errorf("%s: %w", path, err)
	}
	return core.NewSignal(samples,
		core.WithSampleRate(float64(buf.Format.SampleRate)),
		core.WithFullScale(1),
	), nil
}

// downmix averages the interleaved channels of buf and scales integer PCM of
// the given bit depth to [-1, 1].
func downmix(buf *audio.IntBuffer, bitDepth int) ([]float64, error) {
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("missing channel count")
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	scale := 1 / (float64(uint64(1)<<(bitDepth-1)) * float64(channels))
	if bitDepth == 8 {
		// 8-bit PCM is unsigned; the decoder keeps the raw byte values.
		scale = 1 / (128 * float64(channels))
	}

	out := make([]float64, frames)
	for i := range out {
		var sum float64
		for ch := range channels {
			v := float64(buf.Data[i*channels+ch])
			if bitDepth == 8 {
				v -= 128
			}
			sum += v
		}
		out[i] = sum * scale
	}
	return out, nil
}
