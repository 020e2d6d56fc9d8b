package signal

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-fvdm/dsp/core"
)

// Generator creates deterministic synthetic signals from a shared
// configuration. Noise generators reseed from the configured seed on every
// call, so repeated calls return identical sequences.
type Generator struct {
	cfg  core.ProcessorConfig
	seed int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets deterministic random seed for noise generation.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator creates a configured signal generator.
func NewGenerator(opts ...core.ProcessorOption) *Generator {
	return NewGeneratorWithOptions(opts)
}

// NewGeneratorWithOptions creates a configured signal generator with signal-specific options.
func NewGeneratorWithOptions(coreOpts []core.ProcessorOption, opts ...Option) *Generator {
	g := &Generator{
		cfg:  core.ApplyProcessorOptions(coreOpts...),
		seed: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Config returns the generator processor configuration.
func (g *Generator) Config() core.ProcessorConfig {
	return g.cfg
}

// Seed returns the current noise seed.
func (g *Generator) Seed() int64 {
	return g.seed
}

// SetSeed replaces the noise seed.
func (g *Generator) SetSeed(seed int64) {
	g.seed = seed
}

// Signal wraps samples with the generator's sampling metadata.
func (g *Generator) Signal(samples []float64) core.Signal {
	return core.Signal{Samples: samples, SampleRate: g.cfg.SampleRate, FullScale: g.cfg.FullScale}
}

// Samples returns the number of samples spanning durationMs.
func (g *Generator) Samples(durationMs float64) int {
	return core.MsToSamples(durationMs, g.cfg.SampleRate)
}

// Sine generates a sine wave.
func (g *Generator) Sine(freqHz, amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("sine samples must be > 0: %d", samples)
	}
	if g.cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sine sample rate must be > 0: %f", g.cfg.SampleRate)
	}
	out := make([]float64, samples)
	step := 2 * math.Pi * freqHz / g.cfg.SampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out, nil
}

// WhiteNoise generates deterministic white noise in [-amplitude, amplitude].
func (g *Generator) WhiteNoise(amplitude float64, samples int) ([]float64, error) {
	if err := validateNoise(amplitude, samples); err != nil {
		return nil, err
	}
	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out, nil
}

// PinkNoise generates deterministic 1/f noise with peak amplitude.
//
// The spectrum is shaped in the frequency domain (magnitude 1/sqrt(k), random
// phase) and brought back with an inverse FFT of the next power of two.
func (g *Generator) PinkNoise(amplitude float64, samples int) ([]float64, error) {
	if err := validateNoise(amplitude, samples); err != nil {
		return nil, err
	}

	size := 1
	for size < samples {
		size <<= 1
	}
	if size < 4 {
		size = 4
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("pink noise fft plan: %w", err)
	}

	rng := rand.New(rand.NewSource(g.seed))
	spec := make([]complex128, size)
	half := size / 2
	for k := 1; k < half; k++ {
		phase := rng.Float64() * 2 * math.Pi
		bin := cmplx.Rect(1/math.Sqrt(float64(k)), phase)
		spec[k] = bin
		spec[size-k] = cmplx.Conj(bin)
	}
	spec[half] = complex(1/math.Sqrt(float64(half)), 0)

	buf := make([]complex128, size)
	if err := plan.Inverse(buf, spec); err != nil {
		return nil, fmt.Errorf("pink noise inverse fft: %w", err)
	}

	out := make([]float64, samples)
	for i := range out {
		out[i] = real(buf[i])
	}
	return Normalize(out, amplitude)
}

// RandomWalk generates a Gaussian random walk (a unit-root process) with
// the given innovation standard deviation.
func (g *Generator) RandomWalk(sigma float64, samples int) ([]float64, error) {
	return g.AR1(1, sigma, samples)
}

// AR1 generates x[i] = phi*x[i-1] + e[i] with Gaussian innovations of
// standard deviation sigma. |phi| < 1 gives a mean-reverting process,
// phi == 1 a random walk.
func (g *Generator) AR1(phi, sigma float64, samples int) ([]float64, error) {
	if err := validateNoise(sigma, samples); err != nil {
		return nil, err
	}
	if math.Abs(phi) > 1 {
		return nil, fmt.Errorf("ar1 coefficient must be in [-1,1]: %f", phi)
	}
	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))
	prev := 0.0
	for i := range out {
		prev = phi*prev + rng.NormFloat64()*sigma
		out[i] = prev
	}
	return out, nil
}

// Ramp generates a linear ramp from start to end inclusive.
func (g *Generator) Ramp(start, end float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("ramp samples must be > 0: %d", samples)
	}
	out := make([]float64, samples)
	if samples == 1 {
		out[0] = start
		return out, nil
	}
	step := (end - start) / float64(samples-1)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out, nil
}

// Normalize scales data to target peak amplitude and returns a new slice.
func Normalize(data []float64, targetPeak float64) ([]float64, error) {
	if targetPeak < 0 {
		return nil, fmt.Errorf("normalize target peak must be >= 0: %f", targetPeak)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("normalize input must not be empty")
	}

	maxAbs := 0.0
	for _, v := range data {
		av := math.Abs(v)
		if av > maxAbs {
			maxAbs = av
		}
	}

	out := make([]float64, len(data))
	if maxAbs == 0 || targetPeak == 0 {
		return out, nil
	}

	scale := targetPeak / maxAbs
	for i, v := range data {
		out[i] = v * scale
	}
	return out, nil
}

func validateNoise(amplitude float64, samples int) error {
	if samples <= 0 {
		return fmt.Errorf("noise samples must be > 0: %d", samples)
	}
	if amplitude < 0 {
		return fmt.Errorf("noise amplitude must be >= 0: %f", amplitude)
	}
	return nil
}
