package core

// ProcessorConfig defines the sampling settings shared by analysis stages.
type ProcessorConfig struct {
	SampleRate float64
	// FullScale is the amplitude of a full-scale sample: 1 for float audio,
	// 2^(bits-1) for integer PCM.
	FullScale float64
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns defaults matching typical speech recordings.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: 44100,
		FullScale:  1,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithFullScale sets the full-scale sample amplitude.
func WithFullScale(fullScale float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if fullScale > 0 {
			cfg.FullScale = fullScale
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
