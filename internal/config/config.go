// Package config loads pipeline settings from a YAML file and turns them
// into fvdm options. Keys left out of the file keep the pipeline defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-fvdm/dsp/detrend"
	"github.com/cwbudde/algo-fvdm/dsp/emd"
	"github.com/cwbudde/algo-fvdm/measure/fractal"
	"github.com/cwbudde/algo-fvdm/measure/fvdm"
	timestats "github.com/cwbudde/algo-fvdm/stats/time"
)

type Window struct {
	LengthMs float64 `yaml:"length_ms"`
	ShiftMs  float64 `yaml:"shift_ms"`
}

type Decomposition struct {
	Policy         string `yaml:"policy"`
	Spline         string `yaml:"spline"`
	NormalizeTrend *bool  `yaml:"normalize_trend"`
}

type Stability struct {
	Estimator string `yaml:"estimator"`
	Fit       string `yaml:"fit"`
	Trials    int    `yaml:"trials"`
	Seed      *int64 `yaml:"seed"`
}

type Stationarity struct {
	Enabled      *bool   `yaml:"enabled"`
	Significance float64 `yaml:"significance"`
}

// File mirrors the YAML layout:
//
//	window:
//	  length_ms: 25
//	  shift_ms: 10
//	sample_rate: 0
//	dispersion: std
//	decomposition:
//	  policy: A
//	  spline: cubic
//	  normalize_trend: true
//	stability:
//	  estimator: dfa
//	  fit: poly
//	  trials: 10
//	  seed: 1
//	stationarity:
//	  enabled: false
//	  significance: 0.05
//	log_level: info
type File struct {
	Window        Window        `yaml:"window"`
	SampleRate    float64       `yaml:"sample_rate"`
	Dispersion    string        `yaml:"dispersion"`
	Decomposition Decomposition `yaml:"decomposition"`
	Stability     Stability     `yaml:"stability"`
	Stationarity  Stationarity  `yaml:"stationarity"`
	LogLevel      string        `yaml:"log_level"`
}

// Load reads the YAML file at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses YAML from r. Unknown keys are rejected; an empty document
// yields a zero File.
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cfg File
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

// Options converts the file into pipeline options. Names are validated with
// the parsers of the owning packages.
func (f *File) Options() ([]fvdm.Option, error) {
	var opts []fvdm.Option

	if f.Window.LengthMs != 0 || f.Window.ShiftMs != 0 {
		if f.Window.LengthMs < 0 || f.Window.ShiftMs < 0 {
			return nil, fmt.Errorf("window must be positive: %g/%g ms", f.Window.LengthMs, f.Window.ShiftMs)
		}
		opts = append(opts, fvdm.WithWindow(f.Window.LengthMs, f.Window.ShiftMs))
	}
	if f.SampleRate < 0 {
		return nil, fmt.Errorf("sample_rate must be >= 0: %g", f.SampleRate)
	}
	if f.SampleRate > 0 {
		opts = append(opts, fvdm.WithSampleRate(f.SampleRate))
	}
	if f.Dispersion != "" {
		d, err := timestats.ParseDispersion(f.Dispersion)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fvdm.WithDispersion(d))
	}

	dec := f.Decomposition
	if dec.Policy != "" {
		p, err := detrend.ParsePolicy(dec.Policy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fvdm.WithPolicy(p))
	}
	if dec.Spline != "" {
		s, err := emd.ParseSpline(dec.Spline)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fvdm.WithSpline(s))
	}
	if dec.NormalizeTrend != nil {
		opts = append(opts, fvdm.WithTrendNormalization(*dec.NormalizeTrend))
	}

	st := f.Stability
	if st.Estimator != "" {
		e, err := fvdm.ParseEstimator(st.Estimator)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fvdm.WithEstimator(e))
	}
	if st.Fit != "" {
		fit, err := fractal.ParseFit(st.Fit)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fvdm.WithFit(fit))
	}
	if st.Trials < 0 {
		return nil, fmt.Errorf("trials must be >= 0: %d", st.Trials)
	}
	if st.Trials > 0 {
		opts = append(opts, fvdm.WithTrials(st.Trials))
	}
	if st.Seed != nil {
		opts = append(opts, fvdm.WithSeed(*st.Seed))
	}

	gate := f.Stationarity
	if gate.Enabled != nil {
		opts = append(opts, fvdm.WithStationarityGate(*gate.Enabled))
	}
	if gate.Significance != 0 {
		if gate.Significance <= 0 || gate.Significance >= 1 {
			return nil, fmt.Errorf("significance must be in (0, 1): %g", gate.Significance)
		}
		opts = append(opts, fvdm.WithSignificance(gate.Significance))
	}

	return opts, nil
}
