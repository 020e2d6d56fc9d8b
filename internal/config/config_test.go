package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-fvdm/dsp/detrend"
	"github.com/cwbudde/algo-fvdm/dsp/emd"
	"github.com/cwbudde/algo-fvdm/measure/fractal"
	"github.com/cwbudde/algo-fvdm/measure/fvdm"
	timestats "github.com/cwbudde/algo-fvdm/stats/time"
)

const full = `
window:
  length_ms: 30
  shift_ms: 15
sample_rate: 16000
dispersion: var
decomposition:
  policy: b
  spline: akima
  normalize_trend: false
stability:
  estimator: both
  fit: ransac
  trials: 4
  seed: 0
stationarity:
  enabled: true
  significance: 0.01
log_level: debug
`

func TestDecodeOptions(t *testing.T) {
	f, err := Decode(strings.NewReader(full))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if f.LogLevel != "debug" {
		t.Fatalf("log level = %q", f.LogLevel)
	}

	opts, err := f.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	cfg := fvdm.ApplyOptions(opts...)

	want := fvdm.DefaultConfig()
	want.WindowMs, want.ShiftMs = 30, 15
	want.SampleRate = 16000
	want.Dispersion = timestats.Variance
	want.Policy = detrend.PolicyB
	want.Spline = emd.SplineAkima
	want.NormalizeTrend = false
	want.Estimator = fvdm.EstimatorBoth
	want.Fit = fractal.FitRANSAC
	want.Trials = 4
	want.Seed = 0
	want.Gate = true
	want.Significance = 0.01

	// Config carries func fields, so compare the settable fields.
	type settable struct {
		WindowMs, ShiftMs, SampleRate, Significance float64
		Dispersion                                  timestats.Dispersion
		Policy                                      detrend.Policy
		Spline                                      emd.Spline
		NormalizeTrend, Gate                        bool
		Estimator                                   fvdm.Estimator
		Fit                                         fractal.Fit
		Trials                                      int
		Seed                                        int64
	}
	view := func(c fvdm.Config) settable {
		return settable{
			c.WindowMs, c.ShiftMs, c.SampleRate, c.Significance, c.Dispersion, c.Policy,
			c.Spline, c.NormalizeTrend, c.Gate, c.Estimator, c.Fit, c.Trials, c.Seed,
		}
	}
	if got, exp := view(cfg), view(want); got != exp {
		t.Fatalf("config = %+v\nwant %+v", got, exp)
	}
}

func TestEmptyKeepsDefaults(t *testing.T) {
	for _, doc := range []string{"", "window: {}\n"} {
		f, err := Decode(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("Decode(%q) error = %v", doc, err)
		}
		opts, err := f.Options()
		if err != nil {
			t.Fatalf("Options() error = %v", err)
		}
		if len(opts) != 0 {
			t.Fatalf("Decode(%q) produced %d options", doc, len(opts))
		}
	}
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"policy", "decomposition:\n  policy: c\n"},
		{"spline", "decomposition:\n  spline: bezier\n"},
		{"estimator", "stability:\n  estimator: higuchi\n"},
		{"fit", "stability:\n  fit: huber\n"},
		{"dispersion", "dispersion: iqr\n"},
		{"trials", "stability:\n  trials: -1\n"},
		{"significance", "stationarity:\n  significance: 1.5\n"},
		{"window", "window:\n  length_ms: -25\n"},
		{"sample rate", "sample_rate: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Decode(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if _, err := f.Options(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecodeUnknownKey(t *testing.T) {
	if _, err := Decode(strings.NewReader("windows:\n  length_ms: 25\n")); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fvdm.yaml")
	if err := os.WriteFile(path, []byte(full), 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.Window.LengthMs != 30 || f.Stability.Seed == nil || *f.Stability.Seed != 0 {
		t.Fatalf("file = %+v", f)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
