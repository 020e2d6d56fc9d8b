// Command fvdm prints filtered vowel distortion measures of WAV recordings.
//
// Usage:
//
//	fvdm [flags] file.wav ...
//
// Examples:
//
//	fvdm vowel.wav
//	fvdm --start-ms 120 --end-ms 620 --estimator both vowel.wav
//	fvdm --config fvdm.yaml --format yaml a.wav b.wav
//	fvdm --synth pink --duration-ms 500
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fvdm/dsp/core"
	"github.com/cwbudde/algo-fvdm/dsp/detrend"
	"github.com/cwbudde/algo-fvdm/dsp/signal"
	"github.com/cwbudde/algo-fvdm/internal/config"
	"github.com/cwbudde/algo-fvdm/measure/fractal"
	"github.com/cwbudde/algo-fvdm/measure/fvdm"
)

// CLI defines the command-line interface. Zero-valued pipeline flags leave
// the configuration file (or the defaults) in effect.
type CLI struct {
	Files  []string `arg:"" name:"files" help:"WAV files to analyse" type:"existingfile" optional:""`
	Config string   `short:"c" type:"existingfile" help:"YAML pipeline configuration"`

	StartMs float64 `name:"start-ms" help:"Vowel segment start in ms"`
	EndMs   float64 `name:"end-ms" help:"Vowel segment end in ms (0 = end of signal)"`

	Policy    string `help:"Mode assembly policy (A or B)"`
	Estimator string `help:"Stability estimator (dfa, rs, both)"`
	Fit       string `help:"Log-log line fit (poly, ransac)"`
	Gate      bool   `help:"Run the stationarity gate before estimation"`
	Trials    int    `help:"Estimation trials (0 = configured)"`
	Seed      int64  `help:"Base seed of the estimation trials (0 = configured)"`

	Synth      string  `help:"Analyse a generated signal instead of files (pink, white)"`
	DurationMs float64 `name:"duration-ms" default:"500" help:"Generated signal duration in ms"`
	SampleRate float64 `name:"sample-rate" default:"44100" help:"Generated signal sample rate in Hz"`

	Format   string `enum:"text,yaml" default:"text" help:"Output format (text, yaml)"`
	LogLevel string `name:"log-level" help:"Log level (default warn)"`
}

func main() {
	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("fvdm"),
		kong.Description("Filtered vowel distortion measures of sustained vowels"),
		kong.UsageOnError(),
	)

	if len(cli.Files) == 0 && cli.Synth == "" {
		fmt.Fprintln(os.Stderr, "error: no input files specified")
		_ = kctx.PrintUsage(false)
		os.Exit(1)
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if err := run(ctx, cli, os.Stdout, log); err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}

// run analyses every source and writes the report to w. A failing file is
// logged and skipped; run then returns an error after the report is written.
func run(ctx context.Context, cli *CLI, w io.Writer, log *logrus.Logger) error {
	file := &config.File{}
	if cli.Config != "" {
		var err error
		if file, err = config.Load(cli.Config); err != nil {
			return err
		}
	}

	level := "warn"
	if file.LogLevel != "" {
		level = file.LogLevel
	}
	if cli.LogLevel != "" {
		level = cli.LogLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)

	opts, err := file.Options()
	if err != nil {
		return err
	}
	flagOpts, err := cli.options()
	if err != nil {
		return err
	}
	opts = append(opts, flagOpts...)
	opts = append(opts, fvdm.WithLogger(log))
	ex := fvdm.New(opts...)

	var (
		records []record
		failed  int
	)
	for _, src := range cli.sources() {
		entry := log.WithField("source", src.name)

		sig, err := src.load()
		if err != nil {
			entry.WithError(err).Error("load failed")
			failed++
			continue
		}

		res, err := ex.Extract(ctx, sig, cli.segment(sig))
		if errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			entry.WithError(err).Error("extraction failed")
			failed++
			continue
		}
		entry.WithField("valid", res.Stability.Valid).Info("extracted")
		records = append(records, newRecord(src.name, res))
	}

	if err := writeReport(w, cli.Format, records); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, failed+len(records))
	}
	return nil
}

func (c *CLI) options() ([]fvdm.Option, error) {
	var opts []fvdm.Option
	if c.Policy != "" {
		p, err := detrend.ParsePolicy(c.Policy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fvdm.WithPolicy(p))
	}
	if c.Estimator != "" {
		e, err := fvdm.ParseEstimator(c.Estimator)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fvdm.WithEstimator(e))
	}
	if c.Fit != "" {
		f, err := fractal.ParseFit(c.Fit)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fvdm.WithFit(f))
	}
	if c.Gate {
		opts = append(opts, fvdm.WithStationarityGate(true))
	}
	if c.Trials > 0 {
		opts = append(opts, fvdm.WithTrials(c.Trials))
	}
	if c.Seed != 0 {
		opts = append(opts, fvdm.WithSeed(c.Seed))
	}
	return opts, nil
}

// segment returns the requested vowel range, nil for the whole signal.
func (c *CLI) segment(sig core.Signal) *fvdm.Segment {
	if c.StartMs == 0 && c.EndMs == 0 {
		return nil
	}
	end := c.EndMs
	if end == 0 {
		end = sig.DurationMs()
	}
	return &fvdm.Segment{StartMs: c.StartMs, EndMs: end}
}

type source struct {
	name string
	load func() (core.Signal, error)
}

func (c *CLI) sources() []source {
	if c.Synth != "" {
		return []source{{
			name: "synth:" + c.Synth,
			load: func() (core.Signal, error) { return synthesize(c.Synth, c.DurationMs, c.SampleRate) },
		}}
	}

	out := make([]source, len(c.Files))
	for i, path := range c.Files {
		out[i] = source{name: path, load: func() (core.Signal, error) { return readWAV(path) }}
	}
	return out
}

func synthesize(kind string, durationMs, sampleRate float64) (core.Signal, error) {
	if sampleRate <= 0 {
		return core.Signal{}, fmt.Errorf("sample rate must be > 0: %g", sampleRate)
	}
	g := signal.NewGenerator(core.WithSampleRate(sampleRate))
	n := g.Samples(durationMs)

	var (
		x   []float64
		err error
	)
	switch kind {
	case "pink":
		x, err = g.PinkNoise(0.5, n)
	case "white":
		x, err = g.WhiteNoise(0.5, n)
	default:
		return core.Signal{}, fmt.Errorf("unknown synthetic signal %q", kind)
	}
	if err != nil {
		return core.Signal{}, err
	}
	return g.Signal(x), nil
}
