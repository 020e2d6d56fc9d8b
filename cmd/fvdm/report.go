package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-fvdm/measure/fractal"
	"github.com/cwbudde/algo-fvdm/measure/fvdm"
)

type estimate struct {
	Method   string  `yaml:"method"`
	Value    float64 `yaml:"value"`
	RSquared float64 `yaml:"r2"`
	Valid    bool    `yaml:"valid"`
	Reason   string  `yaml:"reason,omitempty"`
}

func newEstimate(e fractal.Estimate) estimate {
	return estimate{
		Method:   e.Method.String(),
		Value:    e.Value,
		RSquared: e.RSquared,
		Valid:    e.Valid,
		Reason:   string(e.Reason),
	}
}

type record struct {
	Source                 string    `yaml:"source"`
	Stability              estimate  `yaml:"stability"`
	SecondaryStability     *estimate `yaml:"secondary_stability,omitempty"`
	Stationary             *bool     `yaml:"stationary,omitempty"`
	AdditiveVariance       float64   `yaml:"additive_variance"`
	MultiplicativeVariance float64   `yaml:"multiplicative_variance"`
	Samples                int       `yaml:"samples"`
	Modes                  int       `yaml:"modes"`
}

func newRecord(source string, res fvdm.Result) record {
	r := record{
		Source:                 source,
		Stability:              newEstimate(res.Stability),
		AdditiveVariance:       res.AdditiveVariance,
		MultiplicativeVariance: res.MultiplicativeVariance,
		Samples:                res.Samples,
		Modes:                  res.Modes,
	}
	if res.SecondaryStability != nil {
		e := newEstimate(*res.SecondaryStability)
		r.SecondaryStability = &e
	}
	if res.Stationarity != nil {
		s := res.Stationarity.Stationary
		r.Stationary = &s
	}
	return r
}

func writeReport(w io.Writer, format string, records []record) error {
	switch format {
	case "", "text":
		return writeText(w, records)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeText(w io.Writer, records []record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Source\tMethod\tStability\tR2\tValid\tAdditive\tMultiplicative\tSamples\tModes\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "------\t------\t---------\t--\t-----\t--------\t--------------\t-------\t-----\n"); err != nil {
		return err
	}

	for _, r := range records {
		rows := []estimate{r.Stability}
		if r.SecondaryStability != nil {
			rows = append(rows, *r.SecondaryStability)
		}
		for i, e := range rows {
			source := r.Source
			if i > 0 {
				source = ""
			}
			valid := fmt.Sprint(e.Valid)
			if e.Reason != "" {
				valid = "false (" + e.Reason + ")"
			}
			if _, err := fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%s\t%.6f\t%.4f\t%d\t%d\n",
				source,
				e.Method,
				e.Value,
				e.RSquared,
				valid,
				r.AdditiveVariance,
				r.MultiplicativeVariance,
				r.Samples,
				r.Modes,
			); err != nil {
				return err
			}
		}
	}
	return tw.Flush()
}
