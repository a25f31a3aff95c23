package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/MrWong99/phonoshift/internal/config"
	"github.com/MrWong99/phonoshift/internal/dataset"
	"github.com/MrWong99/phonoshift/pkg/rules"
)

type trainOptions struct {
	format   string
	contrast bool
	explain  bool
}

// train learns a model from the file at path and writes one guess per word.
// Without words it prints the learned rules instead.
func train(w io.Writer, path string, words []string, opts trainOptions) error {
	format := opts.format
	if format == "" {
		format = string(config.FormatFromPath(path))
	}
	pairs, err := dataset.Load(path, format)
	if err != nil {
		return err
	}
	m, err := rules.Train(pairs, rules.WithContrastRefinement(opts.contrast))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	if len(words) == 0 {
		st := m.Stats()
		fmt.Fprintf(tw, "# %d pairs, %d specific rules, %d generalized rules\n",
			st.Pairs, st.SpecificRules, st.GeneralizedRules)
		for _, r := range m.SpecificRules() {
			fmt.Fprintf(tw, "specific\t%s\n", r)
		}
		for _, g := range m.GeneralizedRules() {
			fmt.Fprintf(tw, "generalized\t%s\n", g)
		}
		return nil
	}

	for _, word := range words {
		guess, decisions, err := m.Predict(word)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\n", word, guess)
		if !opts.explain {
			continue
		}
		for _, d := range decisions {
			rule := ""
			switch {
			case d.Specific != nil:
				rule = d.Specific.String()
			case d.Generalized != nil:
				rule = d.Generalized.String()
			}
			fmt.Fprintf(tw, "  %s -> %s\t%s\t%s\n", d.Target, d.Output, d.Source, rule)
		}
	}
	return nil
}
