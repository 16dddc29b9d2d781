package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/owlite"
	"github.com/hupe1980/owlite/config"
	"github.com/hupe1980/owlite/reason"
)

func buildCmd(flags *globalFlags) *cobra.Command {
	var (
		output   string
		axioms   []string
		saturate int
		iterCap  int
	)

	cmd := &cobra.Command{
		Use:   "build [flags] TRIPLES.tsv...",
		Short: "Load triples, materialize and write an image",
		Long: `Reads tab-separated subject/predicate/object lines, declares the axioms from
the config file and from --axiom flags, materializes and writes the image.

Axiom flags have the form kind:property or kind:property=class:
  --axiom transitive:ex:ancestorOf
  --axiom domain:ex:worksFor=ex:Person`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if iterCap > 0 {
				cfg.Reasoner.MaxIterations = iterCap
			}
			for _, a := range axioms {
				ac, err := parseAxiomFlag(a)
				if err != nil {
					return err
				}
				cfg.Axioms = append(cfg.Axioms, ac)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			g, err := owlite.New(cfg.Options()...)
			if err != nil {
				return err
			}
			defer func() { _ = g.Close() }()

			for _, path := range args {
				n, err := loadTSVFile(g, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "loaded %d triples from %s\n", n, path)
			}

			if err := cfg.DeclareAxioms(g); err != nil {
				return err
			}

			ctx := cmd.Context()
			var rep *reason.Report
			if saturate > 0 {
				rep, err = g.Saturate(ctx, saturate)
			} else {
				rep, err = g.Materialize(ctx)
			}
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), g, rep)
			if err := rep.Err(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}

			layout, err := g.Save(ctx, output)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d triples, %d nodes, %d bytes\n",
				output, layout.TripleCount, layout.NodeCount, layout.Size)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "graph.owli", "Image path")
	cmd.Flags().StringArrayVar(&axioms, "axiom", nil, "Axiom kind:property[=class] (repeatable)")
	cmd.Flags().IntVar(&saturate, "saturate", 0, "Repeat passes until nothing changes, at most N rounds")
	cmd.Flags().IntVar(&iterCap, "max-iterations", 0, "Transitive closure iteration cap (overrides config)")
	return cmd
}

// parseAxiomFlag parses kind:property[=class].
func parseAxiomFlag(s string) (config.AxiomConfig, error) {
	kind, rest, ok := strings.Cut(s, ":")
	if !ok || rest == "" {
		return config.AxiomConfig{}, fmt.Errorf("axiom %q: want kind:property[=class]", s)
	}
	property, class, _ := strings.Cut(rest, "=")
	return config.AxiomConfig{Kind: kind, Property: property, Class: class}, nil
}

func loadTSVFile(g *owlite.Graph, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	return loadTSV(g, f)
}

// loadTSV adds one triple per "subject<TAB>predicate<TAB>object" line.
// Blank lines and lines starting with '#' are skipped.
func loadTSV(g *owlite.Graph, r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)

	added, line := 0, 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 3 {
			return added, fmt.Errorf("line %d: want 3 tab-separated fields, got %d", line, len(fields))
		}
		ok, err := g.AddStrings(fields[0], fields[1], fields[2])
		if err != nil {
			return added, fmt.Errorf("line %d: %w", line, err)
		}
		if ok {
			added++
		}
	}
	return added, sc.Err()
}
