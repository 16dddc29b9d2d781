package main

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/owlite"
	"github.com/hupe1980/owlite/image"
	"github.com/hupe1980/owlite/reason"
)

func printReport(w io.Writer, g *owlite.Graph, rep *reason.Report) {
	fmt.Fprintf(w, "materialized: %d added, %d retracted, %d violations, %d rounds in %s\n",
		rep.Added, rep.Retracted, len(rep.Violations), rep.Rounds, rep.Duration)

	capped := make([]uint32, 0, len(rep.CapReached))
	for p := range rep.CapReached {
		capped = append(capped, p)
	}
	slices.Sort(capped)
	for _, p := range capped {
		name, _ := g.Text(p)
		fmt.Fprintf(w, "  closure of %s stopped at the iteration cap\n", name)
	}
	for _, v := range rep.Violations {
		prop, _ := g.Text(v.Property)
		subj, _ := g.Text(v.Subject)
		kept, _ := g.Text(v.Kept)
		fmt.Fprintf(w, "  %s has %d values for functional %s, kept %s\n", subj, len(v.Conflicting)+1, prop, kept)
	}
}

func inspectCmd(flags *globalFlags) *cobra.Command {
	var (
		listTriples bool
		skipVerify  bool
	)

	cmd := &cobra.Command{
		Use:   "inspect IMAGE",
		Short: "Print image header and contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			v, err := owlite.OpenImage(cmd.Context(), cfg.Logger(), args[0], image.WithVerifyChecksum(!skipVerify))
			if err != nil {
				return err
			}
			defer func() { _ = v.Close() }()

			writeSummary(cmd.OutOrStdout(), v)
			if listTriples {
				return writeTriples(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&listTriples, "triples", false, "List every triple")
	cmd.Flags().BoolVar(&skipVerify, "no-verify", false, "Skip checksum verification")
	return cmd
}

func writeSummary(w io.Writer, v *image.View) {
	h := v.Header()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "version\t%d\n", h.Version)
	fmt.Fprintf(tw, "triples\t%d\n", h.TripleCount)
	fmt.Fprintf(tw, "nodes\t%d\n", h.NodeCount)
	fmt.Fprintf(tw, "inferred\t%t\n", h.Flags&image.HeaderFlagHasInferred != 0)
	fmt.Fprintf(tw, "size\t%d\n", len(v.Bytes()))
	fmt.Fprintf(tw, "checksum\t%#08x\n", h.Checksum)
	_ = tw.Flush()
}

func writeTriples(w io.Writer, v *image.View) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range v.Triples() {
		marker := ""
		if t.Inferred() {
			marker = "(inferred)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", nodeName(v, t.Subject), nodeName(v, t.Predicate), nodeName(v, t.Object), marker)
	}
	return tw.Flush()
}

func nodeName(v *image.View, id uint32) string {
	if text, ok := v.Text(id); ok {
		return string(text)
	}
	return fmt.Sprintf("_:%d", id)
}
