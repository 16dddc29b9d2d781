package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/owlite"
	"github.com/hupe1980/owlite/image"
)

func askCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask IMAGE SUBJECT PREDICATE OBJECT",
		Short: "Report whether a triple holds in an image",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			v, err := owlite.OpenImage(cmd.Context(), cfg.Logger(), args[0])
			if err != nil {
				return err
			}
			defer func() { _ = v.Close() }()

			fmt.Fprintln(cmd.OutOrStdout(), askImage(v, args[1], args[2], args[3]))
			return nil
		},
	}
}

// askImage scans the image for (s, p, o) given by name.
func askImage(v *image.View, s, p, o string) bool {
	ids := make(map[string]uint32, 3)
	for i := range v.NodeCount() {
		text, ok := v.NodeString(i)
		if !ok {
			continue
		}
		switch name := string(text); name {
		case s, p, o:
			rec, _ := v.Node(i)
			ids[name] = rec.ID
		}
	}

	sid, ok1 := ids[s]
	pid, ok2 := ids[p]
	oid, ok3 := ids[o]
	if !ok1 || !ok2 || !ok3 {
		return false
	}
	for _, t := range v.Triples() {
		if t.Subject == sid && t.Predicate == pid && t.Object == oid {
			return true
		}
	}
	return false
}
