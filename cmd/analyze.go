package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/decktube/internal/domain/composition"
	"github.com/okian/decktube/internal/domain/model"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze CARD...",
		Short: "Classify a deck given by card names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			svc, deck, err := startWithDeck(cmd.Context(), cfg, args)
			if err != nil {
				return err
			}
			defer svc.Stop()

			res := composition.Analyze(deck)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			_, err = fmt.Fprint(out, renderComposition(deck, res))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the analysis as JSON")
	return cmd
}

func renderComposition(deck model.Deck, res composition.Result) string {
	t := newTable(fmt.Sprintf("%s deck, %.1f average elixir", res.Archetype, res.AverageElixir), "CARD", "ELIXIR")
	for _, c := range deck {
		t.add(c.Name, strconv.FormatFloat(c.ElixirCost, 'f', -1, 64))
	}
	var sb strings.Builder
	sb.WriteString(t.String())
	fmt.Fprintf(&sb, "troops %d, spells %d, buildings %d, win conditions %d, support %d\n",
		res.TroopCount, res.SpellCount, res.BuildingCount, res.WinConditionCount, res.SupportCount)
	for _, c := range res.Counters {
		sb.WriteString("- " + c + "\n")
	}
	return sb.String()
}
