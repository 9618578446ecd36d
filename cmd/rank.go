package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	app "github.com/okian/decktube/internal/app"
	"github.com/okian/decktube/internal/config"
	"github.com/okian/decktube/internal/domain/model"
	"github.com/okian/decktube/internal/domain/ranking"
)

const titleWidth = 60

func newRankCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "rank CARD...",
		Short: "Rank YouTube videos for a deck given by card names",
		Example: `  decktube rank "Hog Rider" "Ice Spirit" Skeletons "The Log" Fireball Musketeer "Ice Golem" Cannon
  decktube rank "Hog Rider,Ice Spirit,Skeletons,The Log,Fireball,Musketeer,Ice Golem,Cannon" --json`,
		Args: cobra.MinimumNArgs(1),
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

			res, err := svc.RankVideos(cmd.Context(), deck)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			_, err = fmt.Fprint(out, renderRanking(deck, res))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the ranking as JSON")
	return cmd
}

// startWithDeck starts a service without saved items and resolves card names.
func startWithDeck(ctx context.Context, cfg *config.Config, args []string) (*app.Service, model.Deck, error) {
	cfg.Storage.Path = ""
	svc := app.New(app.WithConfig(cfg))
	if err := svc.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("start service: %w", err)
	}
	cat, err := svc.Catalog(ctx)
	if err != nil {
		svc.Stop()
		return nil, nil, fmt.Errorf("load card catalog: %w", err)
	}
	deck, err := cat.ResolveNames(cardNames(args))
	if err != nil {
		svc.Stop()
		return nil, nil, err
	}
	if err := deck.Validate(); err != nil {
		svc.Stop()
		return nil, nil, err
	}
	return svc, deck, nil
}

// cardNames accepts names as separate arguments, comma separated, or both.
func cardNames(args []string) []string {
	var names []string
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if name := strings.TrimSpace(part); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

func renderRanking(deck model.Deck, res ranking.Result) string {
	if res.NoMatch {
		return res.Message + "\n"
	}
	t := newTable(
		fmt.Sprintf("%d videos for %s (%.1f elixir)", len(res.Videos), strings.Join(deck.BareNames(3), ", ")+"...", deck.AverageElixir()),
		"#", "CARDS", "SCORE", "LENGTH", "CHANNEL", "TITLE", "URL",
	)
	for i, sv := range res.Videos {
		t.add(
			strconv.Itoa(i+1),
			fmt.Sprintf("%d/%d", sv.CardsMatched, model.DeckSize),
			strconv.FormatFloat(sv.Score, 'f', -1, 64),
			orDash(sv.Video.Duration),
			sv.Video.ChannelTitle,
			truncate(sv.Video.Title, titleWidth),
			sv.Video.WatchURL(),
		)
	}
	return t.String() + fmt.Sprintf("%d strategies, %d candidates, %d transcripts in %s\n",
		res.Strategies, res.Candidates, res.Transcripts, res.Took.Round(time.Millisecond))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
