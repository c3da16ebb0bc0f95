package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"finmind/internal/core"
	flog "finmind/internal/log"
	"finmind/internal/sentiment"
	"finmind/internal/services"
)

func newQuoteCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "quote [symbol...]",
		Short: "Show market sentiment for symbols, or the whole catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(cmd, flog.ComponentSentiment)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			svc := services.NewSentimentService(catalog, nil, logger.Logger)

			var details []sentiment.Detail
			if len(args) == 0 {
				for _, r := range svc.List() {
					details = append(details, sentiment.Describe(r))
				}
			}
			for _, sym := range args {
				d, err := svc.Lookup(cmd.Context(), "", sym)
				if err != nil {
					return err
				}
				details = append(details, d)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(details)
			}
			return writeQuotes(cmd.OutOrStdout(), details)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print full details, including chart series, as JSON")

	return cmd
}

func writeQuotes(out io.Writer, details []sentiment.Detail) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tNAME\tPRICE\tCHANGE\tSENTIMENT\tSCORE")
	for _, d := range details {
		r := d.Record
		change := r.ChangePercent.StringFixed(1) + "%"
		if r.ChangePercent.IsPositive() {
			change = "+" + change
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Symbol, r.Name, core.FormatDollars(r.Price), change, d.Label, r.SentimentScore.StringFixed(2))
	}
	return tw.Flush()
}
