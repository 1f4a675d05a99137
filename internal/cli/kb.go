package cli

import (
	"fmt"
	"os"
	"strings"

	"seocoach-backend/internal/services"

	"github.com/spf13/cobra"
)

func newSearchCmd(r *runner) *cobra.Command {
	var (
		k     int
		topic string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Show the documents retrieved for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var kp *int
			var tp *string
			if cmd.Flags().Changed("top-k") {
				kp = &k
			}
			if cmd.Flags().Changed("topic") {
				tp = &topic
			}

			hits, err := r.app.KB.Search(cmd.Context(), strings.Join(args, " "), kp, tp)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(hits) == 0 {
				fmt.Fprintln(out, "No documents found.")
				return nil
			}
			for i, h := range hits {
				printHit(out, i+1, h)
			}
			fmt.Fprintln(out, sourcesStyle.Render(services.CitationLine(hits)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "top-k", "k", 5, "Maximum number of documents")
	cmd.Flags().StringVar(&topic, "topic", "SEO", `Topic filter ("" disables)`)
	return cmd
}

func newSeedCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load knowledge-base documents from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			docs, err := services.ParseDocuments(f)
			if err != nil {
				return err
			}
			n, err := r.app.KB.Ingest(cmd.Context(), docs)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render(fmt.Sprintf("Seeded %d documents", n)))
			return nil
		},
	}
}
