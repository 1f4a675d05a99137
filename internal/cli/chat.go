package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"seocoach-backend/internal/services"

	"github.com/spf13/cobra"
)

func newChatCmd(r *runner) *cobra.Command {
	var (
		sessionID string
		identity  string
		topK      int
		topic     string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start or resume an interactive session",
		Long: `Read questions from stdin and answer each from the knowledge base.

An empty line is ignored; "exit" or "quit" ends the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if sessionID == "" {
				sessionID = services.NewSessionID()
			}
			fmt.Fprintln(out, headerStyle.Render("Session "+sessionID))

			transcript, err := r.app.Chat.Transcript(ctx, sessionID, identity, 0)
			if err != nil {
				return err
			}
			for _, m := range transcript {
				printMessage(out, m)
			}

			req := services.TurnRequest{SessionID: sessionID, Identity: identity}
			if cmd.Flags().Changed("top-k") {
				req.TopK = &topK
			}
			if cmd.Flags().Changed("topic") {
				req.Topic = &topic
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for {
				fmt.Fprint(out, userStyle.Render("you> "))
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "exit" || line == "quit" {
					return nil
				}

				req.Question = line
				res, err := r.app.Chat.Turn(ctx, req)
				if errors.Is(err, services.ErrEmptyQuestion) {
					continue
				}
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "%s %s\n", assistantStyle.Render("coach>"), res.Reply)
				if res.CitationLine != "" {
					fmt.Fprintln(out, sourcesStyle.Render(res.CitationLine))
				}
			}
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session id to resume (default: new session)")
	cmd.Flags().StringVar(&identity, "identity", "", "User identity history is scoped by, e.g. an email")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 5, "Documents retrieved per question")
	cmd.Flags().StringVar(&topic, "topic", "SEO", `Topic filter ("" disables)`)
	return cmd
}

func newHistoryCmd(r *runner) *cobra.Command {
	var (
		identity string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "history <session-id>",
		Short: "Print the transcript of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msgs, err := r.app.Chat.Transcript(cmd.Context(), args[0], identity, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(msgs) == 0 {
				fmt.Fprintln(out, "No messages found.")
				return nil
			}
			for _, m := range msgs {
				printMessage(out, m)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&identity, "identity", "", "User identity the session belongs to")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Most recent messages to show (default: display history size)")
	return cmd
}
