package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ent0n29/contactcenter/internal/app"
	"github.com/ent0n29/contactcenter/internal/orchestrator"
)

type transcriptStyles struct {
	Customer  lipgloss.Style
	Assistant lipgloss.Style
	Meta      lipgloss.Style
	Error     lipgloss.Style
}

func newTranscriptStyles() transcriptStyles {
	return transcriptStyles{
		Customer:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		Meta:      lipgloss.NewStyle().Faint(true),
		Error:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
}

func newChatCmd(c *cli) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: "Send messages through the supervisor and print the transcript",
		Long: `Each argument is sent as one customer turn of a single session.
Without arguments, every non-empty line of stdin is a turn.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			built, err := app.Build(c.cfg, c.logger)
			if err != nil {
				return err
			}
			if sessionID == "" {
				sessionID = "cli-" + uuid.NewString()
			}
			messages := args
			if len(messages) == 0 {
				messages, err = readTurns(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}
			return runChat(cmd.Context(), built.Supervisor, sessionID, messages, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (random when empty)")
	return cmd
}

func readTurns(r io.Reader) ([]string, error) {
	var turns []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			turns = append(turns, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return turns, nil
}

func runChat(ctx context.Context, sup *orchestrator.Supervisor, sessionID string, messages []string, out io.Writer) error {
	styles := newTranscriptStyles()
	fmt.Fprintln(out, styles.Meta.Render("session "+sessionID))
	for _, msg := range messages {
		resp := sup.ProcessMessage(ctx, sessionID, msg)
		fmt.Fprintf(out, "%s %s\n", styles.Customer.Render("customer>"), msg)
		label := styles.Assistant.Render("assistant>")
		if resp.Metadata.Error {
			label = styles.Error.Render("assistant>")
		}
		fmt.Fprintf(out, "%s %s\n", label, resp.Message)
		fmt.Fprintln(out, styles.Meta.Render(fmt.Sprintf("  [%s · intent=%s · sentiment=%s · %dms]",
			resp.Metadata.Path,
			resp.Metadata.Intent,
			resp.Metadata.Sentiment.Sentiment,
			resp.Metadata.ProcessingTime,
		)))
	}
	return nil
}
