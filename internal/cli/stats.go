package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/safespace-dev/safespace/internal/apiclient"
	"github.com/safespace-dev/safespace/internal/config"
	"github.com/safespace-dev/safespace/internal/domain"
	internal_errors "github.com/safespace-dev/safespace/internal/errors"
)

const tokenEnv = "SAFESPACE_TOKEN"

// statsSource is what the stats command needs from the API client.
type statsSource interface {
	FetchStats(ctx context.Context, cookies ...*http.Cookie) (domain.Stats, error)
	ListAllQuestions(ctx context.Context, cookies ...*http.Cookie) ([]domain.Question, error)
}

// StatsCmd returns the stats command
func StatsCmd() *cobra.Command {
	var (
		token       string
		listPending bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print question counts from the API",
		Long: `Print the total, pending and answered question counts.

A moderator session token is taken from --token or $SAFESPACE_TOKEN.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFolder, _ := cmd.Flags().GetString("config")
			cfg := config.MustLoad(configFolder)
			if token == "" {
				token = os.Getenv(tokenEnv)
			}

			client := apiclient.New(cfg.Public.ApiBaseURL, cfg.Public.ApiTimeout)
			var cookies []*http.Cookie
			if token != "" {
				cookies = append(cookies, apiclient.CookieFromToken(cfg.Public.SessionCookieName, token))
			}
			return printStats(cmd.Context(), cmd.OutOrStdout(), client, listPending, cookies...)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "moderator session token")
	cmd.Flags().BoolVar(&listPending, "pending", false, "also list pending questions")
	return cmd
}

func printStats(ctx context.Context, out io.Writer, src statsSource, listPending bool, cookies ...*http.Cookie) error {
	stats, err := src.FetchStats(ctx, cookies...)
	if err != nil {
		return errors.New(internal_errors.FriendlyMessage(err))
	}

	pending := color.New(color.FgGreen).Sprint(stats.Pending)
	if stats.Pending > 0 {
		pending = color.New(color.FgYellow, color.Bold).Sprint(stats.Pending)
	}
	fmt.Fprintf(out, "Total:    %d\n", stats.Total)
	fmt.Fprintf(out, "Pending:  %s\n", pending)
	fmt.Fprintf(out, "Answered: %s\n", color.New(color.FgGreen).Sprint(stats.Answered))

	if !listPending {
		return nil
	}

	questions, err := src.ListAllQuestions(ctx, cookies...)
	if err != nil {
		return errors.New(internal_errors.FriendlyMessage(err))
	}
	waiting, _ := domain.Partition(questions, 0)
	fmt.Fprintln(out)
	if len(waiting) == 0 {
		fmt.Fprintln(out, "No pending questions.")
		return nil
	}
	for _, q := range waiting {
		fmt.Fprintf(out, "%s  %s  %s\n",
			color.New(color.FgCyan).Sprint(q.Id),
			color.New(color.Faint).Sprintf("[%s]", q.Category),
			firstLine(q.Body, 80))
	}
	return nil
}

func firstLine(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " ..."
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-3]) + "..."
	}
	return s
}
