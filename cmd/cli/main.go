package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/tutorescrow/internal/adapter/http/middleware"
	"github.com/iho/tutorescrow/internal/infrastructure/logger"
	"github.com/iho/tutorescrow/internal/infrastructure/postgres"
)

// errInconsistent is returned when the reconciliation report flags drift.
var errInconsistent = errors.New("ledger is inconsistent")

type options struct {
	baseURL        string
	token          string
	userID         string
	databaseURL    string
	migrationsPath string
	timeout        time.Duration
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "tutorescrow-cli",
		Short:         "Tutor escrow admin CLI",
		Long:          `A command line interface for operating the tutor escrow service: schema migrations, ledger audits and dispute review.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the escrow API")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	flags.StringVar(&opts.token, "token", os.Getenv("TUTORESCROW_TOKEN"), "Bearer token of an admin user")
	flags.StringVar(&opts.userID, "user-id", "cli-admin", "Admin user ID sent when no token is set")

	rootCmd.AddCommand(newLedgerCmd(opts), newDisputesCmd(opts), newMigrateCmd(opts))

	return rootCmd
}

func newLedgerCmd(opts *options) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute wallet balances from history and check escrow conservation",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, status, err := newAPIClient(opts).get(cmd.Context(), "/api/v1/admin/ledger/reconciliation")
			if err != nil {
				return err
			}

			switch status {
			case http.StatusOK:
				fmt.Fprintln(cmd.OutOrStdout(), "Reconciliation PASSED")
				return printJSON(cmd.OutOrStdout(), body)
			case http.StatusConflict:
				fmt.Fprintln(cmd.OutOrStdout(), "Reconciliation FAILED")
				if err := printJSON(cmd.OutOrStdout(), body); err != nil {
					return err
				}
				return errInconsistent
			default:
				return unexpectedStatus(status, body)
			}
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show wallet and escrow totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint(cmd, opts, "/api/v1/admin/ledger/stats")
		},
	}

	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "List deposit and withdrawal requests awaiting review",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return getAndPrint(cmd, opts, "/api/v1/admin/transactions/pending?limit="+strconv.Itoa(limit))
		},
	}
	pendingCmd.Flags().Int("limit", 50, "Maximum number of requests")

	ledgerCmd.AddCommand(reconcileCmd, statsCmd, pendingCmd)

	return ledgerCmd
}

func newDisputesCmd(opts *options) *cobra.Command {
	disputesCmd := &cobra.Command{
		Use:   "disputes",
		Short: "Dispute operations",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List disputes",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, _ := cmd.Flags().GetStringSlice("status")
			path := "/api/v1/admin/disputes"
			if len(statuses) > 0 {
				path += "?status=" + strings.ToUpper(strings.Join(statuses, ","))
			}
			return getAndPrint(cmd, opts, path)
		},
	}
	listCmd.Flags().StringSlice("status", []string{"open", "under_review"}, "Dispute statuses to include")

	showCmd := &cobra.Command{
		Use:   "show <dispute-id>",
		Short: "Show a dispute",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint(cmd, opts, "/api/v1/admin/disputes/"+args[0])
		},
	}

	disputesCmd.AddCommand(listCmd, showCmd)

	return disputesCmd
}

func newMigrateCmd(opts *options) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}

	flags := migrateCmd.PersistentFlags()
	flags.StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	flags.StringVar(&opts.migrationsPath, "migrations", "migrations", "Directory holding migration files")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, err := newMigrator(cmd, opts)
			if err != nil {
				return err
			}
			return migrator.Up()
		},
	}

	downCmd := &cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid steps %q", args[0])
				}
				steps = n
			}

			migrator, err := newMigrator(cmd, opts)
			if err != nil {
				return err
			}
			return migrator.Down(steps)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, err := newMigrator(cmd, opts)
			if err != nil {
				return err
			}

			version, dirty, err := migrator.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %v\n", version, dirty)
			return nil
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, versionCmd)

	return migrateCmd
}

func newMigrator(cmd *cobra.Command, opts *options) (*postgres.Migrator, error) {
	if opts.databaseURL == "" {
		return nil, errors.New("--database-url or DATABASE_URL is required")
	}

	log := logger.NewWithWriter(logger.Config{Level: "info", Format: "console", Service: "tutorescrow-cli"}, cmd.ErrOrStderr())

	return postgres.NewMigrator(opts.databaseURL, opts.migrationsPath, log), nil
}

type apiClient struct {
	http    *http.Client
	baseURL string
	token   string
	userID  string
}

func newAPIClient(opts *options) *apiClient {
	return &apiClient{
		http:    &http.Client{Timeout: opts.timeout},
		baseURL: strings.TrimRight(opts.baseURL, "/"),
		token:   opts.token,
		userID:  opts.userID,
	}
}

func (c *apiClient) get(ctx context.Context, path string) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else {
		req.Header.Set(middleware.UserIDHeader, c.userID)
		req.Header.Set(middleware.UserRoleHeader, "admin")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

func getAndPrint(cmd *cobra.Command, opts *options, path string) error {
	body, status, err := newAPIClient(opts).get(cmd.Context(), path)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return unexpectedStatus(status, body)
	}

	return printJSON(cmd.OutOrStdout(), body)
}

func unexpectedStatus(status int, body []byte) error {
	return fmt.Errorf("unexpected status %d: %s", status, truncate(strings.TrimSpace(string(body)), 200))
}

// printJSON pretty-prints a JSON document, falling back to the raw bytes.
func printJSON(w io.Writer, body []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		_, err = fmt.Fprintln(w, string(body))
		return err
	}

	_, err := fmt.Fprintln(w, buf.String())
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
