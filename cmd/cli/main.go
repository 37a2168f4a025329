package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/gowallet/internal/adapter/gateway/paystack"
	postgresRepo "github.com/iho/gowallet/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gowallet/internal/adapter/repository/redis"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/auth"
	"github.com/iho/gowallet/internal/infrastructure/config"
	"github.com/iho/gowallet/internal/infrastructure/logger"
	"github.com/iho/gowallet/internal/infrastructure/postgres"
	"github.com/iho/gowallet/internal/infrastructure/redis"
	"github.com/iho/gowallet/internal/infrastructure/scheduler"
	"github.com/iho/gowallet/internal/usecase"
)

const tokenEnv = "WALLET_TOKEN"

// globals are the persistent flags shared by every HTTP command.
type globals struct {
	baseURL string
	token   string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:           "wallet-cli",
		Short:         "Wallet service CLI tool",
		Long:          `A command line interface for operating the wallet service and its database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.baseURL, "url", "http://localhost:8080", "Base URL of the wallet API")
	rootCmd.PersistentFlags().StringVar(&g.token, "token", os.Getenv(tokenEnv), "Bearer token (defaults to $"+tokenEnv+")")
	rootCmd.PersistentFlags().DurationVar(&g.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		migrateCmd(),
		sweepCmd(),
		auditCmd(openAuditRepository),
		tokenCmd(),
		signWebhookCmd(),
		walletCmd(g),
		depositCmd(g),
		ledgerCmd(g),
	)

	return rootCmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				return postgres.RunMigrations(cfg.DatabaseURL, cliLogger(cfg))
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				return postgres.RunMigrationsDown(cfg.DatabaseURL, cliLogger(cfg))
			},
		},
	)

	return cmd
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one reconciliation sweep and print its report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			report, err := runSweep(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}

func runSweep(ctx context.Context, cfg *config.Config) (*usecase.SweepReport, error) {
	log := cliLogger(cfg)

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{DatabaseURL: cfg.DatabaseURL, MaxConns: 2})
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	defer redisClient.Close()

	txManager := postgresRepo.NewTxManager(pool)
	txnRepo := postgresRepo.NewTransactionRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	gateway := paystack.NewClient(paystack.Config{
		SecretKey: cfg.PaystackSecretKey,
		BaseURL:   cfg.PaystackBaseURL,
		Timeout:   cfg.PaystackTimeout,
	}, nil, log)

	settler := usecase.NewSettlementUseCase(
		txManager,
		postgresRepo.NewWalletRepository(pool),
		txnRepo,
		outboxRepo,
		postgresRepo.NewAuditRepository(pool),
		idGen,
		postgresRepo.NewRetrier(log),
		nil,
		log,
	)

	sweeper := usecase.NewSweeperUseCase(txManager, txnRepo, outboxRepo, gateway, settler, idGen, usecase.SweeperConfig{
		ExpireAfter: cfg.SweepExpireAfter,
		VerifyAfter: cfg.SweepVerifyAfter,
		BatchSize:   cfg.SweepBatchSize,
		ItemTimeout: cfg.SweepItemTimeout,
	}, nil, log)

	sched := scheduler.New(sweeper, redisRepo.NewLocker(redisClient), scheduler.Config{LockTTL: cfg.SweepLockTTL}, log)
	return sched.RunOnce(ctx)
}

// auditOpener returns an audit reader and a function that releases it.
type auditOpener func(ctx context.Context, cfg *config.Config) (usecase.AuditRepository, func(), error)

func openAuditRepository(ctx context.Context, cfg *config.Config) (usecase.AuditRepository, func(), error) {
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{DatabaseURL: cfg.DatabaseURL, MaxConns: 1})
	if err != nil {
		return nil, nil, err
	}
	return postgresRepo.NewAuditRepository(pool), pool.Close, nil
}

// auditEntry is the printed form of an audit log.
type auditEntry struct {
	ID           string      `json:"id"`
	CreatedAt    time.Time   `json:"created_at"`
	Action       string      `json:"action"`
	Status       string      `json:"status"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id"`
	UserID       string      `json:"user_id"`
	RequestID    string      `json:"request_id,omitempty"`
	Error        string      `json:"error,omitempty"`
	Before       domain.JSON `json:"before,omitempty"`
	After        domain.JSON `json:"after,omitempty"`
}

func auditCmd(open auditOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit trail queries",
	}

	var filter domain.AuditFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List audit entries, newest first",
		Long: `Reads the audit trail straight from the database. Blocked late payments are
recorded with action ` + string(domain.AuditActionDepositLateSuccess) + `.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			repo, closeRepo, err := open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeRepo()

			logs, err := usecase.NewAuditUseCase(repo).List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			entries := make([]auditEntry, 0, len(logs))
			for _, l := range logs {
				entries = append(entries, auditEntry{
					ID:           l.ID,
					CreatedAt:    l.CreatedAt,
					Action:       l.Action,
					Status:       l.Status,
					ResourceType: l.ResourceType,
					ResourceID:   l.ResourceID,
					UserID:       l.UserID,
					RequestID:    l.RequestID,
					Error:        l.ErrorMessage,
					Before:       l.BeforeState,
					After:        l.AfterState,
				})
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}

	list.Flags().StringVar(&filter.Action, "action", "", "Filter by action, e.g. "+string(domain.AuditActionDepositLateSuccess))
	list.Flags().StringVar(&filter.ResourceID, "reference", "", "Filter by transaction reference")
	list.Flags().StringVar(&filter.UserID, "user", "", "Filter by user id")
	list.Flags().IntVar(&filter.Limit, "limit", usecase.DefaultAuditLimit, "Maximum entries to print")
	list.Flags().IntVar(&filter.Offset, "offset", 0, "Entries to skip")

	cmd.AddCommand(list)

	return cmd
}

func tokenCmd() *cobra.Command {
	var email string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a bearer token signed with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			token, err := auth.NewJWTManager(secret, ttl).Generate(&domain.User{ID: args[0], Email: email})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")

	return cmd
}

func signWebhookCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "sign-webhook",
		Short: "Print the " + paystack.SignatureHeader + " value for a payload",
		Long:  `Reads a webhook body from --file or stdin and signs it with PAYSTACK_SECRET_KEY.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("PAYSTACK_SECRET_KEY")
			if secret == "" {
				return fmt.Errorf("PAYSTACK_SECRET_KEY is not set")
			}

			var payload []byte
			var err error
			if file != "" {
				payload, err = os.ReadFile(file)
			} else {
				payload, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), paystack.Sign(secret, payload))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Payload file (default stdin)")

	return cmd
}

func walletCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Wallet queries",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "balance",
			Short: "Show the caller's wallet balance",
			RunE: func(cmd *cobra.Command, args []string) error {
				return g.getAndPrint(cmd, "/api/v1/wallet/balance")
			},
		},
		&cobra.Command{
			Use:   "details",
			Short: "Show the caller's wallet details",
			RunE: func(cmd *cobra.Command, args []string) error {
				return g.getAndPrint(cmd, "/api/v1/wallet/details")
			},
		},
	)

	return cmd
}

func depositCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Deposit queries",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status <reference>",
		Short: "Show a deposit's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.getAndPrint(cmd, "/api/v1/wallet/deposit/"+url.PathEscape(args[0])+"/status")
		},
	})

	return cmd
}

func ledgerCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, status, err := g.get(cmd.Context(), "/api/v1/ledger/consistency")
			if err != nil {
				return err
			}

			var result struct {
				Status        string `json:"status"`
				Consistent    bool   `json:"consistent"`
				TotalBalance  string `json:"total_balance"`
				TotalDeposits string `json:"total_deposits"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("consistency check failed (status %d): %s", status, truncate(string(body), 200))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Balances: %s\nDeposits: %s\n", result.TotalBalance, result.TotalDeposits)
			if status != http.StatusOK || !result.Consistent {
				return fmt.Errorf("ledger is %s", result.Status)
			}
			fmt.Fprintln(out, "Consistency check PASSED")
			return nil
		},
	})

	return cmd
}

func (g *globals) get(ctx context.Context, path string) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(g.baseURL, "/")+path, nil)
	if err != nil {
		return nil, 0, err
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := http.DefaultClient.Do(req)
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

func (g *globals) getAndPrint(cmd *cobra.Command, path string) error {
	body, status, err := g.get(cmd.Context(), path)
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return fmt.Errorf("request failed (status %d): %s", status, truncate(strings.TrimSpace(string(body)), 200))
	}

	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(cmd.OutOrStdout())
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func cliLogger(cfg *config.Config) zerolog.Logger {
	return logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Format: "console", Service: "wallet-cli"}, os.Stderr)
}
