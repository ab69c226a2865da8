package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	mw "github.com/Harshitk-cp/balancereports/internal/api/middleware"
	"github.com/Harshitk-cp/balancereports/internal/buildconfig"
	"github.com/Harshitk-cp/balancereports/internal/cache"
	"github.com/Harshitk-cp/balancereports/internal/config"
	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/Harshitk-cp/balancereports/internal/export"
	"github.com/Harshitk-cp/balancereports/internal/service"
	"github.com/Harshitk-cp/balancereports/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:           "reportctl",
		Short:         "Operate the balance reports service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(generateCmd(), invalidateCmd(), seedCmd(), tokenCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func connect(ctx context.Context) (*pgxpool.Pool, error) {
	dbURL := config.DatabaseURL()
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <profit-loss|balance-sheet|cash-flow>",
		Short: "Generate a report for one tenant and write it in the chosen format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := domain.ParseReportType(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			tenantID, _ := flags.GetString("tenant")
			format, _ := flags.GetString("format")
			out, _ := flags.GetString("out")
			user, _ := flags.GetString("user")

			tc, err := domain.ResolveTenant(tenantID)
			if err != nil {
				return err
			}
			req, err := requestFromFlags(cmd, t)
			if err != nil {
				return err
			}
			renderer, err := export.For(format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger, _ := zap.NewProduction()
			defer func() { _ = logger.Sync() }()

			audit := service.NewAuditService(store.NewAuditStore(pool), logger, config.AuditWriteTimeout())
			defer audit.Wait()
			reports := service.NewReportService(
				store.NewSessionProvider(pool),
				store.NewLedgerStore(),
				store.NewDepartmentStore(),
				cache.New(cache.NewMemoryStore(), time.Minute, logger),
				audit,
				logger,
				service.ReportOptions{Timeout: config.ReportTimeout(), SlowThreshold: config.ReportSlowThreshold()},
			)

			caller := domain.Caller{UserID: user, Role: "operator", RequestID: uuid.NewString()}
			report, _, err := reports.Generate(ctx, tc, caller, req)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return renderer.Render(w, report)
		},
	}
	f := cmd.Flags()
	f.String("tenant", "", "Tenant identifier (tenant_<name>)")
	f.String("start", "", "Start date (YYYY-MM-DD) for profit-loss and cash-flow")
	f.String("end", "", "End date (YYYY-MM-DD) for profit-loss and cash-flow")
	f.String("as-of", "", "As-of date (YYYY-MM-DD) for balance-sheet")
	f.String("department", "", "Department UUID")
	f.Bool("compare", false, "Include a comparison period")
	f.String("comparison-type", "", "previous-period, year-over-year or explicit-date")
	f.String("comparison-date", "", "Comparison date (YYYY-MM-DD) for explicit-date")
	f.String("format", "json", "Output format: json, csv, excel or pdf")
	f.String("out", "", "Write to this file instead of stdout")
	f.String("user", "reportctl", "User id recorded in the audit log")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func requestFromFlags(cmd *cobra.Command, t domain.ReportType) (domain.ReportRequest, error) {
	flags := cmd.Flags()
	date := func(name string) (*time.Time, error) {
		s, _ := flags.GetString(name)
		if s == "" {
			return nil, nil
		}
		d, err := time.ParseInLocation(domain.DateLayout, s, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: --%s must be YYYY-MM-DD", domain.ErrValidation, name)
		}
		return &d, nil
	}

	var dept *uuid.UUID
	if s, _ := flags.GetString("department"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return domain.ReportRequest{}, fmt.Errorf("%w: --department must be a UUID", domain.ErrValidation)
		}
		dept = &id
	}

	req := domain.ReportRequest{Type: t}
	if t.IsRange() {
		start, err := date("start")
		if err != nil {
			return req, err
		}
		end, err := date("end")
		if err != nil {
			return req, err
		}
		if start == nil || end == nil {
			return req, fmt.Errorf("%w: --start and --end are required", domain.ErrMissingDate)
		}
		req.Window = domain.NewRange(*start, *end, dept)
	} else {
		asOf, err := date("as-of")
		if err != nil {
			return req, err
		}
		if asOf == nil {
			return req, fmt.Errorf("%w: --as-of is required", domain.ErrMissingDate)
		}
		req.Window = domain.NewAsOf(*asOf, dept)
	}

	if compare, _ := flags.GetBool("compare"); compare {
		cmpDate, err := date("comparison-date")
		if err != nil {
			return req, err
		}
		ct, _ := flags.GetString("comparison-type")
		typ := domain.ComparisonType(ct)
		if typ == "" {
			typ = domain.DefaultComparisonType(t, cmpDate)
		}
		req.Comparison = &domain.ComparisonRequest{Type: typ, Date: cmpDate}
	}
	return req, req.Validate()
}

func invalidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Drop cached reports for a tenant on every running instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, _ := cmd.Flags().GetString("tenant")
			tc, err := domain.ResolveTenant(tenantID)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := store.NotifyLedgerChange(ctx, pool, config.LedgerNotifyChannel(), tc.TenantID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "notified %s for %s\n", config.LedgerNotifyChannel(), tc.TenantID)

			// The shared tier is cleared directly in case no instance is listening.
			if addr := config.RedisAddr(); addr != "" {
				rdb := redis.NewClient(&redis.Options{Addr: addr, Password: config.RedisPassword(), DB: config.RedisDB()})
				defer rdb.Close()
				n, err := cache.NewRedisStore(rdb).InvalidateTenant(ctx, tc.TenantID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d redis entries\n", n)
			}
			return nil
		},
	}
	cmd.Flags().String("tenant", "", "Tenant identifier (tenant_<name>)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a tenant schema and fill it with a demo ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, _ := cmd.Flags().GetString("tenant")
			tc, err := domain.ResolveTenant(tenantID)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := store.EnsureAuditTable(ctx, pool); err != nil {
				return err
			}
			n, err := store.SeedDemoLedger(ctx, pool, tc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d ledger rows into %s\n", n, tc.SchemaName)
			return nil
		},
	}
	cmd.Flags().String("tenant", "", "Tenant identifier (tenant_<name>)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			tenantID, _ := flags.GetString("tenant")
			user, _ := flags.GetString("user")
			role, _ := flags.GetString("role")
			ttl, _ := flags.GetDuration("ttl")

			if _, err := domain.ResolveTenant(tenantID); err != nil {
				return err
			}
			secret := config.JWTSecret()
			if secret == "" {
				return fmt.Errorf("JWT_SECRET is required")
			}

			now := time.Now()
			tok, err := mw.SignToken(secret, mw.Claims{
				TenantID: tenantID,
				Role:     role,
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   user,
					IssuedAt:  jwt.NewNumericDate(now),
					ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
				},
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	f := cmd.Flags()
	f.String("tenant", "", "Tenant identifier (tenant_<name>)")
	f.String("user", "", "User id (sub claim)")
	f.String("role", "accountant", "Role claim")
	f.Duration("ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildconfig.Get())
		},
	}
}
