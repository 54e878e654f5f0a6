package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/simaogato/portfolio-tracker/internal/adapter/repository/postgres"
	"github.com/simaogato/portfolio-tracker/internal/adapter/view"
	"github.com/simaogato/portfolio-tracker/internal/app"
	"github.com/simaogato/portfolio-tracker/internal/config"
	"github.com/simaogato/portfolio-tracker/internal/domain"
	"github.com/simaogato/portfolio-tracker/internal/logging"
	"github.com/simaogato/portfolio-tracker/internal/usecase/seeder"
)

// errInvalidHistory marks a validate run that found at least one broken asset
var errInvalidHistory = errors.New("invalid transaction history")

// run loads the configuration, builds the application and passes it to fn
func run(ctx context.Context, fn func(ctx context.Context, a *app.App) error) subcommands.ExitStatus {
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	logger, err := logging.NewLogger(cfg.Log.Level, "text", cfg.Log.File)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	ctx = logging.WithLogger(ctx, logger)

	a, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		if !errors.Is(err, errInvalidHistory) {
			fmt.Fprintln(os.Stderr, err)
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func portfolioFlag(f *flag.FlagSet, target *string) {
	f.StringVar(target, "portfolio", seeder.DefaultPortfolioID.String(), "portfolio ID")
}

type migrateCmd struct {
	down   bool
	status bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply (or roll back) the database schema" }
func (*migrateCmd) Usage() string {
	return `portfolioctl migrate [-down | -status]

  Applies every pending migration. -down rolls back the most recent one,
  -status prints the current schema version.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.down, "down", false, "roll back the most recent migration")
	f.BoolVar(&c.status, "status", false, "print the current schema version and exit")
}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		switch {
		case c.status:
		case c.down:
			if err := postgres.MigrateDown(ctx, a.DB); err != nil {
				return err
			}
		default:
			if err := postgres.Migrate(ctx, a.DB); err != nil {
				return err
			}
		}

		version, err := postgres.MigrationVersion(ctx, a.DB)
		if err != nil {
			return err
		}
		fmt.Printf("schema version %d\n", version)
		return nil
	})
}

type seedCmd struct{}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "create the default portfolio and its fallback group" }
func (*seedCmd) Usage() string {
	return `portfolioctl seed

  Idempotently creates the default portfolio and its "Ungrouped" group.
`
}
func (*seedCmd) SetFlags(*flag.FlagSet) {}

func (*seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		portfolio, err := a.Seeder.Seed(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", portfolio.ID, portfolio.Name)
		return nil
	})
}

type validateCmd struct {
	portfolio string
}

func (*validateCmd) Name() string     { return "validate" }
func (*validateCmd) Synopsis() string { return "replay every stored asset history and report broken ones" }
func (*validateCmd) Usage() string {
	return `portfolioctl validate [-portfolio <id>]

  Replays the transactions of every asset, archived ones included, and
  prints the first rule each invalid history breaks. Exits non-zero when
  any history is invalid.
`
}

func (c *validateCmd) SetFlags(f *flag.FlagSet) {
	portfolioFlag(f, &c.portfolio)
}

func (c *validateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		portfolioID, err := domain.ParseID(c.portfolio, "portfolio")
		if err != nil {
			return err
		}
		assets, err := a.LedgerService.ListAssets(ctx, portfolioID, true)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		invalid := 0
		for _, asset := range assets {
			result := "ok"
			if err := a.LedgerService.ValidateAsset(ctx, asset.ID); err != nil {
				if !errors.Is(err, domain.ErrInvalidTransaction) {
					return err
				}
				invalid++
				result = err.Error()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", asset.Symbol, asset.AssetType, result)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if invalid > 0 {
			fmt.Fprintf(os.Stderr, "%d of %d asset histories are invalid\n", invalid, len(assets))
			return errInvalidHistory
		}
		return nil
	})
}

type quoteCmd struct{}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "resolve symbols through the pricing gateway" }
func (*quoteCmd) Usage() string {
	return `portfolioctl quote <symbol>...

  Prints the price the dashboard would use for each symbol: fresh cache,
  live provider, or stale cache.
`
}
func (*quoteCmd) SetFlags(*flag.FlagSet) {}

func (*quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "at least one symbol is required")
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *app.App) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, raw := range f.Args() {
			symbol := domain.NormalizeSymbol(raw)
			quote := a.PricingService.GetQuote(ctx, symbol)
			if quote == nil {
				fmt.Fprintf(w, "%s\t-\tunavailable\n", symbol)
				continue
			}
			state := "fresh"
			if quote.Stale {
				state = "stale"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", symbol, quote.Price, quote.FetchedAt.Format("2006-01-02 15:04:05Z07:00"), state)
		}
		return w.Flush()
	})
}

type snapshotCmd struct {
	portfolio string
	json      bool
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "print the dashboard of a portfolio" }
func (*snapshotCmd) Usage() string {
	return `portfolioctl snapshot [-portfolio <id>] [-json]

  Prints the position table with group and portfolio totals.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	portfolioFlag(f, &c.portfolio)
	f.BoolVar(&c.json, "json", false, "print the full snapshot as JSON")
}

func (c *snapshotCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		portfolioID, err := domain.ParseID(c.portfolio, "portfolio")
		if err != nil {
			return err
		}
		snapshot, err := a.DashboardService.GetSnapshot(ctx, portfolioID)
		if err != nil {
			return err
		}

		if c.json {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(view.Snapshot(snapshot))
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "GROUP\tSYMBOL\tQTY\tINVESTED\tVALUE\tP&L\t")
		for _, row := range snapshot.Positions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
				row.GroupName, row.Symbol, optional(row.Quantity.Valid, row.Quantity.Decimal.String()),
				row.Invested.StringFixed(2), row.CurrentValue.StringFixed(2),
				optional(row.UnrealizedPnL.Valid, row.UnrealizedPnL.Decimal.StringFixed(2)))
		}
		for _, total := range snapshot.GroupTotals {
			fmt.Fprintf(w, "%s\t(total)\t\t\t%s\t%s\t\n", total.GroupName, total.Value.StringFixed(2), total.UnrealizedPnL.StringFixed(2))
		}
		fmt.Fprintf(w, "\tTOTAL\t\t\t%s\t%s\t\n", snapshot.CanonicalTotalValue.StringFixed(2), snapshot.CanonicalTotalPnL.StringFixed(2))
		return w.Flush()
	})
}

func optional(ok bool, value string) string {
	if !ok {
		return "-"
	}
	return value
}
