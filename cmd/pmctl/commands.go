package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"portfolio-manager/config"
	"portfolio-manager/internal/app"
	"portfolio-manager/internal/settings"
	"portfolio-manager/marketdata"
	"portfolio-manager/models"
	"portfolio-manager/observability"
	"portfolio-manager/repository"
	"portfolio-manager/services"
)

var commands = []subcommands.Command{
	&quoteCmd{},
	&portfolioCmd{},
	&migrateCmd{},
	&credentialsCmd{},
}

// loadConfig reads .env and the environment, applies stored provider
// credentials and sets up CLI logging
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	observability.InitLoggerWithLevel(false, observability.ParseLevel(cfg.Log.Level))

	if cfg.HasSettings() {
		store, err := settings.NewStore(cfg.Settings.Dir, cfg.Settings.Passphrase)
		if err != nil {
			return nil, err
		}
		store.Apply(cfg)
	}
	return cfg, nil
}

func newResolver(cfg *config.Config) *marketdata.QuoteResolver {
	breakers := services.NewCircuitBreakerRegistry(marketdata.BreakerConfig(cfg))
	return marketdata.NewResolverFromConfig(cfg, breakers)
}

type quoteCmd struct{}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "resolve current quotes for one or more symbols" }
func (*quoteCmd) Usage() string {
	return `pmctl quote SYMBOL [SYMBOL...]

  Resolves each symbol through the configured providers. Symbols no
  provider knows print with a zero price.
`
}

func (*quoteCmd) SetFlags(*flag.FlagSet) {}

func (*quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "at least one symbol is required")
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	a := app.New(cfg, repository.NewMemoryStore(), newResolver(cfg), nil)
	quotes, err := a.SearchQuotes(ctx, joinArgs(f.Args()))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	writeQuotes(os.Stdout, quotes, cfg.Display.Currency)
	return subcommands.ExitSuccess
}

type portfolioCmd struct {
	owner    int64
	openOnly bool
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "print a valued portfolio report for an owner" }
func (*portfolioCmd) Usage() string {
	return `pmctl portfolio -owner ID [-open]

  Values the owner's ledger against current quotes. Requires DATABASE_URL.
`
}

func (p *portfolioCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&p.owner, "owner", 0, "The owner whose portfolio is reported.")
	f.BoolVar(&p.openOnly, "open", false, "Only list positions that still hold shares.")
}

func (p *portfolioCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.owner <= 0 {
		fmt.Fprintln(os.Stderr, "-owner must be a positive id")
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if !cfg.HasDatabase() {
		fmt.Fprintln(os.Stderr, "DATABASE_URL must be set")
		return subcommands.ExitFailure
	}

	repo, err := repository.NewRepository(ctx, cfg.Database.URL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	a := app.New(cfg, repo, newResolver(cfg), nil)
	defer a.Shutdown(ctx)

	portfolio, err := a.Portfolio(ctx, p.owner)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if p.openOnly {
		portfolio.Positions = portfolio.OpenPositions()
	}
	writePortfolio(os.Stdout, portfolio, cfg.Display.Currency)
	return subcommands.ExitSuccess
}

type migrateCmd struct {
	down bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply or roll back database migrations" }
func (*migrateCmd) Usage() string {
	return `pmctl migrate [-down]

  Applies all pending migrations, or rolls back the latest one with -down.
`
}

func (m *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&m.down, "down", false, "Roll back the most recent migration.")
}

func (m *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if !cfg.HasDatabase() {
		fmt.Fprintln(os.Stderr, "DATABASE_URL must be set")
		return subcommands.ExitFailure
	}

	if m.down {
		if err := repository.MigrateDown(ctx, cfg.Database.URL); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Println("rolled back one migration")
		return subcommands.ExitSuccess
	}

	version, err := repository.Migrate(ctx, cfg.Database.URL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("database at version %d\n", version)
	return subcommands.ExitSuccess
}

func writeQuotes(w io.Writer, quotes []models.Quote, currency string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tNAME\tPRICE\tCHANGE\tVOLUME")
	for _, q := range quotes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s%%\t%d\n",
			q.Symbol, q.Name, formatMoney(q.Price, currency), q.ChangePercent().StringFixed(2), q.Volume)
	}
	tw.Flush()
}

func writePortfolio(w io.Writer, p *models.Portfolio, currency string) {
	fmt.Fprintf(w, "%s (owner %d)\n\n", p.Name, p.OwnerID)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tSHARES\tCOST\tVALUE\tUNREALIZED\tREALIZED\tRETURN")
	for _, pos := range p.Positions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s%%\n",
			pos.Symbol,
			pos.Quantity.String(),
			formatMoney(pos.TotalCost, currency),
			formatMoney(pos.CurrentValue, currency),
			formatMoney(pos.UnrealizedResult, currency),
			formatMoney(pos.RealizedResult, currency),
			pos.TotalReturnPercent.StringFixed(2))
	}
	fmt.Fprintf(tw, "TOTAL\t\t%s\t%s\t%s\t%s\t%s%%\n",
		formatMoney(p.TotalCost, currency),
		formatMoney(p.CurrentValue, currency),
		formatMoney(p.UnrealizedResult, currency),
		formatMoney(p.RealizedResult, currency),
		p.TotalReturnPercent.StringFixed(2))
	tw.Flush()

	fmt.Fprintf(w, "\nannual income %s, yield on cost %s%%\n",
		formatMoney(p.AnnualIncome, currency), p.YieldOnCost.StringFixed(2))
}
