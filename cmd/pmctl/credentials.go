package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"portfolio-manager/config"
	"portfolio-manager/internal/settings"
)

type credentialsCmd struct {
	provider string
	key      string
	secret   string
	baseURL  string
}

func (*credentialsCmd) Name() string     { return "credentials" }
func (*credentialsCmd) Synopsis() string { return "manage stored quote provider credentials" }
func (*credentialsCmd) Usage() string {
	return `pmctl credentials list
pmctl credentials set -provider NAME -key KEY [-secret SECRET] [-base-url URL]
pmctl credentials delete -provider NAME

  Credentials are encrypted with SETTINGS_PASSPHRASE and stored under
  SETTINGS_DIR. Environment variables take precedence at startup.
`
}

func (c *credentialsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.provider, "provider", "", "Provider name (marketstack, alpaca).")
	f.StringVar(&c.key, "key", "", "API key.")
	f.StringVar(&c.secret, "secret", "", "API secret, required for alpaca.")
	f.StringVar(&c.baseURL, "base-url", "", "Optional base URL override.")
}

func (c *credentialsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	store, err := settings.NewStore(cfg.Settings.Dir, cfg.Settings.Passphrase)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	switch f.Arg(0) {
	case "list":
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PROVIDER\tKEY\tSECRET\tBASE URL\tUPDATED")
		for _, cred := range store.List() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				cred.Provider, cred.APIKey, cred.APISecret, cred.BaseURL, cred.UpdatedAt.Format(time.RFC3339))
		}
		tw.Flush()
	case "set":
		err = store.Set(settings.Credential{
			Provider:  c.provider,
			APIKey:    c.key,
			APISecret: c.secret,
			BaseURL:   c.baseURL,
		})
	case "delete":
		err = store.Delete(c.provider)
	default:
		fmt.Fprintf(os.Stderr, "unknown action %q\n", f.Arg(0))
		return subcommands.ExitUsageError
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
