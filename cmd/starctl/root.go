package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"star-notary/internal/client"
	"star-notary/internal/domain"
)

var version = "dev"

// cli carries the global flags shared by every subcommand.
type cli struct {
	out     io.Writer
	server  string
	caller  string
	timeout time.Duration
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:   "starctl",
		Short: "Register, trade and inspect notarized stars",
		Long: `starctl talks to a star notary server over HTTP.

Mutating commands act as the account given by --caller (or STARCTL_CALLER),
a base58 ed25519 public key. Amounts are decimal lamports.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVarP(&c.server, "server", "s", envOr("STARCTL_SERVER", "http://localhost:8080"),
		"notary server base URL")
	root.PersistentFlags().StringVarP(&c.caller, "caller", "a", os.Getenv("STARCTL_CALLER"),
		"caller address for mutating commands")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", client.DefaultTimeout,
		"HTTP request timeout")

	root.AddCommand(
		c.createCmd(),
		c.infoCmd(),
		c.existsCmd(),
		c.sellCmd(),
		c.unsellCmd(),
		c.priceCmd(),
		c.buyCmd(),
		c.listingsCmd(),
		c.salesCmd(),
		c.ownerCmd(),
		c.transferCmd(),
		c.approveCmd(),
		c.depositCmd(),
		c.balanceCmd(),
		c.watchCmd(),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// client returns an API client; the caller is parsed only when set.
func (c *cli) client() (*client.Client, error) {
	opts := []client.Option{client.WithTimeout(c.timeout)}
	if c.caller != "" {
		a, err := domain.ParseAddress(c.caller)
		if err != nil {
			return nil, fmt.Errorf("--caller: %w", err)
		}
		opts = append(opts, client.WithCaller(a))
	}
	return client.New(c.server, opts...), nil
}

// callerAddress returns the parsed --caller, required by commands that
// default an argument to it.
func (c *cli) callerAddress() (domain.Address, error) {
	if c.caller == "" {
		return domain.ZeroAddress, fmt.Errorf("--caller is required")
	}
	return domain.ParseAddress(c.caller)
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseTokenID(s string) (domain.TokenID, error) {
	id, err := domain.ParseTokenID(s)
	if err != nil {
		return 0, fmt.Errorf("token id %q: %w", s, err)
	}
	return id, nil
}

func parseAmount(s string) (domain.Lamports, error) {
	v, err := domain.ParseLamports(s)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	return v, nil
}

func parseAddress(s string) (domain.Address, error) {
	a, err := domain.ParseAddress(s)
	if err != nil {
		return a, fmt.Errorf("address %q: %w", s, err)
	}
	return a, nil
}
