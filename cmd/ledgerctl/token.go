package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/api"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/config"
)

type tokenCmd struct {
	out   io.Writer
	owner string
	ttl   time.Duration
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "prints a bearer token for an owner" }
func (*tokenCmd) Usage() string {
	return `token -owner <owner id> [-ttl 24h]

Signs a token with JWT_SECRET for use against the HTTP API.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "owner", "", "The owner id carried by the token.")
	f.DurationVar(&c.ttl, "ttl", 24*time.Hour, "How long the token stays valid.")
}

func (c *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	secret := cfg.JWTSecret
	if c.owner == "" || secret == "" {
		fmt.Fprintln(os.Stderr, "Error: -owner and JWT_SECRET are required.")
		return subcommands.ExitUsageError
	}

	token, err := api.IssueToken([]byte(secret), c.owner, c.ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(c.out, token)
	return subcommands.ExitSuccess
}
