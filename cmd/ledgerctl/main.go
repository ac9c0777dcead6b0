// Command ledgerctl runs operator tasks against the ledger store configured
// in the environment.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/config"
	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/logging"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/storage"
)

func main() {
	logger, err := logging.FromEnv()
	if err != nil {
		panic(err)
	}
	logging.SetGlobal(logger)
	defer logger.Sync()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(newReconcileCmd(false, openStore), "balances")
	commander.Register(newReconcileCmd(true, openStore), "balances")
	commander.Register(&tokenCmd{out: os.Stdout}, "auth")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func openStore(ctx context.Context) (interfaces.LedgerStore, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return storage.Open(ctx, cfg)
}
