// clientx is the command-line front end of the workspace client. Each
// invocation restores the persisted session, runs one command and exits.
//
// Usage:
//
//	clientx [--server URL] [--log-level LEVEL] <command> [args]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/clientx/workspace-client/internal/app"
	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/pkg/config"
	"github.com/clientx/workspace-client/pkg/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %s\n", domain.Message(err))
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	var server, logLevel string
	flags := pflag.NewFlagSet("clientx", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.StringVar(&server, "server", "", "backend API base URL (overrides API_BASE_URL)")
	flags.StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	flags.Usage = func() { printUsage(flags) }
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		printUsage(flags)
		return pflag.ErrHelp
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if server != "" {
		cfg.API.BaseURL = server
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  term.IsTerminal(int(os.Stderr.Fd())),
		Service: "clientx",
	})

	client, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer client.Close()

	name, rest := flags.Arg(0), flags.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		printUsage(flags)
		return fmt.Errorf("unknown command %q", name)
	}
	if !cmd.anonymous {
		snap, err := client.Start(ctx)
		if err != nil {
			return err
		}
		if snap.State != domain.StateAuthenticated {
			return errors.New("not logged in; run `clientx login`")
		}
	}
	return cmd.run(ctx, client, rest)
}

func printUsage(flags *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: clientx [flags] <command> [args]\n\nCommands:\n")
	for _, name := range commandOrder {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(os.Stderr, "\nFlags:\n%s", flags.FlagUsages())
}
