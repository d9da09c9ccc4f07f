package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/localvault/internal/client/api"
	"github.com/iudanet/localvault/internal/client/cli"
	"github.com/iudanet/localvault/internal/client/iocli"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.Usage = cli.PrintUsage

	showVersion := fs.Bool("version", false, "Show version information")
	serverURL := fs.String("server", "http://127.0.0.1:8787", "Server URL")
	passphrase := fs.String("passphrase", "", "Master passphrase (not recommended, use env var or file)")
	passphraseFile := fs.String("passphrase-file", "", "Path to file containing master passphrase")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	if *showVersion {
		printVersion()
		return
	}

	args := fs.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	client, err := api.NewClient(*serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	c := cli.New(client, iocli.NewStdio(), cli.Passphrases{
		FromFile: *passphraseFile,
		FromArgs: *passphrase,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c.Run(ctx, args[0], args[1:])
}

func printVersion() {
	fmt.Printf("LocalVault Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
