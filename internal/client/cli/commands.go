package cli

import (
	"context"
	"fmt"
	"os"
)

func (c *Cli) Run(ctx context.Context, command string, args []string) {
	var err error

	switch command {
	case "status":
		err = c.RunStatus(ctx)
	case "setup":
		err = c.RunSetup(ctx)
	case "add":
		err = c.RunAdd(ctx)
	case "list":
		err = c.RunList(ctx)
	case "get":
		err = c.RunGet(ctx, args)
	case "delete":
		err = c.RunDelete(ctx, args)
	case "export":
		err = c.RunExport(ctx, args)
	case "import":
		err = c.RunImport(ctx, args)
	case "audit":
		err = c.RunAudit(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		PrintUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
