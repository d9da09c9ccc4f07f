package cli

import (
	"context"
	"fmt"
	"os"
)

func (c *Cli) RunImport(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing backup file. Usage: vaultcli import <file>")
	}

	bundle, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	importPass, err := c.io.ReadPassword("Export password (empty if backup is keyed by master passphrase): ")
	if err != nil {
		return fmt.Errorf("failed to read export password: %w", err)
	}

	return c.withSession(ctx, func(ctx context.Context) error {
		preview, err := c.client.ImportPreview(ctx, bundle, importPass)
		if err != nil {
			return fmt.Errorf("import preview failed: %w", err)
		}

		c.io.Println("=== Import Preview ===")
		c.io.Printf("Add:    %d\n", len(preview.Add))
		c.io.Printf("Update: %d\n", len(preview.Update))
		c.io.Printf("Skip:   %d\n", len(preview.Skip))
		c.io.Printf("Failed: %d\n", len(preview.Failed))
		c.io.Println()

		if len(preview.Add) == 0 && len(preview.Update) == 0 {
			c.io.Println("Nothing to import.")
			return nil
		}

		confirm, err := c.io.ReadInput("Apply these changes? (y/N): ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if confirm != "y" && confirm != "Y" {
			c.io.Println("Aborted.")
			return nil
		}

		report, err := c.client.ImportApply(ctx, bundle, importPass)
		if err != nil {
			return fmt.Errorf("import apply failed: %w", err)
		}

		c.io.Printf("Imported: %d added, %d updated.\n", len(report.Add), len(report.Update))
		return nil
	})
}
