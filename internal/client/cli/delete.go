package cli

import (
	"context"
	"fmt"
)

func (c *Cli) RunDelete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing entry id. Usage: vaultcli delete <id>")
	}
	id := args[0]

	confirm, err := c.io.ReadInput(fmt.Sprintf("Delete entry %s? (y/N): ", id))
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if confirm != "y" && confirm != "Y" {
		c.io.Println("Aborted.")
		return nil
	}

	return c.withSession(ctx, func(ctx context.Context) error {
		if err := c.client.DeleteEntry(ctx, id); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}

		c.io.Printf("Entry %s deleted.\n", id)
		return nil
	})
}
