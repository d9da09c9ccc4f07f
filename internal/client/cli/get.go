package cli

import (
	"context"
	"fmt"
	"strings"
)

func (c *Cli) RunGet(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing entry id. Usage: vaultcli get <id>")
	}
	id := args[0]

	return c.withSession(ctx, func(ctx context.Context) error {
		entry, err := c.client.GetEntry(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get entry: %w", err)
		}

		c.io.Printf("Title:    %s\n", entry.Title)
		c.io.Printf("ID:       %s\n", entry.ID)
		c.io.Printf("Username: %s\n", entry.Username)
		c.io.Printf("Password: %s\n", entry.Password)
		if entry.URL != "" {
			c.io.Printf("URL:      %s\n", entry.URL)
		}
		if entry.Notes != "" {
			c.io.Printf("Notes:    %s\n", entry.Notes)
		}
		if len(entry.Tags) > 0 {
			c.io.Printf("Tags:     %s\n", strings.Join(entry.Tags, ", "))
		}
		c.io.Printf("Updated:  %s\n", entry.UpdatedAt)

		return nil
	})
}
