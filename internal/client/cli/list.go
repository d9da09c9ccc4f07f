package cli

import (
	"context"
	"fmt"
)

func (c *Cli) RunList(ctx context.Context) error {
	return c.withSession(ctx, func(ctx context.Context) error {
		resp, err := c.client.ListEntries(ctx)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		c.io.Println("=== Saved Entries ===")
		c.io.Println()

		if len(resp.Entries) == 0 {
			c.io.Println("No entries found.")
			c.io.Println()
			c.io.Println("Use 'vaultcli add' to add your first entry.")
			return nil
		}

		c.io.Printf("Found %d entr(ies):\n", len(resp.Entries))
		c.io.Println()

		for i, entry := range resp.Entries {
			marker := " "
			if entry.Favorite {
				marker = "*"
			}
			c.io.Printf("%d.%s %s\n", i+1, marker, entry.Title)
			c.io.Printf("   ID:       %s\n", entry.ID)
			c.io.Printf("   Username: %s\n", entry.Username)
			if entry.URL != "" {
				c.io.Printf("   URL:      %s\n", entry.URL)
			}
			c.io.Println()
		}

		c.io.Println("Note: Passwords are hidden. Use 'vaultcli get <id>' to view full details.")
		return nil
	})
}
