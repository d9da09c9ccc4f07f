package cli

import (
	"context"
	"fmt"
)

func (c *Cli) RunAudit(ctx context.Context) error {
	return c.withSession(ctx, func(ctx context.Context) error {
		resp, err := c.client.ListAudit(ctx)
		if err != nil {
			return fmt.Errorf("failed to get audit log: %w", err)
		}

		c.io.Println("=== Audit Log (newest first) ===")
		c.io.Println()

		if len(resp.Events) == 0 {
			c.io.Println("No events recorded.")
			return nil
		}

		for _, event := range resp.Events {
			c.io.Printf("%s  %-22s %s", event.Timestamp, event.Type, event.Outcome)
			if len(event.Meta) > 0 {
				c.io.Printf("  %v", event.Meta)
			}
			c.io.Println("")
		}

		return nil
	})
}
