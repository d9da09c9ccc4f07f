package cli

import (
	"context"
	"fmt"
)

func (c *Cli) RunStatus(ctx context.Context) error {
	status, err := c.client.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get vault status: %w", err)
	}

	c.io.Printf("Vault status: %s\n", status.Status)
	if status.Hint != "" {
		c.io.Printf("Hint:         %s\n", status.Hint)
	}

	return nil
}
