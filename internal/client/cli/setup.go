package cli

import (
	"context"
	"fmt"
)

func (c *Cli) RunSetup(ctx context.Context) error {
	c.io.Println("=== Vault Setup ===")
	c.io.Println()

	pass, err := c.io.ReadPassword("Master passphrase (12-128 chars): ")
	if err != nil {
		return fmt.Errorf("failed to read passphrase: %w", err)
	}

	confirm, err := c.io.ReadPassword("Confirm passphrase: ")
	if err != nil {
		return fmt.Errorf("failed to read passphrase: %w", err)
	}

	if pass != confirm {
		return fmt.Errorf("passphrases do not match")
	}

	hint, err := c.io.ReadInput("Hint (optional, shown when locked): ")
	if err != nil {
		return fmt.Errorf("failed to read hint: %w", err)
	}

	if err := c.client.Setup(ctx, pass, hint); err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("Vault initialized. The passphrase is NOT stored anywhere:")
	c.io.Println("if you forget it, the data cannot be recovered.")

	return nil
}
