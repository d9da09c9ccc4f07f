package cli

import (
	"context"
	"fmt"
	"os"
)

func (c *Cli) RunExport(ctx context.Context, args []string) error {
	exportPass, err := c.io.ReadPassword("Export password (empty to key backup by master passphrase): ")
	if err != nil {
		return fmt.Errorf("failed to read export password: %w", err)
	}

	return c.withSession(ctx, func(ctx context.Context) error {
		bundle, err := c.client.Export(ctx, exportPass)
		if err != nil {
			return fmt.Errorf("failed to export backup: %w", err)
		}

		if len(args) == 0 {
			// Без файла пишем конверт в stdout
			if _, err := c.io.Write(bundle); err != nil {
				return fmt.Errorf("failed to write backup: %w", err)
			}
			return nil
		}

		// Конверт зашифрован, но 0600 все равно: меньше поводов для вопросов
		if err := os.WriteFile(args[0], bundle, 0600); err != nil {
			return fmt.Errorf("failed to write backup file: %w", err)
		}

		c.io.Printf("Backup written to %s\n", args[0])
		return nil
	})
}
