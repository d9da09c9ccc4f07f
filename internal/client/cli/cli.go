// Package cli реализует команды консольного клиента хранилища.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/iudanet/localvault/internal/client/api"
	"github.com/iudanet/localvault/internal/client/iocli"
)

// Passphrases задает неинтерактивные источники master passphrase.
type Passphrases struct {
	FromFile string
	FromArgs string
}

type Cli struct {
	client      *api.Client
	io          iocli.IO
	passphrases Passphrases
}

func New(client *api.Client, io iocli.IO, passphrases Passphrases) *Cli {
	return &Cli{
		client:      client,
		io:          io,
		passphrases: passphrases,
	}
}

// passphrase возвращает master passphrase по приоритету источников:
// 1. Переменная окружения LOCALVAULT_PASSPHRASE
// 2. Файл из --passphrase-file
// 3. Параметр --passphrase
// 4. Интерактивный запрос
func (c *Cli) passphrase() (string, error) {
	if envPass := os.Getenv("LOCALVAULT_PASSPHRASE"); envPass != "" {
		return envPass, nil
	}

	if c.passphrases.FromFile != "" {
		content, err := os.ReadFile(c.passphrases.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read passphrase file: %w", err)
		}
		pass := strings.TrimSpace(string(content))
		if pass == "" {
			return "", fmt.Errorf("passphrase file is empty")
		}
		return pass, nil
	}

	if c.passphrases.FromArgs != "" {
		return c.passphrases.FromArgs, nil
	}

	pass, err := c.io.ReadPassword("Master passphrase: ")
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	if pass == "" {
		return "", fmt.Errorf("passphrase cannot be empty")
	}

	return pass, nil
}

// withSession разблокирует хранилище на время выполнения fn
// и блокирует его обратно, даже если fn вернула ошибку.
func (c *Cli) withSession(ctx context.Context, fn func(ctx context.Context) error) error {
	pass, err := c.passphrase()
	if err != nil {
		return err
	}

	if err := c.client.Unlock(ctx, pass); err != nil {
		return err
	}
	defer func() {
		if err := c.client.Lock(ctx); err != nil {
			c.io.Printf("Warning: failed to lock vault: %v\n", err)
		}
	}()

	return fn(ctx)
}

func PrintUsage() {
	fmt.Println("LocalVault Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  vaultcli [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version                Show version information")
	fmt.Println("  --server URL             Server URL (default: http://127.0.0.1:8787)")
	fmt.Println("  --passphrase PHRASE      Master passphrase (not recommended, use env var or file)")
	fmt.Println("  --passphrase-file PATH   Path to file containing master passphrase")
	fmt.Println()
	fmt.Println("Passphrase Priority (highest to lowest):")
	fmt.Println("  1. LOCALVAULT_PASSPHRASE environment variable")
	fmt.Println("  2. --passphrase-file (file path)")
	fmt.Println("  3. --passphrase (command line)")
	fmt.Println("  4. Interactive prompt (fallback)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  status                  Show vault status")
	fmt.Println("  setup                   Initialize the vault")
	fmt.Println("  add                     Add new entry")
	fmt.Println("  list                    List saved entries")
	fmt.Println("  get <id>                Show full entry details")
	fmt.Println("  delete <id>             Delete entry")
	fmt.Println("  export [file]           Export encrypted backup (stdout if no file)")
	fmt.Println("  import <file>           Preview and apply backup import")
	fmt.Println("  audit                   Show security audit log")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  vaultcli setup")
	fmt.Println("  vaultcli list")
	fmt.Println("  vaultcli get b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5")
	fmt.Println("  vaultcli export backup.json")
	fmt.Println("  vaultcli import backup.json")
	fmt.Println()
	fmt.Println("  # Using environment variable for automation")
	fmt.Println("  export LOCALVAULT_PASSPHRASE='my long secret phrase'")
	fmt.Println("  vaultcli export backup.json")
}
