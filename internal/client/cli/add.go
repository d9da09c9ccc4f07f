package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/localvault/pkg/api"
)

func (c *Cli) RunAdd(ctx context.Context) error {
	c.io.Println("=== Add Entry ===")
	c.io.Println()

	title, err := c.io.ReadInput("Title: ")
	if err != nil {
		return fmt.Errorf("failed to read title: %w", err)
	}

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	url, err := c.io.ReadInput("URL (optional): ")
	if err != nil {
		return fmt.Errorf("failed to read url: %w", err)
	}

	notes, err := c.io.ReadInput("Notes (optional): ")
	if err != nil {
		return fmt.Errorf("failed to read notes: %w", err)
	}

	tagsInput, err := c.io.ReadInput("Tags (comma-separated, optional): ")
	if err != nil {
		return fmt.Errorf("failed to read tags: %w", err)
	}

	var tags []string
	for _, tag := range strings.Split(tagsInput, ",") {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}

	req := api.EntryRequest{
		Title:    title,
		Username: username,
		Password: password,
		URL:      url,
		Notes:    notes,
		Tags:     tags,
	}

	return c.withSession(ctx, func(ctx context.Context) error {
		entry, err := c.client.CreateEntry(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to create entry: %w", err)
		}

		c.io.Println()
		c.io.Printf("Entry created: %s (%s)\n", entry.Title, entry.ID)
		return nil
	})
}
