package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/yski/yski-client/internal/client/api"
)

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	c.io.Println()
	c.io.Println("Authenticating...")

	user, err := c.authService.Login(ctx, email, password)
	if err != nil {
		c.printFieldErrors(err)
		if detail := api.DetailOf(err); detail != "" && !errors.Is(err, api.ErrNetwork) {
			c.io.Printf("Server: %s\n", detail)
		}
		return fmt.Errorf("login failed: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Assalamu'alaikum, %s!\n", user.FullName)
	c.io.Printf("Role: %s\n", user.Role)
	c.io.Println()
	c.io.Println("Your session has been saved securely.")
	return nil
}
