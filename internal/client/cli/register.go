package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/yski/yski-client/internal/validation"
)

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Registration ===")
	c.io.Println()

	var form validation.RegisterForm
	var err error

	if form.FullName, err = c.io.ReadInput("Full name: "); err != nil {
		return fmt.Errorf("failed to read name: %w", err)
	}
	if form.Email, err = c.io.ReadInput("Email: "); err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	if form.Phone, err = c.io.ReadInput("Phone (optional): "); err != nil {
		return fmt.Errorf("failed to read phone: %w", err)
	}
	if form.Password, err = c.io.ReadPassword("Password (min 6 chars): "); err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if form.Password != confirm {
		return errors.New("passwords do not match")
	}

	c.io.Println()
	c.io.Println("Registering...")

	user, err := c.authService.Register(ctx, form)
	if err != nil {
		c.printFieldErrors(err)
		return fmt.Errorf("registration failed: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Registration successful!")
	c.io.Printf("Welcome, %s (%s)\n", user.FullName, user.Role)
	return nil
}

// printFieldErrors выводит сообщения валидации по полям
func (c *Cli) printFieldErrors(err error) {
	var fe validation.FieldErrors
	if !errors.As(err, &fe) {
		return
	}
	for _, field := range []string{"full_name", "email", "phone", "password"} {
		if msg, ok := fe[field]; ok {
			c.io.Printf("  %s: %s\n", field, msg)
		}
	}
}
