package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/yski/yski-client/internal/client/api"
	"github.com/yski/yski-client/internal/models"
)

// ensureSession проверяет сессию и заранее обновляет истекающий токен
func (c *Cli) ensureSession(ctx context.Context) error {
	if !c.store.IsAuthenticated() {
		return errors.New("not authenticated. Please run 'yski login' first")
	}
	if c.refreshLead <= 0 {
		return nil
	}
	if _, err := c.coord.RefreshIfExpiring(ctx, c.refreshLead); err != nil {
		return c.sessionError(err)
	}
	return nil
}

// sessionError печатает подсказку, если сессия закончилась
func (c *Cli) sessionError(err error) error {
	if errors.Is(err, api.ErrRefreshInvalid) || errors.Is(err, api.ErrAuthExpired) {
		c.io.Println("Session expired. Please run 'yski login' again.")
	}
	return err
}

func (c *Cli) runWhoami(ctx context.Context) error {
	if err := c.ensureSession(ctx); err != nil {
		return err
	}

	var user models.UserProfile
	if err := c.gw.Get(ctx, "/users/me", &user); err != nil {
		return c.sessionError(fmt.Errorf("failed to get profile: %w", err))
	}

	if err := profileTemplate.Execute(c.io, &user); err != nil {
		return fmt.Errorf("failed to render profile: %w", err)
	}
	return nil
}
