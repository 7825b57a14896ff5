package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/yski/yski-client/internal/models"
	"github.com/yski/yski-client/internal/token"
)

type statusView struct {
	User      *models.UserProfile
	Expires   string
	Remaining time.Duration
	HasExpiry bool
	Expired   bool
}

func (c *Cli) runStatus(_ context.Context) error {
	sess := c.store.Session()
	if !sess.IsAuthenticated {
		c.io.Println("Status: Not authenticated")
		c.io.Println()
		c.io.Println("Run 'yski login' to authenticate.")
		return nil
	}

	view := statusView{User: sess.User}
	// срок берется из claims без проверки подписи, только для отображения
	if claims, err := token.ParseUnverified(sess.AccessToken); err == nil {
		if exp, ok := claims.Expiry(); ok {
			view.HasExpiry = true
			view.Expires = exp.Local().Format(time.RFC3339)
			view.Remaining = exp.Sub(c.now()).Round(time.Second)
			view.Expired = view.Remaining <= 0
		}
	}

	if err := statusTemplate.Execute(c.io, view); err != nil {
		return fmt.Errorf("failed to render status: %w", err)
	}
	return nil
}
