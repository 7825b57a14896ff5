package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/yski/yski-client/internal/authz"
)

func (c *Cli) runCan(_ context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: yski can <action> <screen>")
	}
	action, resource := authz.Action(args[0]), authz.Resource(args[1])

	if c.model.Can(action, resource) {
		c.io.Printf("yes: %s %s\n", action, resource)
		return nil
	}
	c.io.Printf("no: %s %s\n", action, resource)
	return nil
}

func (c *Cli) runScreens(_ context.Context) error {
	user := c.store.User()
	if user == nil {
		c.io.Println("Not authenticated. Run 'yski login' first.")
		return nil
	}

	c.io.Printf("Screens for %s:\n", user.Role)
	for _, screen := range c.model.Resources(authz.MobileScreens) {
		actions := c.model.Actions(screen)
		names := make([]string, len(actions))
		for i, a := range actions {
			names[i] = string(a)
		}
		c.io.Printf("  %-14s %s\n", screen, strings.Join(names, ", "))
	}
	return nil
}
