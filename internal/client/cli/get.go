package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

func (c *Cli) runGet(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: yski get <path>")
	}
	path := args[0]
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if err := c.ensureSession(ctx); err != nil {
		return err
	}

	var raw json.RawMessage
	if err := c.gw.Get(ctx, path, &raw); err != nil {
		return c.sessionError(fmt.Errorf("GET %s failed: %w", path, err))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(raw)
	}
	pretty.WriteByte('\n')

	if _, err := c.io.Write(pretty.Bytes()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
