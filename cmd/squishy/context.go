package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/kimhsiao/squishylog/internal/app"
	"github.com/kimhsiao/squishylog/internal/config"
	apperrors "github.com/kimhsiao/squishylog/internal/errors"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		app.ConfigureLogging(cfg)
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// withApp opens the collection for the duration of fn.
func (c *commandContext) withApp(cmd *cobra.Command, fn func(context.Context, *app.App) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.LoadErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s; starting with an empty collection\n", apperrors.MessageOf(a.LoadErr))
	}
	return fn(ctx, a)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// describeError renders err with a hint for the codes a user can act on.
func describeError(err error) string {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrStoreCapacity:
		return fmt.Sprintf("%v\nhint: run `squishy export` to save a backup, then delete old records or images", err)
	case apperrors.ErrCorruptStore:
		return fmt.Sprintf("%v\nhint: the stored collection could not be read; it is left untouched until the next change", err)
	}
	return err.Error()
}
