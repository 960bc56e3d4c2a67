// Package common holds the wiring shared by newsdesk commands.
package common

import (
	"context"
	"errors"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/config"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
)

// Env is the loaded configuration and logger.
type Env struct {
	Config *config.Config
	Logger logger.Logger
}

type envKey struct{}

// WithEnv stores env on ctx.
func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// EnvFrom returns the Env stored by WithEnv.
func EnvFrom(ctx context.Context) (*Env, error) {
	env, ok := ctx.Value(envKey{}).(*Env)
	if !ok || env == nil {
		return nil, errors.New("configuration not loaded")
	}
	return env, nil
}
