package util

import (
	"context"

	"github.com/bacalhau-project/cryri/pkg/config/types"
)

type contextKey struct {
	name string
}

var settingsKey = contextKey{name: "context key for storing the loaded settings"}

// WithSettings stores settings loaded by the root command for its handlers.
func WithSettings(ctx context.Context, settings types.Settings) context.Context {
	return context.WithValue(ctx, settingsKey, settings)
}

func GetSettings(ctx context.Context) (types.Settings, bool) {
	settings, ok := ctx.Value(settingsKey).(types.Settings)
	return settings, ok
}
