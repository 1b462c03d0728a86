package cli

import (
	"context"

	"taskboard/config"

	"github.com/spf13/cobra"
)

type settings struct {
	cfg    *config.Config
	apiURL string
}

type settingsKey struct{}

func withSettings(ctx context.Context, s *settings) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, settingsKey{}, s)
}

func settingsFrom(cmd *cobra.Command) *settings {
	if s, ok := cmd.Context().Value(settingsKey{}).(*settings); ok {
		return s
	}
	return &settings{cfg: &config.Config{}}
}
