package cmd

import (
	"context"
	"fmt"
	"strings"

	"career-agent/internal/embedding"
	"career-agent/internal/learning"
	intlogger "career-agent/internal/logger"
	"career-agent/internal/secrets"
	"career-agent/internal/store"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newLogger() (*zap.Logger, error) {
	return intlogger.New(viper.GetBool("json"), viper.GetBool("debug"))
}

func openStore(config *Config, logger *zap.Logger) *store.Store {
	st, err := store.Open(config.Database, logger)
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err), zap.String("path", config.Database))
	}
	return st
}

func newEmbedder(ctx context.Context, cfg *GeminiConfig, logger *zap.Logger) (embedding.Provider, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	return embedding.NewGemini(ctx, apiKey, cfg.Model, cfg.Dimension, cfg.MaxRetries, logger)
}

func newEngine(config *Config, st *store.Store, embedder embedding.Provider, logger *zap.Logger) *learning.Engine {
	return learning.NewEngine(learning.Config{
		LearnRate:     config.Learning.LearnRate,
		CommentWeight: config.Learning.CommentWeight,
	}, &learning.Deps{
		Store:    st,
		Embedder: embedder,
		Logger:   logger,
	})
}

// resolveProfile picks the profile a command acts on: the --profile flag
// wins, then the config key, then a sole existing profile.
func resolveProfile(st *store.Store, config *Config) (*store.Profile, error) {
	name := strings.TrimSpace(viper.GetString("profile"))
	if name == "" {
		name = strings.TrimSpace(config.Profile)
	}

	if name != "" {
		profile, err := st.ProfileByName(name)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, fmt.Errorf("profile %q does not exist", name)
		}
		return profile, nil
	}

	profiles, err := st.Profiles()
	if err != nil {
		return nil, err
	}
	switch len(profiles) {
	case 0:
		return nil, fmt.Errorf("no profiles yet, create one with '%s profile add'", app)
	case 1:
		return profiles[0], nil
	default:
		return nil, fmt.Errorf("multiple profiles exist, pick one with --profile")
	}
}

func cell(s string, limit int) string {
	return intlogger.TruncateForLog(s, limit)
}
