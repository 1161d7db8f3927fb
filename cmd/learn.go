package cmd

import (
	"context"
	"errors"
	"log"

	"career-agent/internal/learning"
	"career-agent/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Fold new feedback into the profile embedding and re-rank the stored jobs",
	Run: func(cmd *cobra.Command, _ []string) {
		learn(cmd)
	},
}

func init() {
	rootCmd.AddCommand(learnCmd)

	learnCmd.Flags().Bool("all", false, "run the learning engine for every profile")
}

func learn(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	st := openStore(config, logger)
	defer st.Close()

	var profiles []*store.Profile
	if all, _ := cmd.Flags().GetBool("all"); all {
		profiles, err = st.Profiles()
		if err != nil {
			logger.Fatal("listing profiles", zap.Error(err))
		}
		if len(profiles) == 0 {
			logger.Fatal("no profiles yet", zap.String("hint", "create one with '"+app+" profile add'"))
		}
	} else {
		profile, err := resolveProfile(st, config)
		if err != nil {
			logger.Fatal("resolving profile", zap.Error(err))
		}
		profiles = append(profiles, profile)
	}

	embedder, err := newEmbedder(ctx, config.AI.Gemini, logger)
	if err != nil {
		logger.Warn("continuing without embeddings, comment feedback will be ignored", zap.Error(err))
	}

	engine := newEngine(config, st, embedder, logger)

	for _, profile := range profiles {
		if err := engine.Update(ctx, profile.ID); err != nil {
			if errors.Is(err, learning.ErrNoProfileVector) {
				logger.Warn("profile has no embedding yet, skipping",
					zap.String("profile", profile.Name),
				)
				continue
			}
			logger.Fatal("learning failed", zap.String("profile", profile.Name), zap.Error(err))
		}

		logger.Info("learning finished", zap.String("profile", profile.Name))
	}
}
