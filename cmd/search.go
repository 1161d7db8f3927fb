package cmd

import (
	"context"
	"log"
	"strings"

	"career-agent/internal/arbeitsagentur"
	"career-agent/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the arbeitsagentur job board, store the results and rank them",
	Run: func(cmd *cobra.Command, _ []string) {
		search(cmd)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("query", "q", "", "search text, overrides the config")
	searchCmd.Flags().StringP("location", "l", "", "place to search around, overrides the config")
	searchCmd.Flags().Int("radius", 0, "search radius in km")
	searchCmd.Flags().Int("size", 0, "number of results to fetch")
	searchCmd.Flags().Bool("details", false, "fetch the full description of every result")
	searchCmd.Flags().Int("top", defaultTop, "how many ranked jobs to print")
}

func search(cmd *cobra.Command) {
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

	profile, err := resolveProfile(st, config)
	if err != nil {
		logger.Fatal("resolving profile", zap.Error(err))
	}

	params := config.Search
	if v, _ := cmd.Flags().GetString("query"); v != "" {
		params.Query = v
	}
	if v, _ := cmd.Flags().GetString("location"); v != "" {
		params.Location = v
	}
	if v, _ := cmd.Flags().GetInt("radius"); v > 0 {
		params.RadiusKM = v
	}
	if v, _ := cmd.Flags().GetInt("size"); v > 0 {
		params.Size = v
	}

	if strings.TrimSpace(params.Query) == "" {
		logger.Fatal("a search query is required",
			zap.String("hint", "pass --query or set search.query in the config"),
		)
	}

	logger.Info("starting the search",
		zap.String("query", params.Query),
		zap.String("location", params.Location),
	)

	source := arbeitsagentur.New(ctx, logger)
	results, err := source.Search(params)
	if err != nil {
		logger.Fatal("searching the job board", zap.Error(err))
	}

	logger.Info("got postings from the job board", zap.Int("count", results.Len()))

	embedder, err := newEmbedder(ctx, config.AI.Gemini, logger)
	if err != nil {
		logger.Warn("continuing without embeddings, fit scores will follow the base score", zap.Error(err))
	}

	withDetails, _ := cmd.Flags().GetBool("details")

	for _, item := range results.Items {
		job := &store.Job{
			ExternalRef: item.Key(),
			Title:       item.Title(),
			Company:     item.Arbeitgeber,
			Location:    item.Location(),
			URL:         item.URL,
			Source:      "arbeitsagentur",
			DatePosted:  item.PublishedAt,
		}

		if withDetails {
			ref := item.RefNr
			if ref == "" {
				ref = item.Key()
			}
			details, err := source.GetDetails(ref)
			if err != nil {
				logger.Warn("skipping details", zap.String("job_key", item.Key()), zap.Error(err))
			} else {
				job.Description = details.Beschreibung
			}
		}

		id, err := st.UpsertJob(job)
		if err != nil {
			logger.Fatal("storing job", zap.String("job_key", job.Key()), zap.Error(err))
		}

		if embedder != nil && job.Description != "" {
			vec, err := embedder.Embed(ctx, job.Title+" "+job.Description)
			if err != nil {
				logger.Warn("embedding job description failed", zap.String("job_key", job.Key()), zap.Error(err))
			} else if err := st.SetJobEmbedding(id, vec); err != nil {
				logger.Warn("storing job embedding failed", zap.String("job_key", job.Key()), zap.Error(err))
			}
		}
	}

	engine := newEngine(config, st, embedder, logger)
	if err := engine.RecomputeScores(ctx, profile.ID); err != nil {
		logger.Fatal("scoring jobs", zap.Error(err))
	}

	top, _ := cmd.Flags().GetInt("top")
	printRanked(st, logger, top)
}
