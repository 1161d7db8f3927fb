package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"career-agent/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultTop = 20

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Re-rank the stored postings for a profile and print the best matches",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().Int("top", defaultTop, "how many ranked jobs to print")
}

func rank(cmd *cobra.Command) {
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

	embedder, err := newEmbedder(ctx, config.AI.Gemini, logger)
	if err != nil {
		logger.Warn("continuing without embeddings, fit scores will follow the base score", zap.Error(err))
	}

	engine := newEngine(config, st, embedder, logger)
	if err := engine.RecomputeScores(ctx, profile.ID); err != nil {
		logger.Fatal("scoring jobs", zap.Error(err))
	}

	top, _ := cmd.Flags().GetInt("top")
	printRanked(st, logger, top)
}

func printRanked(st *store.Store, logger *zap.Logger, top int) {
	jobs, err := st.Jobs()
	if err != nil {
		logger.Fatal("listing jobs", zap.Error(err))
	}
	if len(jobs) == 0 {
		logger.Info("no jobs stored yet", zap.String("hint", "run '"+app+" search' first"))
		return
	}
	if top > 0 && len(jobs) > top {
		jobs = jobs[:top]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tFIT\tBASE\tTITLE\tCOMPANY\tLOCATION\tWHY")
	for _, job := range jobs {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%s\t%s\t%s\t%s\n",
			job.Key(),
			job.FitScore,
			job.BaseScore,
			cell(job.Title, 40),
			cell(job.Company, 24),
			cell(job.Location, 20),
			cell(job.WhyBase, 48),
		)
	}
	w.Flush()
}
