package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"career-agent/internal/learning"
	"career-agent/internal/store"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	promptLike    = "Like"
	promptDislike = "Dislike"
	promptComment = "Comment only"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback [job-key]",
	Short: "Record a like, dislike or comment for a posting and learn from it",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		feedback(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(feedbackCmd)

	feedbackCmd.Flags().Bool("like", false, "mark the posting as a good match")
	feedbackCmd.Flags().Bool("dislike", false, "mark the posting as a bad match")
	feedbackCmd.Flags().StringP("comment", "c", "", "free-text note, e.g. 'too far away'")
	feedbackCmd.Flags().Bool("no-learn", false, "record only, skip the learning run")
}

func feedback(cmd *cobra.Command, args []string) {
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

	var job *store.Job
	if len(args) == 1 {
		job, err = st.JobByKey(args[0])
		if err != nil {
			logger.Fatal("looking up job", zap.Error(err))
		}
		if job == nil {
			logger.Fatal("no such job",
				zap.String("job_key", args[0]),
				zap.String("hint", "run '"+app+" search' first"),
			)
		}
	} else {
		job = pickJob(st, logger)
	}

	like, _ := cmd.Flags().GetBool("like")
	dislike, _ := cmd.Flags().GetBool("dislike")
	if like && dislike {
		logger.Fatal("pick either --like or --dislike, not both")
	}
	comment, _ := cmd.Flags().GetString("comment")

	signal := store.SignalNone
	switch {
	case like:
		signal = store.SignalLike
	case dislike:
		signal = store.SignalDislike
	}

	if signal == store.SignalNone && strings.TrimSpace(comment) == "" {
		signal, comment = askJudgment(logger)
	}

	if signal == store.SignalNone && strings.TrimSpace(comment) == "" {
		logger.Fatal("nothing to record", zap.String("hint", "pass --like, --dislike or --comment"))
	}

	embedder, err := newEmbedder(ctx, config.AI.Gemini, logger)
	if err != nil {
		logger.Warn("continuing without embeddings, this feedback will not steer the fit score", zap.Error(err))
	}

	engine := newEngine(config, st, embedder, logger)
	if err := engine.RecordFeedback(ctx, job, profile.ID, signal, comment, job.FitScore); err != nil {
		logger.Fatal("recording feedback", zap.Error(err))
	}

	logger.Info("feedback recorded",
		zap.String("job_key", job.Key()),
		zap.String("title", job.Title),
		zap.Int("signal", int(signal)),
	)

	if noLearn, _ := cmd.Flags().GetBool("no-learn"); noLearn {
		return
	}

	if err := engine.Update(ctx, profile.ID); err != nil {
		if errors.Is(err, learning.ErrNoProfileVector) {
			logger.Warn("profile has no embedding yet, skipping the learning run",
				zap.String("hint", "create the profile with a resume or summary so it can be embedded"),
			)
			return
		}
		logger.Fatal("learning from feedback", zap.Error(err))
	}

	logger.Info("preferences updated", zap.String("profile", profile.Name))
}

func askJudgment(logger *zap.Logger) (store.Signal, string) {
	judgment := promptui.Select{
		Label: "Your judgment",
		Items: []string{promptLike, promptDislike, promptComment},
	}

	_, choice, err := judgment.Run()
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}

	signal := store.SignalNone
	switch choice {
	case promptLike:
		signal = store.SignalLike
	case promptDislike:
		signal = store.SignalDislike
	}

	commentPrompt := promptui.Prompt{
		Label: "Comment (optional, ENTER to skip)",
	}
	comment, err := commentPrompt.Run()
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}

	return signal, comment
}

func pickJob(st *store.Store, logger *zap.Logger) *store.Job {
	jobs, err := st.Jobs()
	if err != nil {
		logger.Fatal("listing jobs", zap.Error(err))
	}
	if len(jobs) == 0 {
		logger.Fatal("no jobs stored yet", zap.String("hint", "run '"+app+" search' first"))
	}

	items := make([]string, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, fmt.Sprintf("%s %s / %s / fit %.2f",
			job.Key(), cell(job.Title, 40), cell(job.Company, 24), job.FitScore,
		))
	}

	jobPrompt := promptui.Select{
		Label: "Choose a posting and press ENTER",
		Items: items,
		Size:  15,
	}

	idx, _, err := jobPrompt.Run()
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}

	return jobs[idx]
}
