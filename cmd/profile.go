package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"career-agent/internal/ingest"
	"career-agent/internal/learning"
	"career-agent/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the profiles jobs are matched against",
}

var profileAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a profile, optionally seeded from a resume file",
	Run: func(cmd *cobra.Command, _ []string) {
		profileAdd(cmd)
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored profiles",
	Run: func(_ *cobra.Command, _ []string) {
		profileList()
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileListCmd)

	profileAddCmd.Flags().StringP("name", "n", "", "profile name (required)")
	profileAddCmd.Flags().StringP("resume", "r", "", "resume file to seed the summary from (.docx, .txt or .md)")
	profileAddCmd.Flags().String("summary", "", "short description of the desired role")
	profileAddCmd.Flags().String("skills", "", "comma-separated skills, e.g. 'sql, python, dashboards'")
	profileAddCmd.Flags().String("region", "", "preferred region, e.g. 'Berlin'")
}

func profileAdd(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	name, _ := cmd.Flags().GetString("name")
	if strings.TrimSpace(name) == "" {
		logger.Fatal("a profile name is required", zap.String("hint", "pass --name"))
	}

	summary, _ := cmd.Flags().GetString("summary")
	if resume, _ := cmd.Flags().GetString("resume"); resume != "" {
		text, err := ingest.ExtractText(resume)
		if err != nil {
			logger.Fatal("reading resume", zap.Error(err))
		}
		logger.Info("resume ingested", zap.String("file", resume), zap.Int("chars", len(text)))
		if strings.TrimSpace(summary) == "" {
			summary = text
		} else {
			summary = summary + "\n" + text
		}
	}

	skills, _ := cmd.Flags().GetString("skills")
	region, _ := cmd.Flags().GetString("region")

	st := openStore(config, logger)
	defer st.Close()

	profile := &store.Profile{
		Name:    strings.TrimSpace(name),
		Summary: summary,
		Skills:  skills,
		Region:  region,
	}

	id, err := st.CreateProfile(profile)
	if err != nil {
		logger.Fatal("creating profile", zap.Error(err))
	}

	embedder, err := newEmbedder(ctx, config.AI.Gemini, logger)
	if err != nil {
		logger.Warn("profile created without an embedding, learning stays disabled for it", zap.Error(err))
		return
	}

	vec, err := embedder.Embed(ctx, profileText(profile))
	if err != nil {
		logger.Warn("embedding profile failed, learning stays disabled for it", zap.Error(err))
		return
	}

	learning.Normalize(vec)
	if err := st.SetProfileVector(id, vec); err != nil {
		logger.Fatal("storing profile embedding", zap.Error(err))
	}

	logger.Info("profile created",
		zap.String("name", profile.Name),
		zap.Int64("profile_id", id),
		zap.Int("embedding_dimensions", len(vec)),
	)
}

// profileText is what the cold-start preference embedding is computed from.
func profileText(p *store.Profile) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Summary, p.Skills, p.Region} {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

func profileList() {
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

	profiles, err := st.Profiles()
	if err != nil {
		logger.Fatal("listing profiles", zap.Error(err))
	}
	if len(profiles) == 0 {
		logger.Info("no profiles yet", zap.String("hint", "create one with '"+app+" profile add'"))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tREGION\tSKILLS\tEMBEDDED")
	for _, p := range profiles {
		embedded := "no"
		if vec, err := st.ProfileVector(p.ID); err == nil && len(vec) > 0 {
			embedded = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, cell(p.Region, 20), cell(p.Skills, 40), embedded,
		)
	}
	w.Flush()
}
