package cmd

import (
	"errors"
	"log"

	"career-agent/internal/arbeitsagentur"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "career-agent"
)

type Config struct {
	Database string                       `mapstructure:"database"`
	Profile  string                       `mapstructure:"profile"`
	Search   *arbeitsagentur.SearchParams `mapstructure:"search"`
	AI       *AIConfig                    `mapstructure:"ai"`
	Learning *LearningConfig              `mapstructure:"learning"`
}

type AIConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	Dimension  int    `mapstructure:"dimension"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type LearningConfig struct {
	LearnRate     float64 `mapstructure:"learn-rate"`
	CommentWeight float64 `mapstructure:"comment-weight"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "career-agent is a personal job-search assistant that learns your preferences from feedback",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is career-agent.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("profile", "p", "", "name of the profile to act on")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// A missing default config is fine, every setting has a fallback. An
	// explicitly passed or unparseable config is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Database == "" {
		config.Database = app + ".db"
	}
	if config.Search == nil {
		config.Search = &arbeitsagentur.SearchParams{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Learning == nil {
		config.Learning = &LearningConfig{}
	}

	return config, nil
}
