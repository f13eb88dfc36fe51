package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhishilabs/zhishi"
)

var (
	cfgDBPath  string
	cfgAPIKey  string
	cfgModel   string
	cfgVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "zhishi",
	Short: "Zhishi - AI knowledge card CLI",
	Long: `Zhishi generates swipeable knowledge cards with an AI model and runs
multi-agent learning conversations on them, caching everything locally.`,
}

func init() {
	// Best effort; a missing .env file is fine.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&cfgDBPath, "db-path", "", "Path to local cache database (default: ./data/zhishi.db)")
	rootCmd.PersistentFlags().StringVar(&cfgAPIKey, "api-key", "", "API key for the model service")
	rootCmd.PersistentFlags().StringVar(&cfgModel, "model", "", "Model identifier (default: glm-4-flash)")
	rootCmd.PersistentFlags().BoolVarP(&cfgVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() zhishi.Config {
	cfg := zhishi.DefaultConfig()

	// Override with environment variables
	env := zhishi.ConfigFromEnv()
	if env.APIBaseURL != "" {
		cfg.APIBaseURL = env.APIBaseURL
	}
	if env.APIKey != "" {
		cfg.APIKey = env.APIKey
	}
	if env.Model != "" {
		cfg.Model = env.Model
	}
	if env.LocalPath != "" {
		cfg.LocalPath = env.LocalPath
	}

	// Flags win over environment
	if cfgDBPath != "" {
		cfg.LocalPath = cfgDBPath
	}
	if cfgAPIKey != "" {
		cfg.APIKey = cfgAPIKey
	}
	if cfgModel != "" {
		cfg.Model = cfgModel
	}

	if cfgVerbose {
		if logger, err := zap.NewDevelopment(); err == nil {
			cfg.Logger = logger
		}
	}

	return cfg
}
