package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ppiankov/riskpoint/internal/model"
	"github.com/ppiankov/riskpoint/internal/observability"
	"github.com/ppiankov/riskpoint/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "riskpoint v0.2.0"

var (
	cfgFile   string
	verbose   bool
	debugMode bool
	mockFeed  bool
	logFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "riskpoint",
	Short: "riskpoint - disaster preparedness risk survey",
	Long: `riskpoint loads the disaster preparedness questionnaire and scores
answer sets into weighted risk points per category.

The highest- and lowest-risk categories are reported with the matching
feedback messages and result images.

Answers are given as a query string of record number to option index,
for example "1=0&2=1&3=0".`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.riskpoint/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "accept partial answers and show scoring diagnostics")
	rootCmd.PersistentFlags().BoolVar(&mockFeed, "mock", false, "use the bundled sample feed instead of the live API")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("output.debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("output.log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("feed.mock", rootCmd.PersistentFlags().Lookup("mock"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.riskpoint")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// RISKPOINT_FEED_API_KEY -> feed.api_key
	viper.SetEnvPrefix("RISKPOINT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range []string{
		"feed.url", "feed.api_key", "messages.url", "cache.dir",
		"llm.provider", "llm.model", "llm.api_key", "llm.base_url",
		"server.addr",
	} {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers viper values over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Provider keys follow the usual environment names when not configured
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "ollama":
			if base := os.Getenv("OLLAMA_BASE_URL"); base != "" && cfg.LLM.BaseURL == "" {
				cfg.LLM.BaseURL = base
			}
		}
	}
	return cfg, nil
}

func newLogger(cfg *model.Config) (*slog.Logger, error) {
	level := "info"
	if cfg.Output.Verbose {
		level = "debug"
	}
	return observability.NewLogger(level, cfg.Output.LogFormat, os.Stderr)
}

// setup loads config, builds the logger and a pipeline
func setup(opts ...pipeline.Option) (*model.Config, *slog.Logger, *pipeline.Pipeline, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	opts = append([]pipeline.Option{pipeline.WithLogger(logger)}, opts...)
	return cfg, logger, pipeline.NewPipeline(cfg, opts...), nil
}
