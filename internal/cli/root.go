// Package cli wires configuration, logging and the sponsorgrader commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/sponsorgrader/internal/model"
)

// Version is set at build time with -ldflags
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
	logger  = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sponsorgrader",
	Short: "SponsorGrader - research and grade sponsor applications",
	Long: `SponsorGrader reads unprocessed sponsor applications from a Google Sheet,
researches each company with a web-search capable language model, and writes
the research notes and a Flagship / Eligible / Rejected decision back to the row.

Rows are processed one at a time in sheet order. A row is unprocessed while
both its Research Notes and Decision cells are empty.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
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
		fmt.Printf("sponsorgrader %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.sponsorgrader/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// credentialEnv binds config keys to the plain environment names the
// deployment already uses
var credentialEnv = map[string][]string{
	"google.client_id":      {"GOOGLE_CLIENT_ID"},
	"google.client_secret":  {"GOOGLE_CLIENT_SECRET"},
	"google.refresh_token":  {"GOOGLE_REFRESH_TOKEN"},
	"sheets.media_url":      {"MEDIA_SHEET_URL"},
	"sheets.blog_url":       {"BLOG_SHEET_URL"},
	"llm.openai_api_key":    {"OPENAI_API_KEY"},
	"llm.anthropic_api_key": {"ANTHROPIC_API_KEY"},
	"llm.gemini_api_key":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"http.http_proxy":       {"HTTP_PROXY", "http_proxy"},
	"http.https_proxy":      {"HTTPS_PROXY", "https_proxy"},
	"http.no_proxy":         {"NO_PROXY", "no_proxy"},
}

// initConfig loads .env, then reads in config file and ENV variables
func initConfig() {
	loadDotenv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if dir, err := configDir(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	} else {
		fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
	}

	// Read in environment variables that match SPONSORGRADER_*
	viper.SetEnvPrefix("SPONSORGRADER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(model.DefaultConfig())

	for key, envs := range credentialEnv {
		// The prefixed form stays available as the first choice
		names := append([]string{"SPONSORGRADER_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, envs...)
		_ = viper.BindEnv(append([]string{key}, names...)...)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key of cfg with viper so that nested keys can be
// overridden from the environment
func setDefaults(cfg model.Config) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	for key, value := range flatten("", tree) {
		viper.SetDefault(key, value)
	}
}

func flatten(prefix string, tree map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			for sk, sv := range flatten(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = v
	}
	return out
}

// configDir returns ~/.sponsorgrader
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sponsorgrader"), nil
}

// loadConfig builds the effective configuration: flags > env > file > defaults
func loadConfig() (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if cfg.LLM.BaseURL == "" && strings.EqualFold(cfg.LLM.Provider, "ollama") {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	if dir, err := configDir(); err == nil {
		if cfg.Cache.Dir == "" {
			cfg.Cache.Dir = filepath.Join(dir, "cache")
		}
		if cfg.Ledger.Path == "" {
			cfg.Ledger.Path = filepath.Join(dir, "grades.db")
		}
	}
	return cfg, nil
}
