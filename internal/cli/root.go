package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ppiankov/veracity/internal/consistency"
	"github.com/ppiankov/veracity/internal/detect"
	"github.com/ppiankov/veracity/internal/knowledge"
	"github.com/ppiankov/veracity/internal/logging"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/sampler"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// version is set at build time via -ldflags
var version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "veracity",
	Short: "Veracity - hallucination detection for language model responses",
	Long: `Veracity scores how trustworthy a language model response is.

It combines three signals into one verdict:
- Linguistic uncertainty (hedging markers in the response)
- Self-consistency across independently sampled responses
- Verification of each claim against supplied context and a knowledge base

Every verdict carries the evidence and reasoning that produced it.`,
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
	Long:  `Display the version number of Veracity.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "veracity %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.veracity/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.veracity")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match VERACITY_*, with nested
	// keys joined by underscores (VERACITY_SAMPLER_API_KEY)
	viper.SetEnvPrefix("VERACITY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := registerDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering config defaults: %v\n", err)
	}

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults records every default under its dotted key so that
// AutomaticEnv can resolve nested settings
func registerDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}

	var walk func(prefix string, m map[string]interface{})
	walk = func(prefix string, m map[string]interface{}) {
		for k, val := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if sub, ok := val.(map[string]interface{}); ok {
				walk(key, sub)
				continue
			}
			v.SetDefault(key, val)
		}
	}
	walk("", tree)

	// Keys omitted from the YAML form when empty
	for _, key := range []string{"sampler.api_key", "sampler.base_url", "sampler.http_proxy", "sampler.https_proxy", "sampler.no_proxy"} {
		if !v.IsSet(key) {
			v.SetDefault(key, "")
		}
	}
	return nil
}

// loadConfig merges defaults, the config file and VERACITY_* variables,
// then applies provider-specific environment fallbacks
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	switch strings.ToLower(cfg.Sampler.Provider) {
	case "openai":
		if cfg.Sampler.APIKey == "" {
			cfg.Sampler.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "ollama":
		if cfg.Sampler.BaseURL == "" {
			cfg.Sampler.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}

	if v.GetBool("verbose") {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runtimeDeps bundles everything a command needs to run detections
type runtimeDeps struct {
	cfg      *model.Config
	logger   *slog.Logger
	detector *detect.Detector
	sampler  consistency.Sampler // nil when sampling is disabled
	provider sampler.Provider
	closer   io.Closer
}

func (d *runtimeDeps) Close() error {
	return d.closer.Close()
}

// setup loads config and wires the logger, knowledge base, sampler and detector
func setup() (*runtimeDeps, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, err
	}

	kb, closer, err := knowledge.Open(cfg.KnowledgeBase, logger)
	if err != nil {
		return nil, fmt.Errorf("open knowledge base: %w", err)
	}

	provider, err := sampler.New(cfg, logger)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("create sampler: %w", err)
	}

	detector, err := detect.NewDetector(cfg.Detector, kb, detect.WithLogger(logger))
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	deps := &runtimeDeps{
		cfg:      cfg,
		logger:   logger,
		detector: detector,
		provider: provider,
		closer:   closer,
	}
	if provider != nil {
		deps.sampler = provider
	}
	return deps, nil
}
