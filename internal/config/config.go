package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all pipeline configuration
type Config struct {
	App       App       `mapstructure:"app"`
	AI        AI        `mapstructure:"ai"`
	Pipeline  Pipeline  `mapstructure:"pipeline"`
	Classify  Classify  `mapstructure:"classify"`
	Summary   Summary   `mapstructure:"summary"`
	Recommend Recommend `mapstructure:"recommend"`
	Store     Store     `mapstructure:"store"`
}

// App holds general application configuration
type App struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	DataDir  string `mapstructure:"data_dir"`
}

// AI holds model endpoint configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Timeout     string  `mapstructure:"timeout"`
	MaxTokens   int32   `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

// Pipeline holds orchestrator configuration
type Pipeline struct {
	Workers       int    `mapstructure:"workers"`        // Concurrent enrichment workers
	RetryAttempts int    `mapstructure:"retry_attempts"` // Attempts per stage before Failed
	RetryBackoff  string `mapstructure:"retry_backoff"`  // Base delay between attempts
}

// Classify holds sentiment classifier configuration
type Classify struct {
	// Epsilon is the probability band within which the extreme classes are
	// considered tied and the article is labeled neutral.
	Epsilon float64 `mapstructure:"epsilon"`
	// PivotLanguage is the language text is translated to when no
	// language-specific model is configured.
	PivotLanguage string `mapstructure:"pivot_language"`
	// Models maps language codes to model names. Lookup is deterministic:
	// exact language match first, otherwise the pivot route.
	Models map[string]string `mapstructure:"models"`
}

// Summary holds summarizer configuration
type Summary struct {
	TargetWords int `mapstructure:"target_words"` // Target summary length in words
	MaxChars    int `mapstructure:"max_chars"`    // Hard upper bound on summary size
	ChunkChars  int `mapstructure:"chunk_chars"`  // Max chars per model call
}

// Recommend holds hybrid recommender configuration
type Recommend struct {
	ContentWeight       float64 `mapstructure:"content_weight"`
	CollaborativeWeight float64 `mapstructure:"collaborative_weight"`
	Neighbors           int     `mapstructure:"neighbors"` // Neighborhood size for collaborative scoring
}

// Store holds persistence configuration
type Store struct {
	Directory string `mapstructure:"directory"`
	Timeout   string `mapstructure:"timeout"`
}

var globalConfig *Config

// Load reads configuration from file, environment and defaults.
// Priority: explicit config file > .env > environment > defaults.
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".newsintel")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// RetryBackoffDuration parses the configured backoff base delay.
func (p Pipeline) RetryBackoffDuration() time.Duration {
	d, err := time.ParseDuration(p.RetryBackoff)
	if err != nil {
		return time.Second
	}
	return d
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.data_dir", ".newsintel")

	// AI defaults
	viper.SetDefault("ai.gemini.model", "gemini-flash-lite-latest")
	viper.SetDefault("ai.gemini.timeout", "30s")
	viper.SetDefault("ai.gemini.max_tokens", 8192)
	// Temperature 0 keeps repeated runs on identical text comparable.
	viper.SetDefault("ai.gemini.temperature", 0.0)

	// Pipeline defaults
	viper.SetDefault("pipeline.workers", 4)
	viper.SetDefault("pipeline.retry_attempts", 3)
	viper.SetDefault("pipeline.retry_backoff", "1s")

	// Classifier defaults
	viper.SetDefault("classify.epsilon", 0.05)
	viper.SetDefault("classify.pivot_language", "en")

	// Summarizer defaults
	viper.SetDefault("summary.target_words", 150)
	viper.SetDefault("summary.max_chars", 1200)
	viper.SetDefault("summary.chunk_chars", 4000)

	// Recommender defaults
	viper.SetDefault("recommend.content_weight", 0.6)
	viper.SetDefault("recommend.collaborative_weight", 0.4)
	viper.SetDefault("recommend.neighbors", 20)

	// Store defaults
	viper.SetDefault("store.directory", ".newsintel")
	viper.SetDefault("store.timeout", "5s")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	bindEnvKeys("ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"NEWSINTEL_DEBUG",
	})

	bindEnvKeys("store.directory", []string{
		"NEWSINTEL_DATA_DIR",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(key string, envVars []string) {
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			viper.Set(key, value)
			return
		}
	}
}

// validateConfig checks configuration consistency
func validateConfig(config *Config) error {
	if config.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be at least 1, got %d", config.Pipeline.Workers)
	}

	if config.Pipeline.RetryAttempts < 1 {
		return fmt.Errorf("pipeline.retry_attempts must be at least 1, got %d", config.Pipeline.RetryAttempts)
	}

	if config.Classify.Epsilon < 0 || config.Classify.Epsilon >= 0.5 {
		return fmt.Errorf("classify.epsilon must be in [0, 0.5), got %f", config.Classify.Epsilon)
	}

	if config.Summary.TargetWords < 1 || config.Summary.MaxChars < 1 {
		return fmt.Errorf("summary.target_words and summary.max_chars must be positive")
	}

	sum := config.Recommend.ContentWeight + config.Recommend.CollaborativeWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("recommend weights must sum to 1.0, got %f", sum)
	}
	if config.Recommend.ContentWeight < 0 || config.Recommend.CollaborativeWeight < 0 {
		return fmt.Errorf("recommend weights must be non-negative")
	}

	return nil
}
