package cmd

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "skillmatch"
)

type Config struct {
	Corpus    *CorpusConfig    `mapstructure:"corpus"`
	Embedding *EmbeddingConfig `mapstructure:"embedding"`
	Oracle    *OracleConfig    `mapstructure:"oracle"`
	Matching  *MatchingConfig  `mapstructure:"matching"`
	Salary    *SalaryConfig    `mapstructure:"salary"`
}

type CorpusConfig struct {
	// Source is "file" or "postgres".
	Source   string          `mapstructure:"source"`
	File     string          `mapstructure:"file"`
	Postgres *PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	DSNFile      string `mapstructure:"dsn-file"`
	Table        string `mapstructure:"table"`
	MaxOpenConns int    `mapstructure:"max-open-conns"`
	// Prefilter > 0 pre-selects that many nearest postings in the database.
	Prefilter int `mapstructure:"prefilter"`
}

type EmbeddingConfig struct {
	Provider   string                 `mapstructure:"provider"`
	Model      string                 `mapstructure:"model"`
	Dimensions int                    `mapstructure:"dimensions"`
	Timeout    time.Duration          `mapstructure:"timeout"`
	Cache      *CacheConfig           `mapstructure:"cache"`
	Gemini     *EmbeddingGeminiConfig `mapstructure:"gemini"`
	OpenAI     *EmbeddingOpenAIConfig `mapstructure:"openai"`
}

type CacheConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	PasswordFile string        `mapstructure:"password-file"`
	DB           int           `mapstructure:"db"`
	TTL          time.Duration `mapstructure:"ttl"`
}

type EmbeddingGeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
}

type EmbeddingOpenAIConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	BaseURL    string `mapstructure:"base-url"`
}

type OracleConfig struct {
	Provider     string              `mapstructure:"provider"`
	Timeout      time.Duration       `mapstructure:"timeout"`
	MaxLogLength int                 `mapstructure:"max-log-length"`
	Gemini       *OracleGeminiConfig `mapstructure:"gemini"`
	OpenAI       *OracleOpenAIConfig `mapstructure:"openai"`
}

type OracleGeminiConfig struct {
	Model      string `mapstructure:"model"`
	APIKeyFile string `mapstructure:"api-key-file"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type OracleOpenAIConfig struct {
	Model       string  `mapstructure:"model"`
	APIKeyFile  string  `mapstructure:"api-key-file"`
	BaseURL     string  `mapstructure:"base-url"`
	Temperature float64 `mapstructure:"temperature"`
}

type MatchingConfig struct {
	Strategy       string  `mapstructure:"strategy"`
	Threshold      float64 `mapstructure:"threshold"`
	RetrievalWidth int     `mapstructure:"retrieval-width"`
	ResultWidth    int     `mapstructure:"result-width"`
	RerankLimit    int     `mapstructure:"rerank-limit"`
	SnippetLength  int     `mapstructure:"snippet-length"`
	ExcludeFile    string  `mapstructure:"exclude-file"`
}

type SalaryConfig struct {
	MaxTitles int `mapstructure:"max-titles"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "skillmatch matches candidate skills against a corpus of embedded job postings",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envBindings := map[string]string{
		"corpus.postgres.dsn-file":      "SKILLMATCH_DB_DSN_FILE",
		"oracle.gemini.api-key-file":    "GEMINI_API_KEY_FILE",
		"embedding.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"oracle.openai.api-key-file":    "OPENAI_API_KEY_FILE",
		"embedding.openai.api-key-file": "OPENAI_API_KEY_FILE",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is skillmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("corpus.source", "file")
	viper.SetDefault("corpus.file", "jobs.json")
	viper.SetDefault("corpus.postgres.table", "jobs")
	viper.SetDefault("corpus.postgres.max-open-conns", 10)

	viper.SetDefault("embedding.provider", "openai")
	viper.SetDefault("embedding.dimensions", 384)
	viper.SetDefault("embedding.timeout", 10*time.Second)
	viper.SetDefault("embedding.cache.addr", "localhost:6379")
	viper.SetDefault("embedding.cache.ttl", 24*time.Hour)

	viper.SetDefault("oracle.provider", "gemini")
	viper.SetDefault("oracle.timeout", 60*time.Second)
	viper.SetDefault("oracle.max-log-length", 200)
	viper.SetDefault("oracle.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("oracle.gemini.max-retries", 3)
	viper.SetDefault("oracle.openai.model", "gpt-4o-mini")
	viper.SetDefault("oracle.openai.temperature", 0.1)

	viper.SetDefault("matching.strategy", "oracle")
	viper.SetDefault("matching.threshold", 0.3)
	viper.SetDefault("matching.retrieval-width", 100)
	viper.SetDefault("matching.result-width", 10)
	viper.SetDefault("matching.rerank-limit", 15)
	viper.SetDefault("matching.snippet-length", 600)

	viper.SetDefault("salary.max-titles", 3)
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Defaults and environment are enough without a config file, but an
	// explicitly given or broken file is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
