package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port         int
	DevMode      bool
	DatabasePath string
	LogLevel     string

	// Upstream services
	TokenMetricsAPIURL   string
	TokenMetricsAPIKey   string
	RequestNetworkAPIURL string
	RequestNetworkAPIKey string
	LLMAPIURL            string
	LLMAPIKey            string
	LLMModel             string

	// Settlement identity, stamped into execution details only
	WalletAddress string
	ChainNetwork  string

	// Planning
	CandidateSymbols []string
	AllocationTopN   int
	ScoringStrategy  string // "sentiment" or "technical"

	// Sentiment-strategy weights, overridable so both historical scoring
	// behaviors stay reachable without code changes
	WeightTraderGrade float64
	WeightTAGrade     float64
	WeightSignal      float64
	WeightBullBear    float64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvAsInt("PORT", 8000),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		DatabasePath: getEnv("DATABASE_PATH", "./data/factora.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		TokenMetricsAPIURL:   getEnv("TOKENMETRICS_API_URL", "https://api.tokenmetrics.com/v2"),
		TokenMetricsAPIKey:   getEnv("TOKENMETRICS_API_KEY", ""),
		RequestNetworkAPIURL: getEnv("REQUEST_NETWORK_API_URL", "https://api.request.network/v1"),
		RequestNetworkAPIKey: getEnv("REQUEST_NETWORK_API_KEY", ""),
		LLMAPIURL:            getEnv("LLM_API_URL", ""),
		LLMAPIKey:            getEnv("LLM_API_KEY", ""),
		LLMModel:             getEnv("LLM_MODEL", "gpt-4"),

		WalletAddress: getEnv("AGENT_WALLET_ADDRESS", "0x0000000000000000000000000000000000000000"),
		ChainNetwork:  getEnv("CHAIN_NETWORK", "base-sepolia"),

		CandidateSymbols: getEnvAsList("CANDIDATE_SYMBOLS", []string{"ETH", "BTC", "LINK", "MATIC", "AAVE"}),
		AllocationTopN:   getEnvAsInt("ALLOCATION_TOP_N", 3),
		ScoringStrategy:  getEnv("SCORING_STRATEGY", "sentiment"),

		WeightTraderGrade: getEnvAsFloat("WEIGHT_TRADER_GRADE", 0.35),
		WeightTAGrade:     getEnvAsFloat("WEIGHT_TA_GRADE", 0.25),
		WeightSignal:      getEnvAsFloat("WEIGHT_SIGNAL", 0.20),
		WeightBullBear:    getEnvAsFloat("WEIGHT_BULL_BEAR", 0.20),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}

	if c.AllocationTopN < 1 {
		return fmt.Errorf("ALLOCATION_TOP_N must be at least 1")
	}

	if c.ScoringStrategy != "sentiment" && c.ScoringStrategy != "technical" {
		return fmt.Errorf("SCORING_STRATEGY must be 'sentiment' or 'technical', got %q", c.ScoringStrategy)
	}

	if len(c.CandidateSymbols) == 0 {
		return fmt.Errorf("CANDIDATE_SYMBOLS must list at least one symbol")
	}

	// Note: upstream API keys optional, the engine degrades to synthetic data

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(strings.ToUpper(item))
		if item != "" {
			items = append(items, item)
		}
	}

	if len(items) == 0 {
		return defaultValue
	}
	return items
}
