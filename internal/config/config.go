package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort  string `yaml:"api_port"`
	LogLevel string `yaml:"log_level"`

	SerperAPIKey  string `yaml:"serper_api_key"`
	SerperBaseURL string `yaml:"serper_base_url"`

	LinkupAPIKey  string `yaml:"linkup_api_key"`
	LinkupBaseURL string `yaml:"linkup_base_url"`

	TavilyAPIKey  string `yaml:"tavily_api_key"`
	TavilyBaseURL string `yaml:"tavily_base_url"`

	Neo4jURI        string `yaml:"neo4j_uri"`
	Neo4jUser       string `yaml:"neo4j_user"`
	Neo4jPassword   string `yaml:"neo4j_password"`
	Neo4jDatabase   string `yaml:"neo4j_database"`
	GraphProfileURL string `yaml:"graph_profile_url"`

	NATSURL           string `yaml:"nats_url"`
	NATSStreamSubject string `yaml:"nats_stream_subject"`

	BudgetFastMs          int `yaml:"budget_fast_ms"`
	BudgetBalancedMs      int `yaml:"budget_balanced_ms"`
	BudgetComprehensiveMs int `yaml:"budget_comprehensive_ms"`

	StreamChunkChars  int     `yaml:"stream_chunk_chars"`
	HybridGraphWeight float64 `yaml:"hybrid_graph_weight"`

	ProviderRateLimitRPS   float64 `yaml:"provider_rate_limit_rps"`
	ProviderRateLimitBurst int     `yaml:"provider_rate_limit_burst"`

	APIRateLimitRPS   float64 `yaml:"api_rate_limit_rps"`
	APIRateLimitBurst int     `yaml:"api_rate_limit_burst"`
	APIMaxInFlight    int     `yaml:"api_max_in_flight"`
	APIOverloadWaitMs int     `yaml:"api_overload_wait_ms"`

	BreakerEnabled bool `yaml:"breaker_enabled"`
}

// Load resolves configuration in three layers: built-in defaults, an
// optional YAML file named by WEBINTEL_CONFIG_FILE, then environment
// variables. Environment wins.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("WEBINTEL_CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func defaults() Config {
	return Config{
		APIPort:  "8080",
		LogLevel: "info",

		NATSStreamSubject: "webintel.stream",

		BudgetFastMs:          3000,
		BudgetBalancedMs:      6000,
		BudgetComprehensiveMs: 12000,

		StreamChunkChars:  80,
		HybridGraphWeight: 0.5,

		ProviderRateLimitRPS:   5,
		ProviderRateLimitBurst: 10,

		APIRateLimitRPS:   20,
		APIRateLimitBurst: 40,
		APIMaxInFlight:    64,
		APIOverloadWaitMs: 200,

		BreakerEnabled: true,
	}
}

func applyEnv(cfg *Config) {
	cfg.APIPort = envString("API_PORT", cfg.APIPort)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)

	cfg.SerperAPIKey = envString("SERPER_API_KEY", cfg.SerperAPIKey)
	cfg.SerperBaseURL = envString("SERPER_BASE_URL", cfg.SerperBaseURL)

	cfg.LinkupAPIKey = envString("LINKUP_API_KEY", cfg.LinkupAPIKey)
	cfg.LinkupBaseURL = envString("LINKUP_BASE_URL", cfg.LinkupBaseURL)

	cfg.TavilyAPIKey = envString("TAVILY_API_KEY", cfg.TavilyAPIKey)
	cfg.TavilyBaseURL = envString("TAVILY_BASE_URL", cfg.TavilyBaseURL)

	cfg.Neo4jURI = envString("NEO4J_URI", cfg.Neo4jURI)
	cfg.Neo4jUser = envString("NEO4J_USER", cfg.Neo4jUser)
	cfg.Neo4jPassword = envString("NEO4J_PASSWORD", cfg.Neo4jPassword)
	cfg.Neo4jDatabase = envString("NEO4J_DATABASE", cfg.Neo4jDatabase)
	cfg.GraphProfileURL = envString("GRAPH_PROFILE_URL", cfg.GraphProfileURL)

	cfg.NATSURL = envString("NATS_URL", cfg.NATSURL)
	cfg.NATSStreamSubject = envString("NATS_STREAM_SUBJECT", cfg.NATSStreamSubject)

	cfg.BudgetFastMs = envInt("BUDGET_FAST_MS", cfg.BudgetFastMs)
	cfg.BudgetBalancedMs = envInt("BUDGET_BALANCED_MS", cfg.BudgetBalancedMs)
	cfg.BudgetComprehensiveMs = envInt("BUDGET_COMPREHENSIVE_MS", cfg.BudgetComprehensiveMs)

	cfg.StreamChunkChars = envInt("STREAM_CHUNK_CHARS", cfg.StreamChunkChars)
	cfg.HybridGraphWeight = envFloat("HYBRID_GRAPH_WEIGHT", cfg.HybridGraphWeight)

	cfg.ProviderRateLimitRPS = envFloat("PROVIDER_RATE_LIMIT_RPS", cfg.ProviderRateLimitRPS)
	cfg.ProviderRateLimitBurst = envInt("PROVIDER_RATE_LIMIT_BURST", cfg.ProviderRateLimitBurst)

	cfg.APIRateLimitRPS = envFloat("API_RATE_LIMIT_RPS", cfg.APIRateLimitRPS)
	cfg.APIRateLimitBurst = envInt("API_RATE_LIMIT_BURST", cfg.APIRateLimitBurst)
	cfg.APIMaxInFlight = envInt("API_MAX_IN_FLIGHT", cfg.APIMaxInFlight)
	cfg.APIOverloadWaitMs = envInt("API_OVERLOAD_WAIT_MS", cfg.APIOverloadWaitMs)

	cfg.BreakerEnabled = envBool("BREAKER_ENABLED", cfg.BreakerEnabled)
}

func envString(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
