package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Retry  RetryConfig
	Stream StreamConfig
	// RoleCatalogFile optionally points at a YAML role catalog override.
	RoleCatalogFile string
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	retry, err := loadRetryConfig()
	if err != nil {
		return nil, err
	}

	stream, err := loadStreamConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:          server,
		AI:              ai,
		Retry:           retry,
		Stream:          stream,
		RoleCatalogFile: strings.TrimSpace(os.Getenv("ROLE_CATALOG_FILE")),
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr            string
	AdminPassword   string
	AllowedOrigin   string
	RefererCheck    bool
	RateLimitMax    int
	RateLimitWindow time.Duration
	StaticDir       string
}

// AuthEnabled reports whether basic auth protects the server.
func (c ServerConfig) AuthEnabled() bool {
	return c.AdminPassword != ""
}

func loadServerConfig() (ServerConfig, error) {
	addr, err := parseAddr(os.Getenv("PORT"))
	if err != nil {
		return ServerConfig{}, err
	}

	refererCheck, err := parseBoolEnv("REFERER_CHECK", true)
	if err != nil {
		return ServerConfig{}, err
	}

	rateMax := 50
	if override, err := parseOptionalIntEnv("RATE_LIMIT_MAX"); err != nil {
		return ServerConfig{}, err
	} else if override != nil {
		if *override < 0 {
			return ServerConfig{}, fmt.Errorf("invalid RATE_LIMIT_MAX value %q: must not be negative", os.Getenv("RATE_LIMIT_MAX"))
		}
		rateMax = *override
	}

	window, err := parseDurationEnv("RATE_LIMIT_WINDOW", 15*time.Minute)
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{
		Addr:            addr,
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		AllowedOrigin:   getEnvOrDefault("ALLOWED_ORIGIN", "http://localhost:3000"),
		RefererCheck:    refererCheck,
		RateLimitMax:    rateMax,
		RateLimitWindow: window,
		StaticDir:       getEnvOrDefault("STATIC_DIR", "public"),
	}, nil
}

// parseAddr 解析服务器监听地址。
func parseAddr(raw string) (string, error) {
	port := strings.TrimSpace(raw)
	if port == "" {
		port = "3000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// Provider names.
const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider    string
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int

	StepTimeout    time.Duration
	FullTimeout    time.Duration
	SummaryTimeout time.Duration
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	if c.Model == "" {
		return false
	}
	if c.Provider == ProviderOpenAI {
		return c.APIKey != ""
	}
	return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%s 凭证或模型配置缺失", c.Provider)
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	switch c.Provider {
	case ProviderOpenAI:
		cfg := &openai.ChatModelConfig{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			TopP:        topP,
		}
		chatModel, err := openai.NewChatModel(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return chatModel, nil
	case ProviderArk:
		cfg := &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.Region,
			APIKey:      c.APIKey,
			AccessKey:   c.AccessKey,
			SecretKey:   c.SecretKey,
			Model:       c.Model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			TopP:        topP,
		}
		chatModel, err := ark.NewChatModel(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return chatModel, nil
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", c.Provider)
	}
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderArk))
	if provider != ProviderArk && provider != ProviderOpenAI {
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q: want %s or %s", provider, ProviderArk, ProviderOpenAI)
	}

	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stepTimeout, err := parseDurationEnv("AI_STEP_TIMEOUT", 30*time.Second)
	if err != nil {
		return AIConfig{}, err
	}
	fullTimeout, err := parseDurationEnv("AI_FULL_TIMEOUT", 45*time.Second)
	if err != nil {
		return AIConfig{}, err
	}
	summaryTimeout, err := parseDurationEnv("AI_SUMMARY_TIMEOUT", 30*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		Provider:       provider,
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		StepTimeout:    stepTimeout,
		FullTimeout:    fullTimeout,
		SummaryTimeout: summaryTimeout,
	}

	if provider == ProviderOpenAI {
		cfg.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		cfg.BaseURL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
		cfg.Model = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
		return cfg, nil
	}

	cfg.APIKey = strings.TrimSpace(os.Getenv("ARK_API_KEY"))
	cfg.AccessKey = strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY"))
	cfg.SecretKey = strings.TrimSpace(os.Getenv("ARK_SECRET_KEY"))
	cfg.Model = strings.TrimSpace(os.Getenv("Model"))
	cfg.BaseURL = getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
	cfg.Region = getEnvOrDefault("ARK_REGION", "cn-beijing")
	return cfg, nil
}

// RetryConfig controls provider retries.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func loadRetryConfig() (RetryConfig, error) {
	attempts := 3
	if override, err := parseOptionalIntEnv("AI_MAX_ATTEMPTS"); err != nil {
		return RetryConfig{}, err
	} else if override != nil {
		if *override < 1 {
			attempts = 1
		} else {
			attempts = *override
		}
	}

	delay, err := parseDurationEnv("AI_RETRY_BASE_DELAY", time.Second)
	if err != nil {
		return RetryConfig{}, err
	}

	return RetryConfig{MaxAttempts: attempts, BaseDelay: delay}, nil
}

// StreamConfig controls the typing animation stream.
type StreamConfig struct {
	TypingInterval time.Duration
}

func loadStreamConfig() (StreamConfig, error) {
	interval, err := parseDurationEnv("TYPING_INTERVAL", 30*time.Millisecond)
	if err != nil {
		return StreamConfig{}, err
	}
	return StreamConfig{TypingInterval: interval}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
