package model

import "time"

// Config is the complete runtime configuration
type Config struct {
	Feed         FeedConfig        `yaml:"feed" mapstructure:"feed"`
	Messages     MessagesConfig    `yaml:"messages" mapstructure:"messages"`
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Schema       Schema            `yaml:"schema" mapstructure:"schema"`
	Images       ImageConfig       `yaml:"images" mapstructure:"images"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Server       ServerConfig      `yaml:"server" mapstructure:"server"`
}

// FeedConfig locates the question feed
type FeedConfig struct {
	URL    string `yaml:"url" mapstructure:"url"`
	APIKey string `yaml:"api_key,omitempty" mapstructure:"api_key"` // Sent as x-api-key
	Mock   bool   `yaml:"mock" mapstructure:"mock"`                 // Use the bundled fixture
}

// MessagesConfig locates the result message store
type MessagesConfig struct {
	// URL is an http(s) URL or a file path; empty uses the bundled store
	URL           string `yaml:"url" mapstructure:"url"`
	RespectRobots bool   `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// HTTPConfig controls outbound requests
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls response caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls batch scoring
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig limits outbound requests per host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// Schema names the raw feed fields the normalizer reads
type Schema struct {
	RecordNumber      string `yaml:"record_number" mapstructure:"record_number"`
	Question          string `yaml:"question" mapstructure:"question"`
	Category          string `yaml:"category" mapstructure:"category"`
	DisplayOrder      string `yaml:"display_order" mapstructure:"display_order"`
	Visibility        string `yaml:"visibility" mapstructure:"visibility"`
	DisabledValue     string `yaml:"disabled_value" mapstructure:"disabled_value"`
	Choices           string `yaml:"choices" mapstructure:"choices"`
	ChoiceAnswer      string `yaml:"choice_answer" mapstructure:"choice_answer"`
	ChoiceRiskPoint   string `yaml:"choice_risk_point" mapstructure:"choice_risk_point"`
	Impacts           string `yaml:"impacts" mapstructure:"impacts"`
	ImpactTarget      string `yaml:"impact_target" mapstructure:"impact_target"`
	ImpactCoefficient string `yaml:"impact_coefficient" mapstructure:"impact_coefficient"`
	ImpactCondition   string `yaml:"impact_condition" mapstructure:"impact_condition"`
	ImpactExpect      string `yaml:"impact_expect" mapstructure:"impact_expect"`
	ImpactDescription string `yaml:"impact_description" mapstructure:"impact_description"`
}

// ImageConfig locates result images
type ImageConfig struct {
	BasePath string `yaml:"base_path" mapstructure:"base_path"`
}

// OutputConfig controls presentation
type OutputConfig struct {
	Verbose   bool   `yaml:"verbose" mapstructure:"verbose"`
	Debug     bool   `yaml:"debug" mapstructure:"debug"` // Allow partial answers, show diagnostics
	LogFormat string `yaml:"log_format" mapstructure:"log_format"`
}

// LLMConfig enables optional generated advice
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "" disables
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// DefaultSchema returns the field names used by the live feed
func DefaultSchema() Schema {
	return Schema{
		RecordNumber:      "レコード番号",
		Question:          "質問文",
		Category:          "カテゴリ",
		DisplayOrder:      "カテゴリ内の表示順序",
		Visibility:        "表示設定",
		DisabledValue:     "disabled",
		Choices:           "選択肢テーブル",
		ChoiceAnswer:      "回答項目",
		ChoiceRiskPoint:   "リスクポイント",
		Impacts:           "影響する設問テーブル",
		ImpactTarget:      "影響する設問",
		ImpactCoefficient: "係数",
		ImpactCondition:   "条件",
		ImpactExpect:      "条件値",
		ImpactDescription: "説明",
	}
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			URL: "https://f56gy9u3sa.execute-api.ap-northeast-1.amazonaws.com/dev/items",
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "riskpoint/0.2 (+https://github.com/ppiankov/riskpoint)",
			MaxBodyBytes: 5_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Schema: DefaultSchema(),
		Images: ImageConfig{
			BasePath: "./img/",
		},
		Output: OutputConfig{
			LogFormat: "text",
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 600,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
	}
}
