package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DefaultConfigPath    = "config/config.yaml"
	DefaultCallTimeout   = 45 * time.Second
	DefaultUploadTimeout = 30 * time.Second
	DefaultMaxIterations = 5
	DefaultVoice         = "kiki"
	DefaultArkBaseURL    = "https://ark.cn-beijing.volces.com/api/v3"
	DefaultMinimaxURL    = "https://api.minimaxi.chat/v1/t2a_v2"
	DefaultImageMaxBytes = 10 << 20
)

// 推理模型梯队：便宜/快速的在前，更强的作为兜底
var DefaultReasoningTiers = []string{
	"gemini-2.5-flash-lite",
	"gemini-2.0-flash",
	"gemini-1.5-flash",
}

type Config struct {
	Server struct {
		Port          string `yaml:"port"`
		Mode          string `yaml:"mode"`
		ImageMaxBytes int64  `yaml:"image_max_bytes"`
	} `yaml:"server"`
	MySQL struct {
		DSN string `yaml:"dsn"`
	} `yaml:"mysql"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
	MinIO struct {
		Endpoint  string        `yaml:"endpoint"`
		AccessKey string        `yaml:"access_key"`
		SecretKey string        `yaml:"secret_key"`
		Bucket    string        `yaml:"bucket"`
		UseSSL    bool          `yaml:"use_ssl"`
		Domain    string        `yaml:"domain"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"minio"`
	AI struct {
		// vision 后端：doubao（方舟 OpenAI 兼容接口）或 gemini
		VisionProvider   string        `yaml:"vision_provider"`
		GeminiAPIKey     string        `yaml:"gemini_api_key"`
		GeminiVision     string        `yaml:"gemini_vision_model"`
		ReasoningTiers   []string      `yaml:"reasoning_tiers"`
		ArkBaseURL       string        `yaml:"ark_base_url"`
		ArkAPIKey        string        `yaml:"ark_api_key"`
		ArkVisionModel   string        `yaml:"ark_vision_model"`
		MinimaxURL       string        `yaml:"minimax_url"`
		MinimaxAPIKey    string        `yaml:"minimax_api_key"`
		MinimaxGroupID   string        `yaml:"minimax_group_id"`
		Voice            string        `yaml:"voice"`
		CallTimeout      time.Duration `yaml:"call_timeout"`
		RequestsPerMin   int           `yaml:"requests_per_minute"`
		DescribeCacheTTL time.Duration `yaml:"describe_cache_ttl"`
	} `yaml:"ai"`
	Mentor struct {
		MaxIterations int `yaml:"max_iterations"`
	} `yaml:"mentor"`
}

var AppConfig *Config

// InitConfig 读取配置文件并写入全局 AppConfig，在 main.go 中调用
func InitConfig() error {
	path := os.Getenv("MENTOR_CONFIG")
	if path == "" {
		path = DefaultConfigPath
	}
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

// Load 解析 yaml，再用环境变量覆盖密钥类字段，最后补全默认值
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("配置文件读取失败: %w", err)
	}
	defer f.Close()

	cfg := &Config{}
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("配置文件解析失败: %w", err)
	}
	cfg.ApplyEnv()
	cfg.ApplyDefaults()
	return cfg, nil
}

func (c *Config) ApplyEnv() {
	override(&c.MySQL.DSN, "MYSQL_DSN")
	override(&c.Redis.Addr, "REDIS_ADDR")
	override(&c.Redis.Password, "REDIS_PASSWORD")
	override(&c.MinIO.Endpoint, "MINIO_ENDPOINT")
	override(&c.MinIO.AccessKey, "MINIO_ACCESS_KEY")
	override(&c.MinIO.SecretKey, "MINIO_SECRET_KEY")
	override(&c.MinIO.Bucket, "MINIO_BUCKET")
	override(&c.AI.GeminiAPIKey, "GEMINI_API_KEY")
	override(&c.AI.ArkAPIKey, "ARK_API_KEY")
	override(&c.AI.ArkVisionModel, "DOUBAO_VISION_MODEL")
	override(&c.AI.MinimaxAPIKey, "MINIMAX_API_KEY")
	override(&c.AI.MinimaxGroupID, "MINIMAX_GROUP_ID")
	override(&c.AI.MinimaxURL, "MINIMAX_API_URL")
}

func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Server.ImageMaxBytes <= 0 {
		c.Server.ImageMaxBytes = DefaultImageMaxBytes
	}
	if c.MinIO.Timeout <= 0 {
		c.MinIO.Timeout = DefaultUploadTimeout
	}
	if c.AI.VisionProvider == "" {
		c.AI.VisionProvider = "doubao"
	}
	if c.AI.GeminiVision == "" {
		c.AI.GeminiVision = "gemini-2.0-flash"
	}
	if len(c.AI.ReasoningTiers) == 0 {
		c.AI.ReasoningTiers = append([]string(nil), DefaultReasoningTiers...)
	}
	if c.AI.ArkBaseURL == "" {
		c.AI.ArkBaseURL = DefaultArkBaseURL
	}
	if c.AI.MinimaxURL == "" {
		c.AI.MinimaxURL = DefaultMinimaxURL
	}
	if c.AI.Voice == "" {
		c.AI.Voice = DefaultVoice
	}
	if c.AI.CallTimeout <= 0 {
		c.AI.CallTimeout = DefaultCallTimeout
	}
	if c.AI.RequestsPerMin <= 0 {
		c.AI.RequestsPerMin = 60
	}
	if c.AI.DescribeCacheTTL <= 0 {
		c.AI.DescribeCacheTTL = 24 * time.Hour
	}
	if c.Mentor.MaxIterations <= 0 {
		c.Mentor.MaxIterations = DefaultMaxIterations
	}
}

func override(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
