package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	LogFile  string
	TraceDir string
	LLM      LLMConfig
	Store    StoreConfig
	Artifact ArtifactConfig
}

// LLMConfig selects the generation backend. An empty APIKey means mock
// mode: every stage answers with canned content after MockDelay.
type LLMConfig struct {
	APIKey    string
	Model     string
	Endpoint  string
	Retries   int
	RPS       float64
	Burst     int
	MockDelay time.Duration
}

func (c LLMConfig) Mock() bool { return strings.TrimSpace(c.APIKey) == "" }

// StoreConfig selects the key-value backend that persists sessions and the
// system library.
type StoreConfig struct {
	Kind        string
	Path        string
	PostgresDSN string
	SQLitePath  string
	CacheSize   int
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// CanUseS3 reports whether enough is configured to reach an object store.
func (c ArtifactConfig) CanUseS3() bool {
	return c.Enabled &&
		strings.TrimSpace(c.Endpoint) != "" &&
		strings.TrimSpace(c.AccessKey) != "" &&
		strings.TrimSpace(c.SecretKey) != "" &&
		strings.TrimSpace(c.Bucket) != ""
}

// Load reads .env, the -port flag and the environment.
func Load() (*Config, error) {
	port := flag.String("port", ":8081", "server port")
	if !flag.Parsed() {
		flag.Parse()
	}
	return LoadEnv(*port), nil
}

// LoadEnv reads .env and then the environment, for callers that parse
// their own flags.
func LoadEnv(port string) *Config {
	_ = godotenv.Load()
	return FromEnv(port)
}

// FromEnv builds the configuration from the environment alone, with port
// as the default listen address.
func FromEnv(port string) *Config {
	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			port = envPort
		} else {
			port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:     port,
		Env:      env,
		LogFile:  strings.TrimSpace(os.Getenv("LOG_FILE")),
		TraceDir: firstNonEmpty(strings.TrimSpace(os.Getenv("TRACE_DIR")), "tmp/session_logs"),
		LLM:      loadLLMConfig(),
		Store:    loadStoreConfig(),
		Artifact: loadArtifactConfig(env),
	}
}

func loadLLMConfig() LLMConfig {
	return LLMConfig{
		APIKey:    firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_API_KEY")), strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))),
		Model:     firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_MODEL")), "gemini-2.5-pro"),
		Endpoint:  strings.TrimSpace(os.Getenv("LLM_ENDPOINT")),
		Retries:   envInt("LLM_RETRIES", 3),
		RPS:       envFloat("LLM_RPS", 1),
		Burst:     envInt("LLM_BURST", 2),
		MockDelay: time.Duration(envInt("LLM_MOCK_DELAY_MS", 800)) * time.Millisecond,
	}
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		Kind:        strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("KV_STORE")), "file")),
		Path:        firstNonEmpty(strings.TrimSpace(os.Getenv("KV_STORE_PATH")), "tmp/app_data.json"),
		PostgresDSN: strings.TrimSpace(os.Getenv("KV_STORE_PG_DSN")),
		SQLitePath:  firstNonEmpty(strings.TrimSpace(os.Getenv("KV_STORE_SQLITE_PATH")), "tmp/app_data.db"),
		CacheSize:   envInt("KV_CACHE_SIZE", 256),
	}
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(env)
	return ArtifactConfig{
		Enabled:   strings.EqualFold(strings.TrimSpace(env), "local") || endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "speckit-artifacts"),
		UseSSL:    resolveArtifactUseSSL(env),
	}
}

func resolveArtifactEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT")), "minio:9000")
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

func resolveArtifactUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
