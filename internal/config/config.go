package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the full server configuration, read once at startup and passed
// explicitly to constructors. There are no package-level config globals.
type Config struct {
	Addr string `yaml:"addr" env:"KG_ADDR" env-default:":8080"`

	SQLitePath    string `yaml:"sqlite_path" env:"KG_SQLITE_PATH" env-default:"kiddyguard.db"`
	MigrationsDir string `yaml:"migrations_dir" env:"KG_MIGRATIONS_DIR"`

	JWTSecret string `yaml:"jwt_secret" env:"KG_JWT_SECRET"`

	// Groq is the OpenAI-compatible chat-completions endpoint used by the
	// risk analyzer. An empty API key disables the remote path; analysis
	// then always uses the local fallback.
	GroqAPIKey  string        `yaml:"groq_api_key" env:"GROQ_API_KEY"`
	GroqModel   string        `yaml:"groq_model" env:"GROQ_MODEL" env-default:"llama-3.3-70b-versatile"`
	GroqBaseURL string        `yaml:"groq_base_url" env:"GROQ_BASE_URL" env-default:"https://api.groq.com/openai/v1"`
	GroqTimeout time.Duration `yaml:"groq_timeout" env:"GROQ_TIMEOUT" env-default:"30s"`

	// ScreeningAmount is the payment-intent amount created on session
	// completion, in the smallest currency unit.
	ScreeningAmount int `yaml:"screening_amount" env:"KG_SCREENING_AMOUNT" env-default:"50000"`

	// StorageCredential gates evidence uploads. Without it the upload
	// endpoint reports a configuration error rather than degrading silently.
	StorageCredential string `yaml:"storage_credential" env:"KG_STORAGE_CREDENTIAL"`
	EvidenceDir       string `yaml:"evidence_dir" env:"KG_EVIDENCE_DIR" env-default:"data/evidence"`
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.SQLitePath == "" {
		return fmt.Errorf("sqlite_path must not be empty")
	}
	if c.ScreeningAmount <= 0 {
		return fmt.Errorf("screening_amount must be positive")
	}
	return nil
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags). The YAML file path
// comes from CONFIG_PATH (fallback "./config.yaml"); a missing default file
// is not an error.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}
