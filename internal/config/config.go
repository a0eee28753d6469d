package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName string
	AppEnv  string
	AppPort string

	ResultsBaseURL      string
	ResultsDir          string
	ResultsCacheTTL     time.Duration
	ResultsFetchTimeout time.Duration
	ResultsStoreTTL     time.Duration
	PromptVariants      []string
	Versions            []string
	InputModes          []string
	Steps               []int
	LegacyFiles         []string

	RenderImageSize int
	RenderLineWidth int

	DatabaseURL string
	RedisURL    string
	NATSURL     string
	NATSSubject string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	CORSAllowOrigins string
	RenderRateLimit  int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// CloudinaryEnabled reports whether drawing publishing has credentials.
func (c Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SKETCHEVAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Sketch Eval API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("results.base_url", "https://raw.githubusercontent.com/audreyshin/quickdraw-eval-results/main")
	v.SetDefault("results.cache_ttl", "10m")
	v.SetDefault("results.fetch_timeout", "15s")
	v.SetDefault("results.store_ttl", "24h")
	v.SetDefault("results.legacy_files", "image_v9_step200.csv,image_v8_step100.csv,stroke_v9_step200.csv")
	v.SetDefault("render.image_size", 256)
	v.SetDefault("render.line_width", 3)
	v.SetDefault("nats.subject", "sketcheval.results.loaded")
	v.SetDefault("cloudinary.folder", "sketch-eval/drawings")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("render.rate_limit", 60)

	cacheTTL, err := parseDuration(v, "results.cache_ttl")
	if err != nil {
		return Config{}, err
	}

	fetchTimeout, err := parseDuration(v, "results.fetch_timeout")
	if err != nil {
		return Config{}, err
	}

	storeTTL, err := parseDuration(v, "results.store_ttl")
	if err != nil {
		return Config{}, err
	}

	steps, err := parseSteps(v.GetString("results.steps"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		ResultsBaseURL:         strings.TrimRight(v.GetString("results.base_url"), "/"),
		ResultsDir:             v.GetString("results.dir"),
		ResultsCacheTTL:        cacheTTL,
		ResultsFetchTimeout:    fetchTimeout,
		ResultsStoreTTL:        storeTTL,
		PromptVariants:         splitList(v.GetString("results.prompt_variants")),
		Versions:               splitList(v.GetString("results.versions")),
		InputModes:             splitList(v.GetString("results.input_modes")),
		Steps:                  steps,
		LegacyFiles:            splitList(v.GetString("results.legacy_files")),
		RenderImageSize:        v.GetInt("render.image_size"),
		RenderLineWidth:        v.GetInt("render.line_width"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		NATSSubject:            v.GetString("nats.subject"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
		RenderRateLimit:        v.GetInt("render.rate_limit"),
	}

	if cfg.ResultsBaseURL == "" && cfg.ResultsDir == "" {
		return Config{}, fmt.Errorf("either results base url or results dir must be provided")
	}

	if cfg.RenderImageSize <= 0 {
		return Config{}, fmt.Errorf("render image size must be positive, got %d", cfg.RenderImageSize)
	}

	if cfg.RenderLineWidth <= 0 {
		return Config{}, fmt.Errorf("render line width must be positive, got %d", cfg.RenderLineWidth)
	}

	if cfg.RenderRateLimit <= 0 {
		cfg.RenderRateLimit = 60
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return value, nil
}

func parseSteps(raw string) ([]int, error) {
	parts := splitList(raw)
	steps := make([]int, 0, len(parts))
	for _, part := range parts {
		var step int
		if _, err := fmt.Sscanf(part, "%d", &step); err != nil || step <= 0 || fmt.Sprint(step) != part {
			return nil, fmt.Errorf("invalid results step %q", part)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// splitList splits a comma separated value, trimming blanks.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}
