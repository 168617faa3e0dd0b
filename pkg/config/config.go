package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
)

// weightTolerance is the floating tolerance allowed when checking that
// configured weights sum to 1.0.
const weightTolerance = 1e-6

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Typesense  TypesenseConfig
	Extraction ExtractionConfig
	Scoring    ScoringConfig
	Fusion     FusionConfig
	Alerts     AlertsConfig
	OTEL       OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// ExtractionConfig holds configuration for upstream extraction collaborators
type ExtractionConfig struct {
	// Provider selects the extraction provider: "http" or "mock"
	Provider string
	// ServiceURL is the base URL of the external OCR/NER extraction service
	ServiceURL string
	// RxNavURL is the base URL of the RxNav drug database API
	RxNavURL string
	// ValidationCacheTTLSeconds is how long drug validation responses are cached
	ValidationCacheTTLSeconds int
}

// ScoringConfig holds confidence scoring weights and the review threshold.
// The three weights must sum to 1.0; the threshold must lie in [0,1].
type ScoringConfig struct {
	OCRWeight             float64
	NERWeight             float64
	ValidationWeight      float64
	ManualReviewThreshold float64
}

// FusionConfig holds multi-modal fusion weights, status breakpoints and the
// temporal corroboration tolerance for intake verification.
type FusionConfig struct {
	PillWeight   float64
	HandWeight   float64
	ActionWeight float64

	// Status breakpoints, strictly ordered Confirmed > Likely > Uncertain.
	// CONFIRMED requires temporal corroboration on top of LikelyThreshold;
	// ConfirmedThreshold marks where an uncorroborated score is high enough
	// that the reasoning calls out the likely cap.
	ConfirmedThreshold float64
	LikelyThreshold    float64
	UncertainThreshold float64

	// FrameTolerance is the max frame distance still counted as temporal overlap.
	FrameTolerance int

	// BufferSize bounds the real-time verifier's sliding frame window.
	BufferSize int
}

// AlertsConfig holds caregiver alerting configuration. Enablement itself is
// feature-flagged; this only carries the recipient.
type AlertsConfig struct {
	// CaregiverPhone is the WhatsApp number alerts are delivered to.
	CaregiverPhone string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables and validates the
// scoring and fusion sections. Invalid weights or thresholds are fatal.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "medverify"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey: getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		Extraction: ExtractionConfig{
			Provider:                  getEnv("EXTRACTION_PROVIDER", "mock"),
			ServiceURL:                getEnv("EXTRACTION_SERVICE_URL", "http://localhost:8500"),
			RxNavURL:                  getEnv("RXNAV_API_BASE", "https://rxnav.nlm.nih.gov/REST"),
			ValidationCacheTTLSeconds: getEnvAsInt("VALIDATION_CACHE_TTL", 86400),
		},
		Scoring: ScoringConfig{
			OCRWeight:             getEnvAsFloat("SCORING_OCR_WEIGHT", 0.40),
			NERWeight:             getEnvAsFloat("SCORING_NER_WEIGHT", 0.35),
			ValidationWeight:      getEnvAsFloat("SCORING_VALIDATION_WEIGHT", 0.25),
			ManualReviewThreshold: getEnvAsFloat("MANUAL_REVIEW_THRESHOLD", 0.7),
		},
		Fusion: FusionConfig{
			PillWeight:         getEnvAsFloat("FUSION_PILL_WEIGHT", 0.30),
			HandWeight:         getEnvAsFloat("FUSION_HAND_WEIGHT", 0.25),
			ActionWeight:       getEnvAsFloat("FUSION_ACTION_WEIGHT", 0.45),
			ConfirmedThreshold: getEnvAsFloat("FUSION_CONFIRMED_THRESHOLD", 0.80),
			LikelyThreshold:    getEnvAsFloat("FUSION_LIKELY_THRESHOLD", 0.60),
			UncertainThreshold: getEnvAsFloat("FUSION_UNCERTAIN_THRESHOLD", 0.35),
			FrameTolerance:     getEnvAsInt("FUSION_FRAME_TOLERANCE", 3),
			BufferSize:         getEnvAsInt("REALTIME_BUFFER_SIZE", 90),
		},
		Alerts: AlertsConfig{
			CaregiverPhone: getEnv("CAREGIVER_PHONE", ""),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "medverify-backend"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Scoring.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Fusion.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the scoring weights and threshold
func (c *ScoringConfig) Validate() error {
	sum := c.OCRWeight + c.NERWeight + c.ValidationWeight
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.6f", sum)
	}
	if c.ManualReviewThreshold < 0 || c.ManualReviewThreshold > 1 {
		return fmt.Errorf("manual review threshold must be in [0,1], got %.4f", c.ManualReviewThreshold)
	}
	return nil
}

// Validate checks the fusion weights, breakpoint ordering and window sizes
func (c *FusionConfig) Validate() error {
	sum := c.PillWeight + c.HandWeight + c.ActionWeight
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("fusion weights must sum to 1.0, got %.6f", sum)
	}
	for name, v := range map[string]float64{
		"confirmed": c.ConfirmedThreshold,
		"likely":    c.LikelyThreshold,
		"uncertain": c.UncertainThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("fusion %s threshold must be in [0,1], got %.4f", name, v)
		}
	}
	if !(c.ConfirmedThreshold > c.LikelyThreshold && c.LikelyThreshold > c.UncertainThreshold) {
		return fmt.Errorf("fusion thresholds must be strictly ordered confirmed > likely > uncertain, got %.2f/%.2f/%.2f",
			c.ConfirmedThreshold, c.LikelyThreshold, c.UncertainThreshold)
	}
	if c.FrameTolerance < 0 {
		return fmt.Errorf("frame tolerance must be non-negative, got %d", c.FrameTolerance)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("realtime buffer size must be positive, got %d", c.BufferSize)
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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
