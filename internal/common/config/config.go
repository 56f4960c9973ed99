package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string `validate:"required,numeric"`
	Environment  string `validate:"oneof=development production test"`
	ReadTimeout  int    `validate:"min=1"`
	WriteTimeout int    `validate:"min=1"`
	BodyLimitMB  int    `validate:"min=1,max=100"`

	InferenceURL     string `validate:"omitempty,url"`
	InferenceTimeout int    `validate:"min=1"`

	DBPath    string `validate:"required"`
	UploadDir string `validate:"required"`

	LogLevel string `validate:"oneof=debug info warn warning error"`
	LogFile  string

	EdgeDetection     bool
	AcceptThreshold   float64 `validate:"gte=0,lte=1"`
	RoomMatchPolicy   string  `validate:"oneof=first nearest_centroid"`
	RoomShapeOutlines bool
}

// Load reads the configuration from environment variables. A .env file in
// the working directory, when present, is loaded first and never overrides
// variables that are already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:         getEnv("PORT", "5000"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 30),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 30),
		BodyLimitMB:  getEnvAsInt("BODY_LIMIT_MB", 10),

		InferenceURL:     getEnv("INFERENCE_URL", ""),
		InferenceTimeout: getEnvAsInt("INFERENCE_TIMEOUT", 120),

		DBPath:    getEnv("DB_PATH", "data/db/floorplans.db"),
		UploadDir: getEnv("UPLOAD_DIR", "uploads/floorplans"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:  getEnv("LOG_FILE", ""),

		EdgeDetection:   getEnvAsBool("EDGE_DETECTION", true),
		AcceptThreshold: getEnvAsFloat("ACCEPT_THRESHOLD", 0.6),
		RoomMatchPolicy: getEnv("ROOM_MATCH_POLICY", "first"),

		RoomShapeOutlines: getEnvAsBool("ROOM_SHAPE_OUTLINES", false),
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func (c *Config) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}

func (c *Config) InferenceTimeoutDuration() time.Duration {
	return time.Duration(c.InferenceTimeout) * time.Second
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ============================================================
// Helpers
// ============================================================

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}
