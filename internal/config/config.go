package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"

	AnnotatorOpenCV = "opencv"
	AnnotatorNative = "native"
)

type Config struct {
	Port            int    `validate:"min=1,max=65535"`
	StaticDirectory string `validate:"required"`
	UploadDirectory string `validate:"required"`
	ResultDirectory string `validate:"required"`
	ReportDirectory string `validate:"required"`

	HistoryBackend string `validate:"oneof=json sqlite"`
	HistoryFile    string `validate:"required_if=HistoryBackend json"`
	DatabasePath   string `validate:"required_if=HistoryBackend sqlite"`

	ModelPath           string  `validate:"required"`
	ConfidenceThreshold float64 `validate:"gt=0,lte=1"`
	NMSThreshold        float64 `validate:"gt=0,lte=1"`
	ModelInputSize      int     `validate:"min=32"`
	TargetClassID       int     `validate:"min=0"`
	TargetLabel         string  `validate:"required"`
	Annotator           string  `validate:"oneof=opencv native"`

	ReportFontPath  string `validate:"required"`
	ReportTitle     string `validate:"required"`
	ReportPDFLimit  int    `validate:"min=1"`
	HomeRecentLimit int    `validate:"min=0"`

	MaxUploadSize int64   `validate:"min=1"` // bytes
	RateLimit     float64 `validate:"gte=0"` // requests per second per client, 0 disables
	RateBurst     int     `validate:"min=1"`

	LogDirectory string `validate:"required"`
	LogLevel     string `validate:"oneof=debug info warning error"`
}

// LoadDotEnv reads a .env file into the environment when one exists.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration from environment variables and defaults.
func Load() *Config {
	static := getEnv("STATIC_DIR", "static")
	return &Config{
		Port:            getEnvAsInt("PORT", 8080),
		StaticDirectory: static,
		UploadDirectory: getEnv("UPLOAD_DIR", filepath.Join(static, "uploads")),
		ResultDirectory: getEnv("RESULT_DIR", filepath.Join(static, "results")),
		ReportDirectory: getEnv("REPORT_DIR", "reports"),

		HistoryBackend: getEnv("HISTORY_BACKEND", BackendJSON),
		HistoryFile:    getEnv("HISTORY_FILE", "history.json"),
		DatabasePath:   getEnv("DATABASE_PATH", filepath.Join("data", "history.db")),

		ModelPath:           getEnv("MODEL_PATH", "yolov8n.onnx"),
		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.4),
		NMSThreshold:        getEnvAsFloat("NMS_THRESHOLD", 0.45),
		ModelInputSize:      getEnvAsInt("MODEL_INPUT_SIZE", 640),
		TargetClassID:       getEnvAsInt("TARGET_CLASS_ID", 17), // COCO "horse"
		TargetLabel:         getEnv("TARGET_LABEL", "Horse"),
		Annotator:           getEnv("ANNOTATOR", AnnotatorOpenCV),

		ReportFontPath:  getEnv("REPORT_FONT_PATH", "DejaVuSansCondensed.ttf"),
		ReportTitle:     getEnv("REPORT_TITLE", "Отчёт по учёту лошадей на ипподроме"),
		ReportPDFLimit:  getEnvAsInt("REPORT_PDF_LIMIT", 10),
		HomeRecentLimit: getEnvAsInt("HOME_RECENT_LIMIT", 5),

		MaxUploadSize: getEnvAsInt64("MAX_UPLOAD_MB", 50) << 20,
		RateLimit:     getEnvAsFloat("RATE_LIMIT", 5),
		RateBurst:     getEnvAsInt("RATE_BURST", 10),

		LogDirectory: getEnv("LOG_DIR", "logs"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks the configuration with struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
