package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	Storage  StorageConfig
	Server   ServerConfig
	Extract  ExtractConfig
	LLM      LLMConfig
	TUI      TUIConfig
}

// DatabaseConfig holds the SQLite database location.
type DatabaseConfig struct {
	Path string
}

// StorageConfig holds the directory uploaded documents are kept in.
type StorageConfig struct {
	Dir string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string
}

// ExtractConfig holds text extraction configuration.
type ExtractConfig struct {
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	DPI           int
	MaxPages      int
	MinTextLen    int
}

// LLMConfig holds Ollama client configuration.
type LLMConfig struct {
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// TUIConfig holds terminal UI configuration.
type TUIConfig struct {
	ParserBin string
}

// LoadConfig loads configuration from the environment, reading a .env file
// first if one is present in the working directory.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cwd, _ := os.Getwd()

	return &Config{
		Database: DatabaseConfig{
			Path: getEnv("PO_DB_PATH", filepath.Join(cwd, "data", "warehouse.db")),
		},
		Storage: StorageConfig{
			Dir: getEnv("PO_STORAGE_DIR", filepath.Join(cwd, "data", "documents")),
		},
		Server: ServerConfig{
			Addr: getEnv("PO_SERVER_ADDR", ":8080"),
		},
		Extract: ExtractConfig{
			Pdftoppm:      getEnv("PDFTOPPM", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			DPI:           getEnvAsInt("EXTRACT_DPI", 300),
			MaxPages:      getEnvAsInt("EXTRACT_MAX_PAGES", 0),
			MinTextLen:    getEnvAsInt("EXTRACT_MIN_TEXT_LEN", 100),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Model:       getEnv("OLLAMA_MODEL", "llama3"),
			Temperature: getEnvAsFloat32("OLLAMA_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OLLAMA_TIMEOUT", 120*time.Second),
		},
		TUI: TUIConfig{
			ParserBin: getEnv("POPARSE_BIN", "poparse"),
		},
	}
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
