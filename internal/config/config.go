package config

import (
	"os"
	"strconv"
)

// Config holds application configuration. Built once at startup and treated
// as immutable afterwards.
type Config struct {
	// OpenAI-compatible API
	APIBaseURL  string
	ImageModel  string
	VisionModel string
	ImageSize   string

	// Describe step
	MaxDescriptionTokens int
	DescribeInstruction  string

	// Credential persistence
	StorageKey string

	// Where per-round images are written
	OutputDir string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		APIBaseURL:  getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
		ImageModel:  getEnv("PICTOPHONE_IMAGE_MODEL", "dall-e-3"),
		VisionModel: getEnv("PICTOPHONE_VISION_MODEL", "gpt-4o-mini"),
		ImageSize:   getEnv("PICTOPHONE_IMAGE_SIZE", "1024x1024"),

		MaxDescriptionTokens: getEnvInt("PICTOPHONE_MAX_DESCRIPTION_TOKENS", 300),
		DescribeInstruction:  getEnv("PICTOPHONE_DESCRIBE_INSTRUCTION", "Describe this image as a young child would."),

		StorageKey: getEnv("PICTOPHONE_STORAGE_KEY", "pictophone_api_key"),

		OutputDir: getEnv("PICTOPHONE_OUTPUT_DIR", "rounds"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
