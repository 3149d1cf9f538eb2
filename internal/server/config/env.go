package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv is a seam so tests do not pick up a developer's .env file.
var loadDotEnv = func() { _ = godotenv.Load() }

// parseEnv overlays PODMATE_* environment variables. A .env file in the
// working directory is loaded first; variables already set in the process
// environment win over it.
func parseEnv(config *Config) {
	loadDotEnv()

	envString("PODMATE_HTTP_ADDR", &config.HTTPAddr)
	envString("PODMATE_GRPC_ADDR", &config.GRPCAddr)
	envString("PODMATE_DATABASE_DSN", &config.DatabaseDSN)
	envString("PODMATE_SECRET_KEY", &config.SecretKey)
	envDuration("PODMATE_SESSION_TTL", &config.SessionTTL)
	envString("PODMATE_LOG_LEVEL", &config.LogLevel)

	envString("PODMATE_PROVIDER_BASE_URL", &config.ProviderBaseURL)
	envDuration("PODMATE_PROVIDER_TIMEOUT", &config.ProviderTimeout)
	envString("PODMATE_CHAT_MODEL", &config.ChatModel)
	envString("PODMATE_TTS_MODEL", &config.TTSModel)
	envString("PODMATE_TTS_VOICE", &config.TTSVoice)
	envString("PODMATE_TTS_FORMAT", &config.TTSFormat)
	envInt("PODMATE_AGENT_MAX_STEPS", &config.AgentMaxSteps)

	envString("PODMATE_WIKIPEDIA_URL", &config.WikipediaURL)
	envString("PODMATE_ARXIV_URL", &config.ArxivURL)
	envString("PODMATE_SEARCH_URL", &config.SearchURL)

	envString("PODMATE_S3_ROOT_USER", &config.S3RootUser)
	envString("PODMATE_S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("PODMATE_S3_BUCKET", &config.S3Bucket)
	envString("PODMATE_S3_REGION", &config.S3Region)
	envString("PODMATE_S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

// envDuration panics on an unparsable value, like parseFlags does.
func envDuration(key string, dst *time.Duration) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}

func envInt(key string, dst *int) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}
