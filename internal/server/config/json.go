package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/podmate/internal/flagx"
	"github.com/dmitrijs2005/podmate/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations accept
// either "30m"-style strings or integer nanoseconds. Empty values keep the
// current setting; s3_bucket is a pointer so "" can switch S3 off.
type JsonConfig struct {
	HTTPAddr    string         `json:"http_addr"`
	GRPCAddr    string         `json:"grpc_addr"`
	DatabaseDSN string         `json:"database_dsn"`
	SecretKey   string         `json:"secret_key"`
	SessionTTL  timex.Duration `json:"session_ttl"`
	LogLevel    string         `json:"log_level"`

	ProviderBaseURL string         `json:"provider_base_url"`
	ProviderTimeout timex.Duration `json:"provider_timeout"`
	ChatModel       string         `json:"chat_model"`
	TTSModel        string         `json:"tts_model"`
	TTSVoice        string         `json:"tts_voice"`
	TTSFormat       string         `json:"tts_format"`
	AgentMaxSteps   int            `json:"agent_max_steps"`

	WikipediaURL string `json:"wikipedia_url"`
	ArxivURL     string `json:"arxiv_url"`
	SearchURL    string `json:"search_url"`

	S3RootUser     string  `json:"s3_root_user"`
	S3RootPassword string  `json:"s3_root_password"`
	S3Bucket       *string `json:"s3_bucket"`
	S3Region       string  `json:"s3_region"`
	S3BaseEndpoint string  `json:"s3_base_endpoint"`
}

// parseJson overlays values from the file named by -c/-config (or
// $PODMATE_CONFIG). Missing keys keep their current value. An unreadable
// file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFilePath()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.SessionTTL.Duration > 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	setString(&config.LogLevel, c.LogLevel)

	setString(&config.ProviderBaseURL, c.ProviderBaseURL)
	if c.ProviderTimeout.Duration > 0 {
		config.ProviderTimeout = c.ProviderTimeout.Duration
	}
	setString(&config.ChatModel, c.ChatModel)
	setString(&config.TTSModel, c.TTSModel)
	setString(&config.TTSVoice, c.TTSVoice)
	setString(&config.TTSFormat, c.TTSFormat)
	if c.AgentMaxSteps > 0 {
		config.AgentMaxSteps = c.AgentMaxSteps
	}

	setString(&config.WikipediaURL, c.WikipediaURL)
	setString(&config.ArxivURL, c.ArxivURL)
	setString(&config.SearchURL, c.SearchURL)

	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	if c.S3Bucket != nil {
		config.S3Bucket = *c.S3Bucket
	}
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
