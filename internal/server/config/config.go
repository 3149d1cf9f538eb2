// Package config handles configuration for the PodMate server: defaults,
// environment (.env aware), an optional JSON file and command-line flags,
// applied in that order.
package config

import "time"

// Config holds runtime settings for the PodMate server.
//
// There is no provider API key here: each visitor supplies their
// own key and it lives only in their session.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	DatabaseDSN string
	SecretKey   string
	SessionTTL  time.Duration
	LogLevel    string

	ProviderBaseURL string
	ProviderTimeout time.Duration
	ChatModel       string
	TTSModel        string
	TTSVoice        string
	TTSFormat       string
	AgentMaxSteps   int

	WikipediaURL string
	ArxivURL     string
	SearchURL    string

	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
}

// LoadDefaults populates Config with development defaults.
// SecretKey is left empty; the server then signs sessions with a random
// per-process key, so cookies do not survive a restart.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.GRPCAddr = ":50051"
	c.DatabaseDSN = "data/podmate.db"
	c.SecretKey = ""
	c.SessionTTL = 30 * time.Minute
	c.LogLevel = "info"

	c.ProviderBaseURL = "https://api.groq.com/openai/v1"
	c.ProviderTimeout = 2 * time.Minute
	c.ChatModel = "meta-llama/llama-4-scout-17b-16e-instruct"
	c.TTSModel = "playai-tts"
	c.TTSVoice = "Celeste-PlayAI"
	c.TTSFormat = "wav"
	c.AgentMaxSteps = 5

	c.WikipediaURL = "https://en.wikipedia.org/w/api.php"
	c.ArxivURL = "http://export.arxiv.org/api/query"
	c.SearchURL = "https://api.duckduckgo.com/"

	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// S3Enabled reports whether generated audio should be mirrored to object
// storage.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

// LoadConfig builds a Config from defaults, then environment, then an
// optional JSON file, then command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
