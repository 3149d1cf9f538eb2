package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/podmate/internal/flagx"
)

// parseFlags overlays short command-line flags:
//
//	-a string   HTTP bind address (":8080")
//	-r string   gRPC health bind address (":50051")
//	-d string   database DSN (SQLite path or postgres:// URL)
//	-s string   session token HMAC secret
//	-t int      session idle TTL, minutes
//	-l string   log level
//	-p string   LLM/TTS provider base URL
//	-m string   chat model
//	-v string   TTS voice
//	-u string   S3 root user
//	-w string   S3 root password
//	-b string   S3 bucket (empty disables S3)
//	-g string   S3 region
//	-e string   S3 base endpoint
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-r", "-d", "-s", "-t", "-l", "-p", "-m", "-v", "-u", "-w", "-b", "-g", "-e",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "r", config.GRPCAddr, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session idle TTL (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	fs.StringVar(&config.ProviderBaseURL, "p", config.ProviderBaseURL, "provider base URL")
	fs.StringVar(&config.ChatModel, "m", config.ChatModel, "chat model")
	fs.StringVar(&config.TTSVoice, "v", config.TTSVoice, "TTS voice")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "w", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
}
