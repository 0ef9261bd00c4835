package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/vat/internal/flagx"
)

// parseFlags applies the command-line overrides:
//
//	-a string   HTTP bind address (e.g. ":8000")
//	-g string   gRPC health bind address
//	-d string   PostgreSQL DSN
//	-b string   public base URL used in callback links
//	-t string   Telegram bot token
//	-s string   callback signing secret
//	-e string   S3 endpoint
//	-l string   log level
//
// Unrelated arguments (such as -c) are filtered out first.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.Filter(args, "-a", "-g", "-d", "-b", "-t", "-s", "-e", "-l")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "HTTP bind address")
	fs.StringVar(&cfg.GRPCAddr, "g", cfg.GRPCAddr, "gRPC health bind address")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.AppBaseURL, "b", cfg.AppBaseURL, "public base URL")
	fs.StringVar(&cfg.TelegramBotToken, "t", cfg.TelegramBotToken, "Telegram bot token")
	fs.StringVar(&cfg.CallbackSecret, "s", cfg.CallbackSecret, "callback signing secret")
	fs.StringVar(&cfg.S3Endpoint, "e", cfg.S3Endpoint, "S3 endpoint")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	return fs.Parse(args)
}
