package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/vat/internal/flagx"
	"github.com/dmitrijs2005/vat/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// either strings such as "30s" or integer nanoseconds. Absent fields keep
// the value from the previous layer.
type JsonConfig struct {
	HTTPAddr        string         `json:"http_addr"`
	GRPCAddr        string         `json:"grpc_addr"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
	DatabaseDSN     string         `json:"database_dsn"`

	AppBaseURL   string   `json:"app_base_url"`
	CORSOrigins  []string `json:"cors_allowed_origins"`
	CookieSecure *bool    `json:"cookie_secure"`
	LogLevel     string   `json:"log_level"`
	LogFormat    string   `json:"log_format"`

	TelegramBotToken   string         `json:"telegram_bot_token"`
	TelegramAuthMaxAge timex.Duration `json:"telegram_auth_max_age"`
	SessionValidity    timex.Duration `json:"session_validity"`

	CallbackSecret        string         `json:"callback_secret"`
	CallbackTokenValidity timex.Duration `json:"callback_token_validity"`

	S3Endpoint  string         `json:"s3_endpoint_url"`
	S3Region    string         `json:"s3_region"`
	S3Bucket    string         `json:"s3_bucket_name"`
	S3AccessKey string         `json:"s3_access_key_id"`
	S3SecretKey string         `json:"s3_secret_access_key"`
	S3PathStyle *bool          `json:"s3_path_style"`
	PresignTTL  timex.Duration `json:"s3_presign_ttl"`

	DispatchTimeout         timex.Duration    `json:"dispatch_timeout"`
	TranscriptionWebhookURL string            `json:"transcription_webhook_url"`
	AnalysisWebhooks        map[string]string `json:"analysis_webhooks"`

	StartingBalance            *int   `json:"starting_balance_minutes"`
	PaymentConfirmationBaseURL string `json:"payment_confirmation_base_url"`
}

// parseJson overlays the file named by -c/-config, if any.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	c := &JsonConfig{}
	if err := json.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.HTTPAddr, c.HTTPAddr)
	setString(&cfg.GRPCAddr, c.GRPCAddr)
	setDuration(&cfg.ShutdownTimeout, c.ShutdownTimeout)
	setString(&cfg.DatabaseDSN, c.DatabaseDSN)

	setString(&cfg.AppBaseURL, c.AppBaseURL)
	if len(c.CORSOrigins) > 0 {
		cfg.CORSOrigins = c.CORSOrigins
	}
	if c.CookieSecure != nil {
		cfg.CookieSecure = *c.CookieSecure
	}
	setString(&cfg.LogLevel, c.LogLevel)
	setString(&cfg.LogFormat, c.LogFormat)

	setString(&cfg.TelegramBotToken, c.TelegramBotToken)
	setDuration(&cfg.TelegramAuthMaxAge, c.TelegramAuthMaxAge)
	setDuration(&cfg.SessionValidity, c.SessionValidity)

	setString(&cfg.CallbackSecret, c.CallbackSecret)
	setDuration(&cfg.CallbackTokenValidity, c.CallbackTokenValidity)

	setString(&cfg.S3Endpoint, c.S3Endpoint)
	setString(&cfg.S3Region, c.S3Region)
	setString(&cfg.S3Bucket, c.S3Bucket)
	setString(&cfg.S3AccessKey, c.S3AccessKey)
	setString(&cfg.S3SecretKey, c.S3SecretKey)
	if c.S3PathStyle != nil {
		cfg.S3PathStyle = *c.S3PathStyle
	}
	setDuration(&cfg.PresignTTL, c.PresignTTL)

	setDuration(&cfg.DispatchTimeout, c.DispatchTimeout)
	setString(&cfg.TranscriptionWebhookURL, c.TranscriptionWebhookURL)
	if len(c.AnalysisWebhooks) > 0 {
		cfg.AnalysisWebhooks = c.AnalysisWebhooks
	}

	if c.StartingBalance != nil {
		cfg.StartingBalance = *c.StartingBalance
	}
	setString(&cfg.PaymentConfirmationBaseURL, c.PaymentConfirmationBaseURL)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
