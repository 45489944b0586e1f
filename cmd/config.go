package main

import (
	"errors"
	"strings"
	"time"

	"vitals_overlay/internal/dexcom"
	"vitals_overlay/internal/handlers"
	"vitals_overlay/internal/logger"
	"vitals_overlay/internal/models"
	"vitals_overlay/internal/service"
	"vitals_overlay/internal/stromno"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix = "OVERLAY"

	vendorHTTPTimeout    = 10 * time.Second
	socketHandshakeLimit = 10 * time.Second

	// per feed; a glucose connect with one session renewal is six vendor calls
	autoConnectBudget = 6 * vendorHTTPTimeout
)

// config is the resolved process configuration.
type config struct {
	Port     string
	LogLevel string
	DBPath   string

	HTTP handlers.Config
	Auth service.AuthConfig

	HeartRate            service.HeartRateConfig
	HeartRateRPCURL      string
	HeartRateReadTimeout time.Duration

	Glucose service.GlucoseConfig
	Dexcom  dexcom.Config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", logger.InfoLevel)
	v.SetDefault("db.path", "overlay.db")

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)

	v.SetDefault("ratelimit.rps", 5.0)
	v.SetDefault("ratelimit.burst", 10)

	v.SetDefault("heartrate.rpc_url", stromno.DefaultRPCURL)
	v.SetDefault("heartrate.reconnect_delay", 5*time.Second)
	v.SetDefault("heartrate.read_timeout", 90*time.Second)
	v.SetDefault("heartrate.history_size", 360)

	v.SetDefault("glucose.base_url_us", dexcom.DefaultBaseURLs[models.RegionUS])
	v.SetDefault("glucose.base_url_ous", dexcom.DefaultBaseURLs[models.RegionOUS])
	v.SetDefault("glucose.application_id", dexcom.DefaultApplicationID)
	v.SetDefault("glucose.poll_interval", time.Minute)
	v.SetDefault("glucose.window_minutes", 60)
	v.SetDefault("glucose.max_count", 12)
	v.SetDefault("glucose.history_size", 72)

	v.SetDefault("stream.buffer", 16)
	v.SetDefault("stream.heartrate_status_interval", 5*time.Second)
	v.SetDefault("stream.glucose_status_interval", 30*time.Second)
}

// loadConfig reads configs/config.yml, an optional .env and OVERLAY_* env vars.
// A missing config file is not an error.
func loadConfig() (config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.AddConfigPath("configs") // configs/config.yml
	v.SetConfigName("config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config{}, err
		}
	}
	return fromViper(v), nil
}

func fromViper(v *viper.Viper) config {
	return config{
		Port:     v.GetString("port"),
		LogLevel: v.GetString("log.level"),
		DBPath:   v.GetString("db.path"),
		HTTP: handlers.Config{
			AuthEnabled:             v.GetBool("auth.enabled"),
			RateLimitRPS:            v.GetFloat64("ratelimit.rps"),
			RateLimitBurst:          v.GetInt("ratelimit.burst"),
			StreamBuffer:            v.GetInt("stream.buffer"),
			HeartRateStatusInterval: v.GetDuration("stream.heartrate_status_interval"),
			GlucoseStatusInterval:   v.GetDuration("stream.glucose_status_interval"),
		},
		Auth: service.AuthConfig{
			SigningKey: v.GetString("auth.signing_key"),
			TokenTTL:   v.GetDuration("auth.token_ttl"),
		},
		HeartRate: service.HeartRateConfig{
			ReconnectDelay: v.GetDuration("heartrate.reconnect_delay"),
			HistorySize:    v.GetInt("heartrate.history_size"),
		},
		HeartRateRPCURL:      v.GetString("heartrate.rpc_url"),
		HeartRateReadTimeout: v.GetDuration("heartrate.read_timeout"),
		Glucose: service.GlucoseConfig{
			PollInterval:  v.GetDuration("glucose.poll_interval"),
			WindowMinutes: v.GetInt("glucose.window_minutes"),
			MaxCount:      v.GetInt("glucose.max_count"),
			HistorySize:   v.GetInt("glucose.history_size"),
		},
		Dexcom: dexcom.Config{
			BaseURLs: map[string]string{
				models.RegionUS:  v.GetString("glucose.base_url_us"),
				models.RegionOUS: v.GetString("glucose.base_url_ous"),
			},
			ApplicationID: v.GetString("glucose.application_id"),
			Timeout:       vendorHTTPTimeout,
		},
	}
}

// validate rejects combinations the process cannot run with.
func (c config) validate() error {
	if c.HTTP.AuthEnabled && c.Auth.SigningKey == "" {
		return errors.New("auth.enabled requires auth.signing_key")
	}
	return nil
}
