package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/stake-plus/mission-agent/src/logging"
)

// DefaultBaseURL is the mission API root used when none is configured.
const DefaultBaseURL = "https://loos.sd-lab.nl/api"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds everything the agent needs. It is not modified after Load.
type Config struct {
	BaseURL             string
	BearerToken         string
	Delay               time.Duration
	PreferredDifficulty string
	EnergyThreshold     int
	ErrorBackoff        time.Duration
	RateLimitCooldown   time.Duration
	HTTPTimeout         time.Duration

	RedisURL         string
	StatusAddr       string
	DiscordToken     string
	DiscordChannelID string
}

// Load resolves and validates the configuration.
func Load(src Source) (Config, error) {
	var errs []error
	intSetting := func(name, envKey, def, msg string) int {
		raw := src.GetSetting(name, envKey, def)
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, errors.New(msg))
			return 0
		}
		return n
	}

	cfg := Config{
		BaseURL:             src.GetSetting("api_base_url", "API_BASE_URL", DefaultBaseURL),
		BearerToken:         src.GetSetting("bearer_token", "BEARER_TOKEN", ""),
		PreferredDifficulty: src.GetSetting("preferred_difficulty", "PREFERRED_DIFFICULTY", ""),
		RedisURL:            src.GetSetting("redis_url", "REDIS_URL", ""),
		StatusAddr:          src.GetSetting("status_addr", "STATUS_ADDR", ""),
		DiscordToken:        src.GetSetting("discord_token", "DISCORD_TOKEN", ""),
		DiscordChannelID:    src.GetSetting("discord_channel_id", "DISCORD_CHANNEL_ID", ""),
	}

	if cfg.BearerToken == "" {
		errs = append(errs, errors.New("BEARER_TOKEN is not set in environment variables."))
	}
	cfg.Delay = time.Duration(intSetting("delay_time", "DELAY_TIME", "", "DELAY_TIME must be a non-negative integer.")) * time.Millisecond
	if cfg.PreferredDifficulty == "" {
		errs = append(errs, errors.New("PREFERRED_DIFFICULTY is not set in environment variables."))
	}
	cfg.EnergyThreshold = intSetting("energy_threshold", "ENERGY_THRESHOLD", "0", "ENERGY_THRESHOLD must be a non-negative integer.")
	cfg.ErrorBackoff = time.Duration(intSetting("error_backoff", "ERROR_BACKOFF", "0", "ERROR_BACKOFF must be a non-negative integer.")) * time.Millisecond
	cfg.RateLimitCooldown = time.Duration(intSetting("rate_limit_cooldown", "RATE_LIMIT_COOLDOWN", "60", "RATE_LIMIT_COOLDOWN must be a non-negative integer.")) * time.Second
	cfg.HTTPTimeout = time.Duration(intSetting("http_timeout", "HTTP_TIMEOUT", "30", "HTTP_TIMEOUT must be a non-negative integer.")) * time.Second

	if u, err := url.Parse(cfg.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q.", cfg.BaseURL))
	}
	if (cfg.DiscordToken == "") != (cfg.DiscordChannelID == "") {
		errs = append(errs, errors.New("DISCORD_TOKEN and DISCORD_CHANNEL_ID must be set together."))
	}

	if len(errs) > 0 {
		return cfg, fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return cfg, nil
}

// Summary is the startup view of the configuration with the credential masked.
func (c Config) Summary() map[string]any {
	return map[string]any{
		"baseUrl":             c.BaseURL,
		"bearerToken":         logging.MaskToken(c.BearerToken),
		"delayTime":           c.Delay.Milliseconds(),
		"preferredDifficulty": c.PreferredDifficulty,
		"energyThreshold":     c.EnergyThreshold,
		"errorBackoff":        c.ErrorBackoff.Milliseconds(),
		"rateLimitCooldown":   c.RateLimitCooldown.Seconds(),
		"redis":               c.RedisURL != "",
		"statusAddr":          c.StatusAddr,
		"discord":             c.DiscordToken != "",
	}
}
