package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings that are common for all bots.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	// DebugSample thins high-volume debug events, e.g. "1/50" or
	// "1/50,interactive=1/5". "off" logs all of them.
	DebugSample string `yaml:"debug_sample" envconfig:"LOG_DEBUG_SAMPLE"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file"`
	ErrorsFile  string `yaml:"errors_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
	// UpdateReaction identifies message reaction updates for rate limit exclusions.
	UpdateReaction = "reaction"
)

// RateLimitConfig throttles users sending updates faster than IntervalMS.
// ExcludeUpdates names update kinds that are never throttled, one of the
// Update* constants.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// InteractiveConfig tunes the session registry behind paginators and selections.
type InteractiveConfig struct {
	// RunMode is "sync" (default) or "async".
	RunMode string `yaml:"run_mode" envconfig:"INTERACTIVE_RUN_MODE"`
	// DefaultTimeoutSeconds applies to sessions without their own timeout; 0 disables it.
	DefaultTimeoutSeconds int `yaml:"default_timeout_seconds" envconfig:"INTERACTIVE_DEFAULT_TIMEOUT_SECONDS"`
	JumpTimeoutSeconds    int `yaml:"jump_timeout_seconds" envconfig:"INTERACTIVE_JUMP_TIMEOUT_SECONDS"`
	InfoDeleteSeconds     int `yaml:"info_delete_seconds" envconfig:"INTERACTIVE_INFO_DELETE_SECONDS"`
	// Input is "buttons" (default) or "reactions".
	Input string `yaml:"input" envconfig:"INTERACTIVE_INPUT"`
}

const (
	// InteractiveSync handles session events on the delivering goroutine.
	InteractiveSync = "sync"
	// InteractiveAsync hands session events to the sender worker pool.
	InteractiveAsync = "async"

	// InputButtons renders session controls as inline keyboards.
	InputButtons = "buttons"
	// InputReactions renders session controls as message reactions.
	InputReactions = "reactions"

	defaultJumpTimeoutSeconds = 15
	defaultInfoDeleteSeconds  = 10
)

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram    TelegramConfig    `yaml:"telegram"`
	Webhook     WebhookConfig     `yaml:"webhook"`
	Logging     LoggingConfig     `yaml:"logging"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Interactive InteractiveConfig `yaml:"interactive"`
}

// Load reads the YAML file at path, applies environment overrides and
// normalizes the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ErrInvalid wraps every validation failure reported by Normalize.
var ErrInvalid = errors.New("invalid config")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

// Normalize validates cfg and fills defaults. All problems are reported
// together.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return invalid("nil config")
	}
	return errors.Join(
		normalizeTelegram(&cfg.Telegram, cfg.Webhook),
		normalizeRateLimit(&cfg.RateLimit),
		normalizeInteractive(&cfg.Interactive),
	)
}

func normalizeTelegram(tc *TelegramConfig, wh WebhookConfig) error {
	var errs []error
	if strings.TrimSpace(tc.Token) == "" {
		errs = append(errs, invalid("telegram.token is required"))
	}
	switch mode := strings.ToLower(strings.TrimSpace(tc.RunMode)); mode {
	case "", "polling", RunModeLongpoll:
		tc.RunMode = RunModeLongpoll
		if tc.LongPollTimeoutSeconds < 0 {
			errs = append(errs, invalid("telegram.longpoll_timeout_seconds must be >= 0"))
		}
	case RunModeWebhook:
		tc.RunMode = mode
		if strings.TrimSpace(wh.URL) == "" {
			errs = append(errs, invalid("webhook.url is required in webhook mode"))
		}
		if strings.TrimSpace(wh.Listen) == "" {
			errs = append(errs, invalid("webhook.listen is required in webhook mode"))
		}
		if wh.Port <= 0 {
			errs = append(errs, invalid("webhook.port must be > 0 in webhook mode"))
		}
	default:
		errs = append(errs, invalid("telegram.run_mode %q; allowed: webhook, longpoll", tc.RunMode))
	}
	return errors.Join(errs...)
}

var rateLimitKinds = []string{UpdateCallback, UpdateMessage, UpdateInlineQuery, UpdateReaction}

func normalizeRateLimit(rc *RateLimitConfig) error {
	if rc.IntervalMS < 0 {
		return invalid("rate_limit.interval_ms must be >= 0")
	}
	kinds := rc.ExcludeUpdates[:0]
	for _, v := range rc.ExcludeUpdates {
		kind := strings.ToLower(strings.TrimSpace(v))
		if kind == "" {
			continue
		}
		if !slices.Contains(rateLimitKinds, kind) {
			return invalid("rate_limit.exclude_updates value %q; allowed: %s", v, strings.Join(rateLimitKinds, ", "))
		}
		kinds = append(kinds, kind)
	}
	rc.ExcludeUpdates = kinds
	return nil
}

func normalizeInteractive(ic *InteractiveConfig) error {
	var errs []error
	switch mode := strings.ToLower(strings.TrimSpace(ic.RunMode)); mode {
	case "":
		ic.RunMode = InteractiveSync
	case InteractiveSync, InteractiveAsync:
		ic.RunMode = mode
	default:
		errs = append(errs, invalid("interactive.run_mode %q; allowed: sync, async", ic.RunMode))
	}
	switch input := strings.ToLower(strings.TrimSpace(ic.Input)); input {
	case "":
		ic.Input = InputButtons
	case InputButtons, InputReactions:
		ic.Input = input
	default:
		errs = append(errs, invalid("interactive.input %q; allowed: buttons, reactions", ic.Input))
	}
	if ic.DefaultTimeoutSeconds < 0 || ic.JumpTimeoutSeconds < 0 || ic.InfoDeleteSeconds < 0 {
		errs = append(errs, invalid("interactive timeouts must be >= 0"))
	}
	if ic.JumpTimeoutSeconds == 0 {
		ic.JumpTimeoutSeconds = defaultJumpTimeoutSeconds
	}
	if ic.InfoDeleteSeconds == 0 {
		ic.InfoDeleteSeconds = defaultInfoDeleteSeconds
	}
	return errors.Join(errs...)
}

// DefaultTimeout is the session timeout used when a session sets none.
func (ic InteractiveConfig) DefaultTimeout() time.Duration {
	return time.Duration(ic.DefaultTimeoutSeconds) * time.Second
}

// JumpTimeout bounds how long a jump prompt waits for the page number.
func (ic InteractiveConfig) JumpTimeout() time.Duration {
	return time.Duration(ic.JumpTimeoutSeconds) * time.Second
}

// InfoDelay is how long help and error notices stay before deletion.
func (ic InteractiveConfig) InfoDelay() time.Duration {
	return time.Duration(ic.InfoDeleteSeconds) * time.Second
}

// LongPollTimeout returns the long polling timeout, 10s when unset.
func (tc TelegramConfig) LongPollTimeout() time.Duration {
	if tc.LongPollTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(tc.LongPollTimeoutSeconds) * time.Second
}

// Interval is the minimum gap between two updates of one user.
func (rc RateLimitConfig) Interval() time.Duration {
	return time.Duration(rc.IntervalMS) * time.Millisecond
}
