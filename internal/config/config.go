package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/dkeye/steward/internal/core"
	"github.com/dkeye/steward/internal/domain"
)

const (
	RosterSheets = "sheets"
	RosterFile   = "file"
)

type Config struct {
	Mode     string                  `mapstructure:"mode" validate:"oneof=debug release test"`
	LogLevel string                  `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	GuildID  string                  `mapstructure:"guild_id" validate:"required"`
	Presence string                  `mapstructure:"presence"`
	Roles    RolesConfig             `mapstructure:"roles"`
	Channels ChannelsConfig          `mapstructure:"channels"`
	Voice    VoiceConfig             `mapstructure:"voice"`
	Prompts  map[string]PromptConfig `mapstructure:"prompts" validate:"dive"`
	Roster   RosterConfig            `mapstructure:"roster"`
	HTTP     HTTPConfig              `mapstructure:"http"`
	Discord  DiscordConfig           `mapstructure:"discord"`
	Google   GoogleConfig            `mapstructure:"google"`
}

type RolesConfig struct {
	Member  string `mapstructure:"member" validate:"required"`
	Visitor string `mapstructure:"visitor"`
	// Defaults are granted to every newcomer.
	Defaults []string `mapstructure:"defaults"`
}

type ChannelsConfig struct {
	Welcome       string `mapstructure:"welcome"`
	CreateVoice   string `mapstructure:"create_voice" validate:"required"`
	VoiceCategory string `mapstructure:"voice_category"`
	Admin         string `mapstructure:"admin"`
}

type VoiceConfig struct {
	NameFormat   string        `mapstructure:"name_format"`
	CreateLimit  int           `mapstructure:"create_limit" validate:"gte=0"`
	CreateWindow time.Duration `mapstructure:"create_window"`
}

type PromptConfig struct {
	Title       string         `mapstructure:"title"`
	Description string         `mapstructure:"description"`
	Color       int            `mapstructure:"color"`
	ChannelID   string         `mapstructure:"channel_id"`
	MessageID   string         `mapstructure:"message_id"`
	Options     []OptionConfig `mapstructure:"options" validate:"dive"`
}

type OptionConfig struct {
	Emoji string `mapstructure:"emoji" validate:"required"`
	Role  string `mapstructure:"role" validate:"required"`
	Label string `mapstructure:"label"`
}

type RosterConfig struct {
	Source        string        `mapstructure:"source" validate:"oneof=sheets file"`
	Interval      time.Duration `mapstructure:"interval" validate:"gt=0"`
	MaxAttempts   int           `mapstructure:"max_attempts" validate:"gte=1"`
	BaseDelay     time.Duration `mapstructure:"base_delay" validate:"gt=0"`
	Multiplier    float64       `mapstructure:"multiplier" validate:"gte=1"`
	RatePerSecond float64       `mapstructure:"rate_per_second" validate:"gte=0"`
	SheetID       string        `mapstructure:"sheet_id" validate:"required_if=Source sheets"`
	SheetRange    string        `mapstructure:"sheet_range"`
	HandleColumn  string        `mapstructure:"handle_column"`
	NameColumn    string        `mapstructure:"name_column"`
	File          string        `mapstructure:"file" validate:"required_if=Source file"`
}

type HTTPConfig struct {
	Addr       string        `mapstructure:"addr"`
	Token      string        `mapstructure:"token" validate:"required_with=Addr"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
}

type DiscordConfig struct {
	Token string `mapstructure:"token" validate:"required"`
}

type GoogleConfig struct {
	CredentialsJSON string `mapstructure:"credentials_json"`
}

// ResolvePath picks the config file: an explicit path wins, otherwise
// config/config.<STEWARD_ENV>.yaml with "dev" as the default env.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	env := os.Getenv("STEWARD_ENV")
	if env == "" {
		env = "dev"
	}
	return fmt.Sprintf("config/config.%s.yaml", env)
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)

	v.SetDefault("mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("presence", "with the Computer Science Club!")
	v.SetDefault("voice.name_format", "👥︱%s's Study Room")
	v.SetDefault("voice.create_limit", 0)
	v.SetDefault("voice.create_window", "1m")
	v.SetDefault("roster.source", RosterSheets)
	v.SetDefault("roster.interval", "1m")
	v.SetDefault("roster.max_attempts", 5)
	v.SetDefault("roster.base_delay", "1s")
	v.SetDefault("roster.multiplier", 2.0)
	v.SetDefault("roster.rate_per_second", 0)
	v.SetDefault("roster.sheet_range", "A:Z")
	v.SetDefault("http.addr", "")
	v.SetDefault("http.token", "")
	v.SetDefault("http.read_limit", 32768)
	v.SetDefault("http.ping_period", "54s")

	v.SetEnvPrefix("STEWARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Secrets keep the variable names the bot has always been deployed with.
	_ = v.BindEnv("discord.token", "STEWARD_DISCORD_TOKEN", "DISCORD_BOT_TOKEN")
	_ = v.BindEnv("google.credentials_json", "STEWARD_GOOGLE_CREDENTIALS_JSON", "GOOGLE_SHEETS_CREDS")
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Load reads the file at path, applies STEWARD_* overrides and validates
// the result. A missing file is tolerated so a deployment can run on env
// alone.
func Load(path string) (*Config, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		log.Warn().Err(err).Str("module", "config").Str("file", path).Msg("config file not loaded, using defaults and env")
	} else {
		log.Info().Str("module", "config").Str("file", path).Msg("config loaded")
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Str("guild", cfg.GuildID).Str("roster", cfg.Roster.Source).Msg("config ready")
	return cfg, nil
}

// Watch calls onChange with the freshly decoded config whenever the file
// changes. An edit that fails validation is logged and skipped.
func Watch(path string, onChange func(*Config)) error {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			log.Error().Err(err).Str("module", "config").Str("file", e.Name).Msg("ignoring invalid config change")
			return
		}
		log.Info().Str("module", "config").Str("file", e.Name).Str("op", e.Op.String()).Msg("config reloaded")
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

func (c *Config) RolePrompts() []domain.RolePrompt {
	kinds := make([]string, 0, len(c.Prompts))
	for kind := range c.Prompts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	out := make([]domain.RolePrompt, 0, len(kinds))
	for _, kind := range kinds {
		p := c.Prompts[kind]
		def := domain.RolePrompt{
			Kind:        domain.PromptKind(kind),
			Title:       p.Title,
			Description: p.Description,
			Color:       p.Color,
			ChannelID:   domain.ChannelID(p.ChannelID),
			MessageID:   domain.MessageID(p.MessageID),
		}
		for _, o := range p.Options {
			def.Options = append(def.Options, domain.PromptOption{Emoji: o.Emoji, Role: domain.RoleID(o.Role), Label: o.Label})
		}
		out = append(out, def)
	}
	return out
}

func (c *Config) RetryPolicy() core.RetryPolicy {
	return core.RetryPolicy{
		MaxAttempts: c.Roster.MaxAttempts,
		BaseDelay:   c.Roster.BaseDelay,
		Multiplier:  c.Roster.Multiplier,
	}
}

func (c *Config) DefaultRoles() []domain.RoleID {
	out := make([]domain.RoleID, 0, len(c.Roles.Defaults))
	for _, r := range c.Roles.Defaults {
		out = append(out, domain.RoleID(r))
	}
	return out
}
