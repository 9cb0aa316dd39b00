package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/theblitlabs/starknet-env/internal/models"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Bridge      BridgeConfig      `mapstructure:"bridge"`
	Wallet      WalletConfig      `mapstructure:"wallet"`
	Notifier    NotifierConfig    `mapstructure:"notifier"`
	Environment EnvironmentConfig `mapstructure:"environment"`
	Devnets     []models.Devnet   `mapstructure:"devnets"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	Endpoint       string        `mapstructure:"endpoint"`
	HealthInterval time.Duration `mapstructure:"health_interval"`
}

type BridgeConfig struct {
	Path           string        `mapstructure:"path"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type WalletConfig struct {
	StarknetVersion string        `mapstructure:"starknet_version"`
	ResyncTimeout   time.Duration `mapstructure:"resync_timeout"`
}

type NotifierConfig struct {
	Kind       string        `mapstructure:"kind"`
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type EnvironmentConfig struct {
	DefaultMode   string        `mapstructure:"default_mode"`
	DefaultDevnet string        `mapstructure:"default_devnet"`
	DevnetTimeout time.Duration `mapstructure:"devnet_timeout"`
}

const (
	NotifierBridge  = "bridge"
	NotifierWebhook = "webhook"
	NotifierLog     = "log"
)

// DefaultDevnets are the devnets offered when the config file lists none.
func DefaultDevnets() []models.Devnet {
	return []models.Devnet{
		{Name: "Local Devnet", URL: "http://localhost:5050"},
		{Name: "Remote Devnet", URL: "https://starknet-devnet-dev.nethermind.io"},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8787")
	v.SetDefault("server.endpoint", "/api")
	v.SetDefault("server.health_interval", 30*time.Second)

	v.SetDefault("bridge.path", "/wallet/bridge")
	v.SetDefault("bridge.request_timeout", 2*time.Minute)
	v.SetDefault("bridge.write_wait", 10*time.Second)
	v.SetDefault("bridge.pong_wait", 60*time.Second)
	v.SetDefault("bridge.max_message_size", 512*1024)

	v.SetDefault("wallet.starknet_version", models.DefaultStarknetVersion)
	v.SetDefault("wallet.resync_timeout", 30*time.Second)

	v.SetDefault("notifier.kind", NotifierBridge)
	v.SetDefault("notifier.timeout", 10*time.Second)

	v.SetDefault("environment.default_mode", string(models.EnvModeDevnet))
	v.SetDefault("environment.devnet_timeout", 10*time.Second)
}

// LoadConfig reads the config file at path. An empty path uses defaults and
// the environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("STARKNET_ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	if len(config.Devnets) == 0 {
		config.Devnets = DefaultDevnets()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if _, err := models.ParseEnvMode(c.Environment.DefaultMode); err != nil {
		return fmt.Errorf("invalid environment.default_mode: %w", err)
	}

	if !strings.HasPrefix(c.Bridge.Path, "/") {
		return fmt.Errorf("bridge.path %q must start with /", c.Bridge.Path)
	}

	switch c.Notifier.Kind {
	case NotifierBridge, NotifierLog:
	case NotifierWebhook:
		if c.Notifier.WebhookURL == "" {
			return fmt.Errorf("notifier.webhook_url is required for the webhook notifier")
		}
	default:
		return fmt.Errorf("unknown notifier kind %q", c.Notifier.Kind)
	}

	seen := make(map[string]bool, len(c.Devnets))
	for _, d := range c.Devnets {
		if d.Name == "" || d.URL == "" {
			return fmt.Errorf("devnet entries need a name and url")
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate devnet %q", d.Name)
		}
		seen[d.Name] = true
	}

	if c.Environment.DefaultDevnet != "" && !seen[c.Environment.DefaultDevnet] {
		return fmt.Errorf("environment.default_devnet %q is not a configured devnet", c.Environment.DefaultDevnet)
	}
	return nil
}

// Address is the host:port the HTTP server listens on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
