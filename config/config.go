package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. FRONTDESK_HTTP_PORT.
const EnvPrefix = "FRONTDESK"

// Config groups the server settings.
type Config struct {
	HTTP      HTTPConfig
	DB        DBConfig
	Log       LogConfig
	Kafka     KafkaConfig
	Auth      AuthConfig
	Seed      SeedConfig
	Reconcile ReconcileConfig
}

type HTTPConfig struct {
	Port        int
	CORSOrigins []string
}

// Addr returns the listen address.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DBConfig selects the store. An empty Path keeps everything in memory.
type DBConfig struct {
	Path string
}

type LogConfig struct {
	Level string
}

// KafkaConfig enables event publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// AuthConfig names the operator used when a request carries no X-User-ID.
type AuthConfig struct {
	DefaultUser string
}

// SeedConfig loads a demo scenario on startup.
type SeedConfig struct {
	Demo     bool
	Scenario string
}

// ReconcileConfig drives the periodic settlement sweep. A zero Interval
// disables it.
type ReconcileConfig struct {
	Interval time.Duration
}

// Load reads .env, an optional config file and FRONTDESK_* environment
// variables, in increasing order of precedence. configFile may be empty,
// in which case ./frontdesk.yaml is used if present.
func Load(configFile string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("frontdesk")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		HTTP: HTTPConfig{
			Port:        v.GetInt("http.port"),
			CORSOrigins: getStrings(v, "http.cors_origins"),
		},
		DB:  DBConfig{Path: v.GetString("db.path")},
		Log: LogConfig{Level: v.GetString("log.level")},
		Kafka: KafkaConfig{
			Brokers: getStrings(v, "kafka.brokers"),
			Topic:   v.GetString("kafka.topic"),
		},
		Auth: AuthConfig{DefaultUser: v.GetString("auth.default_user")},
		Seed: SeedConfig{
			Demo:     v.GetBool("seed.demo"),
			Scenario: v.GetString("seed.scenario"),
		},
		Reconcile: ReconcileConfig{Interval: v.GetDuration("reconcile.interval")},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.cors_origins", []string{"http://localhost:*", "http://127.0.0.1:*"})
	v.SetDefault("db.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "frontdesk.events")
	v.SetDefault("auth.default_user", "user_admin")
	v.SetDefault("seed.demo", true)
	v.SetDefault("seed.scenario", "front-desk")
	v.SetDefault("reconcile.interval", time.Hour)
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return errors.New("kafka.topic is required when kafka.brokers is set")
	}
	if c.Reconcile.Interval < 0 {
		return fmt.Errorf("reconcile.interval %s is negative", c.Reconcile.Interval)
	}
	return nil
}

// getStrings accepts either a list (config file) or a comma separated
// string (environment).
func getStrings(v *viper.Viper, key string) []string {
	if s, ok := v.Get(key).(string); ok {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return v.GetStringSlice(key)
}
