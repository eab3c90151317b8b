// Package conf loads the full application configuration from file and
// environment. Every component config embeds here under its own section.
package conf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/strandhq/strand/internal/log"
	"github.com/strandhq/strand/internal/mailer"
	"github.com/strandhq/strand/internal/server"
	"github.com/strandhq/strand/internal/server/biz"
	"github.com/strandhq/strand/internal/server/jobs"
	"github.com/strandhq/strand/internal/store"
)

type Config struct {
	Log       log.Config        `conf:"log" yaml:"log" json:"log"`
	DB        store.Config      `conf:"db" yaml:"db" json:"db"`
	APIServer server.Config     `conf:"server" yaml:"server" json:"server"`
	Auth      biz.AuthConfig    `conf:"auth" yaml:"auth" json:"auth"`
	Tenancy   biz.TenancyConfig `conf:"tenancy" yaml:"tenancy" json:"tenancy"`
	Jobs      jobs.Config       `conf:"jobs" yaml:"jobs" json:"jobs"`
	Mail      mailer.Config     `conf:"mail" yaml:"mail" json:"mail"`
}

// Load reads strand.yml from the working directory or /etc/strand, then
// applies STRAND_* environment overrides. A missing file is not an error;
// the defaults stand.
func Load() (Config, error) {
	v := viper.New()

	v.SetConfigName("strand")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/strand")

	if path := os.Getenv("STRAND_CONFIG"); path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("STRAND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("conf: read config: %w", err)
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "conf"
	})
	if err != nil {
		return Config{}, fmt.Errorf("conf: unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.name", "strand")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("db.dialect", "sqlite")
	v.SetDefault("db.dsn", "file:strand.db?cache=shared")

	v.SetDefault("server.name", "strand")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)

	v.SetDefault("auth.token_ttl", 7*24*time.Hour)

	v.SetDefault("tenancy.require_active_parent_membership", false)
	v.SetDefault("tenancy.slug_max_attempts", 100)

	v.SetDefault("jobs.submit_timeout", 5*time.Minute)

	v.SetDefault("mail.default_from", "noreply@strand.app")
	v.SetDefault("mail.base_url", "https://strand.app")
}
