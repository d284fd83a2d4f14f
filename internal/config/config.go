// Package config loads the coordinator/signer configuration via viper,
// reading a YAML file plus MANAGER_-prefixed environment overrides, per
// spec.md §6's configuration table.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Security holds the JWT and IP allow-list settings of §6/§7.
type Security struct {
	JWTSecret         string   `mapstructure:"jwt_secret"`
	JWTExpiration     time.Duration `mapstructure:"jwt_expiration"`
	AllowedSignerIPs  []string `mapstructure:"allowed_signer_ips"`
}

// Config is the full recognized option set of SPEC_FULL.md §2.
type Config struct {
	MongoDBURI   string `mapstructure:"mongodb_uri"`
	RabbitMQURI  string `mapstructure:"rabbitmq_uri"`
	ManagerURL   string `mapstructure:"manager_url"`
	ManagerPort  int    `mapstructure:"manager_port"`

	Threshold   int     `mapstructure:"threshold"`
	TotalParties int    `mapstructure:"total_parties"`
	Path        []uint32 `mapstructure:"path"`

	SignerKeyFiles []string `mapstructure:"signer_key_files"`

	Security Security `mapstructure:"security"`

	PingTimeoutSecs    int `mapstructure:"ping_timeout_secs"`
	SignupTimeoutSecs  int `mapstructure:"signup_timeout_secs"`
	MaxMessageSizeBytes int64 `mapstructure:"max_message_size_bytes"`
}

// PingTimeout and SignupTimeout convert the config's second counts into
// time.Duration for direct use by the registry (§5 "Cancellation &
// timeouts").
func (c *Config) PingTimeout() time.Duration {
	return time.Duration(c.PingTimeoutSecs) * time.Second
}

func (c *Config) SignupTimeout() time.Duration {
	return time.Duration(c.SignupTimeoutSecs) * time.Second
}

func defaults(v *viper.Viper) {
	v.SetDefault("manager_url", "127.0.0.1")
	v.SetDefault("manager_port", 8000)
	v.SetDefault("threshold", 1)
	v.SetDefault("total_parties", 3)
	v.SetDefault("security.jwt_expiration", "24h")
	v.SetDefault("ping_timeout_secs", 30)
	v.SetDefault("signup_timeout_secs", 30)
	v.SetDefault("max_message_size_bytes", 1<<20)
}

// Load reads path (if non-empty) as a YAML config file, then applies
// MANAGER_-prefixed environment overrides (e.g. MANAGER_SECURITY_JWT_SECRET
// overrides security.jwt_secret).
func Load(path string) (*Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix("MANAGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv alone is not seen by Unmarshal for keys that have no
	// default, so bind those explicitly.
	for _, key := range []string{"mongodb_uri", "rabbitmq_uri", "path", "signer_key_files", "security.jwt_secret", "security.allowed_signer_ips"} {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrapf(err, "config: binding env for %s", key)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "config: reading config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: unmarshaling")
	}
	if cfg.Threshold >= cfg.TotalParties {
		return nil, errors.New("config: threshold must be less than total_parties")
	}
	return &cfg, nil
}
