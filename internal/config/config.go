// Package config carrega a configuração do servidor: valores padrão, depois
// um arquivo YAML/JSON opcional, depois variáveis de ambiente GLOW_*.
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"goldenglow/internal/game/builtin"
	"goldenglow/internal/game/tictactoe"
	"goldenglow/internal/obslog"
)

// ErrInvalid marca erros de validação da configuração.
var ErrInvalid = errors.New("config: invalid")

const envPrefix = "GLOW"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	Log     obslog.Config `mapstructure:"log"`
	Score   ScoreConfig   `mapstructure:"score"`
	Cluster ClusterConfig `mapstructure:"cluster"`
}

type ServerConfig struct {
	Listen         string `mapstructure:"listen"`
	WSPath         string `mapstructure:"ws_path"`
	SendBuffer     int    `mapstructure:"send_buffer"`
	IdentityHeader string `mapstructure:"identity_header"`
}

type GameConfig struct {
	Types             []string      `mapstructure:"types"`
	TerminalRetention time.Duration `mapstructure:"terminal_retention"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
}

// ScoreConfig liga os destinos de placar. Um destino com endereço vazio fica
// desligado.
type ScoreConfig struct {
	Workers       int           `mapstructure:"workers"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RedisURL      string        `mapstructure:"redis_url"`
	NATSURL       string        `mapstructure:"nats_url"`
	MongoURI      string        `mapstructure:"mongo_uri"`
	MongoDatabase string        `mapstructure:"mongo_database"`
	PostgresDSN   string        `mapstructure:"postgres_dsn"`
}

type ClusterConfig struct {
	ConsulAddr    string `mapstructure:"consul_addr"`
	ServiceName   string `mapstructure:"service_name"`
	AdvertiseHost string `mapstructure:"advertise_host"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.ws_path", "/ws")
	v.SetDefault("server.send_buffer", 64)
	v.SetDefault("server.identity_header", "")

	v.SetDefault("game.types", []string{tictactoe.GameType})
	v.SetDefault("game.terminal_retention", 30*time.Second)
	v.SetDefault("game.sweep_interval", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)

	v.SetDefault("score.workers", 8)
	v.SetDefault("score.timeout", 3*time.Second)
	v.SetDefault("score.redis_url", "")
	v.SetDefault("score.nats_url", "")
	v.SetDefault("score.mongo_uri", "")
	v.SetDefault("score.mongo_database", "goldenglow")
	v.SetDefault("score.postgres_dsn", "")

	v.SetDefault("cluster.consul_addr", "")
	v.SetDefault("cluster.service_name", "goldenglow")
	v.SetDefault("cluster.advertise_host", "")
}

// Load lê a configuração. path vazio usa só padrões e ambiente.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			v.SetConfigType("yaml")
		case ".json":
			v.SetConfigType("json")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Server.Listen) == "":
		return errors.Wrap(ErrInvalid, "server.listen is empty")
	case !strings.HasPrefix(c.Server.WSPath, "/"):
		return errors.Wrapf(ErrInvalid, "server.ws_path %q must start with /", c.Server.WSPath)
	case c.Server.SendBuffer <= 0:
		return errors.Wrap(ErrInvalid, "server.send_buffer must be positive")
	case len(c.Game.Types) == 0:
		return errors.Wrap(ErrInvalid, "game.types is empty")
	case c.Game.TerminalRetention < 0:
		return errors.Wrap(ErrInvalid, "game.terminal_retention must not be negative")
	case c.Game.SweepInterval <= 0:
		return errors.Wrap(ErrInvalid, "game.sweep_interval must be positive")
	case c.Score.Workers <= 0:
		return errors.Wrap(ErrInvalid, "score.workers must be positive")
	}
	for _, t := range c.Game.Types {
		if !builtin.Known(t) {
			return errors.Wrapf(ErrInvalid, "game.types: unknown game type %q", t)
		}
	}
	return nil
}
