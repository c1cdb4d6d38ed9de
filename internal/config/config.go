package config

import "github.com/kelseyhightower/envconfig"

// Config holds the process configuration, read from the environment.
type Config struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`
	DBDriver   string `envconfig:"DB_DRIVER" default:"sqlite3"`
	DBDSN      string `envconfig:"DB_DSN" default:"chat.db"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
