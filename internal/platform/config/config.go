package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures process level configuration.
type Server struct {
	Addr            string        `env:"COSI_ADDR" envDefault:":8080"`
	MongoURI        string        `env:"COSI_MONGO_URI" envDefault:"mongodb://localhost:27017"`
	Database        string        `env:"COSI_DATABASE" envDefault:"cosi"`
	LogLevel        string        `env:"COSI_LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"COSI_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
