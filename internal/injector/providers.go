package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/arcourse/internal/config"
	"github.com/zeusync/arcourse/internal/core/observability/log"
	"github.com/zeusync/arcourse/internal/server"
)

// ConfigPath is the config file to load. Empty means defaults.
type ConfigPath string

func ProvideConfig(path ConfigPath) (config.Config, error) {
	if path == "" {
		c := config.Default()
		return c, c.Validate()
	}
	return config.Load(string(path))
}

func ProvideLogger(cfg config.Config) *log.Logger {
	return log.NewWithEncoding(cfg.LogLevel(), cfg.Server.LogEncoding)
}

var ServerSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	server.NewServer,
)
