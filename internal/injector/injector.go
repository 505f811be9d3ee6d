//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/arcourse/internal/core/observability/log"
	"github.com/zeusync/arcourse/internal/server"
)

func InitializeServer(path ConfigPath) (*server.Server, *log.Logger, error) {
	wire.Build(ServerSet)
	return nil, nil, nil
}
