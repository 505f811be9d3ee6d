package session

import (
	"github.com/zeusync/arcourse/internal/core/geometry"
	"github.com/zeusync/arcourse/internal/core/motion"
	"github.com/zeusync/arcourse/internal/core/spawn"
)

type Config struct {
	Track   geometry.Track
	Player  motion.Config
	Spawner spawn.Config

	// AutoSpawn lets the spawner emit obstacles on its timer. With it off,
	// obstacles only enter play through SpawnObstacle.
	AutoSpawn bool
	// MaxFrameDelta caps the gameplay step in seconds. Zero disables the cap.
	MaxFrameDelta float64
}

func DefaultConfig() Config {
	return Config{
		Track:         geometry.DefaultTrack(),
		Player:        motion.DefaultConfig(),
		Spawner:       spawn.DefaultConfig(),
		AutoSpawn:     true,
		MaxFrameDelta: 0.1,
	}
}
