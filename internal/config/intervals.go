package config

import "time"

// Worker intervals
const (
	// RedisBackupInterval defines how often dirty zones are saved to Redis
	RedisBackupInterval = 5 * time.Second

	// PostgresBackupInterval defines how often all zones are saved to PostgreSQL
	PostgresBackupInterval = 60 * time.Second
)
