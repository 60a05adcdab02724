package worker

import (
	"log"
	"time"

	"floodmap/internal/config"
	"floodmap/internal/service/zone"
)

// StartPersistenceWorkers starts the tickers flushing zone changes to Redis
// and PostgreSQL. Redis takes dirty zones frequently; PostgreSQL takes a
// full snapshot on a longer interval.
func StartPersistenceWorkers() {
	zoneService := zone.GetZoneService()

	redisTicker := time.NewTicker(config.RedisBackupInterval)
	go func() {
		for range redisTicker.C {
			if err := zoneService.SaveDirtyZonesToRedis(); err != nil {
				log.Printf("Error saving zones to Redis: %v", err)
			}
		}
	}()

	pgTicker := time.NewTicker(config.PostgresBackupInterval)
	go func() {
		for range pgTicker.C {
			if err := zoneService.SaveAllZonesToPG(); err != nil {
				log.Printf("Error saving zones to PostgreSQL: %v", err)
			}
		}
	}()

	log.Printf("Persistence workers started (Redis every %v, PostgreSQL every %v)",
		config.RedisBackupInterval, config.PostgresBackupInterval)
}
