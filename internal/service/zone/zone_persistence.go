package zone

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"floodmap/internal/model"
	pg "floodmap/internal/postgres"
	redis_client "floodmap/internal/redis"

	"gorm.io/gorm"
)

const ZoneRedisKey = "zone"

// loadAllZonesFromRedis loads zone updates from the dirty cache
func (s *ZoneService) loadAllZonesFromRedis(ctx context.Context) (map[int]*model.ZoneRedis, error) {
	client := redis_client.GetClient()
	if client == nil {
		return map[int]*model.ZoneRedis{}, nil
	}

	var cursor uint64
	var keys []string
	pattern := fmt.Sprintf("%s:*", ZoneRedisKey)

	// Collect all zone keys
	for {
		batch, nextCursor, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return map[int]*model.ZoneRedis{}, nil
	}

	// Retrieve all zones in a single operation
	jsonData, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	zones := make(map[int]*model.ZoneRedis)
	for _, data := range jsonData {
		if data == nil {
			continue
		}

		jsonStr, ok := data.(string)
		if !ok || jsonStr == "" {
			continue
		}

		redisZone := &model.ZoneRedis{}
		if err := json.Unmarshal([]byte(jsonStr), redisZone); err != nil {
			continue
		}

		zones[redisZone.ID] = redisZone
	}

	return zones, nil
}

// SaveDirtyZonesToRedis saves modified zones to Redis
func (s *ZoneService) SaveDirtyZonesToRedis() error {
	dirtyZones := s.storage.GetDirty()
	if len(dirtyZones) == 0 {
		return nil
	}

	client := redis_client.GetClient()
	if client == nil {
		return nil
	}

	ctx := context.Background()
	pipe := client.Pipeline()

	// Collect keys to clear flags after successful save
	keys := make([]int, 0, len(dirtyZones))

	for id, z := range dirtyZones {
		zoneKey := fmt.Sprintf("%s:%d", ZoneRedisKey, id)
		zoneJSON, err := json.Marshal(z.ToRedis())
		if err != nil {
			return err
		}
		pipe.Set(ctx, zoneKey, zoneJSON, 0)
		keys = append(keys, id)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		return err
	}

	// Clear flags only after successful save
	s.storage.ClearDirty(keys)

	log.Printf("Saved %d zones to Redis", len(dirtyZones))
	return nil
}

// SaveAllZonesToPG saves all zones to PostgreSQL. Each zone is saved in its
// own transaction: a failure on one zone never rolls back or blocks the
// others.
func (s *ZoneService) SaveAllZonesToPG() error {
	allZones := s.storage.GetAllValues()
	if len(allZones) == 0 {
		return nil
	}

	db := pg.GetDB()
	if db == nil {
		return nil
	}

	var firstErr error
	saved := 0
	for _, z := range allZones {
		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Save(z.ToPG()).Error
		})
		if err != nil {
			log.Printf("Error saving zone %d to PostgreSQL: %v", z.ID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		saved++
	}

	log.Printf("Saved %d/%d zones to PostgreSQL", saved, len(allZones))
	return firstErr
}

// persistSeedZones writes freshly seeded defaults through to PostgreSQL.
func (s *ZoneService) persistSeedZones(zones []*model.Zone) error {
	db := pg.GetDB()
	if db == nil {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, z := range zones {
			if err := tx.Create(z.ToPG()).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
