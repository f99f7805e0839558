package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/guildtracker/internal/model"
	"github.com/mcoot/guildtracker/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveLevels(ctx context.Context, date string, levels []model.MemberLevel) error {
	if len(levels) == 0 {
		return nil
	}

	fields := make([]interface{}, 0, len(levels)*2)
	for _, l := range levels {
		fields = append(fields, l.Name, int(l.Level))
	}

	key := levelsKey(date)

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields...)
	pipe.SAdd(ctx, datesIndexKey(), date)
	if s.cfg.SnapshotTTL > 0 {
		pipe.Expire(ctx, key, s.cfg.SnapshotTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRecords(ctx context.Context) ([]model.LevelRecord, error) {
	dates, err := s.GetDates(ctx)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return []model.LevelRecord{}, nil
	}

	// Fetch every day's hash in one round trip
	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(dates))
	for i, date := range dates {
		cmds[i] = pipe.HGetAll(ctx, levelsKey(date))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	var records []model.LevelRecord
	for i, cmd := range cmds {
		for name, raw := range cmd.Val() {
			level, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("level for %s on %s: %w", name, dates[i], err)
			}
			records = append(records, model.LevelRecord{Date: dates[i], Name: name, Level: level})
		}
	}

	storage.SortRecords(records)
	return records, nil
}

func (s *Storage) GetDates(ctx context.Context) ([]string, error) {
	dates, err := s.client.SMembers(ctx, datesIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	// Drop dates whose snapshot has expired
	if s.cfg.SnapshotTTL > 0 && len(dates) > 0 {
		pipe := s.client.Pipeline()
		exists := make([]*redis.IntCmd, len(dates))
		for i, date := range dates {
			exists[i] = pipe.Exists(ctx, levelsKey(date))
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}

		live := dates[:0]
		var stale []interface{}
		for i, date := range dates {
			if exists[i].Val() > 0 {
				live = append(live, date)
			} else {
				stale = append(stale, date)
			}
		}
		if len(stale) > 0 {
			if err := s.client.SRem(ctx, datesIndexKey(), stale...).Err(); err != nil {
				return nil, err
			}
		}
		dates = live
	}

	sort.Strings(dates)
	return dates, nil
}
