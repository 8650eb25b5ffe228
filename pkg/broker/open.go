package broker

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jdziat/simple-model-jobs/pkg/core"
	"github.com/jdziat/simple-model-jobs/pkg/storage"
)

var poolParams = []string{"max_open_conns", "max_idle_conns", "conn_max_lifetime", "conn_max_idle_time"}

// Open connects to the storage named by a broker URL. The prefix namespaces
// Redis keys and is ignored by SQL backends.
func Open(ctx context.Context, rawURL, prefix string) (core.Storage, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnsupportedBroker, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "redis", "rediss":
		opts, err := redis.ParseURL(rawURL)
		if err != nil {
			return nil, fmt.Errorf("jobs: parse redis url: %w", err)
		}
		return storage.NewRedisStorage(redis.NewClient(opts), prefix), nil

	case "postgres", "postgresql":
		query := u.Query()
		dsn := *u
		dsn.RawQuery = withoutPoolParams(query).Encode()
		return openGorm(ctx, postgres.Open(dsn.String()), storage.PoolOptionsFromQuery(query))

	case "sqlite":
		path := strings.TrimPrefix(rawURL, u.Scheme+"://")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if path == "" {
			return nil, fmt.Errorf("%w: sqlite url needs a path", core.ErrUnsupportedBroker)
		}
		opts := append(storage.PoolOptionsFromQuery(u.Query()), storage.MaxOpenConns(1))
		return openGorm(ctx, sqlite.Open(path), opts)

	case "memory":
		// The database lives as long as its one connection, so it is never recycled.
		dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
		return openGorm(ctx, sqlite.Open(dsn), []storage.PoolOption{
			storage.MaxOpenConns(1),
			storage.ConnMaxLifetime(0),
			storage.ConnMaxIdleTime(0),
		})
	}

	return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedBroker, u.Scheme)
}

func openGorm(ctx context.Context, dialector gorm.Dialector, pool []storage.PoolOption) (core.Storage, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("jobs: open %s broker: %w", dialector.Name(), err)
	}
	s := storage.NewGormStorage(db)
	if err := storage.ConfigurePool(db, pool...); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := db.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("jobs: connect %s broker: %w", dialector.Name(), err)
	}
	return s, nil
}

func withoutPoolParams(q url.Values) url.Values {
	out := url.Values{}
	for k, v := range q {
		out[k] = v
	}
	for _, k := range poolParams {
		out.Del(k)
	}
	return out
}
