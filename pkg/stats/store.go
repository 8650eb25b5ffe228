package stats

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueueWide is the job type under which queue depth snapshots are stored.
const QueueWide = "*"

// Stat is one job type's counters for a one-minute bucket.
type Stat struct {
	ID        uint      `gorm:"primaryKey"`
	JobType   string    `gorm:"uniqueIndex:idx_job_stats_type_bucket;size:255;not null"`
	Bucket    time.Time `gorm:"uniqueIndex:idx_job_stats_type_bucket;not null"`
	Pending   int64     `gorm:"default:0"`
	Active    int64     `gorm:"default:0"`
	Completed int64     `gorm:"default:0"`
	Failed    int64     `gorm:"default:0"`
	Retried   int64     `gorm:"default:0"`
}

// TableName keeps stats apart from the jobs table.
func (Stat) TableName() string { return "job_stats" }

// Counters are outcome counts accumulated between flushes.
type Counters struct {
	Completed int64
	Failed    int64
	Retried   int64
}

// IsZero reports whether nothing was counted.
func (c Counters) IsZero() bool {
	return c.Completed == 0 && c.Failed == 0 && c.Retried == 0
}

// Store persists Stat rows with GORM.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store on db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the stats table.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Stat{})
}

// AddCounters adds c to the bucket containing ts.
func (s *Store) AddCounters(ctx context.Context, jobType string, ts time.Time, c Counters) error {
	row := Stat{
		JobType:   jobType,
		Bucket:    bucket(ts),
		Completed: c.Completed,
		Failed:    c.Failed,
		Retried:   c.Retried,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "job_type"}, {Name: "bucket"}},
		DoUpdates: clause.Assignments(map[string]any{
			"completed": gorm.Expr("job_stats.completed + excluded.completed"),
			"failed":    gorm.Expr("job_stats.failed + excluded.failed"),
			"retried":   gorm.Expr("job_stats.retried + excluded.retried"),
		}),
	}).Create(&row).Error
}

// SnapshotDepth records the pending and active job counts for the bucket
// containing ts, replacing any earlier snapshot in that bucket.
func (s *Store) SnapshotDepth(ctx context.Context, jobType string, ts time.Time, pending, active int64) error {
	row := Stat{
		JobType: jobType,
		Bucket:  bucket(ts),
		Pending: pending,
		Active:  active,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_type"}, {Name: "bucket"}},
		DoUpdates: clause.AssignmentColumns([]string{"pending", "active"}),
	}).Create(&row).Error
}

// History returns rows between since and until, oldest first.
// An empty jobType matches every type. Zero times leave that side open.
func (s *Store) History(ctx context.Context, jobType string, since, until time.Time) ([]Stat, error) {
	q := s.db.WithContext(ctx).Order("bucket ASC")
	if jobType != "" {
		q = q.Where("job_type = ?", jobType)
	}
	if !since.IsZero() {
		q = q.Where("bucket >= ?", since.UTC())
	}
	if !until.IsZero() {
		q = q.Where("bucket <= ?", until.UTC())
	}

	var rows []Stat
	return rows, q.Find(&rows).Error
}

// Prune deletes rows older than before and returns how many went.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("bucket < ?", before.UTC()).Delete(&Stat{})
	return res.RowsAffected, res.Error
}

func bucket(ts time.Time) time.Time {
	return ts.UTC().Truncate(time.Minute)
}
