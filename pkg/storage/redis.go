package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jdziat/simple-model-jobs/pkg/core"
	"github.com/jdziat/simple-model-jobs/pkg/security"
)

// claimRetries bounds how many contended candidates Dequeue tries before giving up.
const claimRetries = 5

// RedisStorage implements Storage on Redis.
//
// Key layout, all under the configured prefix:
//
//	{prefix}:job:{id}          hash holding the encoded job and its status
//	{prefix}:inactive:{type}   sorted set of deliverable job ids scored by run time (ms)
//	{prefix}:status:{status}   set of job ids per status
//
// A job is claimed by removing it from its inactive sorted set and marking it
// active in one WATCH transaction; a worker that loses the race retries.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStorage creates a Redis-backed storage. An empty prefix defaults to "q".
func NewRedisStorage(client redis.UniversalClient, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = "q"
	}
	return &RedisStorage{client: client, prefix: prefix}
}

// Client returns the underlying Redis client.
func (s *RedisStorage) Client() redis.UniversalClient {
	return s.client
}

func (s *RedisStorage) jobKey(id string) string {
	return s.prefix + ":job:" + id
}

func (s *RedisStorage) inactiveKey(jobType string) string {
	return s.prefix + ":inactive:" + jobType
}

func (s *RedisStorage) statusKey(status core.JobStatus) string {
	return s.prefix + ":status:" + string(status)
}

// Migrate verifies connectivity. Redis needs no schema.
func (s *RedisStorage) Migrate(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Enqueue adds a job to the queue.
func (s *RedisStorage) Enqueue(ctx context.Context, job *core.Job) error {
	now := time.Now()
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = core.StatusInactive
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.jobKey(job.ID), "payload", payload, "status", string(job.Status))
	pipe.SAdd(ctx, s.statusKey(job.Status), job.ID)
	if job.Status == core.StatusInactive {
		pipe.ZAdd(ctx, s.inactiveKey(job.Type), redis.Z{Score: runScore(job.RunAt, job.CreatedAt), Member: job.ID})
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Dequeue claims the earliest deliverable job among the given types.
func (s *RedisStorage) Dequeue(ctx context.Context, types []string, workerID string) (*core.Job, error) {
	for range claimRetries {
		id, jobType, err := s.nextCandidate(ctx, types)
		if err != nil || id == "" {
			return nil, err
		}

		job, err := s.claim(ctx, id, jobType, workerID)
		if errors.Is(err, errClaimLost) || errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return job, nil
	}
	return nil, nil
}

var errClaimLost = errors.New("claim lost")

// claim moves id out of its inactive set and marks it active in one
// transaction, so a failed claim leaves the job deliverable.
func (s *RedisStorage) claim(ctx context.Context, id, jobType, workerID string) (*core.Job, error) {
	jobKey, inactiveKey := s.jobKey(id), s.inactiveKey(jobType)

	var claimed *core.Job
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		if err := tx.ZScore(ctx, inactiveKey, id).Err(); err != nil {
			if errors.Is(err, redis.Nil) {
				return errClaimLost
			}
			return err
		}

		job, err := decodeJob(tx.HGet(ctx, jobKey, "payload").Bytes())
		if err != nil {
			return err
		}
		if job == nil {
			// removed after listing; drop the dangling id
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.ZRem(ctx, inactiveKey, id)
				return nil
			})
			if err != nil {
				return err
			}
			return errClaimLost
		}

		now := time.Now()
		lockUntil := now.Add(lockDuration)
		prev := job.Status
		job.Status = core.StatusActive
		job.LockedBy = workerID
		job.LockedUntil = &lockUntil
		job.StartedAt = &now
		job.Attempt++

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZRem(ctx, inactiveKey, id)
			return s.write(ctx, pipe, job, prev, nil)
		})
		if err != nil {
			return err
		}
		claimed = job
		return nil
	}, jobKey, inactiveKey)
	return claimed, err
}

func (s *RedisStorage) nextCandidate(ctx context.Context, types []string) (string, string, error) {
	maxScore := strconv.FormatInt(time.Now().UnixMilli(), 10)

	var (
		bestID    string
		bestType  string
		bestScore float64
	)
	for _, jobType := range types {
		zs, err := s.client.ZRangeByScoreWithScores(ctx, s.inactiveKey(jobType), &redis.ZRangeBy{
			Min:   "-inf",
			Max:   maxScore,
			Count: 1,
		}).Result()
		if err != nil {
			return "", "", err
		}
		if len(zs) == 0 {
			continue
		}
		if bestID == "" || zs[0].Score < bestScore {
			bestID, _ = zs[0].Member.(string)
			bestType = jobType
			bestScore = zs[0].Score
		}
	}
	return bestID, bestType, nil
}

// Complete marks a job as successfully completed and stores its result.
func (s *RedisStorage) Complete(ctx context.Context, jobID string, workerID string, result []byte) error {
	return s.updateOwned(ctx, jobID, workerID, func(job *core.Job) *time.Time {
		now := time.Now()
		job.Status = core.StatusComplete
		job.Result = result
		job.CompletedAt = &now
		return nil
	})
}

// Fail marks a job as failed, or reschedules it when retryAt is set.
func (s *RedisStorage) Fail(ctx context.Context, jobID string, workerID string, errMsg string, retryAt *time.Time) error {
	return s.updateOwned(ctx, jobID, workerID, func(job *core.Job) *time.Time {
		job.LastError = security.SanitizeErrorMessage(errMsg)
		if retryAt != nil {
			job.Status = core.StatusInactive
			job.RunAt = retryAt
			return retryAt
		}
		now := time.Now()
		job.Status = core.StatusFailed
		job.CompletedAt = &now
		return nil
	})
}

// updateOwned applies mutate to a job locked by workerID under WATCH.
// mutate returns the time the job becomes deliverable again, or nil.
func (s *RedisStorage) updateOwned(ctx context.Context, jobID, workerID string, mutate func(*core.Job) *time.Time) error {
	key := s.jobKey(jobID)
	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		job, err := decodeJob(tx.HGet(ctx, key, "payload").Bytes())
		if err != nil {
			return err
		}
		if job == nil || job.LockedBy != workerID {
			return core.ErrJobNotOwned
		}

		prev := job.Status
		job.LockedBy = ""
		job.LockedUntil = nil
		requeueAt := mutate(job)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return s.write(ctx, pipe, job, prev, requeueAt)
		})
		return err
	}, key)
}

// Remove deletes a job.
func (s *RedisStorage) Remove(ctx context.Context, jobID string) error {
	job, err := s.load(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return core.ErrJobNotFound
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.jobKey(jobID))
	pipe.SRem(ctx, s.statusKey(job.Status), jobID)
	pipe.ZRem(ctx, s.inactiveKey(job.Type), jobID)
	_, err = pipe.Exec(ctx)
	return err
}

// GetJob retrieves a job by ID. It returns nil without error when no job matches.
func (s *RedisStorage) GetJob(ctx context.Context, jobID string) (*core.Job, error) {
	return s.load(ctx, jobID)
}

// CountByStatus counts jobs in the given status.
func (s *RedisStorage) CountByStatus(ctx context.Context, status core.JobStatus) (int64, error) {
	return s.client.SCard(ctx, s.statusKey(status)).Result()
}

// Clear deletes every key under the storage prefix.
func (s *RedisStorage) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Close closes the Redis client.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}

func (s *RedisStorage) load(ctx context.Context, jobID string) (*core.Job, error) {
	return decodeJob(s.client.HGet(ctx, s.jobKey(jobID), "payload").Bytes())
}

func (s *RedisStorage) save(ctx context.Context, job *core.Job, prev core.JobStatus, requeueAt *time.Time) error {
	pipe := s.client.TxPipeline()
	if err := s.write(ctx, pipe, job, prev, requeueAt); err != nil {
		return err
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStorage) write(ctx context.Context, pipe redis.Pipeliner, job *core.Job, prev core.JobStatus, requeueAt *time.Time) error {
	job.UpdatedAt = time.Now()
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	pipe.HSet(ctx, s.jobKey(job.ID), "payload", payload, "status", string(job.Status))
	if prev != job.Status {
		pipe.SRem(ctx, s.statusKey(prev), job.ID)
		pipe.SAdd(ctx, s.statusKey(job.Status), job.ID)
	}
	if requeueAt != nil {
		pipe.ZAdd(ctx, s.inactiveKey(job.Type), redis.Z{Score: float64(requeueAt.UnixMilli()), Member: job.ID})
	}
	return nil
}

func decodeJob(payload []byte, err error) (*core.Job, error) {
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var job core.Job
	if err := json.Unmarshal(payload, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

func runScore(runAt *time.Time, created time.Time) float64 {
	if runAt != nil {
		return float64(runAt.UnixMilli())
	}
	return float64(created.UnixMilli())
}
