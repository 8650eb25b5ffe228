package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jdziat/simple-model-jobs/pkg/core"
)

// Config holds the effective queue configuration of one session.
type Config struct {
	// Name is the primary queue name and default job type.
	Name string

	// Types lists the job types processed by Start. It always contains Name.
	Types []string

	// Concurrency is the number of workers per job type.
	Concurrency int

	// Timeout bounds a graceful shutdown.
	Timeout time.Duration

	// Attempts is the number of deliveries a job gets before it fails.
	Attempts int

	// Backoff is the delay policy between attempts.
	Backoff core.Backoff

	// RemoveOnComplete deletes jobs once they complete.
	RemoveOnComplete bool

	// Broker is the connection descriptor of the queue provider,
	// e.g. redis://127.0.0.1:6379/0 or sqlite://jobs.db.
	Broker string

	// Prefix namespaces the provider's keys.
	Prefix string

	// PollInterval is how often idle workers poll for new jobs.
	PollInterval time.Duration
}

// Defaults returns the default configuration, honouring environment variables.
func Defaults() Config {
	cfg := Config{
		Name:        getEnv("QUEUE_NAME", "mongoose"),
		Concurrency: getEnvInt("QUEUE_CONCURRENCY", 10),
		Timeout:     getEnvMillis("QUEUE_TIMEOUT", 5000*time.Millisecond),
		Attempts:    getEnvInt("QUEUE_ATTEMPTS", 3),
		Backoff: core.Backoff{
			Kind:  core.BackoffKind(getEnv("QUEUE_BACKOFF", string(core.BackoffExponential))),
			Delay: getEnvMillis("QUEUE_BACKOFF_DELAY", time.Second),
		},
		RemoveOnComplete: getEnvBool("QUEUE_REMOVE_ON_COMPLETE", true),
		Broker:           getEnv("REDIS_URL", "redis://127.0.0.1:6379"),
		Prefix:           getEnv("QUEUE_PREFIX", "q"),
		PollInterval:     getEnvMillis("QUEUE_POLL_INTERVAL", 100*time.Millisecond),
	}
	cfg.Types = unionTypes("", splitList(getEnv("QUEUE_TYPES", "")))
	return cfg
}

// IsZero reports whether no field of c is set.
func (c Config) IsZero() bool {
	return c.Name == "" && len(c.Types) == 0 && c.Concurrency == 0 && c.Timeout == 0 &&
		c.Attempts == 0 && c.Backoff == (core.Backoff{}) && !c.RemoveOnComplete &&
		c.Broker == "" && c.Prefix == "" && c.PollInterval == 0
}

// Clone returns a copy of c that shares no memory with it.
func (c Config) Clone() Config {
	c.Types = append([]string(nil), c.Types...)
	return c
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

// getEnvMillis reads a duration given either as milliseconds or as a Go duration string.
func getEnvMillis(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(n) * time.Millisecond
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
