package core

import (
	"time"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	StatusInactive JobStatus = "inactive" // Waiting to be picked up (or waiting for a retry)
	StatusActive   JobStatus = "active"
	StatusComplete JobStatus = "complete"
	StatusFailed   JobStatus = "failed"
)

// Job represents a unit of work persisted by the queue provider.
type Job struct {
	ID               string     `gorm:"primaryKey;size:36"`
	Type             string     `gorm:"index;size:255;not null"`
	Title            string     `gorm:"size:512"`
	Data             []byte     `gorm:"type:bytes"`
	Status           JobStatus  `gorm:"index;size:20;default:'inactive'"`
	Attempt          int        `gorm:"default:0"`
	MaxAttempts      int        `gorm:"default:3"`
	BackoffKind      string     `gorm:"size:20"`
	BackoffDelay     int64      // milliseconds
	RemoveOnComplete bool       `gorm:"default:false"`
	LastError        string     `gorm:"type:text"`
	Result           []byte     `gorm:"type:bytes"`
	RunAt            *time.Time `gorm:"index"`
	LockedBy         string     `gorm:"size:255"`
	LockedUntil      *time.Time `gorm:"index"`
	StartedAt        *time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// Backoff returns the retry policy recorded on the job.
func (j *Job) Backoff() Backoff {
	return Backoff{
		Kind:  BackoffKind(j.BackoffKind),
		Delay: time.Duration(j.BackoffDelay) * time.Millisecond,
	}
}

// SetBackoff records a retry policy on the job.
func (j *Job) SetBackoff(b Backoff) {
	j.BackoffKind = string(b.Kind)
	j.BackoffDelay = b.Delay.Milliseconds()
}

// BackoffKind names a retry delay strategy.
type BackoffKind string

const (
	BackoffFixed       BackoffKind = "fixed"
	BackoffExponential BackoffKind = "exponential"
)

// Backoff is the policy governing the delay between retry attempts of a failed job.
type Backoff struct {
	Kind  BackoffKind   `json:"type"`
	Delay time.Duration `json:"delay,omitempty"`
}
