package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/dgnsrekt/playvoice-go/internal/tts"
)

// Job is one utterance waiting to be spoken into the voice channel.
type Job struct {
	ID        string
	Text      string
	Engine    string
	Options   tts.Options
	Interrupt bool
	TTL       time.Duration
	DedupeKey string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewJob creates a job with a fresh id. A zero ttl never expires.
func NewJob(text, engine string, opts tts.Options, interrupt bool, ttl time.Duration, dedupeKey string) *Job {
	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		Text:      text,
		Engine:    engine,
		Options:   opts,
		Interrupt: interrupt,
		TTL:       ttl,
		DedupeKey: dedupeKey,
		CreatedAt: now,
	}
	if ttl > 0 {
		job.ExpiresAt = now.Add(ttl)
	}
	return job
}

// Expired reports whether the job's TTL elapsed before now.
func (j *Job) Expired(now time.Time) bool {
	return !j.ExpiresAt.IsZero() && now.After(j.ExpiresAt)
}

// Outcome is how a job left the queue.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeExpired   Outcome = "expired"
	OutcomeCleared   Outcome = "cleared"
)
