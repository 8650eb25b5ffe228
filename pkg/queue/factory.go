package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jdziat/simple-model-jobs/pkg/core"
)

// Data keys read by Create for per-job overrides.
const (
	KeyType             = "type"
	KeyTitle            = "title"
	KeyAttempts         = "attempts"
	KeyBackoff          = "backoff"
	KeyRemoveOnComplete = "removeOnComplete"
)

// Create builds a job on the manager's queue, initializing it if needed.
//
// The job type is data["type"] if set, else jobType, else the queue name.
// Attempts, backoff and remove-on-complete come from the configuration
// unless data sets them. The returned builder is not saved; call Save.
func (m *Manager) Create(ctx context.Context, jobType string, data core.Data) (core.JobBuilder, error) {
	if _, err := m.Init(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	h := m.handle
	cfg := m.cfg.Clone()
	m.mu.Unlock()
	if h == nil {
		return nil, core.ErrNoQueue
	}

	if data == nil {
		data = core.Data{}
	}
	typ := firstNonEmpty(stringValue(data[KeyType]), jobType, cfg.Name)

	b := h.CreateJob(typ, data)

	if n, ok := intValue(data[KeyAttempts]); ok {
		b.Attempts(n)
	} else {
		b.Attempts(cfg.Attempts)
	}

	if bo, ok := backoffValue(data[KeyBackoff]); ok {
		b.Backoff(bo)
	} else {
		b.Backoff(cfg.Backoff)
	}

	if remove, ok := data[KeyRemoveOnComplete].(bool); ok {
		b.RemoveOnComplete(remove)
	} else {
		b.RemoveOnComplete(cfg.RemoveOnComplete)
	}

	if title := stringValue(data[KeyTitle]); title != "" {
		b.Title(title)
	} else {
		b.Title(typ)
	}
	return b, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

// backoffValue reads a backoff given as core.Backoff, a kind name,
// or an object {"type": kind, "delay": milliseconds}.
func backoffValue(v any) (core.Backoff, bool) {
	switch b := v.(type) {
	case core.Backoff:
		return b, true
	case *core.Backoff:
		if b != nil {
			return *b, true
		}
	case string:
		if b != "" {
			return core.Backoff{Kind: core.BackoffKind(b)}, true
		}
	case map[string]any:
		out := core.Backoff{Kind: core.BackoffKind(stringValue(b["type"]))}
		if ms, ok := intValue(b["delay"]); ok {
			out.Delay = time.Duration(ms) * time.Millisecond
		}
		if out.Kind == "" {
			out.Kind = core.BackoffFixed
		}
		return out, true
	case core.Data:
		return backoffValue(map[string]any(b))
	}
	return core.Backoff{}, false
}
