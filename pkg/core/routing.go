package core

import (
	"encoding/json"
	"fmt"
)

// ContextKey is the reserved job data key holding the RoutingContext.
const ContextKey = "context"

// Data is the caller-defined payload of a job.
type Data map[string]any

// RoutingContext identifies the entity and method a job invokes.
// An empty InstanceID means the method runs at class level.
type RoutingContext struct {
	Model      string `json:"model"`
	Method     string `json:"method"`
	InstanceID string `json:"_id,omitempty"`
}

// IsInstance reports whether the context targets a specific instance.
func (rc RoutingContext) IsInstance() bool {
	return rc.InstanceID != ""
}

// ExtractContext reads the RoutingContext stored under ContextKey.
// A missing or unreadable context yields an empty RoutingContext.
func ExtractContext(data Data) RoutingContext {
	switch v := data[ContextKey].(type) {
	case RoutingContext:
		return v
	case *RoutingContext:
		if v != nil {
			return *v
		}
	case map[string]any:
		return RoutingContext{
			Model:      stringField(v, "model"),
			Method:     stringField(v, "method"),
			InstanceID: stringField(v, "_id"),
		}
	case Data:
		return ExtractContext(Data{ContextKey: map[string]any(v)})
	}
	return RoutingContext{}
}

// StripContext returns a shallow copy of data without ContextKey.
func StripContext(data Data) Data {
	out := make(Data, len(data))
	for k, v := range data {
		if k == ContextKey {
			continue
		}
		out[k] = v
	}
	return out
}

// DecodeData unmarshals stored job data. Empty input yields an empty Data.
func DecodeData(raw []byte) (Data, error) {
	data := Data{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, fmt.Errorf("jobs: failed to decode job data: %w", err)
	}
	if data == nil {
		data = Data{}
	}
	return data, nil
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
