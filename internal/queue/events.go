package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the reconciliation stream
const (
	EventImageCounterDrift = "image_counter_drift"
	EventUserCounterDrift  = "user_counter_drift"
	// EventFullReconcile sweeps every denormalized counter. Published
	// operationally (an XADD to the stream) rather than by request paths.
	EventFullReconcile = "full_reconcile"
)

// Stream names
const (
	StreamReconcile = "stream:reconcile"
)

// Consumer group name for reconciliation workers
const (
	ConsumerGroupReconcile = "reconcile_workers"
)

// DriftEvent reports that a denormalized counter may have diverged from its
// edge table: the primary write committed but the counter update failed.
// The worker recounts from the system of record, so replaying the same event
// is harmless.
type DriftEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when drift was observed

	// Image drift (remix/like counters)
	ImageID int64 `json:"image_id,omitempty"`

	// User drift (follower/following counters)
	UserID int64 `json:"user_id,omitempty"`

	// Reason is the operation that observed the drift, for the logs.
	Reason string `json:"reason,omitempty"`
}

// NewImageCounterDriftEvent creates an event for a suspect image counter.
func NewImageCounterDriftEvent(imageID int64, reason string) DriftEvent {
	return DriftEvent{
		Type:      EventImageCounterDrift,
		Timestamp: time.Now().Unix(),
		ImageID:   imageID,
		Reason:    reason,
	}
}

// NewUserCounterDriftEvent creates an event for a suspect user counter.
func NewUserCounterDriftEvent(userID int64, reason string) DriftEvent {
	return DriftEvent{
		Type:      EventUserCounterDrift,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		Reason:    reason,
	}
}

// NewFullReconcileEvent creates an event that triggers a sweep of all counters.
func NewFullReconcileEvent(reason string) DriftEvent {
	return DriftEvent{
		Type:      EventFullReconcile,
		Timestamp: time.Now().Unix(),
		Reason:    reason,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e DriftEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseDriftEvent parses a DriftEvent from Redis stream message values.
func ParseDriftEvent(values map[string]interface{}) (DriftEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return DriftEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event DriftEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return DriftEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
