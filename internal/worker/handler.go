package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"promptgram/internal/queue"
)

// Reconciler recomputes denormalized counters from the system of record.
// This abstracts the repository layer so workers don't depend on DB directly.
type Reconciler interface {
	ReconcileUser(ctx context.Context, userID int64) error
	ReconcileImage(ctx context.Context, imageID int64) error
	ReconcileAll(ctx context.Context) (int64, error)
}

// Handler processes counter-drift events from the queue. Reconciliation is
// idempotent: it recounts from the edge tables, so duplicate or replayed
// events converge to the same state.
type Handler struct {
	reconciler Reconciler
}

// NewHandler creates a new event handler.
func NewHandler(reconciler Reconciler) *Handler {
	return &Handler{reconciler: reconciler}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.DriftEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventImageCounterDrift:
		err = h.handleImageDrift(ctx, event)
	case queue.EventUserCounterDrift:
		err = h.handleUserDrift(ctx, event)
	case queue.EventFullReconcile:
		err = h.handleFullReconcile(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

func (h *Handler) handleImageDrift(ctx context.Context, event queue.DriftEvent) error {
	log.Printf("[Worker] ImageCounterDrift: image=%d reason=%s", event.ImageID, event.Reason)

	if event.ImageID <= 0 {
		return fmt.Errorf("invalid image id: %d", event.ImageID)
	}

	return h.reconciler.ReconcileImage(ctx, event.ImageID)
}

func (h *Handler) handleFullReconcile(ctx context.Context, event queue.DriftEvent) error {
	log.Printf("[Worker] FullReconcile: reason=%s", event.Reason)

	fixed, err := h.reconciler.ReconcileAll(ctx)
	if err != nil {
		return err
	}
	log.Printf("[Worker] FullReconcile OK: corrected=%d", fixed)
	return nil
}

func (h *Handler) handleUserDrift(ctx context.Context, event queue.DriftEvent) error {
	log.Printf("[Worker] UserCounterDrift: user=%d reason=%s", event.UserID, event.Reason)

	if event.UserID <= 0 {
		return fmt.Errorf("invalid user id: %d", event.UserID)
	}

	return h.reconciler.ReconcileUser(ctx, event.UserID)
}
