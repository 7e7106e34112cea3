package ports

import (
	"context"
	"time"
)

// WidgetStatus reports the booking widget state.
type WidgetStatus struct {
	ScriptURL     string    `json:"script_url"`
	Ready         bool      `json:"ready"`
	InitializedAt time.Time `json:"initialized_at,omitempty"`
}

// WidgetLoader loads the external booking widget and resolves its readiness.
type WidgetLoader interface {
	Load(ctx context.Context) error
}

// WidgetService waits for the booking widget to become available.
type WidgetService interface {
	// Await blocks until the widget is ready, failed to load, or the wait timed out.
	Await(ctx context.Context) (WidgetStatus, error)
}
