package notifier

import (
	"context"

	"github.com/aleister1102/specwatch/internal/models"
)

// Notifier receives change-detected events. Delivery mechanics live behind
// this interface; a failed delivery never fails the check that produced the
// event.
type Notifier interface {
	NotifyChange(ctx context.Context, event models.ChangeEvent) error
}

// NopNotifier discards all events.
type NopNotifier struct{}

// NewNopNotifier creates a notifier that does nothing.
func NewNopNotifier() *NopNotifier {
	return &NopNotifier{}
}

// NotifyChange implements Notifier.
func (n *NopNotifier) NotifyChange(ctx context.Context, event models.ChangeEvent) error {
	return nil
}
