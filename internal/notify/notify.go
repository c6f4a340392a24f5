package notify

import (
	"context"
	"log"
)

// Notifier is the outbound-message collaborator: it is told when a patient
// should move to a new station. Delivery (SMS, WhatsApp) lives outside this
// service; callers fire and forget and never wait on it.
type Notifier interface {
	StationChanged(ctx context.Context, tokenID, stationID string)
}

// LogNotifier is the default delivery-less implementation.
type LogNotifier struct{}

func (LogNotifier) StationChanged(ctx context.Context, tokenID, stationID string) {
	log.Printf("notify token=%s next_station=%s", tokenID, stationID)
}
