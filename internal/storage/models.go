package storage

import (
	"time"

	"stock-risk-alerts/internal/forecast"
)

// AlertSnapshot is one persisted dashboard row.
type AlertSnapshot struct {
	ID          int64
	LocationID  int
	EvaluatedAt time.Time
	Record      forecast.AlertRecord
	CreatedAt   time.Time
}
