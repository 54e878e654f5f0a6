package domain

import (
	"time"

	"github.com/google/uuid"
)

// Portfolio is the root every group, asset, transaction and basket belongs to
type Portfolio struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}
