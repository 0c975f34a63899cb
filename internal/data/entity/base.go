package entity

import (
	"time"

	"github.com/google/uuid"
)

// Base is embedded by rows that are only ever mutated through status
// transitions; none of them carry a soft-delete column.
type Base struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type BaseSimple struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}
