package models

import "time"

// TransitionLog is the append-only history of committed workflow transitions.
type TransitionLog struct {
	ID         string    `db:"id" json:"id"`
	EntityKind string    `db:"entity_kind" json:"entity_kind"`
	EntityID   string    `db:"entity_id" json:"entity_id"`
	FromStatus *string   `db:"from_status" json:"from_status,omitempty"`
	ToStatus   string    `db:"to_status" json:"to_status"`
	ActorID    string    `db:"actor_id" json:"actor_id"`
	ActorRole  UserRole  `db:"actor_role" json:"actor_role"`
	Reason     *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
