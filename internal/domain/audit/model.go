package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one immutable field-level change record. InfantRecordID carries
// the public INF-#### id so the trail stays readable after exports.
type Entry struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Timestamp      time.Time `db:"ts" json:"timestamp"`
	UserEmail      string    `db:"user_email" json:"user_email"`
	InfantRecordID string    `db:"infant_record_id" json:"infant_record_id"`
	Field          string    `db:"field" json:"field"`
	OldValue       string    `db:"old_value" json:"old_value"`
	NewValue       string    `db:"new_value" json:"new_value"`
}
