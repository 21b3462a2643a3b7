package report

import (
	"time"

	"github.com/emtct/emtct/internal/domain/infant"
)

// Reminder is one overdue or upcoming test for a scoped infant.
type Reminder struct {
	InfantRecordID string           `json:"infant_record_id"`
	InfantName     string           `json:"infant_name"`
	Facility       string           `json:"facility"`
	District       string           `json:"district"`
	Test           infant.TestType  `json:"test"`
	State          infant.TestState `json:"state"`
	DueDate        time.Time        `json:"due_date"`
}

// Stats is the dashboard summary over the actor's scope. DueSoon and Overdue
// count tests, not infants; PositivityRate is a percentage over done tests.
type Stats struct {
	TotalInfants   int     `json:"total_infants"`
	DueSoon        int     `json:"due_soon"`
	Overdue        int     `json:"overdue"`
	PositivityRate float64 `json:"positivity_rate"`
}

// DistrictSummary is one row of the per-district rollup.
type DistrictSummary struct {
	District       string  `json:"district"`
	TotalInfants   int     `json:"total_infants"`
	Active         int     `json:"active"`
	DueSoon        int     `json:"due_soon"`
	Overdue        int     `json:"overdue"`
	TestsDone      int     `json:"tests_done"`
	PositivityRate float64 `json:"positivity_rate"`
}
