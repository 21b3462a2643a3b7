package infant

import (
	"time"

	"github.com/google/uuid"
)

// TestType names one of the five slots in the fixed 24-month follow-up
// schedule. The names are stable identifiers used in the API, the audit log
// and the database.
type TestType string

const (
	TestPCR1         TestType = "pcr1"
	TestPCR2         TestType = "pcr2"
	TestAntibody12Mo TestType = "antibody12mo"
	TestRapid18Mo    TestType = "rapidTest18mo"
	TestAntibody24Mo TestType = "antibody24mo"
)

// TestTypes lists the schedule slots in chronological order.
var TestTypes = []TestType{TestPCR1, TestPCR2, TestAntibody12Mo, TestRapid18Mo, TestAntibody24Mo}

// scheduleOffsets is the fixed offset, in days after birth, of each test.
var scheduleOffsets = map[TestType]int{
	TestPCR1:         42,
	TestPCR2:         270,
	TestAntibody12Mo: 365,
	TestRapid18Mo:    540,
	TestAntibody24Mo: 730,
}

// Valid reports whether t is one of the five schedule slots.
func (t TestType) Valid() bool {
	_, ok := scheduleOffsets[t]
	return ok
}

// TestResult is the outcome of a completed diagnostic test.
type TestResult string

const (
	ResultPositive TestResult = "Positive"
	ResultNegative TestResult = "Negative"
	ResultPending  TestResult = "Pending"
)

func (r TestResult) Valid() bool {
	switch r {
	case ResultPositive, ResultNegative, ResultPending:
		return true
	}
	return false
}

// TestState is the classification of a test relative to "now".
type TestState string

const (
	StateDone      TestState = "done"
	StateOverdue   TestState = "overdue"
	StateDueSoon   TestState = "due_soon"
	StateNotYetDue TestState = "not_yet_due"
)

// DefaultDueSoonDays is the reminder window applied when no override is
// configured.
const DefaultDueSoonDays = 14

// TestRecord is one diagnostic test instance. Result is set if and only if
// DoneDate is set.
type TestRecord struct {
	DueDate  time.Time   `db:"due_date" json:"due_date"`
	DoneDate *time.Time  `db:"done_date" json:"done_date,omitempty"`
	Result   *TestResult `db:"result" json:"result,omitempty"`
}

// Done reports whether the test has been performed.
func (tr TestRecord) Done() bool { return tr.DoneDate != nil }

// Classify returns the state of the test at the given instant. A test due
// exactly now is DueSoon, not Overdue: the overdue boundary is strict.
func (tr TestRecord) Classify(now time.Time, windowDays int) TestState {
	if tr.Done() {
		return StateDone
	}
	diffDays := tr.DueDate.Sub(now).Hours() / 24
	if diffDays < 0 {
		return StateOverdue
	}
	if diffDays <= float64(windowDays) {
		return StateDueSoon
	}
	return StateNotYetDue
}

// NewSchedule derives the five test due-dates from a date of birth:
// dob + 42, 270, 365, 540 and 730 days, with no results recorded.
func NewSchedule(dob time.Time) map[TestType]TestRecord {
	tests := make(map[TestType]TestRecord, len(TestTypes))
	for _, t := range TestTypes {
		tests[t] = TestRecord{DueDate: dob.AddDate(0, 0, scheduleOffsets[t])}
	}
	return tests
}

// Status is the follow-up status of an infant.
type Status string

const (
	StatusActive     Status = "Active"
	StatusDischarged Status = "Discharged"
	StatusLTFU       Status = "Lost to Follow Up"
	StatusDeceased   Status = "Deceased"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusDischarged, StatusLTFU, StatusDeceased:
		return true
	}
	return false
}

// Prophylaxis is the preventive antiretroviral regimen given to the infant.
type Prophylaxis string

const (
	ProphylaxisNVP    Prophylaxis = "NVP"
	ProphylaxisAZTNVP Prophylaxis = "AZT/NVP"
	ProphylaxisOther  Prophylaxis = "Other"
	ProphylaxisNone   Prophylaxis = "None"
)

func (p Prophylaxis) Valid() bool {
	switch p {
	case ProphylaxisNVP, ProphylaxisAZTNVP, ProphylaxisOther, ProphylaxisNone:
		return true
	}
	return false
}

// Outcome is the final HIV status determined at the end of follow-up.
type Outcome string

const (
	OutcomePositive      Outcome = "Positive"
	OutcomeNegative      Outcome = "Negative"
	OutcomeIndeterminate Outcome = "Indeterminate"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomePositive, OutcomeNegative, OutcomeIndeterminate:
		return true
	}
	return false
}

// Infant is one exposed infant under follow-up. Facility and district are
// assigned at registration from the registering user's scope and never change
// afterwards; the five test due-dates are fixed relative to DOB.
type Infant struct {
	ID            uuid.UUID   `db:"id" json:"id"`
	RecordID      string      `db:"record_id" json:"record_id"`
	InfantName    string      `db:"infant_name" json:"infant_name"`
	MotherID      string      `db:"mother_id" json:"mother_id"`
	DOB           time.Time   `db:"dob" json:"dob"`
	Facility      string      `db:"facility" json:"facility"`
	District      string      `db:"district" json:"district"`
	Prophylaxis   Prophylaxis `db:"prophylaxis" json:"prophylaxis"`
	Status        Status      `db:"status" json:"status"`
	PCR1          TestRecord  `db:"pcr1" json:"pcr1"`
	PCR2          TestRecord  `db:"pcr2" json:"pcr2"`
	Antibody12Mo  TestRecord  `db:"antibody12mo" json:"antibody12mo"`
	RapidTest18Mo TestRecord  `db:"rapid_test_18mo" json:"rapidTest18mo"`
	Antibody24Mo  TestRecord  `db:"antibody24mo" json:"antibody24mo"`
	FinalOutcome  *Outcome    `db:"final_outcome" json:"final_outcome,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// Test returns a pointer to the named test slot, or nil for an unknown type.
func (i *Infant) Test(t TestType) *TestRecord {
	switch t {
	case TestPCR1:
		return &i.PCR1
	case TestPCR2:
		return &i.PCR2
	case TestAntibody12Mo:
		return &i.Antibody12Mo
	case TestRapid18Mo:
		return &i.RapidTest18Mo
	case TestAntibody24Mo:
		return &i.Antibody24Mo
	}
	return nil
}

// Tests returns the five test records in chronological slot order.
func (i *Infant) Tests() []TestRecord {
	return []TestRecord{i.PCR1, i.PCR2, i.Antibody12Mo, i.RapidTest18Mo, i.Antibody24Mo}
}

// ApplySchedule sets all five test slots from a generated schedule.
func (i *Infant) ApplySchedule(tests map[TestType]TestRecord) {
	i.PCR1 = tests[TestPCR1]
	i.PCR2 = tests[TestPCR2]
	i.Antibody12Mo = tests[TestAntibody12Mo]
	i.RapidTest18Mo = tests[TestRapid18Mo]
	i.Antibody24Mo = tests[TestAntibody24Mo]
}
