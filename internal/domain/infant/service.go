package infant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/emtct/emtct/internal/platform/auth"
)

// Change is one field-level mutation, recorded for the audit trail. Old and
// New hold JSON-encoded values so structured fields (test records) and plain
// strings share one representation.
type Change struct {
	Field string
	Old   string
	New   string
}

// AuditRecorder receives the changes produced by every mutating operation.
type AuditRecorder interface {
	Record(ctx context.Context, actorEmail, recordID string, changes []Change) error
}

// Options tunes service behaviour.
type Options struct {
	// DueSoonDays is the reminder window in days. Zero means DefaultDueSoonDays.
	DueSoonDays int
	// DefaultFacility and DefaultDistrict are assigned at registration when
	// the registering actor carries no scope of its own (admin users).
	DefaultFacility string
	DefaultDistrict string
	// Clock overrides the service clock. Nil means time.Now.
	Clock func() time.Time
}

// Service applies role scoping, validation and audit on top of the repository.
type Service struct {
	repo    Repository
	auditor AuditRecorder
	opts    Options
	now     func() time.Time
}

func NewService(repo Repository, auditor AuditRecorder, opts Options) *Service {
	if opts.DueSoonDays <= 0 {
		opts.DueSoonDays = DefaultDueSoonDays
	}
	if opts.DefaultFacility == "" {
		opts.DefaultFacility = "Central Hub"
	}
	if opts.DefaultDistrict == "" {
		opts.DefaultDistrict = "National"
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, auditor: auditor, opts: opts, now: now}
}

// DueSoonDays exposes the configured reminder window to the aggregators.
func (s *Service) DueSoonDays() int { return s.opts.DueSoonDays }

// Now returns the service clock. Tests override s.now for deterministic
// classification.
func (s *Service) Now() time.Time { return s.now() }

// ListForActor returns the infants visible to the actor: all records for
// admins, the actor's district for district users, the actor's facility for
// facility users.
func (s *Service) ListForActor(ctx context.Context, actor auth.Actor) ([]*Infant, error) {
	switch actor.Role {
	case auth.RoleAdmin:
		return s.repo.List(ctx)
	case auth.RoleDistrict:
		if actor.District == "" {
			return nil, ErrMissingScope
		}
		return s.repo.ListByDistrict(ctx, actor.District)
	case auth.RoleFacility:
		if actor.Facility == "" {
			return nil, ErrMissingScope
		}
		return s.repo.ListByFacility(ctx, actor.Facility)
	}
	return nil, fmt.Errorf("unknown role %q", actor.Role)
}

// GetForActor returns one infant by record id, or ErrOutOfScope when the
// record exists but lies outside the actor's facility/district.
func (s *Service) GetForActor(ctx context.Context, actor auth.Actor, recordID string) (*Infant, error) {
	inf, err := s.repo.GetByRecordID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !actor.InScope(inf.Facility, inf.District) {
		return nil, ErrOutOfScope
	}
	return inf, nil
}

// Draft is the registration input. Facility and district are never taken from
// the caller: they come from the actor's scope.
type Draft struct {
	InfantName  string      `json:"infant_name"`
	MotherID    string      `json:"mother_id"`
	DOB         string      `json:"dob"` // YYYY-MM-DD
	Prophylaxis Prophylaxis `json:"prophylaxis"`
}

// Register creates a new infant record: allocates the next INF-#### id,
// derives the five-test schedule from DOB and stamps the actor's scope.
func (s *Service) Register(ctx context.Context, actor auth.Actor, d Draft) (*Infant, error) {
	if strings.TrimSpace(d.InfantName) == "" {
		return nil, &ValidationError{Field: "infant_name"}
	}
	if strings.TrimSpace(d.MotherID) == "" {
		return nil, &ValidationError{Field: "mother_id"}
	}
	if d.Prophylaxis == "" {
		d.Prophylaxis = ProphylaxisNone
	}
	if !d.Prophylaxis.Valid() {
		return nil, &ValidationError{Field: "prophylaxis"}
	}
	dob, err := time.Parse("2006-01-02", d.DOB)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if dob.After(s.now()) {
		return nil, ErrInvalidDate
	}

	facility, district := actor.Facility, actor.District
	switch actor.Role {
	case auth.RoleFacility:
		if facility == "" {
			return nil, ErrMissingScope
		}
	case auth.RoleDistrict:
		if district == "" {
			return nil, ErrMissingScope
		}
		if facility == "" {
			facility = s.opts.DefaultFacility
		}
	case auth.RoleAdmin:
		if facility == "" {
			facility = s.opts.DefaultFacility
		}
		if district == "" {
			district = s.opts.DefaultDistrict
		}
	}
	if district == "" {
		district = s.opts.DefaultDistrict
	}

	inf := &Infant{
		InfantName:  strings.TrimSpace(d.InfantName),
		MotherID:    strings.TrimSpace(d.MotherID),
		DOB:         dob,
		Facility:    facility,
		District:    district,
		Prophylaxis: d.Prophylaxis,
		Status:      StatusActive,
	}
	inf.ApplySchedule(NewSchedule(dob))

	// Record ids are allocated by reading the current maximum, so two
	// concurrent registrations can pick the same one. The UNIQUE
	// constraint rejects the loser; re-allocate and try again.
	for attempt := 0; ; attempt++ {
		recordID, err := s.repo.NextRecordID(ctx)
		if err != nil {
			return nil, err
		}
		inf.RecordID = recordID
		err = s.repo.Create(ctx, inf)
		if err == nil {
			break
		}
		if errors.Is(err, ErrDuplicateRecordID) && attempt < 2 {
			continue
		}
		return nil, fmt.Errorf("register infant: %w", err)
	}
	s.record(ctx, actor, inf.RecordID, []Change{{Field: "record", Old: "", New: jsonValue(inf.RecordID)}})
	return inf, nil
}

// TestResultUpdate records the completion of one scheduled test.
type TestResultUpdate struct {
	Test     TestType   `param:"test" json:"-"`
	DoneDate string     `json:"done_date"` // YYYY-MM-DD
	Result   TestResult `json:"result"`
}

// RecordTestResult marks a test done with its result. The due date never
// changes; only the done date and result are written.
func (s *Service) RecordTestResult(ctx context.Context, actor auth.Actor, recordID string, upd TestResultUpdate) (*Infant, error) {
	if !upd.Test.Valid() {
		return nil, &ValidationError{Field: "test"}
	}
	if !upd.Result.Valid() {
		return nil, &ValidationError{Field: "result"}
	}
	done, err := time.Parse("2006-01-02", upd.DoneDate)
	if err != nil {
		return nil, ErrInvalidDate
	}

	inf, err := s.GetForActor(ctx, actor, recordID)
	if err != nil {
		return nil, err
	}

	slot := inf.Test(upd.Test)
	old := jsonValue(*slot)
	result := upd.Result
	slot.DoneDate = &done
	slot.Result = &result

	// Identical re-submission changes nothing and is not audited.
	if cur := jsonValue(*slot); cur != old {
		if err := s.repo.Update(ctx, inf); err != nil {
			return nil, fmt.Errorf("record test result: %w", err)
		}
		s.record(ctx, actor, recordID, []Change{{Field: string(upd.Test), Old: old, New: cur}})
	}
	return inf, nil
}

// StatusUpdate changes the follow-up status.
type StatusUpdate struct {
	Status Status `json:"status"`
}

func (s *Service) UpdateStatus(ctx context.Context, actor auth.Actor, recordID string, upd StatusUpdate) (*Infant, error) {
	if !upd.Status.Valid() {
		return nil, &ValidationError{Field: "status"}
	}
	inf, err := s.GetForActor(ctx, actor, recordID)
	if err != nil {
		return nil, err
	}
	if inf.Status == upd.Status {
		return inf, nil
	}
	old := inf.Status
	inf.Status = upd.Status
	if err := s.repo.Update(ctx, inf); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	s.record(ctx, actor, recordID, []Change{{Field: "status", Old: jsonValue(old), New: jsonValue(upd.Status)}})
	return inf, nil
}

// OutcomeUpdate sets the final HIV status at the end of follow-up.
type OutcomeUpdate struct {
	Outcome Outcome `json:"final_outcome"`
}

func (s *Service) RecordOutcome(ctx context.Context, actor auth.Actor, recordID string, upd OutcomeUpdate) (*Infant, error) {
	if !upd.Outcome.Valid() {
		return nil, &ValidationError{Field: "final_outcome"}
	}
	inf, err := s.GetForActor(ctx, actor, recordID)
	if err != nil {
		return nil, err
	}
	if inf.FinalOutcome != nil && *inf.FinalOutcome == upd.Outcome {
		return inf, nil
	}
	var old string
	if inf.FinalOutcome != nil {
		old = jsonValue(*inf.FinalOutcome)
	}
	outcome := upd.Outcome
	inf.FinalOutcome = &outcome
	if err := s.repo.Update(ctx, inf); err != nil {
		return nil, fmt.Errorf("record outcome: %w", err)
	}
	s.record(ctx, actor, recordID, []Change{{Field: "finalOutcome", Old: old, New: jsonValue(outcome)}})
	return inf, nil
}

// record forwards changes to the audit trail. Audit failure does not fail the
// mutation that already committed; it is logged and surfaced nowhere else.
func (s *Service) record(ctx context.Context, actor auth.Actor, recordID string, changes []Change) {
	if s.auditor == nil || len(changes) == 0 {
		return
	}
	if err := s.auditor.Record(ctx, actor.Email, recordID, changes); err != nil {
		log.Error().Err(err).Str("record_id", recordID).Msg("audit write failed")
	}
}

func jsonValue(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
