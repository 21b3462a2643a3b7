package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/emtct/emtct/internal/domain/infant"
	"github.com/emtct/emtct/internal/platform/auth"
)

// Service derives reminders, statistics, rollups and exports from the scoped
// infant register. It never reads storage directly: all scoping lives in the
// infant service.
type Service struct {
	infants *infant.Service
}

func NewService(infants *infant.Service) *Service {
	return &Service{infants: infants}
}

// Reminders returns every overdue and due-soon test in the actor's scope,
// ordered by due date ascending so the most urgent entries come first.
// Overdue and due-soon tests sharing a due date keep their register order.
func (s *Service) Reminders(ctx context.Context, actor auth.Actor) ([]Reminder, error) {
	infants, err := s.infants.ListForActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	now := s.infants.Now()
	window := s.infants.DueSoonDays()

	var reminders []Reminder
	for _, inf := range infants {
		for _, tt := range infant.TestTypes {
			rec := inf.Test(tt)
			state := rec.Classify(now, window)
			if state != infant.StateOverdue && state != infant.StateDueSoon {
				continue
			}
			reminders = append(reminders, Reminder{
				InfantRecordID: inf.RecordID,
				InfantName:     inf.InfantName,
				Facility:       inf.Facility,
				District:       inf.District,
				Test:           tt,
				State:          state,
				DueDate:        rec.DueDate,
			})
		}
	}
	sort.SliceStable(reminders, func(i, j int) bool {
		return reminders[i].DueDate.Before(reminders[j].DueDate)
	})
	return reminders, nil
}

// Stats computes the dashboard summary over the actor's scope.
func (s *Service) Stats(ctx context.Context, actor auth.Actor) (Stats, error) {
	infants, err := s.infants.ListForActor(ctx, actor)
	if err != nil {
		return Stats{}, err
	}
	st := tally(infants, s.infants.Now(), s.infants.DueSoonDays())
	return Stats{
		TotalInfants:   len(infants),
		DueSoon:        st.dueSoon,
		Overdue:        st.overdue,
		PositivityRate: st.positivityRate(),
	}, nil
}

// DistrictSummaries rolls the actor's scope up by district, sorted by
// district name.
func (s *Service) DistrictSummaries(ctx context.Context, actor auth.Actor) ([]DistrictSummary, error) {
	infants, err := s.infants.ListForActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	now := s.infants.Now()
	window := s.infants.DueSoonDays()

	byDistrict := make(map[string][]*infant.Infant)
	for _, inf := range infants {
		byDistrict[inf.District] = append(byDistrict[inf.District], inf)
	}

	summaries := make([]DistrictSummary, 0, len(byDistrict))
	for district, group := range byDistrict {
		st := tally(group, now, window)
		active := 0
		for _, inf := range group {
			if inf.Status == infant.StatusActive {
				active++
			}
		}
		summaries = append(summaries, DistrictSummary{
			District:       district,
			TotalInfants:   len(group),
			Active:         active,
			DueSoon:        st.dueSoon,
			Overdue:        st.overdue,
			TestsDone:      st.done,
			PositivityRate: st.positivityRate(),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].District < summaries[j].District
	})
	return summaries, nil
}

// csvHeader matches the research export layout of the register.
var csvHeader = []string{"ID", "Facility", "District", "DOB", "Status",
	"PCR1", "PCR2", "Ab12mo", "Ab18mo", "Ab24mo", "FinalOutcome"}

// WriteCSV streams the actor's scoped register as CSV. Unperformed tests and
// an unset final outcome export as "N/A".
func (s *Service) WriteCSV(ctx context.Context, actor auth.Actor, w io.Writer) error {
	infants, err := s.infants.ListForActor(ctx, actor)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, inf := range infants {
		row := []string{
			inf.RecordID,
			inf.Facility,
			inf.District,
			inf.DOB.Format("2006-01-02"),
			string(inf.Status),
		}
		for _, rec := range inf.Tests() {
			row = append(row, resultOrNA(rec))
		}
		outcome := "N/A"
		if inf.FinalOutcome != nil {
			outcome = string(*inf.FinalOutcome)
		}
		row = append(row, outcome)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func resultOrNA(rec infant.TestRecord) string {
	if rec.Result == nil {
		return "N/A"
	}
	return string(*rec.Result)
}

// counts accumulates test-level tallies over a set of infants.
type counts struct {
	dueSoon, overdue, done, positive int
}

func (c counts) positivityRate() float64 {
	if c.done == 0 {
		return 0
	}
	return float64(c.positive) / float64(c.done) * 100
}

func tally(infants []*infant.Infant, now time.Time, window int) counts {
	var c counts
	for _, inf := range infants {
		for _, rec := range inf.Tests() {
			switch rec.Classify(now, window) {
			case infant.StateDone:
				c.done++
				if rec.Result != nil && *rec.Result == infant.ResultPositive {
					c.positive++
				}
			case infant.StateOverdue:
				c.overdue++
			case infant.StateDueSoon:
				c.dueSoon++
			}
		}
	}
	return c
}
