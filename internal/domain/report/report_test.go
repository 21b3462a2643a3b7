package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/emtct/emtct/internal/domain/infant"
	"github.com/emtct/emtct/internal/platform/auth"
)

type memRepo struct {
	infants []*infant.Infant
	nextID  int
}

func (m *memRepo) Create(ctx context.Context, inf *infant.Infant) error {
	if inf.ID == uuid.Nil {
		inf.ID = uuid.New()
	}
	cp := *inf
	m.infants = append(m.infants, &cp)
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id uuid.UUID) (*infant.Infant, error) {
	for _, inf := range m.infants {
		if inf.ID == id {
			cp := *inf
			return &cp, nil
		}
	}
	return nil, infant.ErrNotFound
}

func (m *memRepo) GetByRecordID(ctx context.Context, recordID string) (*infant.Infant, error) {
	for _, inf := range m.infants {
		if inf.RecordID == recordID {
			cp := *inf
			return &cp, nil
		}
	}
	return nil, infant.ErrNotFound
}

func (m *memRepo) Update(ctx context.Context, inf *infant.Infant) error {
	for i, cur := range m.infants {
		if cur.ID == inf.ID {
			cp := *inf
			m.infants[i] = &cp
			return nil
		}
	}
	return infant.ErrNotFound
}

func (m *memRepo) List(ctx context.Context) ([]*infant.Infant, error) {
	out := make([]*infant.Infant, 0, len(m.infants))
	for _, inf := range m.infants {
		cp := *inf
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRepo) ListByDistrict(ctx context.Context, district string) ([]*infant.Infant, error) {
	all, _ := m.List(ctx)
	var out []*infant.Infant
	for _, inf := range all {
		if inf.District == district {
			out = append(out, inf)
		}
	}
	return out, nil
}

func (m *memRepo) ListByFacility(ctx context.Context, facility string) ([]*infant.Infant, error) {
	all, _ := m.List(ctx)
	var out []*infant.Infant
	for _, inf := range all {
		if inf.Facility == facility {
			out = append(out, inf)
		}
	}
	return out, nil
}

func (m *memRepo) NextRecordID(ctx context.Context) (string, error) {
	if m.nextID == 0 {
		m.nextID = 1001
	}
	id := fmt.Sprintf("INF-%d", m.nextID)
	m.nextID++
	return id, nil
}

var (
	testNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	nurse   = auth.Actor{Email: "nurse@kibuli.ug", Role: auth.RoleFacility, Facility: "Kibuli Health Centre", District: "Kampala"}
	admin   = auth.Actor{Email: "admin@moh.ug", Role: auth.RoleAdmin}
)

func newTestService(t *testing.T) (*Service, *infant.Service) {
	t.Helper()
	infants := infant.NewService(&memRepo{}, nil, infant.Options{
		Clock: func() time.Time { return testNow },
	})
	return NewService(infants), infants
}

func register(t *testing.T, infants *infant.Service, actor auth.Actor, name, dob string) *infant.Infant {
	t.Helper()
	inf, err := infants.Register(context.Background(), actor, infant.Draft{
		InfantName:  name,
		MotherID:    "MOT-001",
		DOB:         dob,
		Prophylaxis: infant.ProphylaxisNVP,
	})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return inf
}

func markDone(t *testing.T, infants *infant.Service, actor auth.Actor, recordID string, test infant.TestType, result infant.TestResult) {
	t.Helper()
	_, err := infants.RecordTestResult(context.Background(), actor, recordID, infant.TestResultUpdate{
		Test:     test,
		DoneDate: "2025-05-01",
		Result:   result,
	})
	if err != nil {
		t.Fatalf("record %s: %v", test, err)
	}
}

func TestReminders_SortedAscending(t *testing.T) {
	svc, infants := newTestService(t)
	// DOB 2025-03-01: pcr1 due 2025-04-12 (overdue at testNow), the rest far
	// future. DOB 2024-09-10: pcr2 due 2025-06-07 (due soon).
	register(t, infants, nurse, "Overdue Baby", "2025-03-01")
	register(t, infants, nurse, "Upcoming Baby", "2024-09-10")

	reminders, err := svc.Reminders(context.Background(), nurse)
	if err != nil {
		t.Fatal(err)
	}
	if len(reminders) < 2 {
		t.Fatalf("got %d reminders: %+v", len(reminders), reminders)
	}
	for i := 1; i < len(reminders); i++ {
		if reminders[i].DueDate.Before(reminders[i-1].DueDate) {
			t.Errorf("reminders out of order at %d: %s after %s",
				i, reminders[i].DueDate, reminders[i-1].DueDate)
		}
	}
	if reminders[0].State != infant.StateOverdue {
		t.Errorf("earliest reminder should be the overdue pcr1, got %+v", reminders[0])
	}
}

func TestReminders_ExcludesDoneAndFuture(t *testing.T) {
	svc, infants := newTestService(t)
	inf := register(t, infants, nurse, "Baby A", "2025-03-01")
	markDone(t, infants, nurse, inf.RecordID, infant.TestPCR1, infant.ResultNegative)

	reminders, err := svc.Reminders(context.Background(), nurse)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range reminders {
		if r.Test == infant.TestPCR1 {
			t.Errorf("done test still in reminders: %+v", r)
		}
		if r.State != infant.StateOverdue && r.State != infant.StateDueSoon {
			t.Errorf("unexpected state %s", r.State)
		}
	}
}

func TestStats(t *testing.T) {
	svc, infants := newTestService(t)
	// Baby A: pcr1 and pcr2 done (one positive), 12mo antibody overdue.
	inf := register(t, infants, nurse, "Baby A", "2024-05-01")
	markDone(t, infants, nurse, inf.RecordID, infant.TestPCR1, infant.ResultPositive)
	markDone(t, infants, nurse, inf.RecordID, infant.TestPCR2, infant.ResultNegative)
	register(t, infants, nurse, "Baby B", "2025-05-20")

	stats, err := svc.Stats(context.Background(), nurse)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalInfants != 2 {
		t.Errorf("total %d, want 2", stats.TotalInfants)
	}
	// 2 done tests, 1 positive.
	if stats.PositivityRate != 50 {
		t.Errorf("positivity %.1f, want 50.0", stats.PositivityRate)
	}
	if stats.Overdue != 1 {
		t.Errorf("overdue %d, want 1 (Baby A's 12mo antibody)", stats.Overdue)
	}
}

func TestStats_ZeroTestsDone(t *testing.T) {
	svc, infants := newTestService(t)
	register(t, infants, nurse, "Baby A", "2025-05-20")

	stats, err := svc.Stats(context.Background(), nurse)
	if err != nil {
		t.Fatal(err)
	}
	if stats.PositivityRate != 0 {
		t.Errorf("positivity with no done tests: %.1f, want 0", stats.PositivityRate)
	}
}

func TestRegisterThroughStats_EndToEnd(t *testing.T) {
	infants := infant.NewService(&memRepo{}, nil, infant.Options{
		Clock: func() time.Time { return time.Date(2024, 2, 11, 0, 0, 0, 0, time.UTC) },
	})
	svc := NewService(infants)
	ctx := context.Background()

	inf, err := infants.Register(ctx, nurse, infant.Draft{
		InfantName:  "Baby A",
		MotherID:    "MOT-001",
		DOB:         "2024-01-01",
		Prophylaxis: infant.ProphylaxisNVP,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := inf.PCR1.DueDate.Format("2006-01-02"); got != "2024-02-12" {
		t.Fatalf("pcr1 due %s, want 2024-02-12", got)
	}

	if _, err := infants.RecordTestResult(ctx, nurse, inf.RecordID, infant.TestResultUpdate{
		Test:     infant.TestPCR1,
		DoneDate: "2024-02-10",
		Result:   infant.ResultNegative,
	}); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.Stats(ctx, nurse)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalInfants != 1 || stats.Overdue != 0 || stats.PositivityRate != 0 {
		t.Errorf("stats: %+v", stats)
	}
}

func TestDistrictSummaries(t *testing.T) {
	svc, infants := newTestService(t)
	register(t, infants, nurse, "Kampala Baby", "2025-03-01")
	wakisoNurse := auth.Actor{Email: "n@entebbe.ug", Role: auth.RoleFacility, Facility: "Entebbe General", District: "Wakiso"}
	register(t, infants, wakisoNurse, "Wakiso Baby", "2025-03-01")

	summaries, err := svc.DistrictSummaries(context.Background(), admin)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d districts: %+v", len(summaries), summaries)
	}
	if summaries[0].District != "Kampala" || summaries[1].District != "Wakiso" {
		t.Errorf("districts not sorted: %+v", summaries)
	}
	if summaries[0].TotalInfants != 1 || summaries[0].Active != 1 {
		t.Errorf("Kampala rollup: %+v", summaries[0])
	}
}

func TestWriteCSV(t *testing.T) {
	svc, infants := newTestService(t)
	inf := register(t, infants, nurse, "Baby A", "2024-06-01")
	markDone(t, infants, nurse, inf.RecordID, infant.TestPCR1, infant.ResultNegative)

	var sb strings.Builder
	if err := svc.WriteCSV(context.Background(), nurse, &sb); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(strings.NewReader(sb.String())).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d rows", len(records))
	}
	if records[0][0] != "ID" || records[0][10] != "FinalOutcome" {
		t.Errorf("header: %v", records[0])
	}
	row := records[1]
	if row[0] != inf.RecordID || row[3] != "2024-06-01" {
		t.Errorf("row: %v", row)
	}
	if row[5] != "Negative" {
		t.Errorf("pcr1 column: %q", row[5])
	}
	if row[6] != "N/A" || row[10] != "N/A" {
		t.Errorf("unset columns should be N/A: %v", row)
	}
}

func TestHandler_Routes(t *testing.T) {
	svc, infants := newTestService(t)
	register(t, infants, nurse, "Baby A", "2025-03-01")
	h := NewHandler(svc)

	e := echo.New()
	h.RegisterRoutes(e.Group("/api/v1"))

	get := func(actor *auth.Actor, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if actor != nil {
			req = req.WithContext(auth.WithActor(req.Context(), *actor))
		}
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, req)
		return rr
	}

	rr := get(&nurse, "/api/v1/dashboard/stats")
	if rr.Code != http.StatusOK {
		t.Fatalf("stats: %d %s", rr.Code, rr.Body.String())
	}
	var stats Stats
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalInfants != 1 {
		t.Errorf("stats: %+v", stats)
	}

	if rr := get(&nurse, "/api/v1/reminders"); rr.Code != http.StatusOK {
		t.Errorf("reminders: %d", rr.Code)
	}
	if rr := get(&nurse, "/api/v1/reports/districts"); rr.Code != http.StatusForbidden {
		t.Errorf("facility role on district report: %d, want 403", rr.Code)
	}
	if rr := get(&admin, "/api/v1/reports/districts"); rr.Code != http.StatusOK {
		t.Errorf("admin district report: %d", rr.Code)
	}
	if rr := get(nil, "/api/v1/dashboard/stats"); rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous stats: %d, want 401", rr.Code)
	}

	rr = get(&nurse, "/api/v1/infants/export")
	if rr.Code != http.StatusOK {
		t.Fatalf("export: %d", rr.Code)
	}
	if ct := rr.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type %q", ct)
	}
	if !strings.HasPrefix(rr.Body.String(), "ID,Facility,District") {
		t.Errorf("csv body: %q", rr.Body.String())
	}
}
