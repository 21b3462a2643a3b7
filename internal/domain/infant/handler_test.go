package infant

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/emtct/emtct/internal/platform/auth"
)

func doRequest(t *testing.T, h *Handler, actor *auth.Actor, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	api := e.Group("/api/v1")
	h.RegisterRoutes(api)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if actor != nil {
		req = req.WithContext(auth.WithActor(req.Context(), *actor))
	}
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	return rr
}

func newTestHandler(t *testing.T) (*Handler, *Service) {
	t.Helper()
	svc, _, _ := newTestService(t)
	return NewHandler(svc), svc
}

func TestHandler_RegisterAndGet(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := doRequest(t, h, &facilityNurse, http.MethodPost, "/api/v1/infants",
		`{"infant_name":"Baby A","mother_id":"MOT-001","dob":"2024-01-01","prophylaxis":"NVP"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rr.Code, rr.Body.String())
	}
	var created Infant
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.RecordID != "INF-1001" {
		t.Errorf("record id %s", created.RecordID)
	}

	rr = doRequest(t, h, &facilityNurse, http.MethodGet, "/api/v1/infants/INF-1001", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get: %d %s", rr.Code, rr.Body.String())
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	for _, slot := range []string{"pcr1", "pcr2", "antibody12mo", "rapidTest18mo", "antibody24mo"} {
		if _, ok := body[slot]; !ok {
			t.Errorf("response missing test slot %q", slot)
		}
	}
}

func TestHandler_ErrorMapping(t *testing.T) {
	h, svc := newTestHandler(t)
	register(t, svc, facilityNurse, "Baby A", "2024-01-01")
	outside := auth.Actor{Email: "n@entebbe.ug", Role: auth.RoleFacility, Facility: "Entebbe General", District: "Wakiso"}

	cases := []struct {
		name   string
		actor  *auth.Actor
		method string
		path   string
		body   string
		want   int
	}{
		{"unauthenticated list", nil, http.MethodGet, "/api/v1/infants", "", http.StatusUnauthorized},
		{"unknown record", &facilityNurse, http.MethodGet, "/api/v1/infants/INF-9999", "", http.StatusNotFound},
		{"out of scope read", &outside, http.MethodGet, "/api/v1/infants/INF-1001", "", http.StatusForbidden},
		{"out of scope write", &outside, http.MethodPut, "/api/v1/infants/INF-1001/status", `{"status":"Discharged"}`, http.StatusForbidden},
		{"future dob", &facilityNurse, http.MethodPost, "/api/v1/infants", `{"infant_name":"B","mother_id":"M","dob":"2031-01-01"}`, http.StatusBadRequest},
		{"unknown test slot", &facilityNurse, http.MethodPut, "/api/v1/infants/INF-1001/tests/cd4", `{"done_date":"2024-02-15","result":"Negative"}`, http.StatusBadRequest},
		{"bad status", &facilityNurse, http.MethodPut, "/api/v1/infants/INF-1001/status", `{"status":"Archived"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(t, h, tc.actor, tc.method, tc.path, tc.body)
			if rr.Code != tc.want {
				t.Errorf("got %d, want %d: %s", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
}

func TestHandler_RecordTestResult(t *testing.T) {
	h, svc := newTestHandler(t)
	register(t, svc, facilityNurse, "Baby A", "2024-01-01")

	rr := doRequest(t, h, &facilityNurse, http.MethodPut, "/api/v1/infants/INF-1001/tests/pcr1",
		`{"done_date":"2024-02-15","result":"Negative"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	var inf Infant
	if err := json.Unmarshal(rr.Body.Bytes(), &inf); err != nil {
		t.Fatal(err)
	}
	if !inf.PCR1.Done() || inf.PCR1.Result == nil || *inf.PCR1.Result != ResultNegative {
		t.Errorf("pcr1 not updated: %+v", inf.PCR1)
	}
	if want := date("2024-02-15"); !inf.PCR1.DoneDate.Equal(want) {
		t.Errorf("done date %s", inf.PCR1.DoneDate.Format(time.RFC3339))
	}
}

func TestHandler_ListScoped(t *testing.T) {
	h, svc := newTestHandler(t)
	register(t, svc, facilityNurse, "Kibuli Baby", "2024-01-01")
	outside := auth.Actor{Email: "n@entebbe.ug", Role: auth.RoleFacility, Facility: "Entebbe General", District: "Wakiso"}
	register(t, svc, outside, "Entebbe Baby", "2024-02-01")

	rr := doRequest(t, h, &districtLead, http.MethodGet, "/api/v1/infants", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	var page struct {
		Data  []Infant `json:"data"`
		Total int      `json:"total"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || len(page.Data) != 1 || page.Data[0].District != "Kampala" {
		t.Errorf("district list: %+v", page)
	}
}
