package patient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc := newTestService(newMockRepo())
	return NewHandler(svc), echo.New()
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T: %v", err, err)
	}
	return he.Code
}

func TestHandler_CreatePatient(t *testing.T) {
	h, e := newTestHandler()

	body := `{
		"patientId": "pt-001",
		"name": {"firstName": "Jane", "lastName": "Doe"},
		"dateOfBirth": "2000-01-01T00:00:00Z",
		"gender": "Female",
		"contact": {"phone": "555-0100", "email": "jane@example.com"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var p Patient
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.PatientID != "PT-001" {
		t.Errorf("expected normalised patientId PT-001, got %s", p.PatientID)
	}
	if p.Age != 24 {
		t.Errorf("expected derived age, got %d", p.Age)
	}
}

func TestHandler_CreatePatient_Duplicate(t *testing.T) {
	h, e := newTestHandler()
	if _, err := h.svc.Create(context.Background(), validPatient()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := `{
		"patientId": "PT-001",
		"name": {"firstName": "Jane", "lastName": "Doe"},
		"dateOfBirth": "2000-01-01T00:00:00Z",
		"gender": "Female",
		"contact": {"phone": "555-0100"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreatePatient(c)
	if got := httpStatus(t, err); got != http.StatusConflict {
		t.Errorf("expected 409, got %d", got)
	}
}

func TestHandler_CreatePatient_ValidationError(t *testing.T) {
	h, e := newTestHandler()

	body := `{"name": {"firstName": "Jane", "lastName": "Doe"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreatePatient(c)
	if got := httpStatus(t, err); got != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", got)
	}
}

func TestHandler_GetPatient(t *testing.T) {
	h, e := newTestHandler()
	created, _ := h.svc.Create(context.Background(), validPatient())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())

	if err := h.GetPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GetPatient(c)
	if got := httpStatus(t, err); got != http.StatusNotFound {
		t.Errorf("expected 404, got %d", got)
	}
}

func TestHandler_GetPatient_InvalidID(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.GetPatient(c)
	if got := httpStatus(t, err); got != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", got)
	}
}

func TestHandler_ListPatients(t *testing.T) {
	h, e := newTestHandler()
	for i := 0; i < 3; i++ {
		p := validPatient()
		p.PatientID = "PT-00" + string(rune('1'+i))
		if _, err := h.svc.Create(context.Background(), p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/patients?page=1&limit=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp listResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.TotalPatients != 3 {
		t.Errorf("totalPatients = %d, want 3", resp.TotalPatients)
	}
	if resp.TotalPages != 2 {
		t.Errorf("totalPages = %d, want 2", resp.TotalPages)
	}
	if resp.CurrentPage != 1 {
		t.Errorf("currentPage = %d, want 1", resp.CurrentPage)
	}
	if len(resp.Patients) != 2 {
		t.Errorf("expected 2 patients on the page, got %d", len(resp.Patients))
	}
}

func TestHandler_ListPatients_EmptyPageIsArray(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"patients":[]`) {
		t.Errorf("expected empty patients array, got %s", rec.Body.String())
	}
}

func TestHandler_SearchPatients_BadVisitDate(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/patients/search?visitDate=15-06-2024", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.SearchPatients(c)
	if got := httpStatus(t, err); got != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", got)
	}
}

func TestHandler_UpdatePatient_AppendPrescription(t *testing.T) {
	h, e := newTestHandler()
	created, _ := h.svc.Create(context.Background(), validPatient())

	body := `{"newPrescription": {"medicationName": "Aspirin", "dosage": "100mg", "frequency": "daily"}}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())

	if err := h.UpdatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var p Patient
	json.Unmarshal(rec.Body.Bytes(), &p)
	if len(p.CurrentPrescriptions) != 1 {
		t.Fatalf("expected 1 prescription, got %d", len(p.CurrentPrescriptions))
	}
	if p.CurrentPrescriptions[0].MedicationName != "Aspirin" {
		t.Errorf("unexpected prescription: %+v", p.CurrentPrescriptions[0])
	}
}

func TestHandler_DeletePatient(t *testing.T) {
	h, e := newTestHandler()
	created, _ := h.svc.Create(context.Background(), validPatient())

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())

	if err := h.DeletePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["deletedPatientId"] != created.ID.String() {
		t.Errorf("deletedPatientId = %q, want %s", resp["deletedPatientId"], created.ID)
	}
	if resp["message"] == "" {
		t.Error("expected confirmation message")
	}
}

func TestHandler_DeletePatient_NotFound(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.DeletePatient(c)
	if got := httpStatus(t, err); got != http.StatusNotFound {
		t.Errorf("expected 404, got %d", got)
	}
}

func TestHandler_GetAnalytics(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/patients/analytics", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetAnalytics(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, key := range []string{
		"patientsPerCondition", "mostPrescribedMedications",
		"avgAgePerGender", "avgAgePerDoctor", "visitsPerMonth",
	} {
		if !strings.Contains(rec.Body.String(), `"`+key+`":[]`) {
			t.Errorf("expected empty %s array in %s", key, rec.Body.String())
		}
	}
}
