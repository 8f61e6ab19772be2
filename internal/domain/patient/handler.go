package patient

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careregistry/careregistry/internal/platform/auth"
	"github.com/careregistry/careregistry/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – any clinical role
	readGroup := api.Group("", auth.RequireRole("receptionist", "nurse", "doctor"))
	readGroup.GET("/patients", h.ListPatients)
	readGroup.GET("/patients/search", h.SearchPatients)
	readGroup.GET("/patients/analytics", h.GetAnalytics)
	readGroup.GET("/patients/:id", h.GetPatient)

	// Write endpoints – registration and record upkeep
	writeGroup := api.Group("", auth.RequireRole("receptionist", "nurse", "doctor"))
	writeGroup.POST("/patients", h.CreatePatient)
	writeGroup.PUT("/patients/:id", h.UpdatePatient)

	// Deletion is restricted to doctors (admin always passes).
	api.DELETE("/patients/:id", h.DeletePatient, auth.RequireRole("doctor"))
}

// listResponse is the page envelope shared by browse and search.
type listResponse struct {
	Patients      []*Patient `json:"patients"`
	CurrentPage   int        `json:"currentPage"`
	TotalPages    int        `json:"totalPages"`
	TotalPatients int        `json:"totalPatients"`
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.Create(c.Request().Context(), &p)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients, total, err := h.svc.List(c.Request().Context(),
		c.QueryParam("sort"), c.QueryParam("order"), pg)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, listResponse{
		Patients:      patients,
		CurrentPage:   pg.Page,
		TotalPages:    pg.TotalPages(total),
		TotalPatients: total,
	})
}

func (h *Handler) SearchPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := SearchFilter{
		Query:     c.QueryParam("query"),
		PatientID: c.QueryParam("patientId"),
		FirstName: c.QueryParam("firstName"),
		LastName:  c.QueryParam("lastName"),
		Condition: c.QueryParam("condition"),
	}
	if raw := c.QueryParam("visitDate"); raw != "" {
		d, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid visitDate, expected YYYY-MM-DD")
		}
		f.VisitDate = &d
	}
	patients, total, err := h.svc.Search(c.Request().Context(), f, pg)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, listResponse{
		Patients:      patients,
		CurrentPage:   pg.Page,
		TotalPages:    pg.TotalPages(total),
		TotalPatients: total,
	})
}

func (h *Handler) GetAnalytics(c echo.Context) error {
	report, err := h.svc.Analytics(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message":          "patient deleted successfully",
		"deletedPatientId": id.String(),
	})
}

func domainHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case errors.Is(err, ErrDuplicatePatientID):
		return echo.NewHTTPError(http.StatusConflict, "patientId already registered")
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
