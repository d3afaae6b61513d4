package cerner

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	orch   *Orchestrator
	search *SearchService
}

func NewHandler(orch *Orchestrator, search *SearchService) *Handler {
	return &Handler{orch: orch, search: search}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/integrations/cerner")
	g.POST("/sync", h.RunSync)
	g.GET("/locations", h.ListLocations)
	g.GET("/patients", h.BrowsePatients)
	g.GET("/patients/unmapped", h.ListUnmappedPatients)
	g.POST("/patients/sync", h.SyncPatients)
}

// RunSync triggers a full sync pass and returns the run report. A run
// where every location failed answers 502; a mixed run answers 207.
func (h *Handler) RunSync(c echo.Context) error {
	report, err := h.orch.Sync(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	switch report.Outcome {
	case OutcomeNone:
		return c.JSON(http.StatusBadGateway, report)
	case OutcomePartial:
		return c.JSON(http.StatusMultiStatus, report)
	default:
		return c.JSON(http.StatusOK, report)
	}
}

func (h *Handler) ListLocations(c echo.Context) error {
	items, err := h.orch.ListSyncableLocations(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) BrowsePatients(c echo.Context) error {
	accountID, err := uuid.Parse(c.QueryParam("account_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid account_id")
	}
	locationExternalID := c.QueryParam("location")
	if locationExternalID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "location is required")
	}
	result, err := h.search.BrowsePatients(c.Request().Context(), accountID, locationExternalID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) ListUnmappedPatients(c echo.Context) error {
	accountID, err := uuid.Parse(c.QueryParam("account_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid account_id")
	}
	items, err := h.search.ListUnmappedPatients(c.Request().Context(), accountID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) SyncPatients(c echo.Context) error {
	var req struct {
		AccountID uuid.UUID        `json:"account_id"`
		Mappings  []PatientMapping `json:"mappings"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.AccountID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "account_id is required")
	}
	if len(req.Mappings) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "mappings are required")
	}
	result, err := h.search.SyncPatients(c.Request().Context(), req.AccountID, req.Mappings)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}
