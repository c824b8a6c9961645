package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simaogato/bizplan-backend/internal/domain"
	"github.com/simaogato/bizplan-backend/internal/usecase/forecast"
	"github.com/simaogato/bizplan-backend/internal/usecase/projection"
	"github.com/simaogato/bizplan-backend/internal/usecase/simulation"
)

// Handler serves the REST API on top of the use case services
type Handler struct {
	ProjectionService *projection.ProjectionService
	SimulationService *simulation.SimulationService
	ForecastService   *forecast.ForecastService
	Logger            *zap.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(
	projectionService *projection.ProjectionService,
	simulationService *simulation.SimulationService,
	forecastService *forecast.ForecastService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		ProjectionService: projectionService,
		SimulationService: simulationService,
		ForecastService:   forecastService,
		Logger:            logger,
	}
}

// PreviewProjection computes a projection without storing it
func (h *Handler) PreviewProjection(c *gin.Context) {
	var req ProjectionInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	yearly, metrics, err := h.ProjectionService.Preview(req.toDomain())
	if err != nil {
		h.handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, PreviewResponse{YearlyProjections: yearly, Metrics: metrics})
}

// CreateProjection computes and stores a projection
func (h *Handler) CreateProjection(c *gin.Context) {
	var req CreateProjectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	p, err := h.ProjectionService.Create(c.Request.Context(), currentUser(c), req.Name, req.Input.toDomain())
	if err != nil {
		h.handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toProjectionResponse(p))
}

// ListProjections returns the caller's projections, newest first
func (h *Handler) ListProjections(c *gin.Context) {
	projections, err := h.ProjectionService.List(c.Request.Context(), currentUser(c))
	if err != nil {
		h.handleDomainError(c, err)
		return
	}

	resp := make([]ProjectionResponse, 0, len(projections))
	for _, p := range projections {
		resp = append(resp, toProjectionResponse(p))
	}

	c.JSON(http.StatusOK, resp)
}

// GetProjection returns a single projection
func (h *Handler) GetProjection(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	p, err := h.ProjectionService.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProjectionResponse(p))
}

// DeleteProjection removes a projection
func (h *Handler) DeleteProjection(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.ProjectionService.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		h.handleDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RecalculateMetrics recomputes metrics from the stored yearly table
func (h *Handler) RecalculateMetrics(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	p, err := h.ProjectionService.RecalculateMetrics(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProjectionResponse(p))
}

// CreateSimulation starts a ledger for one financial year
func (h *Handler) CreateSimulation(c *gin.Context) {
	var req CreateSimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	sim, err := h.SimulationService.Create(c.Request.Context(), currentUser(c), req.Name, req.Year)
	if err != nil {
		h.handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toSimulationResponse(sim))
}

// GetSimulation returns a single simulation
func (h *Handler) GetSimulation(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	sim, err := h.SimulationService.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSimulationResponse(sim))
}

// AddEntry records an income or expense in a simulation
func (h *Handler) AddEntry(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	// format already checked by the datetime binding
	date, _ := time.Parse(dateLayout, req.Date)

	entry, err := h.SimulationService.AddEntry(c.Request.Context(), currentUser(c), id, simulation.AddEntryInput{
		Type:        domain.EntryType(req.Type),
		Category:    req.Category,
		Amount:      req.Amount,
		Date:        date,
		Description: req.Description,
	})
	if err != nil {
		h.handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toEntryResponse(*entry))
}

// ListEntries returns the ledger of a simulation
func (h *Handler) ListEntries(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	entries, err := h.SimulationService.ListEntries(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.handleDomainError(c, err)
		return
	}

	resp := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toEntryResponse(e))
	}

	c.JSON(http.StatusOK, resp)
}

// SeedForecastData aggregates a simulation's ledger into a forecast data point
func (h *Handler) SeedForecastData(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req SeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	point, err := h.ForecastService.SeedFromSimulation(c.Request.Context(), currentUser(c), id, req.Year)
	if err != nil {
		h.handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, toForecastDataResponse(point))
}

// SaveForecastData stores one month of figures, replacing the same month if present
func (h *Handler) SaveForecastData(c *gin.Context) {
	var req ForecastDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	point := req.toDomain()
	if err := h.ForecastService.SaveDataPoint(c.Request.Context(), currentUser(c), &point); err != nil {
		h.handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, toForecastDataResponse(&point))
}

// GenerateForecast runs the forecast engine for a data point
func (h *Handler) GenerateForecast(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req GenerateForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	method := domain.ForecastMethod(req.Method)
	if req.Method == "" {
		method = domain.ForecastMethodAuto
	}

	out, err := h.ForecastService.Generate(c.Request.Context(), currentUser(c), id, method, req.HorizonMonths)
	if err != nil {
		h.handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, toForecastResponse(out))
}

// GetForecast returns the stored forecast of a data point
func (h *Handler) GetForecast(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	out, err := h.ForecastService.Results(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, toForecastResponse(out))
}

func (h *Handler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid id format", err)
		return uuid.Nil, false
	}
	return id, true
}
