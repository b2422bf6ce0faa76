package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-maintenance-alerts/internal/alerts"
	"github.com/mr1hm/go-maintenance-alerts/internal/models"
	"github.com/mr1hm/go-maintenance-alerts/internal/repository"
	"github.com/mr1hm/go-maintenance-alerts/internal/scheduler"
	"github.com/mr1hm/go-maintenance-alerts/internal/store"
)

const (
	defaultSnooze = 30 * time.Minute
	allOption     = "All"
)

type AlertStore interface {
	List(f store.Filter) []*models.Alert
	UnreadCount() int
	MarkRead(id string) (*models.Alert, error)
	MarkShown(id string, now time.Time) (*models.Alert, error)
	Snooze(id string, d time.Duration, now time.Time) (*models.Alert, error)
	Dismiss(id string) error
}

type AlertEngine interface {
	Settings() models.AlertSettings
	UpdateSettings(s models.AlertSettings, now time.Time) models.AlertSettings
	CreateCustomAlert(p alerts.Payload, now time.Time) *models.Alert
}

// Checker runs detection on demand and accepts alerts created outside it.
type Checker interface {
	Cycle(ctx context.Context) (scheduler.CycleResult, error)
	Add(ctx context.Context, batch ...*models.Alert) []*models.Alert
}

// Deps are the collaborators the handler serves. Settings may be nil, in
// which case settings changes are not persisted.
type Deps struct {
	Alerts     AlertStore
	Engine     AlertEngine
	Checker    Checker
	Checklists repository.ChecklistRepository
	Requests   repository.RequestRepository
	Settings   repository.SettingsRepository
}

type Handler struct {
	alerts     AlertStore
	engine     AlertEngine
	checker    Checker
	checklists repository.ChecklistRepository
	requests   repository.RequestRepository
	settings   repository.SettingsRepository
	now        func() time.Time
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		alerts:     d.Alerts,
		engine:     d.Engine,
		checker:    d.Checker,
		checklists: d.Checklists,
		requests:   d.Requests,
		settings:   d.Settings,
		now:        time.Now,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/alerts", h.listAlerts)
	api.POST("/alerts", h.createAlert)
	api.POST("/alerts/check", h.runCheck)
	api.POST("/alerts/:id/read", h.markRead)
	api.POST("/alerts/:id/shown", h.markShown)
	api.POST("/alerts/:id/snooze", h.snooze)
	api.DELETE("/alerts/:id", h.dismiss)

	api.GET("/settings", h.getSettings)
	api.PUT("/settings", h.updateSettings)

	api.GET("/checklists", h.listChecklists)
	api.POST("/checklists", h.addChecklist)
	api.GET("/requests", h.listRequests)
	api.POST("/requests", h.addRequest)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// alertResponse is an alert with its resolved display color.
type alertResponse struct {
	*models.Alert
	Color string `json:"color"`
}

func (h *Handler) respond(a *models.Alert, s *models.AlertSettings) alertResponse {
	return alertResponse{Alert: a, Color: a.Color(s)}
}

func (h *Handler) listAlerts(c *gin.Context) {
	settings := h.engine.Settings()
	filter := store.Filter{
		Search: strings.TrimSpace(c.Query("search")),
	}

	if d := c.Query("department"); d != "" && d != allOption && settings.DepartmentFiltering {
		filter.Department = d
	}
	if s := c.Query("severity"); s != "" && s != allOption {
		sev := models.AlertSeverity(strings.ToLower(s))
		if !sev.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown severity " + s})
			return
		}
		filter.Severity = sev
	}
	if u := c.Query("unread"); u != "" {
		if v, err := strconv.ParseBool(u); err == nil {
			filter.UnreadOnly = v
		}
	}
	if v := c.Query("visible"); v != "" {
		if visible, err := strconv.ParseBool(v); err == nil && visible {
			now := h.now()
			filter.VisibleAt = &now
		}
	}

	list := h.alerts.List(filter)
	out := make([]alertResponse, 0, len(list))
	for _, a := range list {
		out = append(out, h.respond(a, &settings))
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": out,
		"count":  len(out),
		"unread": h.alerts.UnreadCount(),
	})
}

type createAlertRequest struct {
	Title          string               `json:"title" binding:"required"`
	Message        string               `json:"message" binding:"required"`
	Severity       models.AlertSeverity `json:"severity"`
	Department     string               `json:"department"`
	AssignedTo     []string             `json:"assigned_to"`
	ActionRequired bool                 `json:"action_required"`
	Dismissible    *bool                `json:"dismissible"`
	Persistent     *bool                `json:"persistent"`
	ExpiresAt      *time.Time           `json:"expires_at"`
	Frequency      models.Frequency     `json:"frequency"`
	MaxShows       int                  `json:"max_shows"`
	CustomColor    string               `json:"custom_color"`
	CreatedBy      string               `json:"created_by"`
}

func (r *createAlertRequest) validate() error {
	if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Message) == "" {
		return errors.New("title and message are required")
	}
	if r.Severity != "" && !r.Severity.Valid() {
		return errors.New("unknown severity " + string(r.Severity))
	}
	if r.Frequency != "" && !r.Frequency.Valid() {
		return errors.New("unknown frequency " + string(r.Frequency))
	}
	if r.MaxShows < 0 {
		return errors.New("max_shows must not be negative")
	}
	return nil
}

func (r *createAlertRequest) payload() alerts.Payload {
	p := alerts.Payload{
		Severity:       r.Severity,
		Title:          r.Title,
		Message:        r.Message,
		Department:     r.Department,
		AssignedTo:     r.AssignedTo,
		ActionRequired: r.ActionRequired,
		Dismissible:    r.Dismissible,
		Persistent:     r.Persistent,
		ExpiresAt:      r.ExpiresAt,
		Frequency:      r.Frequency,
		MaxShows:       r.MaxShows,
		CustomColor:    r.CustomColor,
		CreatedBy:      r.CreatedBy,
	}
	if p.Severity == "" {
		p.Severity = models.AlertSeverityMedium
	}
	if p.AssignedTo == nil {
		p.AssignedTo = []string{}
		if r.Department != "" && r.Department != allOption {
			p.AssignedTo = []string{r.Department}
		}
	}
	return p
}

func (h *Handler) createAlert(c *gin.Context) {
	settings := h.engine.Settings()
	if !settings.CustomAlertsEnabled {
		c.JSON(http.StatusForbidden, gin.H{"error": "custom alerts are disabled"})
		return
	}

	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and message are required"})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a := h.engine.CreateCustomAlert(req.payload(), h.now())
	h.checker.Add(c.Request.Context(), a)

	slog.Info("custom alert created", "alert_id", a.ID, "severity", a.Severity, "department", a.Department)
	c.JSON(http.StatusCreated, h.respond(a, &settings))
}

func (h *Handler) runCheck(c *gin.Context) {
	res, err := h.checker.Cycle(c.Request.Context())
	if err != nil {
		slog.Error("manual alert check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "alert check failed"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) markRead(c *gin.Context) {
	a, err := h.alerts.MarkRead(c.Param("id"))
	h.alertResult(c, a, err)
}

func (h *Handler) markShown(c *gin.Context) {
	a, err := h.alerts.MarkShown(c.Param("id"), h.now())
	h.alertResult(c, a, err)
}

type snoozeRequest struct {
	Duration string `json:"duration"`
}

func (h *Handler) snooze(c *gin.Context) {
	d := defaultSnooze
	if c.Request.ContentLength != 0 {
		var req snoozeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snooze body"})
			return
		}
		if req.Duration != "" {
			parsed, err := time.ParseDuration(req.Duration)
			if err != nil || parsed < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snooze duration"})
				return
			}
			d = parsed
		}
	}

	a, err := h.alerts.Snooze(c.Param("id"), d, h.now())
	h.alertResult(c, a, err)
}

func (h *Handler) dismiss(c *gin.Context) {
	if err := h.alerts.Dismiss(c.Param("id")); err != nil {
		h.alertError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) alertResult(c *gin.Context, a *models.Alert, err error) {
	if err != nil {
		h.alertError(c, err)
		return
	}
	settings := h.engine.Settings()
	c.JSON(http.StatusOK, h.respond(a, &settings))
}

func (h *Handler) alertError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotDismissible):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		slog.Error("alert action failed", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "alert action failed"})
	}
}

func (h *Handler) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Settings())
}

func (h *Handler) updateSettings(c *gin.Context) {
	s := h.engine.Settings()
	id := s.ID
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings body"})
		return
	}
	s.ID = id
	if err := s.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated := h.engine.UpdateSettings(s, h.now())
	if h.settings != nil {
		if err := h.settings.SaveSettings(c.Request.Context(), &updated); err != nil {
			slog.Error("failed to persist alert settings", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist settings"})
			return
		}
	}

	slog.Info("alert settings updated")
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) listChecklists(c *gin.Context) {
	list, err := h.checklists.ListChecklists(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch checklists"})
		return
	}
	if list == nil {
		list = []models.Checklist{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) addChecklist(c *gin.Context) {
	var cl models.Checklist
	if err := c.ShouldBindJSON(&cl); err != nil || cl.ID == "" || cl.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id and title are required"})
		return
	}
	switch cl.Status {
	case "":
		cl.Status = models.ChecklistPending
	case models.ChecklistPending, models.ChecklistInProgress, models.ChecklistCompleted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + string(cl.Status)})
		return
	}

	if err := h.checklists.AddChecklist(c.Request.Context(), &cl); err != nil {
		slog.Error("error adding checklist", "id", cl.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save checklist"})
		return
	}
	c.JSON(http.StatusCreated, cl)
}

func (h *Handler) listRequests(c *gin.Context) {
	list, err := h.requests.ListRequests(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch requests"})
		return
	}
	if list == nil {
		list = []models.MaintenanceRequest{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) addRequest(c *gin.Context) {
	var r models.MaintenanceRequest
	if err := c.ShouldBindJSON(&r); err != nil || r.ID == "" || r.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id and title are required"})
		return
	}
	switch r.Priority {
	case "":
		r.Priority = models.PriorityMedium
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown priority " + string(r.Priority)})
		return
	}
	switch r.Status {
	case "":
		r.Status = models.RequestOpen
	case models.RequestOpen, models.RequestInProgress, models.RequestCompleted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + string(r.Status)})
		return
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = h.now()
	}

	if err := h.requests.AddRequest(c.Request.Context(), &r); err != nil {
		slog.Error("error adding request", "id", r.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save request"})
		return
	}
	c.JSON(http.StatusCreated, r)
}
