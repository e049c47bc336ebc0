package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"enquiry-admin/internal/auth"
	"enquiry-admin/internal/client"
	"enquiry-admin/internal/config"
	"enquiry-admin/internal/models"
	"enquiry-admin/internal/normalize"
	"enquiry-admin/internal/notify"
	"enquiry-admin/internal/pipeline"
	"enquiry-admin/internal/session"
	"enquiry-admin/internal/stats"
)

type Handler struct {
	config     *config.Config
	store      *client.DocumentStore
	sessions   *session.Manager
	calculator *stats.Calculator
	authSvc    *auth.Service
	notifier   *notify.Notifier
	logger     *logrus.Logger
}

func New(cfg *config.Config, store *client.DocumentStore, sessions *session.Manager,
	calculator *stats.Calculator, authSvc *auth.Service, notifier *notify.Notifier,
	logger *logrus.Logger) *Handler {
	return &Handler{
		config:     cfg,
		store:      store,
		sessions:   sessions,
		calculator: calculator,
		authSvc:    authSvc,
		notifier:   notifier,
		logger:     logger,
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "enquiry-admin",
	})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ready",
		"active_sessions": h.sessions.Count(),
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	token, err := h.authSvc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var signInErr *auth.SignInError
		if errors.As(err, &signInErr) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": signInErr.Message, "code": signInErr.Code})
			return
		}
		h.logger.WithError(err).Error("Sign-in failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to sign in."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout discards the admin's session and its held collection.
func (h *Handler) Logout(c *gin.Context) {
	h.sessions.Drop(c.GetString(auth.ContextUID))
	c.JSON(http.StatusOK, gin.H{"status": "signed out"})
}

func (h *Handler) sessionFor(c *gin.Context) *session.Session {
	return h.sessions.Get(c.GetString(auth.ContextUID))
}

// LoadEnquiries bulk-reads both record collections, normalizes everything
// and replaces the session's working set. Permission denied fails closed:
// the session is dropped so no previously loaded data survives.
func (h *Handler) LoadEnquiries(c *gin.Context) {
	ctx := c.Request.Context()
	sess := h.sessionFor(c)

	freeRaw, err := h.store.ListCollection(ctx, h.config.FreeCollection)
	if err != nil {
		h.loadError(c, err)
		return
	}
	paidRaw, err := h.store.ListCollection(ctx, h.config.PaidCollection)
	if err != nil {
		h.loadError(c, err)
		return
	}

	free := normalize.Records(freeRaw, models.SourceFree)
	paid := normalize.Records(paidRaw, models.SourcePaid)
	all := append(free, paid...)

	sess.Store.Replace(all)

	h.logger.WithFields(logrus.Fields{
		"free_records": len(free),
		"paid_records": len(paid),
		"total":        len(all),
	}).Info("Enquiries loaded")

	c.JSON(http.StatusOK, models.LoadResponse{
		Status:      "success",
		FreeRecords: len(free),
		PaidRecords: len(paid),
		Total:       len(all),
		LoadedAt:    time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) loadError(c *gin.Context, err error) {
	if errors.Is(err, client.ErrPermissionDenied) {
		uid := c.GetString(auth.ContextUID)
		h.sessions.Drop(uid)
		h.logger.WithField("uid", uid).Warn("Record store denied access; session dropped")
		c.JSON(http.StatusForbidden, gin.H{
			"error":      "Access Denied: You do not have administrator permissions for this dashboard.",
			"signed_out": true,
		})
		return
	}
	h.logger.WithError(err).Error("Failed to load enquiries")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load enquiries"})
}

// ListEnquiries runs the filter/sort/search pipeline over the session's
// collection and filter state.
func (h *Handler) ListEnquiries(c *gin.Context) {
	sess := h.sessionFor(c)
	filters := sess.Filters()

	result := pipeline.Apply(sess.Store.All(), filters, time.Now().UTC())

	views := make([]models.EnquiryView, 0, len(result.Items))
	for _, e := range result.Items {
		views = append(views, e.View())
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Data:          views,
		Filtered:      result.Filtered,
		Total:         result.Total,
		ActiveFilters: filters.ActiveFacets(),
		Filters:       filters,
	})
}

// GetOverview serves the summary statistics for the session's collection.
func (h *Handler) GetOverview(c *gin.Context) {
	sess := h.sessionFor(c)
	overview := h.calculator.Overview(sess.Store.All(), time.Now().UTC())
	c.JSON(http.StatusOK, overview)
}

// filterPatch updates only the facets present in the request body. Sort key
// selection goes through the toggle semantics.
type filterPatch struct {
	Source   *string `json:"source"`
	Traffic  *string `json:"traffic"`
	DateMode *string `json:"date_mode"`
	DateFrom *string `json:"date_from"`
	DateTo   *string `json:"date_to"`
	Search   *string `json:"search"`
	SortKey  *string `json:"sort_key"`
}

// UpdateFilters validates the whole patch before touching the session, so a
// rejected request never leaves a partial facet change behind.
func (h *Handler) UpdateFilters(c *gin.Context) {
	sess := h.sessionFor(c)

	var patch filterPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter payload"})
		return
	}

	if patch.Source != nil {
		switch *patch.Source {
		case "", models.SourceFree, models.SourcePaid:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "source must be free, paid or empty"})
			return
		}
	}

	if patch.Traffic != nil {
		switch models.TrafficType(*patch.Traffic) {
		case models.TrafficAny, models.TrafficOrganic, models.TrafficInorganic:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "traffic must be organic, inorganic or empty"})
			return
		}
	}

	var dateFrom, dateTo *time.Time
	if patch.DateMode != nil {
		switch models.DateMode(*patch.DateMode) {
		case models.DateAny, models.DateToday, models.DateYesterday,
			models.DateLast7, models.DateLast30, models.DateCustom:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown date mode"})
			return
		}

		var err error
		dateFrom, err = parseDateBound(patch.DateFrom)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date_from must be YYYY-MM-DD"})
			return
		}
		dateTo, err = parseDateBound(patch.DateTo)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date_to must be YYYY-MM-DD"})
			return
		}
	}

	if patch.SortKey != nil && !pipeline.ValidSortKey(*patch.SortKey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sort key"})
		return
	}

	if patch.Source != nil {
		sess.SetSource(*patch.Source)
	}
	if patch.Traffic != nil {
		sess.SetTraffic(models.TrafficType(*patch.Traffic))
	}
	if patch.DateMode != nil {
		sess.SetDateMode(models.DateMode(*patch.DateMode), dateFrom, dateTo)
	}
	if patch.Search != nil {
		sess.SetSearch(*patch.Search)
	}
	if patch.SortKey != nil {
		sess.ToggleSort(*patch.SortKey)
	}

	filters := sess.Filters()
	c.JSON(http.StatusOK, gin.H{
		"filters":        filters,
		"active_filters": filters.ActiveFacets(),
	})
}

func parseDateBound(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *Handler) ClearFilters(c *gin.Context) {
	sess := h.sessionFor(c)
	sess.ClearFilters()

	c.JSON(http.StatusOK, gin.H{
		"filters":        sess.Filters(),
		"active_filters": 0,
	})
}

// enquiryPayload is the create/update form body. Fields left empty resolve
// to their normalization placeholders.
type enquiryPayload struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone"`
	State       string `json:"state"`
	City        string `json:"city"`
	Org         string `json:"org"`
	Designation string `json:"designation"`
	Status      string `json:"status"`
	CurrentCTC  string `json:"current_ctc"`
	Source      string `json:"source"`
}

func (p enquiryPayload) raw(now time.Time) models.RawRecord {
	return models.RawRecord{
		"name":        p.Name,
		"email":       p.Email,
		"phone":       p.Phone,
		"state":       p.State,
		"city":        p.City,
		"org":         p.Org,
		"designation": p.Designation,
		"status":      p.Status,
		"currentCTC":  p.CurrentCTC,
		"createdAt":   now.Format(time.RFC3339),
	}
}

// CreateEnquiry adds a session-local record and fires the webhook
// notification. The record is kept even when delivery fails; the failure is
// only reported back to the caller.
func (h *Handler) CreateEnquiry(c *gin.Context) {
	sess := h.sessionFor(c)

	var req enquiryPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and a valid email are required"})
		return
	}

	source := req.Source
	if source != models.SourcePaid {
		source = models.SourceFree
	}

	enquiry := normalize.Record(req.raw(time.Now().UTC()), source)
	sess.Store.Upsert(enquiry)

	response := gin.H{"data": enquiry.View()}
	if err := h.notifier.EnquiryCreated(c.Request.Context(), enquiry); err != nil {
		response["notification_error"] = "Notification delivery failed; the enquiry was saved."
	}

	c.JSON(http.StatusCreated, response)
}

// UpdateEnquiry replaces a session-local record by id. Source and date are
// immutable; edits produce a new value, never a write-back to the store.
func (h *Handler) UpdateEnquiry(c *gin.Context) {
	sess := h.sessionFor(c)

	existing, ok := sess.Store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "enquiry not found"})
		return
	}

	var req enquiryPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and a valid email are required"})
		return
	}

	updated := normalize.Record(req.raw(existing.CreatedAt), existing.Source)
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UTMSource = existing.UTMSource
	updated.UTMMedium = existing.UTMMedium
	updated.UTMCampaign = existing.UTMCampaign
	updated.UTMTerm = existing.UTMTerm
	updated.UTMContent = existing.UTMContent

	sess.Store.Upsert(updated)
	c.JSON(http.StatusOK, gin.H{"data": updated.View()})
}

func (h *Handler) DeleteEnquiry(c *gin.Context) {
	sess := h.sessionFor(c)

	if !sess.Store.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "enquiry not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
