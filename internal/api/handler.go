package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"reservation-service/internal/apperrors"
	"reservation-service/internal/models"
	"reservation-service/internal/service"
	"reservation-service/internal/sweeper"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MailboxReader is the notification mailbox surface exposed over HTTP
type MailboxReader interface {
	ListNotificationsByUser(ctx context.Context, userID int64) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID int64) (bool, error)
}

// Handler contains HTTP handlers
type Handler struct {
	reservations *service.ReservationService
	inventory    *service.InventoryService
	mailbox      MailboxReader
	sweeper      *sweeper.Sweeper
}

// NewHandler creates a new HTTP handler
func NewHandler(
	reservations *service.ReservationService,
	inventory *service.InventoryService,
	mailbox MailboxReader,
	sw *sweeper.Sweeper,
) *Handler {
	return &Handler{
		reservations: reservations,
		inventory:    inventory,
		mailbox:      mailbox,
		sweeper:      sw,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine, authMW gin.HandlerFunc) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(authMW)
	{
		v1.POST("/reservations", h.createReservation)
		v1.GET("/reservations", h.listMyReservations)
		v1.GET("/reservations/:id", h.getReservation)
		v1.POST("/reservations/:id/accept", h.acceptReservation)
		v1.POST("/reservations/:id/reject", h.rejectReservation)
		v1.POST("/reservations/:id/cancel", h.cancelReservation)
		v1.POST("/reservations/:id/phone", h.providePhone)

		v1.GET("/pharmacies/:id/reservations", h.listPharmacyReservations)
		v1.GET("/pharmacies/:id/inventory", h.getPharmacyInventory)
		v1.PUT("/pharmacies/:id/inventory", h.upsertPharmacyInventory)

		v1.GET("/notifications", h.listNotifications)
		v1.POST("/notifications/:id/read", h.markNotificationRead)

		v1.POST("/internal/sweep", h.sweep)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperrors.NewValidation("invalid id"))
		return 0, false
	}
	return id, true
}

// createReservation handles a patient's reservation request
func (h *Handler) createReservation(c *gin.Context) {
	if callerRole(c) != models.RolePatient {
		respondError(c, apperrors.NewForbidden("only patients can create reservations"))
		return
	}

	var req service.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidation("invalid request body"))
		return
	}

	detail, err := h.reservations.CreateReservation(c.Request.Context(), callerID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, detail)
}

// getReservation handles get reservation by ID
func (h *Handler) getReservation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.reservations.GetReservation(c.Request.Context(), callerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// listMyReservations lists the calling patient's reservations
func (h *Handler) listMyReservations(c *gin.Context) {
	rs, err := h.reservations.ListPatientReservations(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reservations": rs})
}

// listPharmacyReservations lists reservations at a pharmacy for its owner
func (h *Handler) listPharmacyReservations(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	rs, err := h.reservations.ListPharmacyReservations(c.Request.Context(), callerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reservations": rs})
}

type noteRequest struct {
	Note string `json:"note"`
}

// acceptReservation handles pharmacy accept
func (h *Handler) acceptReservation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req noteRequest
	_ = c.ShouldBindJSON(&req)

	var note *string
	if req.Note != "" {
		note = &req.Note
	}

	detail, err := h.reservations.AcceptReservation(c.Request.Context(), callerID(c), id, note)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// rejectReservation handles pharmacy reject
func (h *Handler) rejectReservation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req reasonRequest
	_ = c.ShouldBindJSON(&req)

	var reason *string
	if req.Reason != "" {
		reason = &req.Reason
	}

	detail, err := h.reservations.RejectReservation(c.Request.Context(), callerID(c), id, reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// cancelReservation handles patient cancel
func (h *Handler) cancelReservation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.reservations.CancelReservation(c.Request.Context(), callerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

type phoneRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// providePhone handles patient phone follow-up on a NO_RESPONSE reservation
func (h *Handler) providePhone(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req phoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidation("phone is required"))
		return
	}

	detail, err := h.reservations.ProvidePhone(c.Request.Context(), callerID(c), id, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// getPharmacyInventory lists a pharmacy's stock
func (h *Handler) getPharmacyInventory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	recs, err := h.inventory.GetPharmacyInventory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"inventory": recs})
}

// upsertPharmacyInventory writes one stock row for the owning pharmacy user
func (h *Handler) upsertPharmacyInventory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpsertStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidation("invalid request body"))
		return
	}

	rec, err := h.inventory.UpsertStock(c.Request.Context(), callerID(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// listNotifications lists the caller's mailbox
func (h *Handler) listNotifications(c *gin.Context) {
	ns, err := h.mailbox.ListNotificationsByUser(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, apperrors.NewInternal("failed to list notifications", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": ns})
}

// markNotificationRead marks one of the caller's notifications as read
func (h *Handler) markNotificationRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	found, err := h.mailbox.MarkNotificationRead(c.Request.Context(), id, callerID(c))
	if err != nil {
		respondError(c, apperrors.NewInternal("failed to mark notification read", err))
		return
	}
	if !found {
		respondError(c, apperrors.NewNotFound("notification"))
		return
	}

	c.Status(http.StatusNoContent)
}

// sweep triggers one sweep pass on demand. The periodic schedule runs
// regardless; this endpoint exists for operators and tests. Per-item
// failures never surface here, only the IDs that actually transitioned.
func (h *Handler) sweep(c *gin.Context) {
	ids, err := h.sweeper.Sweep(c.Request.Context())
	if err != nil {
		respondError(c, apperrors.NewInternal("sweep failed", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"updatedReservationIds": ids})
}
