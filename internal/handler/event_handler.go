package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"komisi/config"
	"komisi/internal/commission"
	"komisi/internal/models"
	"komisi/internal/repository"
	"komisi/internal/service"

	"github.com/gin-gonic/gin"
)

// EventHandler receives the order-status events emitted by the upstream
// payment/order collaborator. Delivery is at-least-once; the engine's
// idempotent posting makes redelivery harmless, so any outcome that does not
// need a retry is acknowledged with 200.
type EventHandler struct {
	orderSvc  *service.OrderService
	auditRepo *repository.AuditLogRepository
	cfg       *config.Config
}

func NewEventHandler(orderSvc *service.OrderService, auditRepo *repository.AuditLogRepository, cfg *config.Config) *EventHandler {
	return &EventHandler{orderSvc: orderSvc, auditRepo: auditRepo, cfg: cfg}
}

// OrderSuccess handles POST /events/order-success.
func (h *EventHandler) OrderSuccess(c *gin.Context) {
	body, ok := h.readVerifiedBody(c)
	if !ok {
		return
	}
	var ev service.OrderEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if ev.OrderRef == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_ref required"})
		return
	}
	order, entry, err := h.orderSvc.HandleOrderSuccess(ev)
	if err != nil {
		var perr *commission.PersistenceError
		if errors.As(err, &perr) {
			// Transient; the producer retries with the same order ref.
			log.Printf("[events] order %s: %v", ev.OrderRef, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure, retry"})
			return
		}
		// Configuration and invariant failures are parked for operators; the
		// producer must not keep retrying something a retry cannot fix.
		log.Printf("[events] order %s not posted: %v", ev.OrderRef, err)
		c.JSON(http.StatusOK, gin.H{"received": true, "posted": false})
		return
	}
	if order != nil {
		_ = h.auditRepo.Create(&models.AuditLog{
			Action:     "order_success_processed",
			Resource:   "order",
			ResourceID: order.OrderRef,
			IP:         c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "posted": entry != nil})
}

// OrderRefund handles POST /events/order-refund.
func (h *EventHandler) OrderRefund(c *gin.Context) {
	body, ok := h.readVerifiedBody(c)
	if !ok {
		return
	}
	var payload struct {
		OrderRef string `json:"order_ref"`
		Reason   string `json:"reason"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if payload.OrderRef == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_ref required"})
		return
	}
	if payload.Reason == "" {
		payload.Reason = "refund"
	}
	entry, err := h.orderSvc.HandleRefund(payload.OrderRef, payload.Reason)
	if err != nil {
		if errors.Is(err, commission.ErrEntryPaidOut) {
			// Needs a clawback decision from an operator, not a retry.
			log.Printf("[events] refund of %s: commission already paid out", payload.OrderRef)
			c.JSON(http.StatusConflict, gin.H{"error": "commission already paid out, manual reversal required"})
			return
		}
		log.Printf("[events] refund of %s failed: %v", payload.OrderRef, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure, retry"})
		return
	}
	_ = h.auditRepo.Create(&models.AuditLog{
		Action:     "order_refund_processed",
		Resource:   "order",
		ResourceID: payload.OrderRef,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, gin.H{"received": true, "reversed": entry != nil})
}

func (h *EventHandler) readVerifiedBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return nil, false
	}
	if h.cfg.Events.WebhookSecret != "" {
		sig := c.GetHeader("X-Webhook-Signature")
		if !h.verifySignature(body, sig) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return nil, false
		}
	}
	return body, true
}

func (h *EventHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.cfg.Events.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
