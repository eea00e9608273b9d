package handler

import (
	"errors"
	"log"
	"net/http"

	"komisi/internal/middleware"
	"komisi/internal/models"
	"komisi/internal/repository"
	"komisi/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PayoutHandler struct {
	affiliateRepo *repository.AffiliateRepository
	payoutRepo    *repository.PayoutRepository
	payoutSvc     *service.PayoutService
	auditRepo     *repository.AuditLogRepository
}

func NewPayoutHandler(
	affiliateRepo *repository.AffiliateRepository,
	payoutRepo *repository.PayoutRepository,
	payoutSvc *service.PayoutService,
	auditRepo *repository.AuditLogRepository,
) *PayoutHandler {
	return &PayoutHandler{
		affiliateRepo: affiliateRepo,
		payoutRepo:    payoutRepo,
		payoutSvc:     payoutSvc,
		auditRepo:     auditRepo,
	}
}

// Initiate settles every POSTED commission for the caller into one payout.
func (h *PayoutHandler) Initiate(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}
	payout, err := h.payoutSvc.Initiate(profile.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNothingToPay):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrBelowMinimum):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Printf("[payout] initiate failed: profile=%d err=%v", profile.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payout failed"})
		}
		return
	}
	userID := middleware.GetUserID(c)
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     &userID,
		Action:     "payout_initiated",
		Resource:   "payout",
		ResourceID: payout.PayoutRef,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	c.JSON(http.StatusCreated, payout)
}

func (h *PayoutHandler) List(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)
	list, err := h.payoutRepo.ListByAffiliate(profile.ID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payouts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payouts": list})
}

func (h *PayoutHandler) ownProfile(c *gin.Context) (*models.AffiliateProfile, bool) {
	userID := middleware.GetUserID(c)
	p, err := h.affiliateRepo.ProfileByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no affiliate profile for this account"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile lookup failed"})
		return nil, false
	}
	return p, true
}
