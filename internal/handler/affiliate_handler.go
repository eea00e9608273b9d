package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"komisi/internal/middleware"
	"komisi/internal/models"
	"komisi/internal/repository"
	"komisi/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AffiliateHandler serves the affiliate's own view: profile, commission
// history, wallet, and a self-service reconciliation report.
type AffiliateHandler struct {
	affiliateRepo  *repository.AffiliateRepository
	commissionRepo *repository.CommissionRepository
	reconcileSvc   *service.ReconcileService
}

func NewAffiliateHandler(
	affiliateRepo *repository.AffiliateRepository,
	commissionRepo *repository.CommissionRepository,
	reconcileSvc *service.ReconcileService,
) *AffiliateHandler {
	return &AffiliateHandler{
		affiliateRepo:  affiliateRepo,
		commissionRepo: commissionRepo,
		reconcileSvc:   reconcileSvc,
	}
}

func (h *AffiliateHandler) MyProfile(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *AffiliateHandler) MyCommissions(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)
	entries, err := h.commissionRepo.ListByAffiliate(profile.ID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list commissions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"commissions": entries})
}

// MyReconciliation runs the read-only auditor over the caller's own ledger.
func (h *AffiliateHandler) MyReconciliation(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}
	report, err := h.reconcileSvc.Run(profile.ID, time.Now())
	if err != nil {
		log.Printf("[affiliate] self-reconcile failed: profile=%d err=%v", profile.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *AffiliateHandler) ownProfile(c *gin.Context) (*models.AffiliateProfile, bool) {
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
