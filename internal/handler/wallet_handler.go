package handler

import (
	"errors"
	"net/http"

	"komisi/internal/middleware"
	"komisi/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type WalletHandler struct {
	affiliateRepo *repository.AffiliateRepository
	walletRepo    *repository.WalletRepository
}

func NewWalletHandler(affiliateRepo *repository.AffiliateRepository, walletRepo *repository.WalletRepository) *WalletHandler {
	return &WalletHandler{affiliateRepo: affiliateRepo, walletRepo: walletRepo}
}

func (h *WalletHandler) Balance(c *gin.Context) {
	userID := middleware.GetUserID(c)
	profile, err := h.affiliateRepo.ProfileByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no affiliate profile for this account"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile lookup failed"})
		return
	}
	wallet, err := h.walletRepo.GetOrCreate(profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet lookup failed"})
		return
	}
	c.JSON(http.StatusOK, wallet)
}

func (h *WalletHandler) Transactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	profile, err := h.affiliateRepo.ProfileByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no affiliate profile for this account"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile lookup failed"})
		return
	}
	limit, offset := pagination(c)
	list, err := h.walletRepo.ListTransactions(profile.ID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list transactions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list})
}
