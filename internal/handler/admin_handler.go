package handler

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"komisi/internal/domain"
	"komisi/internal/middleware"
	"komisi/internal/models"
	"komisi/internal/repository"
	"komisi/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the operator surface: catalog and rate configuration,
// legacy ID mappings, the unprocessed-commission queue, system settings, and
// the reconciliation auditor.
type AdminHandler struct {
	productRepo     *repository.ProductRepository
	mappingRepo     *repository.MappingRepository
	unprocessedRepo *repository.UnprocessedRepository
	settingRepo     *repository.SettingRepository
	affiliateRepo   *repository.AffiliateRepository
	auditRepo       *repository.AuditLogRepository
	reconcileSvc    *service.ReconcileService
}

func NewAdminHandler(
	productRepo *repository.ProductRepository,
	mappingRepo *repository.MappingRepository,
	unprocessedRepo *repository.UnprocessedRepository,
	settingRepo *repository.SettingRepository,
	affiliateRepo *repository.AffiliateRepository,
	auditRepo *repository.AuditLogRepository,
	reconcileSvc *service.ReconcileService,
) *AdminHandler {
	return &AdminHandler{
		productRepo:     productRepo,
		mappingRepo:     mappingRepo,
		unprocessedRepo: unprocessedRepo,
		settingRepo:     settingRepo,
		affiliateRepo:   affiliateRepo,
		auditRepo:       auditRepo,
		reconcileSvc:    reconcileSvc,
	}
}

type ProductRequest struct {
	Name           string  `json:"name" binding:"required,min=2,max=255"`
	Slug           string  `json:"slug" binding:"required,min=2,max=128"`
	Price          int64   `json:"price" binding:"required,min=0"`
	CommissionType string  `json:"commission_type" binding:"required,oneof=PERCENTAGE FLAT"`
	CommissionRate float64 `json:"commission_rate" binding:"min=0"`
	Active         *bool   `json:"active"`
}

func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CommissionType == domain.CommissionPercentage && req.CommissionRate > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "percentage rate must not exceed 100"})
		return
	}
	p := &models.Product{
		Name:           req.Name,
		Slug:           req.Slug,
		Price:          req.Price,
		CommissionType: req.CommissionType,
		CommissionRate: req.CommissionRate,
		Active:         true,
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	if err := h.productRepo.Create(p); err != nil {
		log.Printf("[admin] product create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create product"})
		return
	}
	h.auditLog(c, "product_created", "product", strconv.FormatUint(uint64(p.ID), 10))
	c.JSON(http.StatusCreated, p)
}

func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	p, err := h.productRepo.ProductByID(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CommissionType == domain.CommissionPercentage && req.CommissionRate > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "percentage rate must not exceed 100"})
		return
	}
	p.Name = req.Name
	p.Slug = req.Slug
	p.Price = req.Price
	p.CommissionType = req.CommissionType
	p.CommissionRate = req.CommissionRate
	if req.Active != nil {
		p.Active = *req.Active
	}
	if err := h.productRepo.Update(p); err != nil {
		log.Printf("[admin] product update failed: id=%d err=%v", p.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update product"})
		return
	}
	h.auditLog(c, "product_updated", "product", c.Param("id"))
	c.JSON(http.StatusOK, p)
}

func (h *AdminHandler) ListProducts(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.productRepo.List(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": list})
}

type MappingRequest struct {
	LegacyID           int64  `json:"legacy_id" binding:"required"`
	AffiliateProfileID uint   `json:"affiliate_profile_id" binding:"required"`
	Source             string `json:"source"`
}

func (h *AdminHandler) UpsertMapping(c *gin.Context) {
	var req MappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile, err := h.affiliateRepo.ProfileByID(req.AffiliateProfileID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "affiliate profile not found"})
		return
	}
	m := &models.LegacyAffiliateMap{
		LegacyID:           req.LegacyID,
		AffiliateProfileID: req.AffiliateProfileID,
	}
	if req.Source != "" {
		m.Source = req.Source
	}
	if err := h.mappingRepo.Upsert(m); err != nil {
		log.Printf("[admin] mapping upsert failed: legacy=%d err=%v", req.LegacyID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save mapping"})
		return
	}
	h.auditLog(c, "legacy_mapping_upserted", "legacy_mapping", strconv.FormatInt(req.LegacyID, 10))
	c.JSON(http.StatusOK, m)
}

func (h *AdminHandler) ListMappings(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.mappingRepo.List(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list mappings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mappings": list})
}

func (h *AdminHandler) DeleteMapping(c *gin.Context) {
	legacyID, err := strconv.ParseInt(c.Param("legacyID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid legacy id"})
		return
	}
	if err := h.mappingRepo.Delete(legacyID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete mapping"})
		return
	}
	h.auditLog(c, "legacy_mapping_deleted", "legacy_mapping", c.Param("legacyID"))
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *AdminHandler) ListUnprocessed(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.unprocessedRepo.ListUnresolved(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list unprocessed commissions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unprocessed": list})
}

func (h *AdminHandler) ResolveUnprocessed(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.unprocessedRepo.Resolve(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve"})
		return
	}
	h.auditLog(c, "unprocessed_resolved", "unprocessed_commission", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"resolved": true})
}

func (h *AdminHandler) GetSettings(c *gin.Context) {
	list, err := h.settingRepo.GetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": list})
}

func (h *AdminHandler) SetSetting(c *gin.Context) {
	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.settingRepo.Set(req.Key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save setting"})
		return
	}
	h.auditLog(c, "setting_updated", "system_setting", req.Key)
	c.JSON(http.StatusOK, gin.H{"key": req.Key, "value": req.Value})
}

// EnrollAffiliate creates an affiliate profile for an existing user.
func (h *AdminHandler) EnrollAffiliate(c *gin.Context) {
	var req struct {
		UserID uint   `json:"user_id" binding:"required"`
		Tier   string `json:"tier"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Tier == "" {
		req.Tier = "STANDARD"
	}
	profile, err := h.affiliateRepo.Enroll(req.UserID, req.Tier)
	if err != nil {
		log.Printf("[admin] affiliate enrollment failed: user=%d err=%v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enrollment failed"})
		return
	}
	h.auditLog(c, "affiliate_enrolled", "affiliate_profile", strconv.FormatUint(uint64(profile.ID), 10))
	c.JSON(http.StatusCreated, profile)
}

func (h *AdminHandler) ListAffiliates(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.affiliateRepo.List(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list affiliates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"affiliates": list})
}

// Reconcile runs a read-only audit for one affiliate.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	affiliateID, asOf, ok := h.reconcileParams(c)
	if !ok {
		return
	}
	report, err := h.reconcileSvc.Run(affiliateID, asOf)
	if err != nil {
		log.Printf("[admin] reconcile failed: affiliate=%d err=%v", affiliateID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// Repair reconciles and applies the mechanical fixes (repost missing entries,
// rebuild wallet from ledger). Mismatched and orphan entries are returned in
// the skipped list for manual review.
func (h *AdminHandler) Repair(c *gin.Context) {
	affiliateID, asOf, ok := h.reconcileParams(c)
	if !ok {
		return
	}
	result, err := h.reconcileSvc.Repair(affiliateID, asOf)
	if err != nil {
		log.Printf("[admin] repair failed: affiliate=%d err=%v", affiliateID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "repair failed"})
		return
	}
	h.auditLog(c, "reconcile_repair", "affiliate_profile", strconv.FormatUint(uint64(affiliateID), 10))
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) reconcileParams(c *gin.Context) (uint, time.Time, bool) {
	id, err := strconv.ParseUint(c.Param("affiliateID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid affiliate id"})
		return 0, time.Time{}, false
	}
	profile, err := h.reconcileSvc.AffiliateByID(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return 0, time.Time{}, false
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "affiliate profile not found"})
		return 0, time.Time{}, false
	}
	asOf := time.Now()
	if raw := c.Query("as_of"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be RFC3339"})
			return 0, time.Time{}, false
		}
		asOf = t
	}
	return uint(id), asOf, true
}

func (h *AdminHandler) auditLog(c *gin.Context, action, resource, resourceID string) {
	userID := middleware.GetUserID(c)
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
}

// pagination reads limit/offset query params with sane bounds.
func pagination(c *gin.Context) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
