package service

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"komisi/internal/commission"
	"komisi/internal/domain"
	"komisi/internal/models"
	"komisi/internal/repository"
)

// legacyRefPrefix marks an affiliate reference carried over from the prior
// platform, e.g. "sejoli:812".
const legacyRefPrefix = "sejoli:"

// OrderEvent is the payload the payment/order collaborator emits on a status
// transition. Delivery is at-least-once; duplicates converge through the
// ledger's idempotent posting.
type OrderEvent struct {
	OrderRef     string `json:"order_ref"`
	Status       string `json:"status"`
	GrossAmount  int64  `json:"gross_amount"`
	ProductID    uint   `json:"product_id"`
	BuyerID      uint   `json:"buyer_id"`
	AffiliateRef string `json:"affiliate_ref"`
}

// OrderService consumes order lifecycle events and drives the commission
// engine. It owns the order rows; the engine never writes them.
type OrderService struct {
	orderRepo *repository.OrderRepository
	engine    *commission.Engine
}

func NewOrderService(orderRepo *repository.OrderRepository, engine *commission.Engine) *OrderService {
	return &OrderService{orderRepo: orderRepo, engine: engine}
}

// HandleOrderSuccess upserts the order as SUCCESS and posts its commission.
// Redelivered events find the order already SUCCESS and fall through to the
// engine, where the ledger's idempotency makes the whole call a no-op.
func (s *OrderService) HandleOrderSuccess(ev OrderEvent) (*models.Order, *models.CommissionEntry, error) {
	if ev.Status != domain.OrderSuccess {
		return nil, nil, fmt.Errorf("unexpected event status %q for order %s", ev.Status, ev.OrderRef)
	}
	if ev.OrderRef == "" {
		return nil, nil, errors.New("order_ref is required")
	}
	order, err := s.orderRepo.GetByOrderRef(ev.OrderRef)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()
	if order == nil {
		profileID, legacyID := parseAffiliateRef(ev.OrderRef, ev.AffiliateRef)
		order = &models.Order{
			OrderRef:           ev.OrderRef,
			BuyerID:            ev.BuyerID,
			ProductID:          ev.ProductID,
			GrossAmount:        ev.GrossAmount,
			Status:             domain.OrderSuccess,
			AffiliateProfileID: profileID,
			LegacyAffiliateID:  legacyID,
			PaidAt:             &now,
		}
		if err := s.orderRepo.Create(order); err != nil {
			return nil, nil, err
		}
	} else {
		switch order.Status {
		case domain.OrderPending, domain.OrderFailed:
			order.Status = domain.OrderSuccess
			order.PaidAt = &now
			if err := s.orderRepo.Update(order); err != nil {
				return nil, nil, err
			}
		case domain.OrderSuccess:
			// redelivery; fall through to the idempotent posting path
		case domain.OrderRefunded:
			return order, nil, fmt.Errorf("order %s is REFUNDED and cannot return to SUCCESS", order.OrderRef)
		}
	}
	entry, err := s.engine.ProcessOrder(order)
	if err != nil {
		return order, nil, err
	}
	return order, entry, nil
}

// HandleRefund transitions a SUCCESS order to REFUNDED and reverses any posted
// commission, restoring the affiliate's wallet. Orders without a posted
// commission refund cleanly with no ledger effect.
func (s *OrderService) HandleRefund(orderRef, reason string) (*models.CommissionEntry, error) {
	order, err := s.orderRepo.GetByOrderRef(orderRef)
	if err != nil {
		return nil, err
	}
	if order == nil {
		log.Printf("[order] refund for unknown order %s, ignoring", orderRef)
		return nil, nil
	}
	if order.Status == domain.OrderSuccess {
		order.Status = domain.OrderRefunded
		if err := s.orderRepo.Update(order); err != nil {
			return nil, err
		}
	}
	entry, err := s.engine.Ledger().Reverse(orderRef, reason)
	if err != nil {
		if errors.Is(err, commission.ErrEntryNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

// parseAffiliateRef splits the producer's affiliate reference into a current
// profile ID or a legacy platform ID. Unparseable refs are logged and dropped
// rather than failing the order — the attribution step treats them as missing.
func parseAffiliateRef(orderRef, ref string) (*uint, *int64) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	if raw, ok := strings.CutPrefix(ref, legacyRefPrefix); ok {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Printf("[order] order %s carries malformed legacy affiliate ref %q, dropping attribution", orderRef, ref)
			return nil, nil
		}
		return nil, &n
	}
	n, err := strconv.ParseUint(ref, 10, 32)
	if err != nil {
		log.Printf("[order] order %s carries malformed affiliate ref %q, dropping attribution", orderRef, ref)
		return nil, nil
	}
	id := uint(n)
	return &id, nil
}
