package commission

import (
	"errors"
	"log"

	"komisi/internal/domain"
	"komisi/internal/models"
)

// ParkingStore records commissions that could not be posted so operators can
// find and fix them later.
type ParkingStore interface {
	Park(rec *models.UnprocessedCommission) error
}

// Engine wires the resolvers, the calculator and the ledger writer into the
// single per-order operation invoked when a transaction reaches SUCCESS.
type Engine struct {
	rates       *RateResolver
	attribution *AttributionResolver
	ledger      *LedgerWriter
	parking     ParkingStore
}

func NewEngine(rates *RateResolver, attribution *AttributionResolver, ledger *LedgerWriter, parking ParkingStore) *Engine {
	return &Engine{rates: rates, attribution: attribution, ledger: ledger, parking: parking}
}

// ProcessOrder computes and posts the commission for one successful order.
// Returns (nil, nil) when the order legitimately earns no commission (no
// resolvable attribution). Configuration and invariant failures are parked as
// UnprocessedCommission rows and returned; duplicate deliveries return the
// existing entry. Safe to retry with the same order.
func (e *Engine) ProcessOrder(order *models.Order) (*models.CommissionEntry, error) {
	if order.Status != domain.OrderSuccess {
		return nil, ErrOrderNotSuccess
	}
	affiliate, err := e.attribution.Resolve(order)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, nil
	}
	policy, err := e.rates.Resolve(order.ProductID)
	if err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			e.park(order.OrderRef, domain.ParkReasonConfiguration, cfgErr.Error())
		}
		return nil, err
	}
	amount, err := Compute(order.GrossAmount, policy)
	if err != nil {
		var inv *InvariantViolation
		if errors.As(err, &inv) {
			e.park(order.OrderRef, domain.ParkReasonInvariant, inv.Error())
		}
		return nil, err
	}
	return e.ledger.Post(order, affiliate, amount, policy)
}

// Ledger exposes the writer for reversal and payout transitions.
func (e *Engine) Ledger() *LedgerWriter { return e.ledger }

func (e *Engine) park(orderRef, reason, detail string) {
	if e.parking == nil {
		return
	}
	rec := &models.UnprocessedCommission{OrderRef: orderRef, Reason: reason, Detail: detail}
	if err := e.parking.Park(rec); err != nil {
		log.Printf("[engine] failed to park order %s (%s): %v", orderRef, reason, err)
		return
	}
	log.Printf("[engine] order %s parked for manual resolution: %s", orderRef, detail)
}
