package service

import (
	"sync"
	"time"

	"komisi/internal/commission"
	"komisi/internal/domain"
	"komisi/internal/models"
)

// memLedger is an in-memory ledger backend for service tests. It satisfies both
// the posting-side store contract and EntryLister, with wallet balances mutated
// under the same lock as the entry so settlement tests see consistent state.
type memLedger struct {
	mu        sync.Mutex
	refs      []string
	entries   map[string]*models.CommissionEntry
	available map[uint]int64
	pending   map[uint]int64
	nextID    uint

	// failFlipRef makes MarkPaidOut fail for one transaction ref, simulating a
	// storage error mid-settlement.
	failFlipRef string
	failFlipErr error
}

func newMemLedger() *memLedger {
	return &memLedger{
		entries:   make(map[string]*models.CommissionEntry),
		available: make(map[uint]int64),
		pending:   make(map[uint]int64),
	}
}

func (m *memLedger) addPosted(affiliateID uint, ref string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.refs = append(m.refs, ref)
	m.entries[ref] = &models.CommissionEntry{
		ID:                 m.nextID,
		AffiliateProfileID: affiliateID,
		TransactionRef:     ref,
		Amount:             amount,
		Status:             domain.EntryPosted,
	}
	m.available[affiliateID] += amount
}

func (m *memLedger) CreateEntry(entry *models.CommissionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[entry.TransactionRef]; exists {
		return commission.ErrDuplicateEntry
	}
	m.nextID++
	entry.ID = m.nextID
	stored := *entry
	m.refs = append(m.refs, entry.TransactionRef)
	m.entries[entry.TransactionRef] = &stored
	m.available[entry.AffiliateProfileID] += entry.Amount
	return nil
}

func (m *memLedger) EntryByTransactionRef(ref string) (*models.CommissionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[ref]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *memLedger) ReverseEntry(ref, reason string) (*models.CommissionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[ref]
	if !ok {
		return nil, commission.ErrEntryNotFound
	}
	switch e.Status {
	case domain.EntryReversed:
		cp := *e
		return &cp, nil
	case domain.EntryPaidOut:
		return nil, commission.ErrEntryPaidOut
	}
	now := time.Now()
	e.Status = domain.EntryReversed
	e.ReversalReason = reason
	e.ReversedAt = &now
	m.available[e.AffiliateProfileID] -= e.Amount
	cp := *e
	return &cp, nil
}

func (m *memLedger) MarkPaidOut(ref, payoutRef string) (*models.CommissionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ref == m.failFlipRef && m.failFlipErr != nil {
		return nil, m.failFlipErr
	}
	e, ok := m.entries[ref]
	if !ok {
		return nil, commission.ErrEntryNotFound
	}
	if e.Status == domain.EntryPaidOut {
		if e.PayoutRef == payoutRef {
			cp := *e
			return &cp, nil
		}
		return nil, commission.ErrEntryPaidOut
	}
	now := time.Now()
	e.Status = domain.EntryPaidOut
	e.PayoutRef = payoutRef
	e.PaidOutAt = &now
	m.available[e.AffiliateProfileID] -= e.Amount
	m.pending[e.AffiliateProfileID] += e.Amount
	cp := *e
	return &cp, nil
}

func (m *memLedger) ListPostedByAffiliate(affiliateID uint) ([]models.CommissionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CommissionEntry
	for _, ref := range m.refs {
		e := m.entries[ref]
		if e.AffiliateProfileID == affiliateID && e.Status == domain.EntryPosted {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memLedger) ListByPayoutRef(payoutRef string) ([]models.CommissionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CommissionEntry
	for _, ref := range m.refs {
		e := m.entries[ref]
		if e.PayoutRef == payoutRef {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memLedger) statusOf(ref string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[ref]; ok {
		return e.Status
	}
	return ""
}

func (m *memLedger) payoutRefOf(ref string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[ref]; ok {
		return e.PayoutRef
	}
	return ""
}

func (m *memLedger) entryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type stubPayoutStore struct {
	payouts []*models.Payout
	creates int
	updates int
	nextID  uint
}

func (s *stubPayoutStore) Create(p *models.Payout) error {
	s.nextID++
	p.ID = s.nextID
	s.payouts = append(s.payouts, p)
	s.creates++
	return nil
}

func (s *stubPayoutStore) Update(p *models.Payout) error {
	s.updates++
	return nil
}

func (s *stubPayoutStore) FirstUnsettledByAffiliate(affiliateID uint) (*models.Payout, error) {
	for _, p := range s.payouts {
		if p.AffiliateProfileID == affiliateID && p.Status != domain.PayoutCompleted {
			return p, nil
		}
	}
	return nil, nil
}

type stubSettings struct {
	minPayout int64
}

func (s *stubSettings) GetInt64(key string, fallback int64) int64 {
	if key == domain.SettingMinPayoutIDR && s.minPayout > 0 {
		return s.minPayout
	}
	return fallback
}

type stubWalletSettler struct {
	cleared []int64
}

func (s *stubWalletSettler) ClearPending(affiliateID uint, amount int64) error {
	s.cleared = append(s.cleared, amount)
	return nil
}

type stubOrderSource struct {
	orders map[string]*models.Order
}

func (s *stubOrderSource) GetByOrderRef(ref string) (*models.Order, error) {
	return s.orders[ref], nil
}

type stubWalletRebuilder struct {
	rebuilt int
}

func (s *stubWalletRebuilder) Rebuild(affiliateID uint) (*models.Wallet, error) {
	s.rebuilt++
	return &models.Wallet{AffiliateProfileID: affiliateID}, nil
}

type stubAffiliateDirectory struct {
	byID map[uint]*models.AffiliateProfile
}

func (s *stubAffiliateDirectory) ProfileByID(id uint) (*models.AffiliateProfile, error) {
	return s.byID[id], nil
}

func (s *stubAffiliateDirectory) List(limit, offset int) ([]models.AffiliateProfile, error) {
	var all []models.AffiliateProfile
	for _, p := range s.byID {
		all = append(all, *p)
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

type stubProductSource struct {
	products map[uint]*models.Product
}

func (s *stubProductSource) ProductByID(id uint) (*models.Product, error) {
	return s.products[id], nil
}

type stubAffiliateSource struct {
	byID     map[uint]*models.AffiliateProfile
	byLegacy map[int64]*models.AffiliateProfile
}

func (s *stubAffiliateSource) ProfileByID(id uint) (*models.AffiliateProfile, error) {
	return s.byID[id], nil
}

func (s *stubAffiliateSource) ProfileByLegacyID(legacyID int64) (*models.AffiliateProfile, error) {
	return s.byLegacy[legacyID], nil
}

type stubParkingStore struct {
	parked []models.UnprocessedCommission
}

func (s *stubParkingStore) Park(rec *models.UnprocessedCommission) error {
	s.parked = append(s.parked, *rec)
	return nil
}

// stubReconSource feeds the auditor fixed order and entry sets. Unlike the real
// implementation it applies no attribution filtering, so tests can hand it
// exactly the order set under scrutiny.
type stubReconSource struct {
	orders  []models.Order
	entries []models.CommissionEntry
	wallet  *models.Wallet
}

func (s *stubReconSource) SuccessOrders(affiliateID uint, asOf time.Time) ([]models.Order, error) {
	return s.orders, nil
}

func (s *stubReconSource) Entries(affiliateID uint, asOf time.Time) ([]models.CommissionEntry, error) {
	return s.entries, nil
}

func (s *stubReconSource) Wallet(affiliateID uint) (*models.Wallet, error) {
	return s.wallet, nil
}
