package commission

import (
	"sync"
	"time"

	"komisi/internal/domain"
	"komisi/internal/models"
)

type mockProductSource struct {
	products map[uint]*models.Product
	err      error
}

func (m *mockProductSource) ProductByID(id uint) (*models.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.products[id], nil
}

type mockAffiliateSource struct {
	byID     map[uint]*models.AffiliateProfile
	byLegacy map[int64]*models.AffiliateProfile
	err      error
}

func (m *mockAffiliateSource) ProfileByID(id uint) (*models.AffiliateProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byID[id], nil
}

func (m *mockAffiliateSource) ProfileByLegacyID(legacyID int64) (*models.AffiliateProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byLegacy[legacyID], nil
}

// mockLedgerStore mirrors the storage contract in memory: one entry per
// transaction ref, wallet balance mutated atomically under the same lock.
type mockLedgerStore struct {
	mu        sync.Mutex
	entries   map[string]*models.CommissionEntry
	balances  map[uint]int64
	nextID    uint
	createErr error
}

func newMockLedgerStore() *mockLedgerStore {
	return &mockLedgerStore{
		entries:  make(map[string]*models.CommissionEntry),
		balances: make(map[uint]int64),
	}
}

func (m *mockLedgerStore) CreateEntry(entry *models.CommissionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.entries[entry.TransactionRef]; exists {
		return ErrDuplicateEntry
	}
	m.nextID++
	entry.ID = m.nextID
	stored := *entry
	m.entries[entry.TransactionRef] = &stored
	m.balances[entry.AffiliateProfileID] += entry.Amount
	return nil
}

func (m *mockLedgerStore) EntryByTransactionRef(ref string) (*models.CommissionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[ref]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *mockLedgerStore) ReverseEntry(ref, reason string) (*models.CommissionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[ref]
	if !ok {
		return nil, ErrEntryNotFound
	}
	switch e.Status {
	case domain.EntryReversed:
		cp := *e
		return &cp, nil
	case domain.EntryPaidOut:
		return nil, ErrEntryPaidOut
	}
	now := time.Now()
	e.Status = domain.EntryReversed
	e.ReversalReason = reason
	e.ReversedAt = &now
	m.balances[e.AffiliateProfileID] -= e.Amount
	cp := *e
	return &cp, nil
}

func (m *mockLedgerStore) MarkPaidOut(ref, payoutRef string) (*models.CommissionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[ref]
	if !ok {
		return nil, ErrEntryNotFound
	}
	if e.Status == domain.EntryPaidOut {
		if e.PayoutRef == payoutRef {
			cp := *e
			return &cp, nil
		}
		return nil, ErrEntryPaidOut
	}
	now := time.Now()
	e.Status = domain.EntryPaidOut
	e.PayoutRef = payoutRef
	e.PaidOutAt = &now
	m.balances[e.AffiliateProfileID] -= e.Amount
	cp := *e
	return &cp, nil
}

func (m *mockLedgerStore) balance(affiliateID uint) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[affiliateID]
}

func (m *mockLedgerStore) entryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type mockParkingStore struct {
	mu     sync.Mutex
	parked []models.UnprocessedCommission
}

func (m *mockParkingStore) Park(rec *models.UnprocessedCommission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parked = append(m.parked, *rec)
	return nil
}

type mockReconciliationSource struct {
	orders  []models.Order
	entries []models.CommissionEntry
	wallet  *models.Wallet
	err     error
}

func (m *mockReconciliationSource) SuccessOrders(affiliateID uint, asOf time.Time) ([]models.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

func (m *mockReconciliationSource) Entries(affiliateID uint, asOf time.Time) ([]models.CommissionEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

func (m *mockReconciliationSource) Wallet(affiliateID uint) (*models.Wallet, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.wallet, nil
}
