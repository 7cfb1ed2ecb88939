package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/usecase"
)

// Store is an in-memory database shared by the mock repositories. Each
// mutation is applied atomically under one mutex and honours the same
// conditions as the SQL statements, so concurrent tests observe the same
// outcomes as against Postgres. Writes made through a *MockTransaction are
// undone when it rolls back.
type Store struct {
	mu sync.Mutex

	wallets          map[string]*domain.Wallet
	walletByUser     map[string]string
	entries          map[string]*domain.LedgerEntry
	entryOrder       []string
	bookings         map[string]*domain.Booking
	bookingOrder     []string
	activeSlots      map[string]string
	disputes         map[string]*domain.Dispute
	disputeByBooking map[string]string
	counters         map[string]int64
	outbox           []*domain.OutboxEvent
	audit            []*domain.AuditLog
	seq              int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		wallets:          make(map[string]*domain.Wallet),
		walletByUser:     make(map[string]string),
		entries:          make(map[string]*domain.LedgerEntry),
		bookings:         make(map[string]*domain.Booking),
		activeSlots:      make(map[string]string),
		disputes:         make(map[string]*domain.Dispute),
		disputeByBooking: make(map[string]string),
		counters:         make(map[string]int64),
	}
}

// record registers undo to run if tx rolls back. Must be called with s.mu held.
func (s *Store) record(tx usecase.Transaction, undo func()) {
	if mt, ok := tx.(*MockTransaction); ok {
		mt.addUndo(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			undo()
		})
	}
}

// SeedWallet creates a wallet for userID funded by an approved deposit, so
// seeded balances still reconcile with the ledger.
func (s *Store) SeedWallet(userID string, balance decimal.Decimal) *domain.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	now := time.Now().UTC()
	w := &domain.Wallet{
		ID:             fmt.Sprintf("wallet-%s", userID),
		ReadableID:     domain.FormatReadableID(domain.CounterTypeWallet, "GLOBAL", int64(s.seq)),
		UserID:         userID,
		Balance:        balance,
		PendingBalance: decimal.Zero,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.wallets[w.ID] = w
	s.walletByUser[userID] = w.ID

	if balance.IsPositive() {
		e := &domain.LedgerEntry{
			ID:         fmt.Sprintf("seed-deposit-%s", userID),
			ReadableID: fmt.Sprintf("SEED-%04d", s.seq),
			WalletID:   w.ID,
			Type:       domain.EntryTypeDeposit,
			Status:     domain.EntryStatusApproved,
			Amount:     balance,
			CreatedAt:  now,
		}
		s.entries[e.ID] = e
		s.entryOrder = append(s.entryOrder, e.ID)
	}

	c := *w
	return &c
}

// SeedBooking stores b as is, bypassing slot validation.
func (s *Store) SeedBooking(b *domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *b
	s.bookings[b.ID] = &c
	s.bookingOrder = append(s.bookingOrder, b.ID)
	if b.Status.IsActive() {
		s.activeSlots[slotKey(b)] = b.ID
	}
}

// WalletByUser returns a snapshot of userID's wallet, nil if none.
func (s *Store) WalletByUser(userID string) *domain.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.walletByUser[userID]
	if !ok {
		return nil
	}
	c := *s.wallets[id]
	return &c
}

// Booking returns a snapshot of a booking, nil if none.
func (s *Store) Booking(id string) *domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil
	}
	c := *b
	return &c
}

// Entries returns all entries of walletID in insertion order.
func (s *Store) Entries(walletID string) []*domain.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.LedgerEntry
	for _, id := range s.entryOrder {
		if e := s.entries[id]; e.WalletID == walletID {
			c := *e
			out = append(out, &c)
		}
	}
	return out
}

// OutboxEvents returns all recorded outbox events.
func (s *Store) OutboxEvents() []*domain.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.OutboxEvent, 0, len(s.outbox))
	for _, e := range s.outbox {
		c := *e
		out = append(out, &c)
	}
	return out
}

// AuditLogs returns all recorded audit logs.
func (s *Store) AuditLogs() []*domain.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.AuditLog, len(s.audit))
	copy(out, s.audit)
	return out
}

func slotKey(b *domain.Booking) string {
	return b.TeacherID + "|" + b.StartTime.UTC().Format(time.RFC3339Nano)
}

// MockWalletRepository is a mock implementation of WalletRepository.
type MockWalletRepository struct {
	store *Store

	LockFunc   func(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, at time.Time) (*domain.Wallet, error)
	CreditFunc func(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, at time.Time) (*domain.Wallet, error)
}

func NewMockWalletRepository(store *Store) *MockWalletRepository {
	return &MockWalletRepository{store: store}
}

func (m *MockWalletRepository) Create(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) (bool, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.walletByUser[wallet.UserID]; ok {
		return false, nil
	}

	c := *wallet
	s.wallets[wallet.ID] = &c
	s.walletByUser[wallet.UserID] = wallet.ID
	s.record(tx, func() {
		delete(s.wallets, wallet.ID)
		delete(s.walletByUser, wallet.UserID)
	})
	return true, nil
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if w, ok := s.wallets[id]; ok {
		c := *w
		return &c, nil
	}
	return nil, domain.ErrWalletNotFound
}

func (m *MockWalletRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	return m.GetByID(ctx, id)
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	s := m.store
	s.mu.Lock()
	id, ok := s.walletByUser[userID]
	s.mu.Unlock()

	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *MockWalletRepository) GetByUserIDTx(ctx context.Context, tx usecase.Transaction, userID string) (*domain.Wallet, error) {
	return m.GetByUserID(ctx, userID)
}

// mutate applies fn to the wallet atomically when cond holds, failing with condErr otherwise.
func (m *MockWalletRepository) mutate(
	tx usecase.Transaction,
	id string,
	at time.Time,
	cond func(w *domain.Wallet) bool,
	condErr error,
	fn func(w *domain.Wallet),
) (*domain.Wallet, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[id]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	if !cond(w) {
		return nil, condErr
	}

	before := *w
	fn(w)
	w.Version++
	w.UpdatedAt = at

	balanceDelta := w.Balance.Sub(before.Balance)
	pendingDelta := w.PendingBalance.Sub(before.PendingBalance)
	s.record(tx, func() {
		cur := s.wallets[id]
		cur.Balance = cur.Balance.Sub(balanceDelta)
		cur.PendingBalance = cur.PendingBalance.Sub(pendingDelta)
	})

	c := *w
	return &c, nil
}

func (m *MockWalletRepository) Lock(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, at time.Time) (*domain.Wallet, error) {
	if m.LockFunc != nil {
		return m.LockFunc(ctx, tx, id, amount, at)
	}
	return m.mutate(tx, id, at,
		func(w *domain.Wallet) bool { return w.Balance.GreaterThanOrEqual(amount) },
		domain.ErrInsufficientBalance,
		func(w *domain.Wallet) {
			w.Balance = w.Balance.Sub(amount)
			w.PendingBalance = w.PendingBalance.Add(amount)
		})
}

func (m *MockWalletRepository) ReleasePending(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, at time.Time) (*domain.Wallet, error) {
	return m.mutate(tx, id, at,
		func(w *domain.Wallet) bool { return w.PendingBalance.GreaterThanOrEqual(amount) },
		domain.ErrFundsNotLocked,
		func(w *domain.Wallet) { w.PendingBalance = w.PendingBalance.Sub(amount) })
}

func (m *MockWalletRepository) Refund(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, at time.Time) (*domain.Wallet, error) {
	return m.mutate(tx, id, at,
		func(w *domain.Wallet) bool { return w.PendingBalance.GreaterThanOrEqual(amount) },
		domain.ErrFundsNotLocked,
		func(w *domain.Wallet) {
			w.PendingBalance = w.PendingBalance.Sub(amount)
			w.Balance = w.Balance.Add(amount)
		})
}

func (m *MockWalletRepository) Credit(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, at time.Time) (*domain.Wallet, error) {
	if m.CreditFunc != nil {
		return m.CreditFunc(ctx, tx, id, amount, at)
	}
	return m.mutate(tx, id, at,
		func(*domain.Wallet) bool { return true },
		nil,
		func(w *domain.Wallet) { w.Balance = w.Balance.Add(amount) })
}

func (m *MockWalletRepository) Debit(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, at time.Time) (*domain.Wallet, error) {
	return m.mutate(tx, id, at,
		func(w *domain.Wallet) bool { return w.Balance.GreaterThanOrEqual(amount) },
		domain.ErrInsufficientBalance,
		func(w *domain.Wallet) { w.Balance = w.Balance.Sub(amount) })
}

func (m *MockWalletRepository) List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.wallets))
	for id := range s.wallets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []*domain.Wallet
	for _, id := range page(ids, limit, offset) {
		c := *s.wallets[id]
		out = append(out, &c)
	}
	return out, nil
}

// MockLedgerEntryRepository is a mock implementation of LedgerEntryRepository.
type MockLedgerEntryRepository struct {
	store *Store

	CreateFunc func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
}

func NewMockLedgerEntryRepository(store *Store) *MockLedgerEntryRepository {
	return &MockLedgerEntryRepository{store: store}
}

func (m *MockLedgerEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}

	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *entry
	s.entries[entry.ID] = &c
	s.entryOrder = append(s.entryOrder, entry.ID)
	s.record(tx, func() {
		delete(s.entries, entry.ID)
		for i, id := range s.entryOrder {
			if id == entry.ID {
				s.entryOrder = append(s.entryOrder[:i], s.entryOrder[i+1:]...)
				break
			}
		}
	})
	return nil
}

func (m *MockLedgerEntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		c := *e
		return &c, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockLedgerEntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	return m.GetByID(ctx, id)
}

func (m *MockLedgerEntryRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.EntryStatus, reviewNote string, reviewedAt time.Time) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if e.Status != domain.EntryStatusPending {
		return domain.ErrTransactionAlreadyReviewed
	}

	before := *e
	e.Status = status
	e.ReviewNote = reviewNote
	e.ReviewedAt = &reviewedAt
	s.record(tx, func() { *s.entries[id] = before })
	return nil
}

func (m *MockLedgerEntryRepository) filter(keep func(*domain.LedgerEntry) bool) []*domain.LedgerEntry {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.LedgerEntry
	for _, id := range s.entryOrder {
		if e := s.entries[id]; keep(e) {
			c := *e
			out = append(out, &c)
		}
	}
	return out
}

func (m *MockLedgerEntryRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	entries := m.filter(func(e *domain.LedgerEntry) bool { return e.WalletID == walletID })
	reverse(entries)
	return page(entries, limit, offset), nil
}

func (m *MockLedgerEntryRepository) ListByStatus(ctx context.Context, status domain.EntryStatus, limit, offset int) ([]*domain.LedgerEntry, error) {
	entries := m.filter(func(e *domain.LedgerEntry) bool { return e.Status == status })
	return page(entries, limit, offset), nil
}

func (m *MockLedgerEntryRepository) ListByBooking(ctx context.Context, bookingID string) ([]*domain.LedgerEntry, error) {
	return m.filter(func(e *domain.LedgerEntry) bool { return e.BookingID != nil && *e.BookingID == bookingID }), nil
}

func (m *MockLedgerEntryRepository) ListApprovedByWallet(ctx context.Context, tx usecase.Transaction, walletID string) ([]*domain.LedgerEntry, error) {
	return m.filter(func(e *domain.LedgerEntry) bool {
		return e.WalletID == walletID && e.Status == domain.EntryStatusApproved
	}), nil
}

// MockLedgerRepository is a mock implementation of LedgerRepository.
type MockLedgerRepository struct {
	store *Store
}

func NewMockLedgerRepository(store *Store) *MockLedgerRepository {
	return &MockLedgerRepository{store: store}
}

func (m *MockLedgerRepository) Totals(ctx context.Context, tx usecase.Transaction) (*usecase.LedgerTotals, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := &usecase.LedgerTotals{
		ApprovedByType:     make(map[domain.EntryType]decimal.Decimal),
		WalletBalance:      decimal.Zero,
		WalletPending:      decimal.Zero,
		PendingDeposits:    decimal.Zero,
		PendingWithdrawals: decimal.Zero,
	}

	for _, w := range s.wallets {
		totals.WalletBalance = totals.WalletBalance.Add(w.Balance)
		totals.WalletPending = totals.WalletPending.Add(w.PendingBalance)
		totals.WalletCount++
	}

	for _, e := range s.entries {
		switch e.Status {
		case domain.EntryStatusApproved:
			totals.ApprovedByType[e.Type] = totals.ApprovedByType[e.Type].Add(e.Amount)
		case domain.EntryStatusPending:
			totals.PendingReviewCount++
			if e.Type == domain.EntryTypeDeposit {
				totals.PendingDeposits = totals.PendingDeposits.Add(e.Amount)
			} else {
				totals.PendingWithdrawals = totals.PendingWithdrawals.Add(e.Amount.Abs())
			}
		}
	}

	return totals, nil
}

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	store *Store

	CreateFunc func(ctx context.Context, tx usecase.Transaction, booking *domain.Booking) error
}

func NewMockBookingRepository(store *Store) *MockBookingRepository {
	return &MockBookingRepository{store: store}
}

func (m *MockBookingRepository) Create(ctx context.Context, tx usecase.Transaction, booking *domain.Booking) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, booking)
	}

	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotKey(booking)
	if booking.Status.IsActive() {
		if _, taken := s.activeSlots[key]; taken {
			return domain.ErrSlotConflict
		}
		s.activeSlots[key] = booking.ID
	}

	c := *booking
	s.bookings[booking.ID] = &c
	s.bookingOrder = append(s.bookingOrder, booking.ID)
	s.record(tx, func() {
		delete(s.bookings, booking.ID)
		if s.activeSlots[key] == booking.ID {
			delete(s.activeSlots, key)
		}
		for i, id := range s.bookingOrder {
			if id == booking.ID {
				s.bookingOrder = append(s.bookingOrder[:i], s.bookingOrder[i+1:]...)
				break
			}
		}
	})
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.bookings[id]; ok {
		c := *b
		return &c, nil
	}
	return nil, domain.ErrBookingNotFound
}

func (m *MockBookingRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Booking, error) {
	return m.GetByID(ctx, id)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, booking *domain.Booking, from []domain.BookingStatus) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.bookings[booking.ID]
	if !ok {
		return domain.ErrBookingNotFound
	}

	matched := false
	for _, st := range from {
		if stored.Status == st {
			matched = true
			break
		}
	}
	if !matched {
		return domain.ErrInvalidTransition
	}

	before := *stored
	key := slotKey(stored)
	stored.Status = booking.Status
	stored.CancelReason = booking.CancelReason
	stored.PaymentDeadline = booking.PaymentDeadline
	stored.DisputeWindowClosesAt = booking.DisputeWindowClosesAt
	stored.PaymentReleasedAt = booking.PaymentReleasedAt
	stored.UpdatedAt = booking.UpdatedAt

	freed := before.Status.IsActive() && !stored.Status.IsActive()
	if freed && s.activeSlots[key] == stored.ID {
		delete(s.activeSlots, key)
	}

	s.record(tx, func() {
		*s.bookings[before.ID] = before
		if freed {
			s.activeSlots[key] = before.ID
		}
	})
	return nil
}

func (m *MockBookingRepository) filter(keep func(*domain.Booking) bool) []*domain.Booking {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Booking
	for _, id := range s.bookingOrder {
		if b := s.bookings[id]; keep(b) {
			c := *b
			out = append(out, &c)
		}
	}
	return out
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Booking, error) {
	bookings := m.filter(func(b *domain.Booking) bool {
		return b.TeacherID == userID || b.BookedByUserID == userID || b.StudentUserID == userID
	})
	return page(bookings, limit, offset), nil
}

func (m *MockBookingRepository) ListPendingApprovalBefore(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Booking, error) {
	bookings := m.filter(func(b *domain.Booking) bool {
		return b.Status == domain.BookingStatusPendingTeacherApproval && b.CreatedAt.Before(createdBefore)
	})
	return page(bookings, limit, 0), nil
}

func (m *MockBookingRepository) ListPaymentOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error) {
	bookings := m.filter(func(b *domain.Booking) bool {
		return b.Status == domain.BookingStatusWaitingForPayment && b.PaymentDeadline != nil && b.PaymentDeadline.Before(now)
	})
	return page(bookings, limit, 0), nil
}

func (m *MockBookingRepository) ListReleasable(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error) {
	bookings := m.filter(func(b *domain.Booking) bool {
		return b.Status == domain.BookingStatusPendingConfirmation &&
			b.DisputeWindowClosesAt != nil && !b.DisputeWindowClosesAt.After(now)
	})
	return page(bookings, limit, 0), nil
}

func (m *MockBookingRepository) CountByStatus(ctx context.Context) (map[domain.BookingStatus]int64, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[domain.BookingStatus]int64)
	for _, b := range s.bookings {
		counts[b.Status]++
	}
	return counts, nil
}

// MockDisputeRepository is a mock implementation of DisputeRepository.
type MockDisputeRepository struct {
	store *Store
}

func NewMockDisputeRepository(store *Store) *MockDisputeRepository {
	return &MockDisputeRepository{store: store}
}

func (m *MockDisputeRepository) Create(ctx context.Context, tx usecase.Transaction, dispute *domain.Dispute) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.disputeByBooking[dispute.BookingID]; exists {
		return domain.ErrDisputeExists
	}

	c := *dispute
	s.disputes[dispute.ID] = &c
	s.disputeByBooking[dispute.BookingID] = dispute.ID
	s.record(tx, func() {
		delete(s.disputes, dispute.ID)
		delete(s.disputeByBooking, dispute.BookingID)
	})
	return nil
}

func (m *MockDisputeRepository) GetByID(ctx context.Context, id string) (*domain.Dispute, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.disputes[id]; ok {
		c := *d
		return &c, nil
	}
	return nil, domain.ErrDisputeNotFound
}

func (m *MockDisputeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Dispute, error) {
	return m.GetByID(ctx, id)
}

func (m *MockDisputeRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Dispute, error) {
	s := m.store
	s.mu.Lock()
	id, ok := s.disputeByBooking[bookingID]
	s.mu.Unlock()

	if !ok {
		return nil, domain.ErrDisputeNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *MockDisputeRepository) Update(ctx context.Context, tx usecase.Transaction, dispute *domain.Dispute, from []domain.DisputeStatus) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.disputes[dispute.ID]
	if !ok {
		return domain.ErrDisputeNotFound
	}

	matched := false
	for _, st := range from {
		if stored.Status == st {
			matched = true
			break
		}
	}
	if !matched {
		return domain.ErrInvalidDisputeState
	}

	before := *stored
	*stored = *dispute
	s.record(tx, func() { *s.disputes[before.ID] = before })
	return nil
}

func (m *MockDisputeRepository) List(ctx context.Context, statuses []domain.DisputeStatus, limit, offset int) ([]*domain.Dispute, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Dispute
	for _, d := range s.disputes {
		keep := len(statuses) == 0
		for _, st := range statuses {
			if d.Status == st {
				keep = true
			}
		}
		if keep {
			c := *d
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

// MockCounterRepository is a mock implementation of CounterRepository.
type MockCounterRepository struct {
	store *Store

	IncrementFunc func(ctx context.Context, tx usecase.Transaction, counterType domain.CounterType, period string) (int64, error)
}

func NewMockCounterRepository(store *Store) *MockCounterRepository {
	return &MockCounterRepository{store: store}
}

func (m *MockCounterRepository) Increment(ctx context.Context, tx usecase.Transaction, counterType domain.CounterType, period string) (int64, error) {
	if m.IncrementFunc != nil {
		return m.IncrementFunc(ctx, tx, counterType, period)
	}

	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := string(counterType) + ":" + period
	s.counters[key]++
	s.record(tx, func() { s.counters[key]-- })
	return s.counters[key], nil
}

func (m *MockCounterRepository) Current(ctx context.Context, counterType domain.CounterType, period string) (int64, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counters[string(counterType)+":"+period], nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	store *Store

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository(store *Store) *MockOutboxRepository {
	return &MockOutboxRepository{store: store}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}

	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *event
	s.outbox = append(s.outbox, &c)
	s.record(tx, func() {
		for i, e := range s.outbox {
			if e.ID == event.ID {
				s.outbox = append(s.outbox[:i], s.outbox[i+1:]...)
				break
			}
		}
	})
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.OutboxEvent
	for _, e := range s.outbox {
		if !e.Published {
			c := *e
			out = append(out, &c)
		}
	}
	return page(out, limit, 0), nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.outbox {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.OutboxEvent
	for _, e := range s.outbox {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			c := *e
			out = append(out, &c)
		}
	}
	return page(out, limit, offset), nil
}

func (m *MockOutboxRepository) PurgePublished(ctx context.Context, before time.Time) (int64, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	kept := s.outbox[:0]
	for _, e := range s.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.outbox = kept
	return removed, nil
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	store *Store
}

func NewMockAuditRepository(store *Store) *MockAuditRepository {
	return &MockAuditRepository{store: store}
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audit = append(s.audit, log)
	s.record(tx, func() {
		for i, l := range s.audit {
			if l.ID == log.ID {
				s.audit = append(s.audit[:i], s.audit[i+1:]...)
				break
			}
		}
	})
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.AuditLog
	for _, l := range s.audit {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
			continue
		}
		out = append(out, l)
	}
	return page(out, filter.Limit, filter.Offset), nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
// Serializable transactions run one at a time.
type MockTransactionManager struct {
	serial sync.Mutex

	BeginFunc  func(ctx context.Context, opts usecase.TxOptions) (usecase.Transaction, error)
	CommitFunc func(ctx context.Context) error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	return m.BeginTx(ctx, usecase.TxOptions{})
}

func (m *MockTransactionManager) BeginTx(ctx context.Context, opts usecase.TxOptions) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, opts)
	}

	tx := &MockTransaction{CommitFunc: m.CommitFunc}
	if opts.Isolation == usecase.IsolationSerializable {
		m.serial.Lock()
		tx.release = m.serial.Unlock
	}
	return tx, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	mu      sync.Mutex
	undo    []func()
	release func()
	done    bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) addUndo(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = append(m.undo, fn)
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.finish()
	m.undo = nil
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}

	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return nil
	}
	undo := m.undo
	m.undo = nil
	m.mu.Unlock()

	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.finish()
	return nil
}

func (m *MockTransaction) finish() {
	if m.done {
		return
	}
	m.done = true
	if m.release != nil {
		m.release()
	}
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%04d", m.counter)
}

// MockRetrier retries an operation up to Attempts times while ShouldRetry allows it.
type MockRetrier struct {
	ShouldRetry func(err error) bool
	Attempts    int
	calls       int
	mu          sync.Mutex
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	attempts := m.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		m.mu.Lock()
		m.calls++
		m.mu.Unlock()

		if err = operation(); err == nil {
			return nil
		}
		if m.ShouldRetry == nil || !m.ShouldRetry(err) {
			return err
		}
	}
	return err
}

// Calls returns how many times the operation ran.
func (m *MockRetrier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func reverse[T any](items []T) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
