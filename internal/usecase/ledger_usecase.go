package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/infrastructure/metrics"
)

var errWalletRaced = errors.New("wallet created concurrently")

// LedgerUseCase owns every mutation of wallet balances. All other engines
// move money only through it.
type LedgerUseCase struct {
	txManager  TransactionManager
	retrier    Retrier
	walletRepo WalletRepository
	entryRepo  LedgerEntryRepository
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	counters   *CounterUseCase
	idGen      IDGenerator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	retrier Retrier,
	walletRepo WalletRepository,
	entryRepo LedgerEntryRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	counters *CounterUseCase,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:  txManager,
		retrier:    retrier,
		walletRepo: walletRepo,
		entryRepo:  entryRepo,
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		counters:   counters,
		idGen:      idGen,
		metrics:    metrics,
		logger:     logger.With().Str("component", "ledger").Logger(),
	}
}

// LockFundsInput moves Amount from a wallet's balance into escrow.
type LockFundsInput struct {
	Metadata  map[string]any
	WalletID  string
	BookingID string
	Note      string
	Amount    decimal.Decimal
}

// ReleaseInput settles escrowed funds in favour of a recipient. Amount leaves
// the source's pending balance, Amount-Commission reaches the recipient and
// Commission is retained by the platform.
type ReleaseInput struct {
	SourceWalletID    string
	RecipientWalletID string
	BookingID         string
	Note              string
	Amount            decimal.Decimal
	Commission        decimal.Decimal
}

// ReleaseResult holds both sides of a release.
type ReleaseResult struct {
	Debit  *domain.LedgerEntry
	Credit *domain.LedgerEntry
}

// RefundInput returns escrowed funds to the payer's spendable balance.
type RefundInput struct {
	WalletID  string
	BookingID string
	Note      string
	Amount    decimal.Decimal
}

// RequestTransactionInput records a deposit or withdrawal awaiting review.
type RequestTransactionInput struct {
	UserID    string
	Reference string
	Note      string
	Type      domain.EntryType
	Amount    decimal.Decimal
}

// ReviewTransactionInput is an admin decision on a pending deposit or withdrawal.
type ReviewTransactionInput struct {
	EntryID string
	Note    string
	Approve bool
}

// GetOrCreateWallet returns the user's wallet, creating an empty one on first access.
func (uc *LedgerUseCase) GetOrCreateWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	if userID == "" {
		return nil, domain.ErrWalletNotFound
	}

	wallet, err := uc.walletRepo.GetByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, domain.ErrWalletNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	var created *domain.Wallet

	err = inTx(ctx, uc.txManager, TxOptions{}, func(ctx context.Context, tx Transaction) error {
		readableID, err := uc.counters.NextReadableID(ctx, tx, domain.CounterTypeWallet, now)
		if err != nil {
			return err
		}

		w := &domain.Wallet{
			ID:             uc.idGen.Generate(),
			ReadableID:     readableID,
			UserID:         userID,
			Balance:        decimal.Zero,
			PendingBalance: decimal.Zero,
			Version:        1,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		inserted, err := uc.walletRepo.Create(ctx, tx, w)
		if err != nil {
			return err
		}
		if !inserted {
			// Roll back so the wallet sequence does not skip a number.
			return errWalletRaced
		}

		created = w
		return nil
	})
	if errors.Is(err, errWalletRaced) {
		return uc.walletRepo.GetByUserID(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WalletsCreated.Inc()
	}
	uc.logger.Debug().Str("user_id", userID).Str("wallet_id", created.ReadableID).Msg("wallet created")

	return created, nil
}

// GetWallet returns a wallet by ID.
func (uc *LedgerUseCase) GetWallet(ctx context.Context, id string) (*domain.Wallet, error) {
	return uc.walletRepo.GetByID(ctx, id)
}

// ListWallets lists wallets with pagination.
func (uc *LedgerUseCase) ListWallets(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.walletRepo.List(ctx, limit, offset)
}

// GetEntry returns a ledger entry by ID.
func (uc *LedgerUseCase) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return uc.entryRepo.GetByID(ctx, id)
}

// ListEntries lists a wallet's ledger entries, newest first.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.entryRepo.ListByWallet(ctx, walletID, limit, offset)
}

// ListPendingTransactions lists deposits and withdrawals awaiting review.
func (uc *LedgerUseCase) ListPendingTransactions(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.entryRepo.ListByStatus(ctx, domain.EntryStatusPending, limit, offset)
}

// LockFunds moves funds from balance to pending balance. Concurrent locks on
// the same wallet never drive the balance negative: each either succeeds in
// full or fails with domain.ErrInsufficientBalance.
func (uc *LedgerUseCase) LockFunds(ctx context.Context, input LockFundsInput) (*domain.LedgerEntry, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateMetadata(input.Metadata); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var entry *domain.LedgerEntry

	err := inTx(ctx, uc.txManager, TxOptions{}, func(ctx context.Context, tx Transaction) error {
		var err error
		entry, err = uc.lockInTx(ctx, tx, input, now)
		return err
	})
	if err != nil {
		uc.recordFailure("lock", input.WalletID, err)
		return nil, err
	}

	return entry, nil
}

// ReleaseToRecipient settles escrow from source to recipient in one
// serializable transaction, writing one entry per side.
func (uc *LedgerUseCase) ReleaseToRecipient(ctx context.Context, input ReleaseInput) (*ReleaseResult, error) {
	now := time.Now().UTC()
	var result *ReleaseResult

	err := inSerializableTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		var err error
		result, err = uc.releaseInTx(ctx, tx, input, now)
		return err
	})
	if err != nil {
		uc.recordFailure("release", input.SourceWalletID, err)
		return nil, err
	}

	return result, nil
}

// RefundToSource moves escrowed funds back to the payer's balance.
func (uc *LedgerUseCase) RefundToSource(ctx context.Context, input RefundInput) (*domain.LedgerEntry, error) {
	now := time.Now().UTC()
	var entry *domain.LedgerEntry

	err := inTx(ctx, uc.txManager, TxOptions{}, func(ctx context.Context, tx Transaction) error {
		var err error
		entry, err = uc.refundInTx(ctx, tx, input, now)
		return err
	})
	if err != nil {
		uc.recordFailure("refund", input.WalletID, err)
		return nil, err
	}

	return entry, nil
}

// RequestTransaction records a PENDING deposit or withdrawal. Nothing moves
// until an admin approves it.
func (uc *LedgerUseCase) RequestTransaction(ctx context.Context, input RequestTransactionInput) (*domain.LedgerEntry, error) {
	if !input.Type.Reviewable() {
		return nil, domain.ErrTransactionNotReviewable
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateNote(input.Note); err != nil {
		return nil, err
	}

	wallet, err := uc.GetOrCreateWallet(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	amount := input.Amount
	if input.Type == domain.EntryTypeWithdrawal {
		// Checked again atomically on approval.
		if wallet.Balance.LessThan(input.Amount) {
			return nil, domain.ErrInsufficientBalance
		}
		amount = amount.Neg()
	}

	now := time.Now().UTC()
	var entry *domain.LedgerEntry

	err = inTx(ctx, uc.txManager, TxOptions{}, func(ctx context.Context, tx Transaction) error {
		var metadata map[string]any
		if input.Reference != "" {
			metadata = map[string]any{"reference": input.Reference}
		}

		var err error
		entry, err = uc.appendEntry(ctx, tx, entryParams{
			walletID:  wallet.ID,
			entryType: input.Type,
			status:    domain.EntryStatusPending,
			amount:    amount,
			note:      input.Note,
			metadata:  metadata,
		}, now)
		if err != nil {
			return err
		}

		event := newOutboxEvent(uc.idGen, domain.AggregateTypeTransaction, entry.ID, domain.EventTypeTransactionRequested,
			[]string{input.UserID}, map[string]any{
				"transaction_id": entry.ReadableID,
				"type":           string(entry.Type),
				"amount":         input.Amount.StringFixed(domain.MoneyScale),
			}, now)

		return uc.outboxRepo.Create(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// ReviewTransaction approves or rejects a pending deposit or withdrawal.
// Approval applies the balance change, rejection leaves the wallet untouched.
// A second review of the same entry fails with domain.ErrTransactionAlreadyReviewed.
func (uc *LedgerUseCase) ReviewTransaction(ctx context.Context, input ReviewTransactionInput) (*domain.LedgerEntry, error) {
	if err := domain.ValidateNote(input.Note); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var reviewed *domain.LedgerEntry

	err := inTx(ctx, uc.txManager, TxOptions{}, func(ctx context.Context, tx Transaction) error {
		entry, err := uc.entryRepo.GetByIDForUpdate(ctx, tx, input.EntryID)
		if err != nil {
			return err
		}
		if !entry.Type.Reviewable() {
			return domain.ErrTransactionNotReviewable
		}
		if entry.Status != domain.EntryStatusPending {
			return domain.ErrTransactionAlreadyReviewed
		}

		before := *entry
		status := domain.EntryStatusRejected

		var wallet *domain.Wallet
		if input.Approve {
			status = domain.EntryStatusApproved

			switch entry.Type {
			case domain.EntryTypeDeposit:
				wallet, err = uc.walletRepo.Credit(ctx, tx, entry.WalletID, entry.Amount, now)
			case domain.EntryTypeWithdrawal:
				wallet, err = uc.walletRepo.Debit(ctx, tx, entry.WalletID, entry.Amount.Abs(), now)
			}
			if err != nil {
				return err
			}
		} else {
			wallet, err = uc.walletRepo.GetByID(ctx, entry.WalletID)
			if err != nil {
				return err
			}
		}

		if err := uc.entryRepo.UpdateStatus(ctx, tx, entry.ID, status, input.Note, now); err != nil {
			return err
		}

		entry.Status = status
		entry.ReviewNote = input.Note
		entry.ReviewedAt = &now

		event := newOutboxEvent(uc.idGen, domain.AggregateTypeTransaction, entry.ID, domain.EventTypeTransactionReviewed,
			[]string{wallet.UserID}, map[string]any{
				"transaction_id": entry.ReadableID,
				"type":           string(entry.Type),
				"status":         string(status),
				"amount":         entry.Amount.Abs().StringFixed(domain.MoneyScale),
			}, now)
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		if err := writeAudit(ctx, tx, uc.auditRepo, uc.idGen, uc.metrics, auditRecord{
			action:       domain.AuditActionTransactionReview,
			resourceType: domain.AggregateTypeTransaction,
			resourceID:   entry.ID,
			before:       before,
			after:        entry,
		}, now); err != nil {
			return err
		}

		reviewed = entry
		return nil
	})
	if err != nil {
		uc.recordFailure("review", input.EntryID, err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionReview.WithLabelValues(string(reviewed.Type), string(reviewed.Status)).Inc()
	}

	uc.logger.Info().
		Str("transaction_id", reviewed.ReadableID).
		Str("status", string(reviewed.Status)).
		Str("reviewer", actorID(ctx)).
		Msg("transaction reviewed")

	return reviewed, nil
}

func (uc *LedgerUseCase) lockInTx(ctx context.Context, tx Transaction, input LockFundsInput, now time.Time) (*domain.LedgerEntry, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if _, err := uc.walletRepo.Lock(ctx, tx, input.WalletID, input.Amount, now); err != nil {
		return nil, err
	}

	entry, err := uc.appendEntry(ctx, tx, entryParams{
		walletID:  input.WalletID,
		entryType: domain.EntryTypePaymentLock,
		status:    domain.EntryStatusApproved,
		amount:    input.Amount.Neg(),
		bookingID: input.BookingID,
		note:      input.Note,
		metadata:  input.Metadata,
	}, now)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.FundsLocked.Inc()
		uc.metrics.LockedAmount.Observe(input.Amount.InexactFloat64())
		uc.metrics.WalletOperations.WithLabelValues(string(domain.EntryTypePaymentLock)).Inc()
	}

	return entry, nil
}

func (uc *LedgerUseCase) releaseInTx(ctx context.Context, tx Transaction, input ReleaseInput, now time.Time) (*ReleaseResult, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if input.Commission.IsNegative() || input.Commission.GreaterThan(input.Amount) {
		return nil, domain.ErrPayoutMismatch
	}
	if input.SourceWalletID == input.RecipientWalletID {
		return nil, domain.ErrNotParticipant
	}

	net := input.Amount.Sub(input.Commission)

	debit := func() error {
		_, err := uc.walletRepo.ReleasePending(ctx, tx, input.SourceWalletID, input.Amount, now)
		return err
	}
	credit := func() error {
		if !net.IsPositive() {
			return nil
		}
		_, err := uc.walletRepo.Credit(ctx, tx, input.RecipientWalletID, net, now)
		return err
	}

	// Touch rows in ID order so opposing releases cannot deadlock.
	steps := []func() error{debit, credit}
	if input.RecipientWalletID < input.SourceWalletID {
		steps = []func() error{credit, debit}
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	metadata := map[string]any{
		"gross":      input.Amount.StringFixed(domain.MoneyScale),
		"commission": input.Commission.StringFixed(domain.MoneyScale),
		"net":        net.StringFixed(domain.MoneyScale),
	}

	result := &ReleaseResult{}

	var err error
	result.Debit, err = uc.appendEntry(ctx, tx, entryParams{
		walletID:  input.SourceWalletID,
		entryType: domain.EntryTypePaymentRelease,
		status:    domain.EntryStatusApproved,
		amount:    input.Amount.Neg(),
		bookingID: input.BookingID,
		note:      input.Note,
		metadata:  metadata,
	}, now)
	if err != nil {
		return nil, err
	}

	if net.IsPositive() {
		result.Credit, err = uc.appendEntry(ctx, tx, entryParams{
			walletID:  input.RecipientWalletID,
			entryType: domain.EntryTypeEscrowRelease,
			status:    domain.EntryStatusApproved,
			amount:    net,
			bookingID: input.BookingID,
			note:      input.Note,
			metadata:  metadata,
		}, now)
		if err != nil {
			return nil, err
		}
	}

	if uc.metrics != nil {
		uc.metrics.EscrowReleased.Inc()
		uc.metrics.CommissionEarned.Add(input.Commission.InexactFloat64())
		uc.metrics.WalletOperations.WithLabelValues(string(domain.EntryTypePaymentRelease)).Inc()
	}

	return result, nil
}

func (uc *LedgerUseCase) refundInTx(ctx context.Context, tx Transaction, input RefundInput, now time.Time) (*domain.LedgerEntry, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if _, err := uc.walletRepo.Refund(ctx, tx, input.WalletID, input.Amount, now); err != nil {
		return nil, err
	}

	entry, err := uc.appendEntry(ctx, tx, entryParams{
		walletID:  input.WalletID,
		entryType: domain.EntryTypeRefund,
		status:    domain.EntryStatusApproved,
		amount:    input.Amount,
		bookingID: input.BookingID,
		note:      input.Note,
	}, now)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EscrowRefunded.Inc()
		uc.metrics.WalletOperations.WithLabelValues(string(domain.EntryTypeRefund)).Inc()
	}

	return entry, nil
}

type entryParams struct {
	metadata  map[string]any
	walletID  string
	bookingID string
	note      string
	entryType domain.EntryType
	status    domain.EntryStatus
	amount    decimal.Decimal
}

func (uc *LedgerUseCase) appendEntry(ctx context.Context, tx Transaction, p entryParams, now time.Time) (*domain.LedgerEntry, error) {
	readableID, err := uc.counters.NextReadableID(ctx, tx, domain.CounterTypeTransaction, now)
	if err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		ID:         uc.idGen.Generate(),
		ReadableID: readableID,
		WalletID:   p.walletID,
		Type:       p.entryType,
		Status:     p.status,
		Amount:     p.amount,
		Note:       p.note,
		Metadata:   p.metadata,
		CreatedAt:  now,
	}
	if p.bookingID != "" {
		bookingID := p.bookingID
		entry.BookingID = &bookingID
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

func (uc *LedgerUseCase) recordFailure(op, ref string, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		if uc.metrics != nil {
			uc.metrics.InsufficientFunds.Inc()
		}
		uc.logger.Warn().Str("op", op).Str("ref", ref).Msg("insufficient balance")
	case errors.Is(err, domain.ErrPayoutMismatch), errors.Is(err, domain.ErrCounterCollision):
		if uc.metrics != nil {
			uc.metrics.InvariantViolations.WithLabelValues(op).Inc()
		}
		uc.logger.Error().Err(err).Str("op", op).Str("ref", ref).Msg("ledger invariant violated")
	default:
		uc.logger.Warn().Err(err).Str("op", op).Str("ref", ref).Msg("ledger operation failed")
	}
}
