package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/infrastructure/postgres/generated"
	"github.com/iho/tutorescrow/internal/usecase"
)

// LedgerEntryRepository implements usecase.LedgerEntryRepository.
type LedgerEntryRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewLedgerEntryRepository creates a new LedgerEntryRepository.
func NewLedgerEntryRepository(db generated.DBTX) *LedgerEntryRepository {
	return &LedgerEntryRepository{
		db:      db,
		queries: generated.New(db),
	}
}

// Create inserts a ledger entry.
func (r *LedgerEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	var metadata []byte
	if entry.Metadata != nil {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return err
		}
	}

	err := queriesFor(r.db, tx).CreateLedgerEntry(ctx, generated.CreateLedgerEntryParams{
		ID:         entry.ID,
		ReadableID: entry.ReadableID,
		WalletID:   entry.WalletID,
		BookingID:  optionalText(entry.BookingID),
		Type:       string(entry.Type),
		Status:     string(entry.Status),
		Amount:     decimalToNumeric(entry.Amount),
		Note:       entry.Note,
		Metadata:   metadata,
		CreatedAt:  timeToPgTimestamptz(entry.CreatedAt),
		ReviewedAt: optionalTimestamptz(entry.ReviewedAt),
	})

	return translateError(err)
}

// GetByID retrieves a ledger entry by ID.
func (r *LedgerEntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	row, err := r.queries.GetLedgerEntryByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToLedgerEntry(row), nil
}

// GetByIDForUpdate retrieves a ledger entry by ID with a FOR UPDATE lock.
func (r *LedgerEntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	row, err := queriesFor(r.db, tx).GetLedgerEntryByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToLedgerEntry(row), nil
}

// UpdateStatus finalises a PENDING entry.
func (r *LedgerEntryRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.EntryStatus, reviewNote string, reviewedAt time.Time) error {
	affected, err := queriesFor(r.db, tx).UpdateLedgerEntryStatus(ctx, generated.UpdateLedgerEntryStatusParams{
		ID:         id,
		Status:     string(status),
		ReviewNote: reviewNote,
		ReviewedAt: timeToPgTimestamptz(reviewedAt),
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return domain.ErrTransactionAlreadyReviewed
	}

	return nil
}

// ListByWallet returns the wallet's entries, newest first.
func (r *LedgerEntryRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListLedgerEntriesByWallet(ctx, generated.ListLedgerEntriesByWalletParams{
		WalletID: walletID,
		Limit:    int32(limit),
		Offset:   int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToLedgerEntries(rows), nil
}

// ListByStatus returns entries in status, oldest first.
func (r *LedgerEntryRepository) ListByStatus(ctx context.Context, status domain.EntryStatus, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListLedgerEntriesByStatus(ctx, generated.ListLedgerEntriesByStatusParams{
		Status: string(status),
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToLedgerEntries(rows), nil
}

// ListByBooking returns every entry that references bookingID.
func (r *LedgerEntryRepository) ListByBooking(ctx context.Context, bookingID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListLedgerEntriesByBooking(ctx, pgtype.Text{String: bookingID, Valid: true})
	if err != nil {
		return nil, err
	}

	return rowsToLedgerEntries(rows), nil
}

// ListApprovedByWallet returns the approved entries of a wallet in posting order.
func (r *LedgerEntryRepository) ListApprovedByWallet(ctx context.Context, tx usecase.Transaction, walletID string) ([]*domain.LedgerEntry, error) {
	rows, err := queriesFor(r.db, tx).ListApprovedLedgerEntriesByWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}

	return rowsToLedgerEntries(rows), nil
}

func rowsToLedgerEntries(rows []generated.LedgerEntry) []*domain.LedgerEntry {
	entries := make([]*domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToLedgerEntry(row))
	}
	return entries
}

func rowToLedgerEntry(row generated.LedgerEntry) *domain.LedgerEntry {
	var metadata map[string]any
	if row.Metadata != nil {
		_ = json.Unmarshal(row.Metadata, &metadata)
	}

	return &domain.LedgerEntry{
		ID:         row.ID,
		ReadableID: row.ReadableID,
		WalletID:   row.WalletID,
		BookingID:  textPtr(row.BookingID),
		Type:       domain.EntryType(row.Type),
		Status:     domain.EntryStatus(row.Status),
		Amount:     numericToDecimal(row.Amount),
		Note:       row.Note,
		ReviewNote: row.ReviewNote,
		Metadata:   metadata,
		CreatedAt:  row.CreatedAt.Time,
		ReviewedAt: timestamptzPtr(row.ReviewedAt),
	}
}
