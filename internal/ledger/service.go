package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates postings, reversals, accounts, and periods.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the ledger service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Post validates and persists a balanced journal entry, appending one general
// ledger row per line and moving each account's projected balance. The whole
// sequence runs in a single transaction.
func (s *Service) Post(ctx context.Context, input PostingInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = s.PostIn(ctx, tx, input)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.recordAudit(ctx, input.PostedBy, "ledger.post", entry)
	return entry, nil
}

// PostIn performs the posting inside an already-open transaction. Document
// modules call this so the document insert and its ledger legs commit or roll
// back together.
func (s *Service) PostIn(ctx context.Context, tx TxRepository, input PostingInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	period, err := tx.LatestOpenPeriod(ctx)
	if err != nil {
		if errors.Is(err, ErrNoOpenPeriod) && s.dateInClosedPeriod(ctx, tx, input.Date) {
			return JournalEntry{}, ErrPeriodClosed
		}
		return JournalEntry{}, err
	}
	if input.Date.Before(period.StartDate) || input.Date.After(period.EndDate) {
		if s.dateInClosedPeriod(ctx, tx, input.Date) {
			return JournalEntry{}, ErrPeriodClosed
		}
		return JournalEntry{}, ErrDateOutOfRange
	}

	code, err := tx.NextCode(ctx, shared.CodePrefixJournal, input.Date)
	if err != nil {
		return JournalEntry{}, err
	}

	entry, err := tx.InsertEntry(ctx, JournalEntry{
		Code:          code,
		PeriodID:      period.ID,
		Date:          input.Date,
		Memo:          input.Memo,
		ReferenceType: input.ReferenceType,
		ReferenceID:   input.ReferenceID,
		Status:        EntryStatusPosted,
		PostedBy:      input.PostedBy,
	})
	if err != nil {
		return JournalEntry{}, err
	}

	// Accounts are locked in code order so two postings touching the same
	// pair cannot deadlock.
	lines := append([]PostingLine(nil), input.Lines...)
	sort.SliceStable(lines, func(i, j int) bool {
		return strings.Compare(lines[i].AccountCode, lines[j].AccountCode) < 0
	})

	for _, line := range lines {
		acct, err := tx.GetAccountByCodeForUpdate(ctx, line.AccountCode)
		if err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				return JournalEntry{}, fmt.Errorf("%w: %s", ErrAccountNotFound, line.AccountCode)
			}
			return JournalEntry{}, err
		}
		if !acct.IsActive {
			return JournalEntry{}, fmt.Errorf("%w: %s", ErrAccountInactive, acct.Code)
		}
		newBalance := shared.Round2(acct.CurrentBalance + SignedDelta(acct.Type, line.Debit, line.Credit))
		row, err := tx.InsertLedgerRow(ctx, LedgerRow{
			EntryID:   entry.ID,
			AccountID: acct.ID,
			PeriodID:  period.ID,
			Date:      input.Date,
			Debit:     line.Debit,
			Credit:    line.Credit,
			Balance:   newBalance,
		})
		if err != nil {
			return JournalEntry{}, err
		}
		if err := tx.UpdateAccountBalance(ctx, acct.ID, newBalance); err != nil {
			return JournalEntry{}, err
		}
		entry.Rows = append(entry.Rows, row)
	}
	return entry, nil
}

// dateInClosedPeriod reports whether the date falls inside a bookkeeping
// period that has been closed, so the caller can reject the posting with a
// more precise error than a plain range miss.
func (s *Service) dateInClosedPeriod(ctx context.Context, tx TxRepository, date time.Time) bool {
	covering, err := tx.PeriodCovering(ctx, date)
	return err == nil && covering.Status == PeriodStatusClosed
}

// ReverseInput wraps parameters for reversing a posted entry.
type ReverseInput struct {
	EntryID int64
	ActorID int64
	Memo    string
	Date    *time.Time
}

// ReverseEntry posts an offsetting entry and marks the original REVERSED.
func (s *Service) ReverseEntry(ctx context.Context, input ReverseInput) (JournalEntry, error) {
	if input.EntryID == 0 {
		return JournalEntry{}, errors.New("ledger: entry id required")
	}
	var reversal JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetEntryWithRows(ctx, input.EntryID)
		if err != nil {
			return err
		}
		if original.Status != EntryStatusPosted {
			return ErrAlreadyReversed
		}
		if err := tx.MarkEntryReversed(ctx, original.ID); err != nil {
			return err
		}
		date := s.now()
		if input.Date != nil {
			date = *input.Date
		}
		memo := input.Memo
		if memo == "" {
			memo = fmt.Sprintf("Reversal of %s", original.Code)
		}
		lines, err := swapSides(ctx, tx, original.Rows)
		if err != nil {
			return err
		}
		posting := PostingInput{
			Date:          date,
			Memo:          memo,
			ReferenceType: original.ReferenceType + ":reversal",
			ReferenceID:   uuid.New(),
			PostedBy:      input.ActorID,
			Lines:         lines,
		}
		reversal, err = s.PostIn(ctx, tx, posting)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.recordAudit(ctx, input.ActorID, "ledger.reverse", reversal)
	return reversal, nil
}

func swapSides(ctx context.Context, tx TxRepository, rows []LedgerRow) ([]PostingLine, error) {
	out := make([]PostingLine, 0, len(rows))
	for _, row := range rows {
		acct, err := tx.GetAccountForUpdate(ctx, row.AccountID)
		if err != nil {
			return nil, err
		}
		out = append(out, PostingLine{AccountCode: acct.Code, Debit: row.Credit, Credit: row.Debit})
	}
	return out, nil
}

// GetEntry loads one journal entry with its ledger rows.
func (s *Service) GetEntry(ctx context.Context, entryID int64) (JournalEntry, error) {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = tx.GetEntryWithRows(ctx, entryID)
		return err
	})
	return entry, err
}

// ListEntries retrieves journal entries newest first.
func (s *Service) ListEntries(ctx context.Context, page shared.Pagination) ([]JournalEntry, error) {
	var entries []JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entries, err = tx.ListEntries(ctx, page.PerPage, page.Offset())
		return err
	})
	return entries, err
}

// AccountLedger lists the general-ledger rows of one account, newest first.
func (s *Service) AccountLedger(ctx context.Context, accountID int64, page shared.Pagination) ([]LedgerRow, shared.Pagination, error) {
	var rows []LedgerRow
	var total int
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		rows, total, err = tx.ListLedgerRows(ctx, accountID, page.PerPage, page.Offset())
		return err
	})
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return rows, shared.NewPagination(page.Page, page.PerPage, total), nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entry JournalEntry) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: fmt.Sprintf("%d", entry.ID),
		Meta: map[string]any{
			"code":           entry.Code,
			"reference_type": entry.ReferenceType,
			"reference_id":   entry.ReferenceID.String(),
		},
		At: s.now(),
	})
}
