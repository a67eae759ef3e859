package ledger

import (
	"context"

	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// The ledger is the source of truth; current_balance on each account is a
// maintained projection. Reconcile recomputes the projection from history and
// repairs any drift introduced out of band.

// RecomputeBalance rebuilds one account's projected balance as
// opening_balance plus the signed sum of its ledger rows.
func (s *Service) RecomputeBalance(ctx context.Context, accountID int64) (ReconcileResult, error) {
	return s.reconcileAccount(ctx, accountID, true)
}

// CheckBalance reports drift without repairing it.
func (s *Service) CheckBalance(ctx context.Context, accountID int64) (ReconcileResult, error) {
	return s.reconcileAccount(ctx, accountID, false)
}

func (s *Service) reconcileAccount(ctx context.Context, accountID int64, repair bool) (ReconcileResult, error) {
	var result ReconcileResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		acct, err := tx.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		delta, err := tx.SumLedgerDeltas(ctx, accountID)
		if err != nil {
			return err
		}
		computed := shared.Round2(acct.OpeningBalance + delta)
		result = ReconcileResult{
			AccountID: acct.ID,
			Code:      acct.Code,
			Stored:    acct.CurrentBalance,
			Computed:  computed,
		}
		if repair && computed != acct.CurrentBalance {
			if err := tx.UpdateAccountBalance(ctx, acct.ID, computed); err != nil {
				return err
			}
			result.Repaired = true
		}
		return nil
	})
	return result, err
}

// AccountIDs lists every account id, for reconciliation fan-out.
func (s *Service) AccountIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		ids, err = tx.ListAccountIDs(ctx)
		return err
	})
	return ids, err
}

// PeriodIntegrity returns total debits and credits posted in a period. A
// healthy ledger has them equal.
func (s *Service) PeriodIntegrity(ctx context.Context, periodID int64) (debit, credit float64, err error) {
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var txErr error
		debit, credit, txErr = tx.PeriodTotals(ctx, periodID)
		return txErr
	})
	return debit, credit, err
}
