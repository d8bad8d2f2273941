package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"veilpay/internal/balance/models"
	"veilpay/internal/cspl"
	"veilpay/pkg/domain"
	"veilpay/pkg/platform/sentinel"
	"veilpay/pkg/platform/tx"
)

// Postgres persists balance accounts. ExecutePair relies on being run inside
// a transaction (pkg/platform/tx): it locks both rows with SELECT ... FOR
// UPDATE in address order, so two transfers touching the same pair serialize
// instead of deadlocking, and a rollback undoes every write.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, account *models.Account) error {
	q := tx.QuerierFrom(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO balance_accounts (address, owner_commitment, encrypted_balance, nonce, bump, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		account.Address[:], account.OwnerCommitment[:], account.EncryptedBalance[:],
		int64(account.Nonce), int16(account.Bump), account.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create balance account: %w", err)
	}
	return nil
}

func (s *Postgres) FindByAddress(ctx context.Context, addr domain.Address) (*models.Account, error) {
	row := tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT address, owner_commitment, encrypted_balance, nonce, bump, created_at
		FROM balance_accounts
		WHERE address = $1`, addr[:])
	return scanAccount(row)
}

// ExecutePair loads and locks both accounts, runs fn on the copies, and
// writes both back when fn succeeds. Missing accounts are passed as nil; fn
// decides what that means. Must be called inside a transaction.
func (s *Postgres) ExecutePair(
	ctx context.Context,
	first, second domain.Address,
	fn func(first, second *models.Account) error,
) (*models.Account, *models.Account, error) {
	if _, ok := tx.From(ctx); !ok {
		return nil, nil, fmt.Errorf("execute pair: no transaction in context")
	}

	// Lock in address order regardless of transfer direction.
	lo, hi := first, second
	if hi.Less(lo) {
		lo, hi = hi, lo
	}
	loAcc, err := s.findForUpdate(ctx, lo)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, err
	}
	hiAcc, err := s.findForUpdate(ctx, hi)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, err
	}

	a, b := loAcc, hiAcc
	if first != lo {
		a, b = hiAcc, loAcc
	}

	if err := fn(a, b); err != nil {
		return nil, nil, err
	}
	if a == nil || b == nil {
		return nil, nil, sentinel.ErrNotFound
	}

	if err := s.update(ctx, a); err != nil {
		return nil, nil, err
	}
	if err := s.update(ctx, b); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func (s *Postgres) findForUpdate(ctx context.Context, addr domain.Address) (*models.Account, error) {
	row := tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT address, owner_commitment, encrypted_balance, nonce, bump, created_at
		FROM balance_accounts
		WHERE address = $1
		FOR UPDATE`, addr[:])
	return scanAccount(row)
}

func (s *Postgres) update(ctx context.Context, account *models.Account) error {
	q := tx.QuerierFrom(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		UPDATE balance_accounts
		SET encrypted_balance = $2, nonce = $3
		WHERE address = $1`,
		account.Address[:], account.EncryptedBalance[:], int64(account.Nonce),
	)
	if err != nil {
		return fmt.Errorf("update balance account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update balance account: %w", err)
	}
	if affected != 1 {
		return sentinel.ErrStaleRead
	}
	return nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var account models.Account
	var addr, commitment, encrypted []byte
	var nonce int64
	var bump int16
	err := row.Scan(&addr, &commitment, &encrypted, &nonce, &bump, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan balance account: %w", err)
	}
	copy(account.Address[:], addr)
	copy(account.OwnerCommitment[:], commitment)
	ct, err := cspl.CiphertextFromBytes(encrypted)
	if err != nil {
		return nil, fmt.Errorf("scan balance account: %w", err)
	}
	account.EncryptedBalance = ct
	account.Nonce = uint64(nonce)
	account.Bump = uint8(bump)
	return &account, nil
}
