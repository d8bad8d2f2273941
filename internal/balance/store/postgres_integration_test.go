//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veilpay/internal/balance/models"
	"veilpay/internal/balance/store"
	"veilpay/internal/platform/postgres"
	"veilpay/pkg/domain"
	"veilpay/pkg/platform/sentinel"
	"veilpay/pkg/platform/tx"
	"veilpay/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg     *containers.PostgresContainer
	store  *store.Postgres
	runner *tx.Runner
	ctx    context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(postgres.EnsureSchema(s.ctx, s.pg.DB))
	s.store = store.NewPostgres(s.pg.DB)
	s.runner = tx.NewRunner(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(s.ctx, "TRUNCATE balance_accounts")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newAccount(seed byte) *models.Account {
	var addr domain.Address
	var commitment [32]byte
	for i := range addr {
		addr[i] = seed
		commitment[i] = seed ^ 0xFF
	}
	return models.New(addr, commitment, 254, time.Now().UTC())
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	account := s.newAccount(0x01)
	s.Require().NoError(s.store.Create(s.ctx, account))
	s.ErrorIs(s.store.Create(s.ctx, account), sentinel.ErrAlreadyExists)

	found, err := s.store.FindByAddress(s.ctx, account.Address)
	s.Require().NoError(err)
	s.Equal(account.OwnerCommitment, found.OwnerCommitment)
	s.Equal(account.Bump, found.Bump)

	_, err = s.store.FindByAddress(s.ctx, s.newAccount(0x02).Address)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExecutePairCommits() {
	a := s.newAccount(0x10)
	b := s.newAccount(0x11)
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.Require().NoError(s.store.Create(s.ctx, b))

	err := s.runner.RunInTx(s.ctx, func(txCtx context.Context) error {
		_, _, err := s.store.ExecutePair(txCtx, a.Address, b.Address,
			func(first, second *models.Account) error {
				first.Nonce++
				second.Nonce++
				return nil
			})
		return err
	})
	s.Require().NoError(err)

	stored, err := s.store.FindByAddress(s.ctx, a.Address)
	s.Require().NoError(err)
	s.Equal(uint64(1), stored.Nonce)
}

func (s *PostgresStoreSuite) TestExecutePairRollsBack() {
	a := s.newAccount(0x20)
	b := s.newAccount(0x21)
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.Require().NoError(s.store.Create(s.ctx, b))

	boom := errors.New("validation failed")
	err := s.runner.RunInTx(s.ctx, func(txCtx context.Context) error {
		_, _, err := s.store.ExecutePair(txCtx, a.Address, b.Address,
			func(first, second *models.Account) error {
				first.Nonce = 99
				second.Nonce = 99
				return boom
			})
		return err
	})
	s.Require().ErrorIs(err, boom)

	stored, err := s.store.FindByAddress(s.ctx, a.Address)
	s.Require().NoError(err)
	s.Equal(uint64(0), stored.Nonce)
}

func (s *PostgresStoreSuite) TestExecutePairRequiresTransaction() {
	a := s.newAccount(0x30)
	_, _, err := s.store.ExecutePair(s.ctx, a.Address, a.Address,
		func(first, second *models.Account) error { return nil })
	s.Error(err)
}

// Opposite-direction pairs lock rows in address order, so concurrent
// transfers serialize instead of deadlocking.
func (s *PostgresStoreSuite) TestExecutePairConcurrentOppositeDirections() {
	a := s.newAccount(0x40)
	b := s.newAccount(0x41)
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.Require().NoError(s.store.Create(s.ctx, b))

	const rounds = 10
	var wg sync.WaitGroup
	wg.Add(2)
	run := func(first, second domain.Address) {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			err := s.runner.RunInTx(s.ctx, func(txCtx context.Context) error {
				_, _, err := s.store.ExecutePair(txCtx, first, second,
					func(fst, snd *models.Account) error {
						fst.Nonce++
						snd.Nonce++
						return nil
					})
				return err
			})
			s.NoError(err)
		}
	}
	go run(a.Address, b.Address)
	go run(b.Address, a.Address)
	wg.Wait()

	stored, err := s.store.FindByAddress(s.ctx, a.Address)
	s.Require().NoError(err)
	s.Equal(uint64(2*rounds), stored.Nonce)
}
