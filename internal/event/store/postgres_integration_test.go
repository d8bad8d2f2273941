//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"veilpay/internal/event"
	"veilpay/internal/event/store"
	"veilpay/internal/platform/postgres"
	"veilpay/pkg/platform/tx"
	"veilpay/pkg/testutil/containers"
)

type PostgresEventSuite struct {
	suite.Suite
	pg     *containers.PostgresContainer
	store  *store.Postgres
	runner *tx.Runner
	ctx    context.Context
}

func TestPostgresEventSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresEventSuite))
}

func (s *PostgresEventSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(postgres.EnsureSchema(s.ctx, s.pg.DB))
	s.store = store.NewPostgres(s.pg.DB)
	s.runner = tx.NewRunner(s.pg.DB)
}

func (s *PostgresEventSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(s.ctx, "TRUNCATE veilpay_events RESTART IDENTITY")
	s.Require().NoError(err)
}

func (s *PostgresEventSuite) TestAppendAssignsCommitSequence() {
	first := event.NewPrivateTransfer([32]byte{1}, [32]byte{2}, 254, time.Now().UTC())
	second := event.NewPrivateTransfer([32]byte{3}, [32]byte{4}, 254, time.Now().UTC())

	s.Require().NoError(s.store.Append(s.ctx, first))
	s.Require().NoError(s.store.Append(s.ctx, second))
	s.Less(first.Seq, second.Seq)

	recent, err := s.store.ListRecent(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(recent, 2)
	s.Equal(second.ID, recent[0].ID)
	s.Equal(event.TypeTransfer, recent[0].EventType)
}

// An event appended inside a rolled-back transaction must not exist: emission
// is coupled to commit.
func (s *PostgresEventSuite) TestAppendRollsBackWithTransaction() {
	boom := errors.New("mutation failed")
	err := s.runner.RunInTx(s.ctx, func(txCtx context.Context) error {
		ev := event.NewBalanceInitialized([32]byte{5}, time.Now().UTC())
		if err := s.store.Append(txCtx, ev); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	recent, err := s.store.ListRecent(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(recent)
}

func (s *PostgresEventSuite) TestOutboxLifecycle() {
	events := make([]*event.Event, 3)
	for i := range events {
		events[i] = event.NewBalanceInitialized([32]byte{byte(i)}, time.Now().UTC())
		s.Require().NoError(s.store.Append(s.ctx, events[i]))
	}

	pending, err := s.store.Unpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 3)
	s.Equal(events[0].ID, pending[0].ID)

	s.Require().NoError(s.store.MarkPublished(s.ctx, []uuid.UUID{events[0].ID, events[1].ID}))

	pending, err = s.store.Unpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(events[2].ID, pending[0].ID)
}
