//go:build integration

package feed_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veilpay/internal/event"
	"veilpay/internal/event/feed"
	platformredis "veilpay/internal/platform/redis"
	"veilpay/pkg/testutil/containers"
)

type RedisFeedSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	feed  *feed.Redis
	ctx   context.Context
}

func TestRedisFeedSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisFeedSuite))
}

func (s *RedisFeedSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.GetManager().GetRedis(s.T())
	s.feed = feed.NewRedis(&platformredis.Client{Client: s.redis.Client}, 5)
}

func (s *RedisFeedSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisFeedSuite) push(n int, start uint64) {
	events := make([]*event.Event, 0, n)
	for i := 0; i < n; i++ {
		ev := event.NewBalanceInitialized([32]byte{byte(i)}, time.Now().UTC())
		ev.Seq = start + uint64(i)
		events = append(events, ev)
	}
	s.Require().NoError(s.feed.Push(s.ctx, events))
}

func (s *RedisFeedSuite) TestPushAndRecent() {
	s.push(3, 1)

	recent, err := s.feed.Recent(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(recent, 3)
	// Newest first.
	s.Equal(uint64(3), recent[0].Height)
	s.Equal(uint64(1), recent[2].Height)
}

func (s *RedisFeedSuite) TestCapEnforced() {
	s.push(5, 1)
	s.push(3, 6)

	recent, err := s.feed.Recent(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(recent, 5)
	s.Equal(uint64(8), recent[0].Height)
	s.Equal(uint64(4), recent[4].Height)
}

func (s *RedisFeedSuite) TestEmptyFeed() {
	recent, err := s.feed.Recent(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(recent)
}
