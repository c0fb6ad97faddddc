package score

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReports() []Report {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(40 * time.Second)
	base := Report{
		SessionID:  "tic-tac-toe-1-1",
		GameType:   "tic-tac-toe",
		Moves:      []int{4, 0, 1, 3, 7},
		StartedAt:  started,
		FinishedAt: finished,
	}
	win, loss := base, base
	win.ParticipantID, win.OpponentID, win.Outcome, win.Score = "p1", "p2", OutcomeWin, Points(OutcomeWin)
	loss.ParticipantID, loss.OpponentID, loss.Outcome, loss.Score = "p2", "p1", OutcomeLoss, Points(OutcomeLoss)
	return []Report{win, loss}
}

func TestPoints(t *testing.T) {
	assert.Equal(t, 3, Points(OutcomeWin))
	assert.Equal(t, 1, Points(OutcomeDraw))
	assert.Equal(t, 0, Points(OutcomeLoss))
}

func TestRedisSinkRecordsLeaderboardAndStats(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sink := NewRedisSinkFromClient(rdb)
	t.Cleanup(func() { _ = sink.Close() })

	ctx := context.Background()
	require.NoError(t, sink.Ping(ctx))
	for _, r := range sampleReports() {
		require.NoError(t, sink.Record(ctx, r))
	}
	// Segunda partida, empate.
	draw := sampleReports()[0]
	draw.SessionID = "tic-tac-toe-2-2"
	draw.Outcome, draw.Score = OutcomeDraw, Points(OutcomeDraw)
	require.NoError(t, sink.Record(ctx, draw))

	score, err := rdb.ZScore(ctx, LeaderboardKey("tic-tac-toe"), "p1").Result()
	require.NoError(t, err)
	assert.Equal(t, float64(4), score)

	score, err = rdb.ZScore(ctx, LeaderboardKey("tic-tac-toe"), "p2").Result()
	require.NoError(t, err)
	assert.Equal(t, float64(0), score)

	stats, err := rdb.HGetAll(ctx, StatsKey("tic-tac-toe", "p1")).Result()
	require.NoError(t, err)
	assert.Equal(t, "1", stats["win"])
	assert.Equal(t, "1", stats["draw"])
	assert.Equal(t, "2", stats["played"])
	assert.Equal(t, "tic-tac-toe-2-2", stats["last_session"])
}

func TestNewRedisSinkFailsOnBadURL(t *testing.T) {
	_, err := NewRedisSink(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestMongoDocumentShape(t *testing.T) {
	r := sampleReports()[0]
	doc := newScoreDocument(r)

	assert.Equal(t, "p1", doc.UserID)
	assert.Equal(t, "tic-tac-toe", doc.GameID)
	assert.Equal(t, 3, doc.Score)
	assert.Equal(t, "p2", doc.Metadata.Opponent)
	assert.Equal(t, "win", doc.Metadata.Result)
	assert.Equal(t, []int{4, 0, 1, 3, 7}, doc.Metadata.MoveHistory)
	assert.Equal(t, r.FinishedAt, doc.CreatedAt)

	doc.Metadata.MoveHistory[0] = 8
	assert.Equal(t, 4, r.Moves[0], "document must not alias the report moves")
}

type recordingSink struct {
	name string
	err  error

	mu      sync.Mutex
	got     []Report
	closed  bool
	arrived chan struct{}
}

func newRecordingSink(name string, err error) *recordingSink {
	return &recordingSink{name: name, err: err, arrived: make(chan struct{}, 16)}
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Record(_ context.Context, r Report) error {
	s.mu.Lock()
	s.got = append(s.got, r)
	s.mu.Unlock()
	s.arrived <- struct{}{}
	return s.err
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-s.arrived:
		case <-time.After(2 * time.Second):
			t.Fatalf("sink %s: got %d of %d reports", s.name, i, n)
		}
	}
}

func TestDispatcherFansOutToEverySink(t *testing.T) {
	ok := newRecordingSink("ok", nil)
	failing := newRecordingSink("failing", errors.New("boom"))

	d, err := NewDispatcher(2, time.Second, ok, failing)
	require.NoError(t, err)

	d.Report(sampleReports()...)
	ok.wait(t, 2)
	failing.wait(t, 2)

	require.NoError(t, d.Close())

	ok.mu.Lock()
	defer ok.mu.Unlock()
	require.Len(t, ok.got, 2)
	assert.Equal(t, "p1", ok.got[0].ParticipantID)
	assert.Equal(t, "p2", ok.got[1].ParticipantID)
	assert.True(t, ok.closed)
	assert.Len(t, failing.got, 2, "a failing sink does not stop delivery")
}

func TestDispatcherWithoutSinksIsNoop(t *testing.T) {
	d, err := NewDispatcher(1, time.Second)
	require.NoError(t, err)
	d.Report(sampleReports()...)
	assert.NoError(t, d.Close())
}
