package score

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "glow"

// RedisSink mantém o ranking por tipo de jogo num sorted set e os contadores
// de vitória/derrota/empate de cada participante num hash.
type RedisSink struct {
	rdb *redis.Client
}

func NewRedisSink(ctx context.Context, url string) (*RedisSink, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	s := NewRedisSinkFromClient(redis.NewClient(opt))
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func NewRedisSinkFromClient(rdb *redis.Client) *RedisSink {
	return &RedisSink{rdb: rdb}
}

func (s *RedisSink) Name() string { return "redis" }

func LeaderboardKey(gameType string) string {
	return fmt.Sprintf("%s:leaderboard:%s", redisKeyPrefix, gameType)
}

func StatsKey(gameType, participant string) string {
	return fmt.Sprintf("%s:stats:%s:%s", redisKeyPrefix, gameType, participant)
}

func (s *RedisSink) Record(ctx context.Context, r Report) error {
	pipe := s.rdb.TxPipeline()
	pipe.ZIncrBy(ctx, LeaderboardKey(r.GameType), float64(r.Score), r.ParticipantID)
	statsKey := StatsKey(r.GameType, r.ParticipantID)
	pipe.HIncrBy(ctx, statsKey, string(r.Outcome), 1)
	pipe.HIncrBy(ctx, statsKey, "played", 1)
	pipe.HSet(ctx, statsKey, "last_session", r.SessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "redis pipeline")
	}
	return nil
}

func (s *RedisSink) Ping(ctx context.Context) error {
	return errors.Wrap(s.rdb.Ping(ctx).Err(), "redis ping")
}

func (s *RedisSink) Close() error {
	return s.rdb.Close()
}
