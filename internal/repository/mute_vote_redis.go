package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/chatwarden/chatwarden-backend/pkg/cache"
	"github.com/redis/go-redis/v9"
)

const muteVoteKeyPrefix = cache.PrefixRoot + "mutevotes:"

// addMuteVoteScript atomically rejects a live vote by the same voter, otherwise (re)records it.
// Scores are unix milliseconds.
var addMuteVoteScript = redis.NewScript(`
local key = KEYS[1]
local voter = ARGV[1]
local now = tonumber(ARGV[2])
local stale_before = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local score = redis.call('ZSCORE', key, voter)
if score and tonumber(score) > stale_before then
    return 0
end

redis.call('ZADD', key, now, voter)
redis.call('PEXPIRE', key, ttl)
return 1
`)

// redisMuteVoteStore Redis ZSET 기반 투표 저장소 (대상별 키, member=투표자, score=시각)
type redisMuteVoteStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMuteVoteStore creates a MuteVoteStore on redis sorted sets.
// Keys expire ttl after their last vote.
func NewRedisMuteVoteStore(client *redis.Client, ttl time.Duration) MuteVoteStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisMuteVoteStore{client: client, ttl: ttl}
}

func muteVoteKey(target int64) string {
	return muteVoteKeyPrefix + domain.EscalationKey{Target: target}.String()
}

func (s *redisMuteVoteStore) Add(ctx context.Context, vote domain.MuteVote, staleBefore time.Time) (bool, error) {
	added, err := addMuteVoteScript.Run(ctx, s.client,
		[]string{muteVoteKey(vote.TargetID)},
		strconv.FormatInt(vote.VoterID, 10),
		vote.CreatedAt.UnixMilli(),
		staleBefore.UnixMilli(),
		s.ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, err
	}
	return added == 1, nil
}

func (s *redisMuteVoteStore) Count(ctx context.Context, target int64, since time.Time) (int64, error) {
	// "(" 접두사: since 초과 (exclusive)
	return s.client.ZCount(ctx, muteVoteKey(target),
		"("+strconv.FormatInt(since.UnixMilli(), 10), "+inf",
	).Result()
}

func (s *redisMuteVoteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	max := strconv.FormatInt(cutoff.UnixMilli(), 10)
	iter := s.client.Scan(ctx, 0, muteVoteKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := s.client.ZRemRangeByScore(ctx, iter.Val(), "-inf", max).Result()
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, iter.Err()
}
