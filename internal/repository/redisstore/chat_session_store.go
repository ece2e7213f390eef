// Package redisstore keeps chat sessions in Redis so several server processes can
// share them. Each session is three keys (meta hash, transcript list, context
// hash) plus a member of two sorted sets: one ordered by creation time for
// listing and one ordered by last activity for the idle sweep. Keys expire
// after the retention window of inactivity.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dom/jumbah-travel/internal/domain"
	"github.com/dom/jumbah-travel/internal/repository"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "jumbah:chat:"

	fieldCreatedAt    = "created_at"
	fieldLastActivity = "last_activity"
)

// touchScript is the shared tail of the write scripts: stamp activity,
// re-score the activity index and refresh expiry of the three session keys.
// KEYS: meta, turns, context, activity. ARGV: last_activity, ttl millis,
// activity score, session id, ...
const touchScript = `
redis.call('HSET', KEYS[1], 'last_activity', ARGV[1])
redis.call('ZADD', KEYS[4], ARGV[3], ARGV[4])
local ttl = tonumber(ARGV[2])
if ttl > 0 then
	for i = 1, 3 do
		redis.call('PEXPIRE', KEYS[i], ttl)
	end
end
`

// appendScript pushes turns onto an existing session.
// ARGV after the touch arguments: turns...
var appendScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
for i = 5, #ARGV do
	redis.call('RPUSH', KEYS[2], ARGV[i])
end
` + touchScript + `
return 1
`)

// mergeScript overwrites top-level context fields and returns the full
// context hash. A missing session yields a nil reply.
// ARGV after the touch arguments: field, value...
var mergeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
for i = 5, #ARGV, 2 do
	redis.call('HSET', KEYS[3], ARGV[i], ARGV[i + 1])
end
` + touchScript + `
return redis.call('HGETALL', KEYS[3])
`)

// deleteIdleScript removes a session only if its activity score is still
// below the cutoff, so a session touched during the sweep survives. Returns
// 1 when a live session was removed.
// KEYS: meta, turns, context, activity, index. ARGV: session id, cutoff score.
var deleteIdleScript = redis.NewScript(`
local score = redis.call('ZSCORE', KEYS[4], ARGV[1])
if score and tonumber(score) >= tonumber(ARGV[2]) then
	return 0
end
local existed = redis.call('DEL', KEYS[1])
redis.call('DEL', KEYS[2], KEYS[3])
redis.call('ZREM', KEYS[4], ARGV[1])
redis.call('ZREM', KEYS[5], ARGV[1])
return existed
`)

type ChatSessionStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewChatSessionStore returns a store whose sessions expire after ttl without
// activity. A zero ttl keeps sessions until they are deleted.
func NewChatSessionStore(rdb redis.UniversalClient, ttl time.Duration) *ChatSessionStore {
	return &ChatSessionStore{
		rdb:    rdb,
		prefix: defaultPrefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

// NewClient parses a redis:// URL and checks the server is reachable.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (s *ChatSessionStore) indexKey() string           { return s.prefix + "index" }
func (s *ChatSessionStore) activityKey() string        { return s.prefix + "activity" }
func (s *ChatSessionStore) metaKey(id string) string    { return s.prefix + id + ":meta" }
func (s *ChatSessionStore) turnsKey(id string) string   { return s.prefix + id + ":turns" }
func (s *ChatSessionStore) contextKey(id string) string { return s.prefix + id + ":context" }

// scriptKeys is the KEYS layout shared by the write scripts.
func (s *ChatSessionStore) scriptKeys(id string) []string {
	return []string{s.metaKey(id), s.turnsKey(id), s.contextKey(id), s.activityKey(), s.indexKey()}
}

// score orders both indexes. Microseconds stay exact as a Redis double.
func score(t time.Time) float64 {
	return float64(t.UnixMicro())
}

// touchArgs are the leading ARGV of the write scripts.
func (s *ChatSessionStore) touchArgs(id string, extra int) []any {
	now := s.now().UTC()
	args := make([]any, 0, 4+extra)
	return append(args, now.Format(time.RFC3339Nano), s.ttl.Milliseconds(), score(now), id)
}

func (s *ChatSessionStore) Create(ctx context.Context) (*domain.ChatSession, error) {
	now := s.now().UTC()
	id := repository.NewSessionID()
	stamp := now.Format(time.RFC3339Nano)

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.metaKey(id), fieldCreatedAt, stamp, fieldLastActivity, stamp)
		if s.ttl > 0 {
			pipe.PExpire(ctx, s.metaKey(id), s.ttl)
		}
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: score(now), Member: id})
		pipe.ZAdd(ctx, s.activityKey(), redis.Z{Score: score(now), Member: id})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &domain.ChatSession{
		ID:           id,
		CreatedAt:    now,
		LastActivity: now,
		Transcript:   []domain.Turn{},
		Context:      map[string]any{},
	}, nil
}

func (s *ChatSessionStore) Get(ctx context.Context, id string) (*domain.ChatSession, error) {
	var (
		metaCmd  *redis.MapStringStringCmd
		turnsCmd *redis.StringSliceCmd
		ctxCmd   *redis.MapStringStringCmd
	)
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		metaCmd = pipe.HGetAll(ctx, s.metaKey(id))
		turnsCmd = pipe.LRange(ctx, s.turnsKey(id), 0, -1)
		ctxCmd = pipe.HGetAll(ctx, s.contextKey(id))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	meta := metaCmd.Val()
	if len(meta) == 0 {
		return nil, repository.ErrSessionNotFound
	}

	session := &domain.ChatSession{
		ID:         id,
		Transcript: make([]domain.Turn, 0, len(turnsCmd.Val())),
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339Nano, meta[fieldCreatedAt]); err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	if session.LastActivity, err = time.Parse(time.RFC3339Nano, meta[fieldLastActivity]); err != nil {
		return nil, fmt.Errorf("decode last_activity: %w", err)
	}

	for _, raw := range turnsCmd.Val() {
		var turn domain.Turn
		if err := json.Unmarshal([]byte(raw), &turn); err != nil {
			return nil, fmt.Errorf("decode turn: %w", err)
		}
		session.Transcript = append(session.Transcript, turn)
	}

	session.Context, err = decodeContext(ctxCmd.Val())
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatSessionStore) AppendTurns(ctx context.Context, id string, turns ...domain.Turn) error {
	args := s.touchArgs(id, len(turns))
	for _, turn := range turns {
		raw, err := json.Marshal(turn)
		if err != nil {
			return err
		}
		args = append(args, string(raw))
	}

	ok, err := appendScript.Run(ctx, s.rdb, s.scriptKeys(id), args...).Int()
	if err != nil {
		return fmt.Errorf("append turns: %w", err)
	}
	if ok == 0 {
		return repository.ErrSessionNotFound
	}
	return nil
}

func (s *ChatSessionStore) MergeContext(ctx context.Context, id string, patch map[string]any) (map[string]any, error) {
	args := s.touchArgs(id, 2*len(patch))
	for k, v := range patch {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode context %q: %w", k, err)
		}
		args = append(args, k, string(raw))
	}

	reply, err := mergeScript.Run(ctx, s.rdb, s.scriptKeys(id), args...).StringSlice()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("merge context: %w", err)
	}

	fields := make(map[string]string, len(reply)/2)
	for i := 0; i+1 < len(reply); i += 2 {
		fields[reply[i]] = reply[i+1]
	}
	return decodeContext(fields)
}

func (s *ChatSessionStore) Delete(ctx context.Context, id string) error {
	var metaDel *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		metaDel = pipe.Del(ctx, s.metaKey(id))
		pipe.Del(ctx, s.turnsKey(id), s.contextKey(id))
		pipe.ZRem(ctx, s.indexKey(), id)
		pipe.ZRem(ctx, s.activityKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if metaDel.Val() == 0 {
		return repository.ErrSessionNotFound
	}
	return nil
}

// List walks the creation index. Members whose keys have already expired are
// dropped from the index as a side effect.
func (s *ChatSessionStore) List(ctx context.Context) ([]domain.SessionSummary, error) {
	ids, err := s.rdb.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if len(ids) == 0 {
		return []domain.SessionSummary{}, nil
	}

	exists := make([]*redis.IntCmd, len(ids))
	lengths := make([]*redis.IntCmd, len(ids))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			exists[i] = pipe.Exists(ctx, s.metaKey(id))
			lengths[i] = pipe.LLen(ctx, s.turnsKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := make([]domain.SessionSummary, 0, len(ids))
	var expired []any
	for i, id := range ids {
		if exists[i].Val() == 0 {
			expired = append(expired, id)
			continue
		}
		out = append(out, domain.SessionSummary{ID: id, MessageCount: int(lengths[i].Val())})
	}

	if len(expired) > 0 {
		_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZRem(ctx, s.indexKey(), expired...)
			pipe.ZRem(ctx, s.activityKey(), expired...)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("prune index: %w", err)
		}
	}
	return out, nil
}

// DeleteIdleSince removes sessions idle since before cutoff, read straight off
// the activity index. Sessions that Redis already expired are pruned from the
// indexes but not counted.
func (s *ChatSessionStore) DeleteIdleSince(ctx context.Context, cutoff time.Time) (int, error) {
	limit := score(cutoff.UTC())
	ids, err := s.rdb.ZRangeByScore(ctx, s.activityKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatFloat(limit, 'f', -1, 64),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("scan sessions: %w", err)
	}

	deleted := 0
	for _, id := range ids {
		n, err := deleteIdleScript.Run(ctx, s.rdb, s.scriptKeys(id), id, limit).Int()
		if err != nil {
			return deleted, fmt.Errorf("delete idle session: %w", err)
		}
		deleted += n
	}
	return deleted, nil
}

func decodeContext(fields map[string]string) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, raw := range fields {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decode context %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

var _ repository.ChatSessionStore = (*ChatSessionStore)(nil)
