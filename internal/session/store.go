package session

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	roomKeyPrefix = "atomic:session:"
	idKeyPrefix   = "atomic:session:id:"
)

func roomKey(room string) string { return roomKeyPrefix + strings.TrimSpace(room) }
func idKey(id string) string     { return idKeyPrefix + strings.TrimSpace(id) }

// Store reads and writes sessions as JSON values under the room key, with a
// secondary id key so a session can be found by its id alone. Both keys share
// one TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// TTL returns the expiry applied to stored sessions.
func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) Save(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, roomKey(sess.Room), raw, s.ttl).Err(); err != nil {
		return err
	}
	return s.rdb.Set(ctx, idKey(sess.ID), sess.Room, s.ttl).Err()
}

// Create writes the session only when the room key is free.
func (s *Store) Create(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, roomKey(sess.Room), raw, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionExists
	}
	return s.rdb.Set(ctx, idKey(sess.ID), sess.Room, s.ttl).Err()
}

func (s *Store) Load(ctx context.Context, room string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, roomKey(room)).Bytes()
	if err == redis.Nil {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Store) LoadByID(ctx context.Context, id string) (*Session, error) {
	room, err := s.rdb.Get(ctx, idKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	return s.Load(ctx, room)
}

func (s *Store) Delete(ctx context.Context, sess *Session) error {
	return s.rdb.Del(ctx, roomKey(sess.Room), idKey(sess.ID)).Err()
}

// Touch pushes both key TTLs forward without rewriting the value.
func (s *Store) Touch(ctx context.Context, sess *Session) error {
	if err := s.rdb.Expire(ctx, roomKey(sess.Room), s.ttl).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, idKey(sess.ID), s.ttl).Err()
}
