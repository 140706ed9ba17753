package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/erazemk/lostfound/internal/kv"
	"github.com/erazemk/lostfound/internal/model"
)

// SessionKey is the slot holding the active user.
const SessionKey = "session"

// SessionStore persists the single active user of a local (CLI) session.
type SessionStore struct {
	kv  kv.Store
	log *zap.Logger
}

// NewSessionStore creates a session store over s.
func NewSessionStore(s kv.Store, log *zap.Logger) *SessionStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionStore{kv: s, log: log}
}

// Load returns the active user, or nil when nobody is logged in. A corrupt
// record is removed and treated as logged out.
func (s *SessionStore) Load(ctx context.Context) (*model.User, error) {
	data, err := s.kv.Get(ctx, SessionKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var u model.User
	if err := json.Unmarshal(data, &u); err != nil || u.ID == "" {
		s.log.Warn("stored session is unreadable, clearing it", zap.Error(err))
		if err := s.kv.Delete(ctx, SessionKey); err != nil {
			return nil, fmt.Errorf("clearing session: %w", err)
		}
		return nil, nil
	}
	return &u, nil
}

// Save makes u the active user.
func (s *SessionStore) Save(ctx context.Context, u model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.kv.Put(ctx, SessionKey, data); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Clear logs the active user out.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, SessionKey); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
