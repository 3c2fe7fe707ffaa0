package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

// SessionHolder keeps a snapshot of the signed-in user. The snapshot is not
// refreshed when the stored user record changes.
type SessionHolder struct {
	kv  ports.KeyValueStore
	key string
}

// NewSessionHolder returns a SessionHolder over kv.
func NewSessionHolder(kv ports.KeyValueStore, namespace string) *SessionHolder {
	return &SessionHolder{kv: kv, key: Key(namespace, currentUserKey)}
}

// Current returns the signed-in user, or nil when nobody is signed in.
func (s *SessionHolder) Current(ctx context.Context) (*domain.User, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	if !ok || raw == "null" {
		return nil, nil
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptRecord, s.key, err)
	}
	return &u, nil
}

// SetCurrent stores user as the signed-in user. A nil user clears the key.
func (s *SessionHolder) SetCurrent(ctx context.Context, user *domain.User) error {
	if user == nil {
		if err := s.kv.Delete(ctx, s.key); err != nil {
			return fmt.Errorf("clear %s: %w", s.key, err)
		}
		return nil
	}
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(b)); err != nil {
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}
