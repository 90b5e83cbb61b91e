package valkey

import (
	"context"

	"github.com/valkey-io/valkey-go"
)

// SessionStore implements ports.SessionStore as a Valkey hash, one per kiosk.
type SessionStore struct {
	client valkey.Client
	key    string
}

// NewSessionStore keeps the session of deviceID under "absensi:session:<deviceID>".
func NewSessionStore(client valkey.Client, deviceID string) *SessionStore {
	return &SessionStore{client: client, key: "absensi:session:" + deviceID}
}

func (s *SessionStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Do(ctx, s.client.B().Hget().Key(s.key).Field(key).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return "", nil
	}
	return v, err
}

func (s *SessionStore) Set(ctx context.Context, key, value string) error {
	return s.client.Do(ctx, s.client.B().Hset().Key(s.key).FieldValue().FieldValue(key, value).Build()).Error()
}

func (s *SessionStore) Clear(ctx context.Context, key string) error {
	return s.client.Do(ctx, s.client.B().Hdel().Key(s.key).Field(key).Build()).Error()
}
