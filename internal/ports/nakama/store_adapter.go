package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"coup/internal/domain"
	"coup/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

const sessionCollection = "sessions"

// storageClient is the slice of runtime.NakamaModule the session store needs.
// Narrow on purpose so tests can fake it.
type storageClient interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
	StorageDelete(ctx context.Context, deletes []*runtime.StorageDelete) error
}

// NakamaSessionStore persists sessions in Nakama storage under a system-owned
// collection, using storage versions for optimistic concurrency.
type NakamaSessionStore struct {
	nk storageClient
}

func NewNakamaSessionStore(nk storageClient) *NakamaSessionStore {
	return &NakamaSessionStore{nk: nk}
}

func (s *NakamaSessionStore) Load(ctx context.Context, sessionID string) (*domain.Session, string, error) {
	objects, err := s.nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: sessionCollection, Key: sessionID},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}
	if len(objects) == 0 {
		return nil, "", ports.ErrSessionNotFound
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &sess); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}
	return &sess, objects[0].GetVersion(), nil
}

// Save writes the session, enforcing the caller's expected version. An empty
// expectedVersion means "create or overwrite".
func (s *NakamaSessionStore) Save(ctx context.Context, sess *domain.Session, expectedVersion string) (string, error) {
	value, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session %s: %w", sess.ID, err)
	}

	acks, err := s.nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      sessionCollection,
			Key:             sess.ID,
			Value:           string(value),
			Version:         expectedVersion,
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	})
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return "", ports.ErrVersionConflict
		}
		return "", fmt.Errorf("failed to write session %s: %w", sess.ID, err)
	}
	if len(acks) == 0 {
		return "", fmt.Errorf("no ack for session write %s", sess.ID)
	}
	return acks[0].GetVersion(), nil
}

func (s *NakamaSessionStore) Delete(ctx context.Context, sessionID string) error {
	err := s.nk.StorageDelete(ctx, []*runtime.StorageDelete{
		{Collection: sessionCollection, Key: sessionID},
	})
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

var _ ports.SessionStore = (*NakamaSessionStore)(nil)
