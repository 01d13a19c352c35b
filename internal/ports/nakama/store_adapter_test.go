package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"coup/internal/domain"
	"coup/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// fakeStorage implements storageClient over a map with version counters.
type fakeStorage struct {
	objects  map[string]*api.StorageObject
	failWith error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]*api.StorageObject{}}
}

func storageKey(collection, key string) string {
	return collection + "/" + key
}

func (f *fakeStorage) StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []*api.StorageObject
	for _, r := range reads {
		if obj, ok := f.objects[storageKey(r.Collection, r.Key)]; ok {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (f *fakeStorage) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var acks []*api.StorageObjectAck
	for i, w := range writes {
		key := storageKey(w.Collection, w.Key)
		existing := f.objects[key]
		if w.Version != "" && w.Version != "*" {
			if existing == nil || existing.Version != w.Version {
				return nil, runtime.ErrStorageRejectedVersion
			}
		}
		if w.Version == "*" && existing != nil {
			return nil, runtime.ErrStorageRejectedVersion
		}
		newVersion := fmt.Sprintf("v%d-%d", len(f.objects), i)
		if existing != nil {
			newVersion = existing.Version + "'"
		}
		f.objects[key] = &api.StorageObject{
			Collection: w.Collection,
			Key:        w.Key,
			Value:      w.Value,
			Version:    newVersion,
		}
		acks = append(acks, &api.StorageObjectAck{
			Collection: w.Collection,
			Key:        w.Key,
			Version:    newVersion,
		})
	}
	return acks, nil
}

func (f *fakeStorage) StorageDelete(ctx context.Context, deletes []*runtime.StorageDelete) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, d := range deletes {
		delete(f.objects, storageKey(d.Collection, d.Key))
	}
	return nil
}

func TestSessionStoreRoundTrip(t *testing.T) {
	storage := newFakeStorage()
	store := NewNakamaSessionStore(storage)
	ctx := context.Background()

	sess := &domain.Session{
		ID:       "match-9",
		JoinCode: "XYZ123",
		Phase:    domain.PhaseLobby,
		Capacity: 4,
		Players:  []*domain.Player{{UserID: "u1", DisplayName: "one", Connected: true}},
	}

	version, err := store.Save(ctx, sess, "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if version == "" {
		t.Fatal("expected a version token")
	}

	loaded, loadedVersion, err := store.Load(ctx, "match-9")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loadedVersion != version {
		t.Fatalf("version = %q, want %q", loadedVersion, version)
	}
	if loaded.JoinCode != "XYZ123" || len(loaded.Players) != 1 || loaded.Players[0].UserID != "u1" {
		t.Fatalf("loaded session mismatch: %+v", loaded)
	}
}

func TestSessionStoreNotFound(t *testing.T) {
	store := NewNakamaSessionStore(newFakeStorage())
	_, _, err := store.Load(context.Background(), "missing")
	if !errors.Is(err, ports.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStoreVersionConflict(t *testing.T) {
	storage := newFakeStorage()
	store := NewNakamaSessionStore(storage)
	ctx := context.Background()

	sess := &domain.Session{ID: "match-9", Phase: domain.PhaseLobby}
	v1, err := store.Save(ctx, sess, "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Save(ctx, sess, v1); err != nil {
		t.Fatalf("save with current version: %v", err)
	}

	// Stale version must surface as a conflict.
	_, err = store.Save(ctx, sess, v1)
	if !errors.Is(err, ports.ErrVersionConflict) {
		t.Fatalf("err = %v, want ErrVersionConflict", err)
	}
}

func TestSessionStoreDelete(t *testing.T) {
	storage := newFakeStorage()
	store := NewNakamaSessionStore(storage)
	ctx := context.Background()

	sess := &domain.Session{ID: "match-9", Phase: domain.PhaseLobby}
	if _, err := store.Save(ctx, sess, ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "match-9"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := store.Load(ctx, "match-9"); !errors.Is(err, ports.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound after delete", err)
	}
}

func TestSessionStoreSerializesFullState(t *testing.T) {
	// The stored value must survive a JSON round trip including pending
	// resolutions, so a node restart can resume mid-action.
	sess := &domain.Session{
		ID:    "match-9",
		Phase: domain.PhaseInProgress,
		Pending: &domain.PendingResolution{
			Kind:        domain.ResolutionAwaitingResponses,
			Generation:  3,
			Action:      domain.ActionTax,
			InitiatorID: "u1",
			Responses:   map[string]domain.ResponseType{"u2": domain.ResponsePass},
			Deadline:    42,
		},
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back domain.Session
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Pending == nil || back.Pending.Generation != 3 || back.Pending.Deadline != 42 {
		t.Fatalf("pending lost in round trip: %+v", back.Pending)
	}
	if back.Pending.Responses["u2"] != domain.ResponsePass {
		t.Fatal("responses lost in round trip")
	}
}
