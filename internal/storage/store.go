package storage

import (
	"context"
	"encoding/json"
	"errors"

	"article-batch-service/internal/entity"
)

// Store persists batch snapshots and requests as JSON through a Gateway.
type Store struct {
	gw   Gateway
	keys Keys
}

func NewStore(gw Gateway, keys Keys) *Store {
	if keys.Snapshot == "" || keys.Request == "" {
		keys = NewKeys("")
	}
	return &Store{gw: gw, keys: keys}
}

func (s *Store) Keys() Keys {
	return s.keys
}

func (s *Store) SaveSnapshot(ctx context.Context, snap entity.BatchSnapshot) error {
	return s.save(ctx, s.keys.Snapshot, snap)
}

func (s *Store) SaveRequest(ctx context.Context, req entity.BatchRequest) error {
	return s.save(ctx, s.keys.Request, req)
}

// LoadSnapshot returns ok=false when nothing is stored. A record that
// cannot be decoded yields an error wrapping ErrCorrupt.
func (s *Store) LoadSnapshot(ctx context.Context) (entity.BatchSnapshot, bool, error) {
	var snap entity.BatchSnapshot
	ok, err := s.load(ctx, s.keys.Snapshot, &snap)
	if err != nil || !ok {
		return entity.BatchSnapshot{}, ok, err
	}
	if err := checkSnapshot(snap); err != nil {
		return entity.BatchSnapshot{}, false, &PersistenceError{Op: "decode", Key: s.keys.Snapshot, Err: err}
	}
	return snap, true, nil
}

func (s *Store) LoadRequest(ctx context.Context) (entity.BatchRequest, bool, error) {
	var req entity.BatchRequest
	ok, err := s.load(ctx, s.keys.Request, &req)
	if err != nil || !ok {
		return entity.BatchRequest{}, ok, err
	}
	return req, true, nil
}

// Purge removes both records. Both removals are attempted.
func (s *Store) Purge(ctx context.Context) error {
	errSnap := s.remove(ctx, s.keys.Snapshot)
	errReq := s.remove(ctx, s.keys.Request)
	return errors.Join(errSnap, errReq)
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &PersistenceError{Op: "encode", Key: key, Err: err}
	}
	if err := s.gw.Set(ctx, key, string(data)); err != nil {
		return &PersistenceError{Op: "write", Key: key, Err: err}
	}
	return nil
}

func (s *Store) load(ctx context.Context, key string, v any) (bool, error) {
	raw, ok, err := s.gw.Get(ctx, key)
	if err != nil {
		return false, &PersistenceError{Op: "read", Key: key, Err: err}
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, &PersistenceError{Op: "decode", Key: key, Err: errors.Join(ErrCorrupt, err)}
	}
	return true, nil
}

func (s *Store) remove(ctx context.Context, key string) error {
	if err := s.gw.Remove(ctx, key); err != nil {
		return &PersistenceError{Op: "remove", Key: key, Err: err}
	}
	return nil
}

// checkSnapshot rejects records that decode but cannot be a snapshot
// this service wrote.
func checkSnapshot(snap entity.BatchSnapshot) error {
	seen := make(map[string]struct{}, len(snap.Jobs))
	for _, j := range snap.Jobs {
		if j.ID == "" {
			return errors.Join(ErrCorrupt, errors.New("job without id"))
		}
		if _, dup := seen[j.ID]; dup {
			return errors.Join(ErrCorrupt, errors.New("duplicate job id "+j.ID))
		}
		seen[j.ID] = struct{}{}
		switch j.Status {
		case entity.StatusPending, entity.StatusProcessing, entity.StatusCompleted, entity.StatusFailed:
		default:
			return errors.Join(ErrCorrupt, errors.New("unknown job status "+string(j.Status)))
		}
	}
	return nil
}
