package analytics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/freelanceflow/freelanceflow/internal/ledger"
)

// SnapshotReader reads a consistent view of one tenant.
type SnapshotReader interface {
	Snapshot(ctx context.Context, tenantID uuid.UUID) (ledger.Snapshot, error)
}

// flightTimeout bounds a shared snapshot read once it no longer follows
// any single caller's context.
const flightTimeout = 30 * time.Second

// Service coordinates dashboard computation with the cache layer.
type Service struct {
	reader SnapshotReader
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
}

// NewService wires a SnapshotReader with an optional Cache.
func NewService(reader SnapshotReader, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reader: reader, cache: cache, logger: logger}
}

// Dashboard returns the tenant's rollup. Concurrent calls for one tenant
// share a single snapshot read, which outlives the caller that started it;
// each caller still gives up when its own ctx is done.
func (s *Service) Dashboard(ctx context.Context, tenantID uuid.UUID) (Dashboard, error) {
	ch := s.group.DoChan(tenantID.String(), func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		return s.load(flightCtx, tenantID)
	})
	select {
	case <-ctx.Done():
		return Dashboard{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Dashboard{}, res.Err
		}
		return res.Val.(Dashboard), nil
	}
}

func (s *Service) load(ctx context.Context, tenantID uuid.UUID) (Dashboard, error) {
	compute := func(ctx context.Context) (any, error) {
		snap, err := s.reader.Snapshot(ctx, tenantID)
		if err != nil {
			return Dashboard{}, &ledger.PersistenceError{Op: "read snapshot", Err: err}
		}
		return Compute(snap), nil
	}

	if s.cache == nil {
		v, err := compute(ctx)
		if err != nil {
			return Dashboard{}, err
		}
		return v.(Dashboard), nil
	}

	key, err := s.cache.BuildKey(ctx, tenantID, "summary")
	if err == nil {
		var out Dashboard
		if err = s.cache.FetchJSON(ctx, key, &out, compute); err == nil {
			return out, nil
		}
		var perr *ledger.PersistenceError
		if errors.As(err, &perr) {
			return Dashboard{}, err
		}
	}
	s.logger.Warn("dashboard cache unavailable", slog.String("tenant_id", tenantID.String()), slog.Any("error", err))
	v, err := compute(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return v.(Dashboard), nil
}
