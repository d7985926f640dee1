package service

import (
	"context"
	"fmt"

	"github.com/hyttebook/backend/internal/observability/metrics"
)

// resolveSlug probes the store for base, then base-1, base-2, ... until a
// free candidate is found. excludeID > 0 skips the record being renamed so a
// no-op rename never collides with itself. An empty base is a valid
// candidate; the suffix rule applies to it the same way.
//
// The returned slug is unique at the instant of the probe only. The unique
// index on cabins.slug is the actual guarantee; callers retry on conflict.
func (s *CabinService) resolveSlug(ctx context.Context, base string, excludeID int64) (string, error) {
	candidate := base
	probes := 1

	for suffix := 1; ; suffix++ {
		var exists bool
		err := s.callStore(ctx, func(ctx context.Context) error {
			var err error
			exists, err = s.repo.SlugExists(ctx, candidate, excludeID)
			return err
		})
		if err != nil {
			return "", s.mapStoreError(ctx, "probe slug", err)
		}
		if !exists {
			metrics.SlugProbeDepth.Observe(float64(probes))
			return candidate, nil
		}

		candidate = fmt.Sprintf("%s-%d", base, suffix)
		probes++
	}
}
