package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/fmap-wx-fixer/internal/domain"
	"github.com/couchcryptid/fmap-wx-fixer/internal/fmap"
)

// FixTransformer implements Transformer using the domain visibility and TCU
// passes.
type FixTransformer struct {
	opts   domain.FixOptions
	logger *slog.Logger
}

// NewTransformer creates a FixTransformer. A zero opts.MinTCU disables the
// TCU pass.
func NewTransformer(opts domain.FixOptions, logger *slog.Logger) *FixTransformer {
	return &FixTransformer{
		opts:   opts,
		logger: logger,
	}
}

func (t *FixTransformer) Transform(_ context.Context, rec *fmap.Record) (domain.FixStats, error) {
	stats := domain.Fix(rec, t.opts)
	for _, c := range domain.Categories {
		if n := stats.VisibilityRaised[c]; n > 0 {
			t.logger.Debug("visibility raised", "category", c.String(), "cells", n, "floor", t.opts.Thresholds.For(c))
		}
	}
	return stats, nil
}
