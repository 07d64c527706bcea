// Package ensemble orchestrates a configured set of model adapters: it
// selects the representation each model requires, drives per-model
// prediction with isolated failure handling, and collects results into
// unified per-structure records.
package ensemble

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"mlipens/internal/mlip"
	"mlipens/internal/structure"
	"mlipens/pkg/types"
)

// Config encapsulates ensemble construction tunables.
type Config struct {
	// Models is the ordered model configuration; order determines iteration
	// order for every batch and therefore report column order.
	Models []types.ModelConfig
	// DisableCorrection turns off the post-hoc energy correction for every
	// model, for datasets whose reference energies are already corrected.
	DisableCorrection bool
	// Timeout bounds each external calculator call; zero means unbounded.
	Timeout time.Duration
}

// Manager holds the configured adapters. The batch loop is single-threaded
// and sequential: each structure is fully processed across all models
// before the next begins, which keeps every calculator handle exclusive to
// its in-flight call.
type Manager struct {
	adapters []*mlip.Adapter
	timeout  time.Duration

	processed atomic.Int64
}

// New instantiates one adapter per configuration entry, in listed order.
// An unrecognized model name fails fast before any further loading; on any
// construction failure the adapters already loaded are released so no
// partial ensemble leaks.
func New(cfg Config) (*Manager, error) {
	if len(cfg.Models) == 0 {
		return nil, errors.New("ensemble: no models configured")
	}
	adapters := make([]*mlip.Adapter, 0, len(cfg.Models))
	for _, mc := range cfg.Models {
		a, err := mlip.New(mc)
		if err != nil {
			for _, built := range adapters {
				_ = built.Close()
			}
			return nil, err
		}
		if cfg.DisableCorrection {
			a.SetCorrection(false)
		}
		adapters = append(adapters, a)
	}
	return &Manager{adapters: adapters, timeout: cfg.Timeout}, nil
}

// NewFromAdapters builds a manager over already-constructed adapters,
// preserving their order.
func NewFromAdapters(adapters []*mlip.Adapter) *Manager {
	return &Manager{adapters: adapters}
}

// Models returns the configured model names in iteration order.
func (m *Manager) Models() []string {
	out := make([]string, len(m.adapters))
	for i, a := range m.adapters {
		out[i] = a.Name()
	}
	return out
}

// Processed returns the monotonically increasing count of batch records
// fully processed. Callers needing responsiveness run PredictBatch on a
// dedicated goroutine and poll this counter.
func (m *Manager) Processed() int64 { return m.processed.Load() }

// Close releases every adapter, returning the first error encountered.
func (m *Manager) Close() error {
	var first error
	for _, a := range m.adapters {
		if err := a.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// selectRepresentation returns the record field matching the adapter's
// required format, or a missing-representation error when that field is
// absent. The caller contains the error as that model's result entry.
func selectRepresentation(rec *structure.Record, a *mlip.Adapter) (structure.Form, error) {
	form := rec.Representation(a.RequiredFormat())
	if form == nil {
		return nil, errMissingRepresentation(a.Name(), a.RequiredFormat())
	}
	return form, nil
}

// Predict runs every configured model on one structure. Every configured
// model name appears as a key in the result, error or success; no failure
// escapes as an exception.
func (m *Manager) Predict(ctx context.Context, rec *structure.Record, ptype types.PredictionType) map[string]types.PredictionResult {
	out := make(map[string]types.PredictionResult, len(m.adapters))
	for _, a := range m.adapters {
		out[a.Name()] = m.predictOne(ctx, rec, a, ptype)
	}
	return out
}

func (m *Manager) predictOne(ctx context.Context, rec *structure.Record, a *mlip.Adapter, ptype types.PredictionType) types.PredictionResult {
	form, err := selectRepresentation(rec, a)
	if err != nil {
		predictionsTotal.WithLabelValues(a.Name(), "error").Inc()
		return types.ErrorResult(err)
	}
	cctx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	res, err := a.Predict(cctx, form, ptype)
	if err != nil {
		predictionsTotal.WithLabelValues(a.Name(), "error").Inc()
		return types.ErrorResult(err)
	}
	predictionsTotal.WithLabelValues(a.Name(), "ok").Inc()
	return res
}

// PredictBatch processes records in input order, building one unified
// record per input. One structure's total failure across all models, or
// one model's failure on one structure, never drops or reorders other
// entries; output length always equals input length.
func (m *Manager) PredictBatch(ctx context.Context, recs []*structure.Record, ptype types.PredictionType) []types.UnifiedRecord {
	out := make([]types.UnifiedRecord, len(recs))
	for i, rec := range recs {
		out[i] = types.UnifiedRecord{
			Index:      i,
			Label:      rec.Label(),
			Models:     m.Predict(ctx, rec, ptype),
			TrueEnergy: rec.TotalEnergy,
		}
		m.processed.Add(1)
		recordsProcessed.Inc()
	}
	return out
}
