package engine

import (
	"time"

	"imaged/pkg/types"
)

// refreshResident snapshots the cache's resident config into the engine.
// Called only from lane code, or with the lane drained, where cache access is
// exclusive; Status then never has to touch the cache itself.
func (e *Engine) refreshResident() {
	var rs *types.ResidentStatus
	if r := e.cache.Resident(); r != nil {
		cfg := r.Config()
		rs = &types.ResidentStatus{
			Variant:      string(cfg.Variant),
			Quantize8Bit: cfg.Quantize8Bit,
			CPUOffload:   cfg.CPUOffload,
		}
		for _, a := range cfg.AddOns {
			rs.AddOns = append(rs.AddOns, types.AddOn{ID: string(a.ID), Weight: a.Weight})
		}
	}
	e.mu.Lock()
	e.resident = rs
	e.mu.Unlock()
}

// Status returns a read-only projection of the engine for GET /status.
// The resident field is the snapshot taken by the last lane item, so this is
// safe to call from any goroutine at any time.
func (e *Engine) Status() types.StatusResponse {
	e.mu.RLock()
	st := types.StatusResponse{
		State:              string(e.state),
		Resident:           e.resident,
		ConstructionsTotal: e.constructions,
		DestroysTotal:      e.destroys,
		AddOnSwapsTotal:    e.addonSwaps,
		GenerationsTotal:   e.generations,
		FailuresTotal:      e.failures,
		LastError:          e.lastErr,
		UptimeSeconds:      int64(time.Since(e.startTime).Seconds()),
		ServerTimeUnix:     time.Now().Unix(),
	}
	e.mu.RUnlock()
	st.QueueLen = e.sched.len()
	return st
}

// DefaultVariant returns the configured default variant.
func (e *Engine) DefaultVariant() Variant { return e.cfg.DefaultVariant }
