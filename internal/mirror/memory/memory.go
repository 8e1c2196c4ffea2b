// Package memory provides an in-memory report mirror for tests and local runs.
package memory

import (
	"context"
	"sync"

	"fleetledger/internal/report"
)

type snapshot struct {
	Rows   []report.Row
	Totals report.Totals
	Writes int
}

type Mirror struct {
	mu    sync.Mutex
	byown map[string]*snapshot
}

func New() *Mirror {
	return &Mirror{byown: make(map[string]*snapshot)}
}

func (m *Mirror) WriteWeeklyReport(_ context.Context, ownerID string, rows []report.Row, totals report.Totals) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.byown[ownerID]
	if !ok {
		snap = &snapshot{}
		m.byown[ownerID] = snap
	}
	snap.Rows = append([]report.Row(nil), rows...)
	snap.Totals = totals
	snap.Writes++
	return nil
}

// Report returns the last mirrored rows and totals for ownerID.
func (m *Mirror) Report(ownerID string) ([]report.Row, report.Totals, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.byown[ownerID]
	if !ok {
		return nil, report.Totals{}, false
	}
	return append([]report.Row(nil), snap.Rows...), snap.Totals, true
}

// Writes counts how many times ownerID's report has been replaced.
func (m *Mirror) Writes(ownerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if snap, ok := m.byown[ownerID]; ok {
		return snap.Writes
	}
	return 0
}
