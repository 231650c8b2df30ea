// Package memory provides mutex-guarded in-memory repository implementations
// with a snapshot-based unit of work. Used by tests and the example binary;
// the sqlite package provides the durable backend.
package memory

import (
	"sort"
	"sync"

	"github.com/lfeng/aps/pkg/domain/entities"
)

// Store holds all mutable planning state. Repositories share one store; the
// unit of work snapshots and restores it to get all-or-nothing semantics.
type Store struct {
	mu sync.RWMutex

	capacity     map[string]*entities.CapacityRecord // process|date
	rows         []*entities.ScheduledRow            // creation order
	rowIndex     map[string]int                      // planNo -> index
	requirements []*entities.MaterialRequirement
	procurements map[string]*entities.ProcurementRequest // order|material
	nextSeq      int64

	// txMu serializes units of work; snapshots assume a single writer.
	txMu sync.Mutex
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		capacity:     make(map[string]*entities.CapacityRecord),
		rowIndex:     make(map[string]int),
		procurements: make(map[string]*entities.ProcurementRequest),
	}
}

func capacityKey(process entities.ProcessName, dateKey string) string {
	return string(process) + "|" + dateKey
}

func procurementKey(customerOrder string, material entities.MaterialCode) string {
	return customerOrder + "|" + string(material)
}

type snapshot struct {
	capacity     map[string]*entities.CapacityRecord
	rows         []*entities.ScheduledRow
	rowIndex     map[string]int
	requirements []*entities.MaterialRequirement
	procurements map[string]*entities.ProcurementRequest
	nextSeq      int64
}

// snapshot deep-copies all mutable state.
func (s *Store) snapshot() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &snapshot{
		capacity:     make(map[string]*entities.CapacityRecord, len(s.capacity)),
		rows:         make([]*entities.ScheduledRow, len(s.rows)),
		rowIndex:     make(map[string]int, len(s.rowIndex)),
		requirements: make([]*entities.MaterialRequirement, len(s.requirements)),
		procurements: make(map[string]*entities.ProcurementRequest, len(s.procurements)),
		nextSeq:      s.nextSeq,
	}
	for k, v := range s.capacity {
		rec := *v
		snap.capacity[k] = &rec
	}
	for i, r := range s.rows {
		row := *r
		snap.rows[i] = &row
	}
	for k, v := range s.rowIndex {
		snap.rowIndex[k] = v
	}
	for i, r := range s.requirements {
		req := *r
		snap.requirements[i] = &req
	}
	for k, v := range s.procurements {
		req := *v
		snap.procurements[k] = &req
	}
	return snap
}

// restore replaces all mutable state with a snapshot.
func (s *Store) restore(snap *snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.capacity = snap.capacity
	s.rows = snap.rows
	s.rowIndex = snap.rowIndex
	s.requirements = snap.requirements
	s.procurements = snap.procurements
	s.nextSeq = snap.nextSeq
}

// rowsBySource returns copies of all rows for a source in creation order.
func (s *Store) rowsBySource(sourceNo string) []*entities.ScheduledRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entities.ScheduledRow
	for _, r := range s.rows {
		if r.SourceNo == sourceNo {
			row := *r
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}
