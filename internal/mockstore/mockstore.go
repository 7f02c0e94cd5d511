// Package mockstore holds scripted sensor values.
//
// A Store belongs to one owner: a device instance, or the function itself
// for sensors without a receiver. Each sensor method gets its own Table,
// stored under the derived attribute name "_" + method so methods never
// collide. Tables map an argument tuple to a scripted entry: a sticky value
// returned on every read, or a FIFO queue consumed head-first.
package mockstore

import (
	"slices"

	"github.com/roach88/vexharness/internal/ir"
)

// AttrName returns the attribute a method's table is stored under.
func AttrName(method string) string {
	return "_" + method
}

// Store is one owner's set of sensor tables.
type Store struct {
	tables map[string]*Table
}

// New returns an empty store.
func New() *Store {
	return &Store{tables: make(map[string]*Table)}
}

// Table returns the table for method, creating it on first use.
func (s *Store) Table(method string) *Table {
	attr := AttrName(method)
	t, ok := s.tables[attr]
	if !ok {
		t = &Table{entries: make(map[string]*entry)}
		s.tables[attr] = t
	}
	return t
}

// entry is either sticky or a FIFO queue.
type entry struct {
	fifo  bool
	value ir.IRValue
	queue []ir.IRValue
}

// Table maps argument tuples to scripted entries for one sensor method.
type Table struct {
	entries map[string]*entry
}

// Set stores a scripted entry for the argument tuple of args (self
// excluded). An IRArray payload becomes a FIFO queue; anything else is
// sticky. Setting replaces any previous entry.
func (t *Table) Set(args ir.Args, payload ir.IRValue) {
	key := args.Tuple()
	if arr, ok := payload.(ir.IRArray); ok {
		t.entries[key] = &entry{fifo: true, queue: slices.Clone(arr)}
		return
	}
	if payload == nil {
		payload = ir.IRNull{}
	}
	t.entries[key] = &entry{value: payload}
}

// Take reads the scripted value for args. It reports false when no entry
// exists, in which case the caller falls through to interactive input or
// the stub.
//
// Sticky entries stay in place. A FIFO entry yields its head and keeps the
// remainder; the entry is deleted after its last element, so the next read
// falls through. An empty FIFO yields the absent marker once and is deleted.
func (t *Table) Take(args ir.Args) (ir.IRValue, bool) {
	key := args.Tuple()
	e, ok := t.entries[key]
	if !ok {
		return nil, false
	}
	if !e.fifo {
		return e.value, true
	}

	if len(e.queue) == 0 {
		delete(t.entries, key)
		return ir.IRNull{}, true
	}

	head := e.queue[0]
	e.queue = e.queue[1:]
	if len(e.queue) == 0 {
		delete(t.entries, key)
	}
	return head, true
}

// Len returns the number of argument tuples with an entry.
func (t *Table) Len() int {
	return len(t.entries)
}
