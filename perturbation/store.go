package perturbation

import (
	"context"
	"errors"
)

// Record is one substitution: the original character and its replacement.
type Record struct {
	Original   string
	Substitute string
}

// Sink persists a batch of records.
type Sink interface {
	Write(ctx context.Context, records []Record) error
}

// Store accumulates records in append order, without deduplication, and
// hands them to its Sink only when flushed.
type Store struct {
	sink    Sink
	records []Record
}

// NewStore creates a Store flushing to sink.
func NewStore(sink Sink) *Store {
	return &Store{sink: sink}
}

// Add appends a record.
func (s *Store) Add(original, substitute string) {
	s.records = append(s.records, Record{Original: original, Substitute: substitute})
}

// Len returns the number of records added so far.
func (s *Store) Len() int { return len(s.records) }

// Records returns a copy of the records in append order.
func (s *Store) Records() []Record {
	return append([]Record(nil), s.records...)
}

// FlushIfAny writes every record to the sink when at least one was added and
// reports whether it wrote. A store with no records leaves the destination
// untouched: no file or table is created.
func (s *Store) FlushIfAny(ctx context.Context) (bool, error) {
	if len(s.records) == 0 {
		return false, nil
	}
	if s.sink == nil {
		return false, errors.New("perturbation: no sink configured")
	}
	if err := s.sink.Write(ctx, s.records); err != nil {
		return false, err
	}
	return true, nil
}
