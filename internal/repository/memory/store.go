package memory

import (
	"context"
	"sync"

	"github.com/mamadbah2/kitledger/internal/domain/models"
	"github.com/mamadbah2/kitledger/internal/repository"
)

// Store keeps encoded tables in process memory. Useful for tests and demos;
// nothing survives a restart.
type Store struct {
	mu        sync.RWMutex
	tables    map[key][][]string
	readErrs  map[repository.TableKind]error
	writeErrs map[repository.TableKind]error
	writes    int
}

type key struct {
	kind      repository.TableKind
	equipment models.Equipment
}

// NewStore returns an empty in-memory backend.
func NewStore() *Store {
	return &Store{
		tables:    make(map[key][][]string),
		readErrs:  make(map[repository.TableKind]error),
		writeErrs: make(map[repository.TableKind]error),
	}
}

func (s *Store) ReadStock(_ context.Context, equipment models.Equipment) (models.StockTable, error) {
	if err := s.failure(s.readErrs, repository.TableStock); err != nil {
		return models.StockTable{Equipment: equipment}, err
	}
	return repository.DecodeStock(equipment, s.Raw(repository.TableStock, equipment))
}

func (s *Store) WriteStock(_ context.Context, equipment models.Equipment, table models.StockTable) error {
	if err := s.failure(s.writeErrs, repository.TableStock); err != nil {
		return err
	}
	s.put(repository.TableStock, equipment, repository.EncodeStock(table), true)
	return nil
}

func (s *Store) ReadHistory(_ context.Context, equipment models.Equipment) (models.UsageHistoryTable, error) {
	if err := s.failure(s.readErrs, repository.TableHistory); err != nil {
		return models.UsageHistoryTable{Equipment: equipment}, err
	}
	return repository.DecodeHistory(equipment, s.Raw(repository.TableHistory, equipment))
}

func (s *Store) WriteHistory(_ context.Context, equipment models.Equipment, table models.UsageHistoryTable) error {
	if err := s.failure(s.writeErrs, repository.TableHistory); err != nil {
		return err
	}
	s.put(repository.TableHistory, equipment, repository.EncodeHistory(table), true)
	return nil
}

// FailReads makes every read of kind return err until cleared with a nil err.
func (s *Store) FailReads(kind repository.TableKind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErrs[kind] = err
}

// FailWrites makes every write of kind return err until cleared with a nil err.
func (s *Store) FailWrites(kind repository.TableKind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErrs[kind] = err
}

// Writes counts the successful table writes.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// PutRaw stores a grid verbatim, bypassing encoding.
func (s *Store) PutRaw(kind repository.TableKind, equipment models.Equipment, rows [][]string) {
	s.put(kind, equipment, rows, false)
}

// Raw returns a copy of the stored grid, or nil when nothing was written.
func (s *Store) Raw(kind repository.TableKind, equipment models.Equipment) [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneGrid(s.tables[key{kind: kind, equipment: equipment}])
}

func (s *Store) Close() error { return nil }

func (s *Store) put(kind repository.TableKind, equipment models.Equipment, rows [][]string, count bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[key{kind: kind, equipment: equipment}] = cloneGrid(rows)
	if count {
		s.writes++
	}
}

func (s *Store) failure(errs map[repository.TableKind]error, kind repository.TableKind) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return errs[kind]
}

func cloneGrid(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
