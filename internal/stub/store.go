package stub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-memdb"
)

const resumeTable = "resume"

// Resume is one uploaded document and, once extracted, its structure.
type Resume struct {
	ID         string
	Filename   string
	Text       string
	Structured json.RawMessage
	CreatedAt  time.Time
}

// Store keeps resumes in memory for the lifetime of the stub.
type Store struct {
	db *memdb.MemDB
}

// NewStore creates an empty store.
func NewStore() (*Store, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			resumeTable: {
				Name: resumeTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
		},
	}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("init memdb: %w", err)
	}
	return &Store{db: db}, nil
}

// Put inserts or replaces r.
func (s *Store) Put(r *Resume) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(resumeTable, r); err != nil {
		return fmt.Errorf("insert resume %s: %w", r.ID, err)
	}
	txn.Commit()
	return nil
}

// Get returns the resume with id, or nil when absent.
func (s *Store) Get(id string) (*Resume, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(resumeTable, "id", id)
	if err != nil {
		return nil, fmt.Errorf("lookup resume %s: %w", id, err)
	}
	if raw == nil {
		return nil, nil
	}
	return raw.(*Resume), nil
}

// SaveStructured attaches an extraction result to an existing resume.
// Unknown ids are stored as a new record so results are never lost.
func (s *Store) SaveStructured(id string, structured json.RawMessage) error {
	existing, err := s.Get(id)
	if err != nil {
		return err
	}
	r := &Resume{ID: id, CreatedAt: time.Now().UTC()}
	if existing != nil {
		// memdb objects must not be mutated in place
		cp := *existing
		r = &cp
	}
	r.Structured = structured
	return s.Put(r)
}
