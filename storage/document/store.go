package document

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrExists   = errors.New("document already exists")
	// ErrTxConflict is returned when a transaction lost an optimistic-concurrency
	// race and exhausted its retries.
	ErrTxConflict = errors.New("transaction conflict")
)

// Filter matches documents whose top-level JSON field equals Value.
type Filter struct {
	Field string
	Value interface{}
}

// Ordering orders query results on a top-level JSON field.
type Ordering struct {
	Field     string
	Ascending bool
}

type (
	// Reader is the read surface shared by the store and its transactions.
	// Get decodes the document into dest; Query decodes all matches into dest,
	// which must be a pointer to a slice.
	Reader interface {
		Get(collection, id string, dest interface{}) error
		Query(collection string, filters []Filter, order *Ordering, dest interface{}) error
	}

	// Tx is the handle passed to a transaction function. Reads record versions;
	// the commit fails (and the function is retried) if any read document was
	// concurrently modified.
	Tx interface {
		Reader
		Create(collection, id string, doc interface{}) error
		Put(collection, id string, doc interface{}) error
		Delete(collection, id string) error
	}

	// Store is the document storage contract the engine is written against:
	// get, query-by-field-equality with ordering, and atomic transactions.
	// Persisted layout (collection and field names) is owned by each domain
	// package and treated as opaque here.
	Store interface {
		Get(ctx context.Context, collection, id string, dest interface{}) error
		Query(ctx context.Context, collection string, filters []Filter, order *Ordering, dest interface{}) error
		Create(ctx context.Context, collection, id string, doc interface{}) error
		Put(ctx context.Context, collection, id string, doc interface{}) error
		Delete(ctx context.Context, collection, id string) error
		RunTransaction(ctx context.Context, fn func(tx Tx) error) error
	}
)
