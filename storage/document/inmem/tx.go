package inmemdoc

import (
	"context"
	"encoding/json"

	"github.com/trezcool/darasa/storage/document"
)

const txMaxAttempts = 5

type (
	stagedWrite struct {
		body    []byte
		deleted bool
		created bool
	}

	tx struct {
		db *DB
		// commit revalidates everything observed: document versions recorded
		// by point reads (0 = absent) and collection versions recorded by
		// Query, so a query predicate cannot be invalidated by a phantom write.
		reads  map[docKey]int64
		scans  map[string]int64
		writes map[docKey]stagedWrite
	}
)

var _ document.Tx = (*tx)(nil)

// RunTransaction executes fn with optimistic concurrency: reads record document
// versions, writes are buffered, and the commit is retried from scratch when a
// read document changed underneath the transaction.
func (db *DB) RunTransaction(_ context.Context, fn func(tx document.Tx) error) error {
	for attempt := 0; attempt < txMaxAttempts; attempt++ {
		t := &tx{
			db:     db,
			reads:  make(map[docKey]int64),
			scans:  make(map[string]int64),
			writes: make(map[docKey]stagedWrite),
		}
		if err := fn(t); err != nil {
			return err
		}
		if t.commit() {
			return nil
		}
	}
	return document.ErrTxConflict
}

func (t *tx) Get(collection, id string, dest interface{}) error {
	key := docKey{collection, id}

	// read-your-writes
	if w, ok := t.writes[key]; ok {
		if w.deleted {
			return document.ErrNotFound
		}
		return json.Unmarshal(w.body, dest)
	}

	t.db.mu.RLock()
	entry, ok := t.db.collections[collection][id]
	t.db.mu.RUnlock()

	if !ok {
		t.reads[key] = 0
		return document.ErrNotFound
	}
	t.reads[key] = entry.version
	return json.Unmarshal(entry.body, dest)
}

func (t *tx) Query(collection string, filters []document.Filter, order *document.Ordering, dest interface{}) error {
	t.db.mu.RLock()
	// the result set depends on every document in the collection, absent
	// ones included, so the collection version joins the read set
	t.scans[collection] = t.db.versions[collection]
	var bodies [][]byte
	for id, entry := range t.db.collections[collection] {
		key := docKey{collection, id}
		if _, staged := t.writes[key]; staged {
			continue // overlaid below
		}
		if matches(entry.body, filters) {
			t.reads[key] = entry.version
			bodies = append(bodies, entry.body)
		}
	}
	t.db.mu.RUnlock()

	// overlay staged writes on this collection
	for key, w := range t.writes {
		if key.collection != collection || w.deleted {
			continue
		}
		if matches(w.body, filters) {
			bodies = append(bodies, w.body)
		}
	}

	orderBodies(bodies, order)
	return decodeAll(bodies, dest)
}

func (t *tx) Create(collection, id string, doc interface{}) error {
	key := docKey{collection, id}
	if w, ok := t.writes[key]; ok && !w.deleted {
		return document.ErrExists
	}

	t.db.mu.RLock()
	entry, exists := t.db.collections[collection][id]
	t.db.mu.RUnlock()

	if exists {
		t.reads[key] = entry.version
		return document.ErrExists
	}
	t.reads[key] = 0

	body, err := marshal(doc)
	if err != nil {
		return err
	}
	t.writes[key] = stagedWrite{body: body, created: true}
	return nil
}

func (t *tx) Put(collection, id string, doc interface{}) error {
	body, err := marshal(doc)
	if err != nil {
		return err
	}
	t.writes[docKey{collection, id}] = stagedWrite{body: body}
	return nil
}

func (t *tx) Delete(collection, id string) error {
	t.writes[docKey{collection, id}] = stagedWrite{deleted: true}
	return nil
}

func (t *tx) commit() bool {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	// validate queried collections
	for collection, version := range t.scans {
		if t.db.versions[collection] != version {
			return false
		}
	}

	// validate observed versions
	for key, version := range t.reads {
		entry, ok := t.db.collections[key.collection][key.id]
		if !ok {
			if version != 0 {
				return false
			}
			continue
		}
		if entry.version != version {
			return false
		}
	}

	// apply staged writes
	for key, w := range t.writes {
		table := t.db.table(key.collection)
		t.db.versions[key.collection]++
		if w.deleted {
			delete(table, key.id)
			continue
		}
		table[key.id] = docEntry{version: table[key.id].version + 1, body: w.body}
	}
	return true
}
