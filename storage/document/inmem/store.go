package inmemdoc

import (
	"context"
	"encoding/json"

	"github.com/trezcool/darasa/storage/document"
)

var _ document.Store = (*DB)(nil)

func (db *DB) Get(_ context.Context, collection, id string, dest interface{}) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	entry, ok := db.collections[collection][id]
	if !ok {
		return document.ErrNotFound
	}
	return json.Unmarshal(entry.body, dest)
}

func (db *DB) Query(_ context.Context, collection string, filters []document.Filter, order *document.Ordering, dest interface{}) error {
	db.mu.RLock()
	bodies := db.queryLocked(collection, filters)
	db.mu.RUnlock()

	orderBodies(bodies, order)
	return decodeAll(bodies, dest)
}

func (db *DB) queryLocked(collection string, filters []document.Filter) [][]byte {
	var bodies [][]byte
	for _, entry := range db.collections[collection] {
		if matches(entry.body, filters) {
			bodies = append(bodies, entry.body)
		}
	}
	return bodies
}

func (db *DB) Create(_ context.Context, collection, id string, doc interface{}) error {
	body, err := marshal(doc)
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	t := db.table(collection)
	if _, ok := t[id]; ok {
		return document.ErrExists
	}
	t[id] = docEntry{version: 1, body: body}
	db.versions[collection]++
	return nil
}

func (db *DB) Put(_ context.Context, collection, id string, doc interface{}) error {
	body, err := marshal(doc)
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	t := db.table(collection)
	t[id] = docEntry{version: t[id].version + 1, body: body}
	db.versions[collection]++
	return nil
}

func (db *DB) Delete(_ context.Context, collection, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	t := db.table(collection)
	if _, ok := t[id]; !ok {
		return document.ErrNotFound
	}
	delete(t, id)
	db.versions[collection]++
	return nil
}
