package inmemdoc

import (
	"bytes"
	"encoding/json"
	"sort"
	"sync"

	"github.com/trezcool/darasa/storage/document"
)

type (
	docEntry struct {
		version int64
		body    []byte
	}

	docKey struct {
		collection string
		id         string
	}

	// DB is an in-memory document store, mainly for dev & tests.
	DB struct {
		mu          sync.RWMutex
		collections map[string]map[string]docEntry
		versions    map[string]int64 // per-collection, bumped on every committed write
	}
)

func Open() (*DB, error) {
	return &DB{
		collections: make(map[string]map[string]docEntry),
		versions:    make(map[string]int64),
	}, nil
}

func (db *DB) table(collection string) map[string]docEntry {
	t, ok := db.collections[collection]
	if !ok {
		t = make(map[string]docEntry)
		db.collections[collection] = t
	}
	return t
}

func marshal(doc interface{}) ([]byte, error) {
	return json.Marshal(doc)
}

func decodeAll(bodies [][]byte, dest interface{}) error {
	var buff bytes.Buffer
	buff.WriteByte('[')
	for i, b := range bodies {
		if i > 0 {
			buff.WriteByte(',')
		}
		buff.Write(b)
	}
	buff.WriteByte(']')
	return json.Unmarshal(buff.Bytes(), dest)
}

// matches reports whether the document's top-level fields equal all filter values.
func matches(body []byte, filters []document.Filter) bool {
	if len(filters) == 0 {
		return true
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return false
	}
	for _, f := range filters {
		if !valueEqual(fields[f.Field], normalize(f.Value)) {
			return false
		}
	}
	return true
}

// normalize round-trips a filter value through JSON so that it compares
// against decoded document fields (eg. ints become float64).
func normalize(v interface{}) interface{} {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

func valueEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	ab, _ := json.Marshal(a)
	bb, _ := json.Marshal(b)
	return bytes.Equal(ab, bb)
}

func orderBodies(bodies [][]byte, order *document.Ordering) {
	if order == nil {
		return
	}
	field := func(b []byte) interface{} {
		var fields map[string]interface{}
		if err := json.Unmarshal(b, &fields); err != nil {
			return nil
		}
		return fields[order.Field]
	}
	sort.SliceStable(bodies, func(i, j int) bool {
		less := valueLess(field(bodies[i]), field(bodies[j]))
		if order.Ascending {
			return less
		}
		return valueLess(field(bodies[j]), field(bodies[i]))
	})
}

func valueLess(a, b interface{}) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	}
	return false
}
