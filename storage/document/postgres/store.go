package pgdoc

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/storage/document"
)

const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"

	txMaxAttempts = 5
)

var _ document.Store = (*DB)(nil)

type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func getDoc(ctx context.Context, ex executor, collection, id string, dest interface{}) error {
	var body []byte
	err := ex.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return document.ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "getting document")
	}
	return json.Unmarshal(body, dest)
}

func buildQuery(collection string, filters []document.Filter, order *document.Ordering) (string, []interface{}, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT body FROM documents WHERE collection = $1`)
	args := []interface{}{collection}

	for _, f := range filters {
		// jsonb containment matches strings, numbers, booleans and null alike
		fragment, err := json.Marshal(map[string]interface{}{f.Field: f.Value})
		if err != nil {
			return "", nil, errors.Wrap(err, "encoding filter")
		}
		args = append(args, string(fragment))
		fmt.Fprintf(&sb, " AND body @> $%d::jsonb", len(args))
	}
	if order != nil {
		direction := "DESC"
		if order.Ascending {
			direction = "ASC"
		}
		args = append(args, order.Field)
		// body->field keeps the jsonb type so numbers sort numerically;
		// body->>field would cast to text and sort 10 before 2
		fmt.Fprintf(&sb, " ORDER BY body->$%d %s", len(args), direction)
	}
	return sb.String(), args, nil
}

func queryDocs(ctx context.Context, ex executor, collection string, filters []document.Filter, order *document.Ordering, dest interface{}) error {
	query, args, err := buildQuery(collection, filters, order)
	if err != nil {
		return err
	}

	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "querying documents")
	}
	defer rows.Close()

	var buff bytes.Buffer
	buff.WriteByte('[')
	first := true
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return errors.Wrap(err, "scanning document")
		}
		if !first {
			buff.WriteByte(',')
		}
		buff.Write(body)
		first = false
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterating documents")
	}
	buff.WriteByte(']')
	return json.Unmarshal(buff.Bytes(), dest)
}

func createDoc(ctx context.Context, ex executor, collection, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)`,
		collection, id, body,
	)
	if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pqUniqueViolation {
		return document.ErrExists
	}
	return errors.Wrap(err, "creating document")
}

func putDoc(ctx context.Context, ex executor, collection, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, `
INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)
ON CONFLICT (collection, id) DO UPDATE SET body = $3, version = documents.version + 1`,
		collection, id, body,
	)
	return errors.Wrap(err, "putting document")
}

func deleteDoc(ctx context.Context, ex executor, collection, id string) error {
	res, err := ex.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return errors.Wrap(err, "deleting document")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return document.ErrNotFound
	}
	return nil
}

func (d *DB) Get(ctx context.Context, collection, id string, dest interface{}) error {
	return getDoc(ctx, d.db, collection, id, dest)
}

func (d *DB) Query(ctx context.Context, collection string, filters []document.Filter, order *document.Ordering, dest interface{}) error {
	return queryDocs(ctx, d.db, collection, filters, order, dest)
}

func (d *DB) Create(ctx context.Context, collection, id string, doc interface{}) error {
	return createDoc(ctx, d.db, collection, id, doc)
}

func (d *DB) Put(ctx context.Context, collection, id string, doc interface{}) error {
	return putDoc(ctx, d.db, collection, id, doc)
}

func (d *DB) Delete(ctx context.Context, collection, id string) error {
	return deleteDoc(ctx, d.db, collection, id)
}

type tx struct {
	ctx context.Context
	tx  *sqlx.Tx
}

var _ document.Tx = (*tx)(nil)

// RunTransaction runs fn in a SERIALIZABLE transaction, retrying on
// serialization failures so concurrent read-modify-write cycles serialize.
func (d *DB) RunTransaction(ctx context.Context, fn func(tx document.Tx) error) error {
	for attempt := 0; attempt < txMaxAttempts; attempt++ {
		sqlTx, err := d.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return errors.Wrap(err, "beginning transaction")
		}

		if err := fn(&tx{ctx: ctx, tx: sqlTx}); err != nil {
			_ = sqlTx.Rollback()
			if isSerializationFailure(err) {
				continue
			}
			return err
		}

		if err := sqlTx.Commit(); err != nil {
			if isSerializationFailure(err) {
				continue
			}
			return errors.Wrap(err, "committing transaction")
		}
		return nil
	}
	return document.ErrTxConflict
}

func isSerializationFailure(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && string(pqErr.Code) == pqSerializationFailure
}

func (t *tx) Get(collection, id string, dest interface{}) error {
	return getDoc(t.ctx, t.tx, collection, id, dest)
}

func (t *tx) Query(collection string, filters []document.Filter, order *document.Ordering, dest interface{}) error {
	return queryDocs(t.ctx, t.tx, collection, filters, order, dest)
}

func (t *tx) Create(collection, id string, doc interface{}) error {
	return createDoc(t.ctx, t.tx, collection, id, doc)
}

func (t *tx) Put(collection, id string, doc interface{}) error {
	return putDoc(t.ctx, t.tx, collection, id, doc)
}

func (t *tx) Delete(collection, id string) error {
	return deleteDoc(t.ctx, t.tx, collection, id)
}
