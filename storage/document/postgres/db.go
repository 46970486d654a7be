package pgdoc

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

// schema is managed here directly: the store is a single generic documents
// table, so codegen/migration tooling would be overhead without payoff.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection text   NOT NULL,
    id         text   NOT NULL,
    version    bigint NOT NULL DEFAULT 1,
    body       jsonb  NOT NULL,
    PRIMARY KEY (collection, id)
);
`

// DB is a postgres-backed document store; documents live in a single
// (collection, id) keyed JSONB table.
type DB struct {
	db *sqlx.DB
}

func Open(databaseURL string) (*DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to postgres")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "ensuring documents table")
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}
