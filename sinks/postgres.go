package sinks

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/javajack/xlparse"
	"github.com/lib/pq"
)

// PostgresWriter copies records into a PostgreSQL table, one transaction per
// batch.
type PostgresWriter struct {
	db    *sql.DB
	table string
}

// NewPostgresWriter writes to table through db.
func NewPostgresWriter(db *sql.DB, table string) *PostgresWriter {
	return &PostgresWriter{db: db, table: table}
}

// OpenPostgres opens a lib/pq connection pool and checks it.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

var pgTypes = map[xlparse.TargetType]string{
	xlparse.TypeBoolean:   "boolean",
	xlparse.TypeLong:      "bigint",
	xlparse.TypeDouble:    "double precision",
	xlparse.TypeString:    "text",
	xlparse.TypeTimestamp: "timestamptz",
	xlparse.TypeJSON:      "jsonb",
}

// CreateTableSQL returns the DDL of a table matching schema.
func CreateTableSQL(table string, schema xlparse.Schema) string {
	cols := make([]string, len(schema))
	for i, c := range schema {
		cols[i] = pq.QuoteIdentifier(c.Name) + " " + pgTypes[c.Type]
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteTable(table), strings.Join(cols, ", "))
}

// CreateTable creates the target table when it does not exist.
func (p *PostgresWriter) CreateTable(ctx context.Context, schema xlparse.Schema) error {
	if _, err := p.db.ExecContext(ctx, CreateTableSQL(p.table, schema)); err != nil {
		return fmt.Errorf("create table %s: %w", p.table, err)
	}
	return nil
}

// WriteRecords copies a batch with COPY FROM STDIN.
func (p *PostgresWriter) WriteRecords(ctx context.Context, schema xlparse.Schema, records []xlparse.Record) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, copyIn(p.table, schema.Names()))
	if err != nil {
		return fmt.Errorf("prepare copy into %s: %w", p.table, err)
	}
	args := make([]any, len(schema))
	for _, rec := range records {
		for i := range schema {
			args[i] = sqlValue(rec[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			stmt.Close()
			return fmt.Errorf("copy into %s: %w", p.table, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("copy into %s: %w", p.table, err)
	}
	if err := stmt.Close(); err != nil {
		return err
	}
	return tx.Commit()
}

// Close is a no-op; the caller owns the connection pool.
func (p *PostgresWriter) Close() error { return nil }

// copyIn builds the COPY statement, honouring a schema-qualified table.
func copyIn(table string, cols []string) string {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pq.CopyInSchema(schema, name, cols...)
	}
	return pq.CopyIn(table, cols...)
}

func quoteTable(table string) string {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(name)
	}
	return pq.QuoteIdentifier(table)
}
