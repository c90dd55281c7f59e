// Package sqlite provides a SQLite-backed transaction log.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/vsinha/captable/pkg/domain/entities"
	"github.com/vsinha/captable/pkg/domain/repositories"
)

//go:embed schema.sql
var schema string

const upsertSQL = `INSERT INTO transactions (id, seq, type, status, date, payload)
VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM transactions), ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    type = excluded.type,
    status = excluded.status,
    date = excluded.date,
    payload = excluded.payload`

// TransactionRepository persists the transaction log in SQLite. Rows are
// read back in insertion order; replacing a row keeps its position.
type TransactionRepository struct {
	db *sql.DB
}

// Verify interface compliance
var _ repositories.TransactionRepository = (*TransactionRepository)(nil)

// Open opens or creates the database at path and ensures the schema exists.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*TransactionRepository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one connection keeps ":memory:" a single database and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &TransactionRepository{db: db}, nil
}

// Close closes the database handle
func (r *TransactionRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func save(ctx context.Context, db execer, tx entities.Transaction) error {
	if strings.TrimSpace(tx.ID) == "" {
		return fmt.Errorf("transaction id cannot be empty")
	}
	payload, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("encode transaction %s: %w", tx.ID, err)
	}
	_, err = db.ExecContext(ctx, upsertSQL,
		tx.ID, tx.Type.String(), tx.Status.String(), tx.Date.Format(entities.DateLayout), string(payload))
	if err != nil {
		return fmt.Errorf("save transaction %s: %w", tx.ID, err)
	}
	return nil
}

// SaveTransaction inserts tx or replaces the stored transaction with its id
func (r *TransactionRepository) SaveTransaction(ctx context.Context, tx entities.Transaction) error {
	return save(ctx, r.db, tx)
}

// LoadTransactions saves txs in order within one database transaction
func (r *TransactionRepository) LoadTransactions(ctx context.Context, txs []entities.Transaction) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load: %w", err)
	}
	for _, tx := range txs {
		if err := save(ctx, dbTx, tx); err != nil {
			_ = dbTx.Rollback()
			return err
		}
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit load: %w", err)
	}
	return nil
}

func decode(id, payload string) (entities.Transaction, error) {
	var tx entities.Transaction
	if err := json.Unmarshal([]byte(payload), &tx); err != nil {
		return entities.Transaction{}, fmt.Errorf("decode transaction %s: %w", id, err)
	}
	return tx, nil
}

// GetTransaction returns the transaction with the given id
func (r *TransactionRepository) GetTransaction(ctx context.Context, id string) (*entities.Transaction, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM transactions WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repositories.ErrTransactionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", id, err)
	}
	tx, err := decode(id, payload)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetTransactions returns the whole log in insertion order
func (r *TransactionRepository) GetTransactions(ctx context.Context) ([]entities.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, payload FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]entities.Transaction, 0)
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx, err := decode(id, payload)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// DeleteTransaction removes a transaction from the log
func (r *TransactionRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", repositories.ErrTransactionNotFound, id)
	}
	return nil
}
