package storage

// sqlite.go — journal de auditoría en SQLite.
//
// Estrategia:
//   - `events`: una fila por evento de auditoría (cut, registro, batch,
//     rebalance, operación coordinada). Append-only.
//   - Prune automático al abrir: eventos > 30 días se descartan; el journal
//     es observabilidad, no contabilidad — el estado contable vive en los
//     ledgers en memoria y se reconstruye con el deploy.
//   - Los detalles variables van como JSON en una columna de texto.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alejandrodnm/macrostrike/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Un evento de auditoría por fila, append-only
CREATE TABLE IF NOT EXISTS events (
    id         TEXT PRIMARY KEY,
    op         TEXT     NOT NULL,
    actor      TEXT     NOT NULL,
    family     TEXT     NOT NULL DEFAULT '',
    success    INTEGER  NOT NULL DEFAULT 0,
    profit_wei TEXT     NOT NULL DEFAULT '0',
    win_rate   INTEGER  NOT NULL DEFAULT 0,
    details    TEXT     NOT NULL DEFAULT '{}',
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_op_time ON events(op, created_at);
`

const pruneOlderThan = 30 * 24 * time.Hour

// Journal implementa ports.AuditSink sobre SQLite.
type Journal struct {
	db *sql.DB
}

// NewJournal abre (o crea) el journal en el DSN dado. ":memory:" sirve
// para tests y dry-runs.
func NewJournal(dsn string) (*Journal, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage.NewJournal: open %q: %w", dsn, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewJournal: schema: %w", err)
	}

	// Prune al arrancar, igual que el resto del histórico
	cutoff := time.Now().UTC().Add(-pruneOlderThan)
	if _, err := db.Exec(`DELETE FROM events WHERE created_at < ?`, cutoff); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewJournal: prune: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record persiste un evento de auditoría.
func (j *Journal) Record(ctx context.Context, ev domain.AuditEvent) error {
	details := "{}"
	if len(ev.Details) > 0 {
		raw, err := json.Marshal(ev.Details)
		if err != nil {
			return fmt.Errorf("storage.Record: marshal details: %w", err)
		}
		details = string(raw)
	}

	profit := "0"
	if ev.Profit != nil {
		profit = ev.Profit.String()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO events (id, op, actor, family, success, profit_wei, win_rate, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Op, ev.Actor.Hex(), ev.Family, boolToInt(ev.Success),
		profit, ev.WinRate, details, ev.At,
	)
	if err != nil {
		return fmt.Errorf("storage.Record: insert: %w", err)
	}
	return nil
}

// Recent devuelve los últimos n eventos, más recientes primero.
func (j *Journal) Recent(ctx context.Context, n int) ([]domain.AuditEvent, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, op, actor, family, success, profit_wei, win_rate, details, created_at
		FROM events ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("storage.Recent: query: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ByOp devuelve los eventos de una operación en el rango de tiempo dado.
func (j *Journal) ByOp(ctx context.Context, op string, from, to time.Time) ([]domain.AuditEvent, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, op, actor, family, success, profit_wei, win_rate, details, created_at
		FROM events WHERE op = ? AND created_at BETWEEN ? AND ?
		ORDER BY created_at ASC`, op, from, to)
	if err != nil {
		return nil, fmt.Errorf("storage.ByOp: query: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// CountByOp devuelve cuántos eventos hay por operación (resumen rápido).
func (j *Journal) CountByOp(ctx context.Context) (map[string]int, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT op, COUNT(*) FROM events GROUP BY op`)
	if err != nil {
		return nil, fmt.Errorf("storage.CountByOp: query: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var op string
		var n int
		if err := rows.Scan(&op, &n); err != nil {
			return nil, fmt.Errorf("storage.CountByOp: scan: %w", err)
		}
		out[op] = n
	}
	return out, rows.Err()
}

// Close cierra la conexión limpiamente.
func (j *Journal) Close() error {
	return j.db.Close()
}

func scanEvents(rows *sql.Rows) ([]domain.AuditEvent, error) {
	var out []domain.AuditEvent
	for rows.Next() {
		var (
			ev      domain.AuditEvent
			actor   string
			success int
			profit  string
			details string
		)
		if err := rows.Scan(&ev.ID, &ev.Op, &actor, &ev.Family, &success,
			&profit, &ev.WinRate, &details, &ev.At); err != nil {
			return nil, fmt.Errorf("storage: scan event: %w", err)
		}
		ev.Actor = common.HexToAddress(actor)
		ev.Success = success != 0
		ev.Profit, _ = new(big.Int).SetString(profit, 10)
		if details != "" && details != "{}" {
			_ = json.Unmarshal([]byte(details), &ev.Details)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
