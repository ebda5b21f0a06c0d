package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresConnector reads per-entity payloads from a table with an
// entity_id text column and a payload jsonb column.
type PostgresConnector struct {
	name  string
	db    *sql.DB
	table string
}

func NewPostgresConnector(name, dsn, table string) (*PostgresConnector, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if !validIdent(table) {
		_ = db.Close()
		return nil, fmt.Errorf("source %s: invalid table name %q", name, table)
	}
	return &PostgresConnector{name: name, db: db, table: table}, nil
}

func (c *PostgresConnector) Name() string { return c.name }

func (c *PostgresConnector) Close() error { return c.db.Close() }

func (c *PostgresConnector) Fetch(ctx context.Context, entityIDs []string) (map[string]json.RawMessage, error) {
	if len(entityIDs) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	placeholders := make([]string, len(entityIDs))
	args := make([]any, len(entityIDs))
	for i, id := range entityIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	// table name is validated in the constructor
	query := fmt.Sprintf(
		"SELECT entity_id, payload FROM %s WHERE entity_id IN (%s)",
		c.table, strings.Join(placeholders, ", "),
	)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("source %s: query: %w", c.name, err)
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage, len(entityIDs))
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("source %s: scan: %w", c.name, err)
		}
		out[id] = json.RawMessage(payload)
	}
	return out, rows.Err()
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
