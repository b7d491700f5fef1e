package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// schemaPrefix is the table prefix schema.sql is written with
const schemaPrefix = "dev_"

// SchemaSQL returns the DDL with every table and index name carrying prefix
func SchemaSQL(prefix string) string {
	return strings.ReplaceAll(schemaSQL, schemaPrefix, prefix)
}

// ApplySchema creates the writing tables if they do not exist. The script
// has no parameters, so pgx sends it over the simple protocol in one round trip.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool, prefix string) error {
	if _, err := pool.Exec(ctx, SchemaSQL(prefix)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// DropTables drops the writing tables, children first
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{tables.Paragraphs, tables.Episodes, tables.Cards, tables.Documents} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

// ClearUserData deletes every row owned by userID. Paragraphs go with their
// episodes through the foreign key cascade.
func ClearUserData(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, userID string) error {
	for _, table := range []string{tables.Episodes, tables.Cards, tables.Documents} {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table+" WHERE user_id = $1", userID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
