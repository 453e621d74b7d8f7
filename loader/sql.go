package loader

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	_ "modernc.org/sqlite"

	"github.com/krisalay/dataset-host/dataset"
)

/*
SQLiteQuery runs query against the SQLite database at path and returns the
result set as a dataset along dim (default "row").
*/
func SQLiteQuery(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	path, err := stringArg(args, kwargs, 0, "path")
	if err != nil {
		return nil, err
	}
	query, err := stringArg(args, kwargs, 1, "query")
	if err != nil {
		return nil, err
	}
	dim, err := optionalString(kwargs, "dim", "row")
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.query: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite.query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite.query: %w", err)
	}

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite.query: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite.query: %w", err)
	}
	return dataset.FromColumns(dim, cols, out)
}

/*
PostgresQuery runs query on the database at dsn. Each load opens and closes
its own connection.
*/
func PostgresQuery(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	dsn, err := stringArg(args, kwargs, 0, "dsn")
	if err != nil {
		return nil, err
	}
	query, err := stringArg(args, kwargs, 1, "query")
	if err != nil {
		return nil, err
	}
	dim, err := optionalString(kwargs, "dim", "row")
	if err != nil {
		return nil, err
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.query: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres.query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	var out [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("postgres.query: %w", err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.query: %w", err)
	}
	return dataset.FromColumns(dim, cols, out)
}
