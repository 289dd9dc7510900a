package storage

import (
	"context"
	"fmt"

	"rtmap/internal/model"
)

// maxParams keeps multi-row inserts under SQLite's historical bound
// parameter limit.
const maxParams = 999

// InsertMany writes records in multi-row INSERT batches and returns the
// number of rows written. All records go to the table of the first one.
func InsertMany[R model.Record](ctx context.Context, tx *Tx, records []R) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	table := records[0].Table()
	columns := records[0].Columns()
	perBatch := max(maxParams/len(columns), 1)

	n := 0
	for start := 0; start < len(records); start += perBatch {
		end := min(start+perBatch, len(records))
		ins := tx.sb.Insert(table).Columns(columns...)
		for _, rec := range records[start:end] {
			values := rec.Values()
			args := make([]any, len(values))
			for i, v := range values {
				args[i] = model.Arg(v)
			}
			ins = ins.Values(args...)
		}
		query, args, err := ins.ToSql()
		if err != nil {
			return n, fmt.Errorf("build insert %s: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return n, fmt.Errorf("insert %s: %w", table, err)
		}
		n += end - start
	}
	return n, nil
}
