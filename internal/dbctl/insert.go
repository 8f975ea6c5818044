package dbctl

import (
	"context"
	"fmt"
	"strings"

	"tenantetl/internal/errs"
)

const insertBatchRows = 500

// InsertRows loads rows via batched, parameterized INSERT statements. This
// is the seed-load path (spec.md §6.6's seed_load): reference CSVs are
// small enough that a positional bulk-load Stream Load round trip isn't
// worth the label/chunk bookkeeping, so they go straight through the
// control-plane connection the way the teacher's storage.Repository would
// for a non-COPY insert path.
func (c *Conn) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	var total int64
	for start := 0; start < len(rows); start += insertBatchRows {
		end := start + insertBatchRows
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]
		n, err := c.insertBatch(ctx, table, columns, batch)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (c *Conn) insertBatch(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = "`" + col + "`"
	}
	rowPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO `%s`.`%s` (%s) VALUES ", c.Database, table, strings.Join(quoted, ","))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(rowPlaceholder)
		args = append(args, row...)
	}

	res, err := c.DB.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, errs.New(errs.KindLoad, errs.ReasonPermanent, table, "insert seed batch", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return int64(len(rows)), nil
	}
	return n, nil
}
