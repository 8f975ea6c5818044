package dbctl

import (
	"context"
	"fmt"

	"tenantetl/internal/errs"
)

// NextPowerOfTwo returns the smallest power of two >= n, capped at maxWidth
// when maxWidth > 0 (spec.md's explicit auto-widening rule: widen to the
// next power-of-two or a configured cap, not the buffer-and-clamp heuristic
// some ETL tooling uses). n <= 1 returns 2 (or maxWidth if smaller).
func NextPowerOfTwo(n int, maxWidth int) int {
	p := 2
	for p < n {
		p <<= 1
	}
	if maxWidth > 0 && p > maxWidth {
		return maxWidth
	}
	return p
}

// AlterWidenColumn widens a VARCHAR column to fit observedMaxLen, issuing
// exactly one ALTER TABLE ... MODIFY COLUMN. Callers (internal/loader) are
// responsible for ensuring this is invoked at most once per load attempt
// per column, since StarRocks schema-change DDL is itself an asynchronous,
// non-trivial operation.
func (c *Conn) AlterWidenColumn(ctx context.Context, table, column string, observedMaxLen int, capBytes int) (newWidth int, err error) {
	newWidth = NextPowerOfTwo(observedMaxLen, capBytes)
	stmt := fmt.Sprintf("ALTER TABLE `%s`.`%s` MODIFY COLUMN `%s` VARCHAR(%d)", c.Database, table, column, newWidth)
	if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
		return 0, errs.New(errs.KindLoad, errs.ReasonOverflow, table, column, err)
	}
	return newWidth, nil
}
