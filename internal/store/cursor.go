package store

import (
	"database/sql"
	"fmt"
)

// Cursor walks the rows of a query one at a time. Rows are fetched from the
// database as Next is called, never buffered up front.
type Cursor struct {
	rows *sql.Rows
	cols []string
	row  map[string]any
	err  error
}

// Columns returns the result column names.
func (c *Cursor) Columns() []string {
	return c.cols
}

// Next advances to the next row. It returns false at the end of the result
// or on error; check Err afterwards.
func (c *Cursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}

	vals := make([]any, len(c.cols))
	ptrs := make([]any, len(c.cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		c.err = fmt.Errorf("scan row: %w", err)
		return false
	}

	row := make(map[string]any, len(c.cols))
	for i, col := range c.cols {
		// Text may come back as bytes; the buffer is reused by the driver.
		if b, ok := vals[i].([]byte); ok {
			row[col] = string(b)
			continue
		}
		row[col] = vals[i]
	}
	c.row = row
	return true
}

// Row returns the current row keyed by column name. NULL columns are
// present with a nil value.
func (c *Cursor) Row() map[string]any {
	return c.row
}

// Err returns the error that stopped iteration, if any.
func (c *Cursor) Err() error {
	if c.err != nil {
		return c.err
	}
	if err := c.rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}
	return nil
}

// Close releases the underlying result set. It is safe to call twice.
func (c *Cursor) Close() error {
	return c.rows.Close()
}
