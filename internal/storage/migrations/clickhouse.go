package migrations

import (
	"context"
	"fmt"
	"strings"
)

// ClickhouseExecer is satisfied by *clickhouse.Conn and driver.Conn.
type ClickhouseExecer interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// ApplyClickhouse applies every embedded analytics migration. The driver
// runs one statement per Exec, so files are split first. Statements must be
// idempotent: ClickHouse has no transactional DDL to record versions in.
func ApplyClickhouse(ctx context.Context, conn ClickhouseExecer) error {
	files, err := scripts(ClickhouseFS, "clickhouse")
	if err != nil {
		return err
	}

	for _, f := range files {
		for _, stmt := range statements(f.SQL) {
			if err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", f.Name, err)
			}
		}
	}
	return nil
}

// statements splits sql on semicolons outside quoted strings and comments.
// Comments are dropped; empty statements are skipped.
func statements(sql string) []string {
	var (
		out  []string
		cur  strings.Builder
		mode byte // 0, '\'', '"', '`', '-' (line comment), '*' (block comment)
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch mode {
		case '-':
			if ch == '\n' {
				mode = 0
				cur.WriteByte(ch)
			}
			continue
		case '*':
			if ch == '*' && i+1 < len(sql) && sql[i+1] == '/' {
				mode = 0
				i++
			}
			continue
		case '\'', '"', '`':
			cur.WriteByte(ch)
			if ch == '\\' && i+1 < len(sql) {
				i++
				cur.WriteByte(sql[i])
			} else if ch == mode {
				mode = 0
			}
			continue
		}

		switch {
		case ch == '-' && i+1 < len(sql) && sql[i+1] == '-':
			mode = '-'
			i++
		case ch == '/' && i+1 < len(sql) && sql[i+1] == '*':
			mode = '*'
			i++
		case ch == '\'' || ch == '"' || ch == '`':
			mode = ch
			cur.WriteByte(ch)
		case ch == ';':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return out
}
