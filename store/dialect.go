package store

import (
	"fmt"
	"strings"
)

type Dialect interface {
	Name() string
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

// Rebind rewrites ? placeholders to $1..$n for PostgreSQL.
func Rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(fmt.Sprintf("$%d", n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
