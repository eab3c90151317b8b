package store

import (
	"strconv"
	"strings"
)

// rebind converts ? placeholders to the dialect's positional form.
// Queries in this package are written with ? and rebound for postgres.
func (c *Client) rebind(query string) string {
	if c.dialect != dialectPostgres {
		return query
	}

	var b strings.Builder

	b.Grow(len(query) + 8)

	n := 0

	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))

			continue
		}

		b.WriteByte(query[i])
	}

	return b.String()
}

// placeholders returns a comma-separated list of n placeholders.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}

	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
