package opsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abraxas-365/slotx/pkg/kernel"
	"github.com/Abraxas-365/slotx/pkg/slotx"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SearchArgs is a case-insensitive substring query.
type SearchArgs struct {
	Query string `json:"query"`
	kernel.PaginationOptions
	DelayMS int `json:"delay_ms,omitempty"`
}

// SearchHit is one matching row.
type SearchHit struct {
	ID    int64  `db:"id" json:"id"`
	Title string `db:"title" json:"title"`
	Body  string `db:"body" json:"body"`
}

// SearchResult is one page of hits.
type SearchResult = kernel.Paginated[SearchHit]

type searchRow struct {
	SearchHit
	Total int `db:"total"`
}

// Search returns an operation that matches title and body of table with
// ILIKE. The table needs id, title and body columns. A page past the last
// one comes back empty with a total of 0.
func Search(db *sqlx.DB, table string) slotx.Operation[SearchArgs, SearchResult] {
	query := searchQuery(table)

	return func(ctx context.Context, args SearchArgs) (SearchResult, error) {
		page := args.PaginationOptions.Normalize(defaultPageSize, maxPageSize)

		q := strings.TrimSpace(args.Query)
		if q == "" {
			return kernel.NewPaginated[SearchHit](nil, page, 0), nil
		}

		d, err := delayOf(args.DelayMS)
		if err != nil {
			return SearchResult{}, err
		}
		if err := sleep(ctx, d); err != nil {
			return SearchResult{}, err
		}

		var rows []searchRow
		if err := db.SelectContext(ctx, &rows, query, "%"+escapeLike(q)+"%", page.PageSize, page.Offset()); err != nil {
			return SearchResult{}, opsErrors.NewWithCause(ErrSearch, err).
				WithDetail("table", table).
				WithDetail("query", q)
		}

		hits := make([]SearchHit, len(rows))
		total := 0
		for i, r := range rows {
			hits[i] = r.SearchHit
			total = r.Total
		}
		return kernel.NewPaginated(hits, page, total), nil
	}
}

func searchQuery(table string) string {
	return fmt.Sprintf(`
		SELECT id, title, body, COUNT(*) OVER() AS total
		FROM %s
		WHERE title ILIKE $1 OR body ILIKE $1
		ORDER BY title, id
		LIMIT $2 OFFSET $3`, quoteTable(table))
}

// quoteTable quotes each part of a possibly schema-qualified table name.
func quoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

// escapeLike makes % and _ in user input match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
