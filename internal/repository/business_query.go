package repository

import (
	"fmt"
	"strings"

	"github.com/octobees/bizdirectory/api/internal/dto"
)

const listOrder = "title ASC, address ASC, city ASC, featured DESC, created_at DESC NULLS LAST"

const openOnly = "COALESCE(permanently_closed, FALSE) = FALSE"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildListQuery assembles the listing query for filter. Every caller value is
// bound as a parameter. The category filter is resolved after category
// reconciliation and is not part of the SQL.
func buildListQuery(filter dto.BusinessFilter, paginate bool) (string, []any) {
	filter = filter.Normalized()

	var (
		clauses = []string{openOnly}
		args    []any
		idx     = 1
	)

	if search := strings.TrimSpace(filter.Search); search != "" {
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR category_name ILIKE $%d)", idx, idx, idx))
		args = append(args, "%"+likeEscaper.Replace(search)+"%")
		idx++
	}
	if city := strings.TrimSpace(filter.City); city != "" {
		clauses = append(clauses, fmt.Sprintf("city = $%d", idx))
		args = append(args, city)
		idx++
	}
	if filter.Featured != nil && *filter.Featured {
		clauses = append(clauses, "featured = TRUE")
	}

	query := strings.Builder{}
	query.WriteString("SELECT ")
	query.WriteString(businessColumns)
	query.WriteString(" FROM businesses WHERE ")
	query.WriteString(strings.Join(clauses, " AND "))
	query.WriteString(" ORDER BY ")
	query.WriteString(listOrder)

	if paginate {
		query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
		args = append(args, filter.Limit, filter.Offset)
	}

	return query.String(), args
}

func buildRandomQuery(limit int) (string, []any) {
	limit = dto.BusinessFilter{Limit: limit}.Normalized().Limit
	query := "SELECT " + businessColumns + " FROM businesses WHERE " + openOnly + " ORDER BY RANDOM() LIMIT $1"
	return query, []any{limit}
}
