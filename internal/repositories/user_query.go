package repositories

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BradenHooton/useradmin/internal/query"
	"github.com/lib/pq"
)

// userColumns maps the field names clients filter and sort on to columns.
// Anything not listed here is unknown: filters on it match nothing and sorts
// on it are ignored. verification is deliberately absent.
var userColumns = map[string]string{
	"id":            "id",
	"_id":           "id",
	"username":      "username",
	"email":         "email",
	"name":          "name",
	"walletAddress": "wallet_address",
	"role":          "role",
	"verified":      "verified",
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
}

// textColumns can be matched with ~* directly; the rest are cast to text.
var textColumns = map[string]bool{
	"username":       true,
	"email":          true,
	"name":           true,
	"wallet_address": true,
	"role":           true,
}

const (
	defaultOrderColumn = "created_at"
	tieBreakColumn     = "id"
)

const userColumnList = `id, username, email, name, wallet_address, role, verified, verification, created_at, updated_at`

// userContactColumnList is the projection served by email and wallet lookups.
const userContactColumnList = `id, name, email, role, verified, verification, wallet_address`

// columnFor resolves a client field name.
func columnFor(field string) (string, bool) {
	col, ok := userColumns[field]
	return col, ok
}

// buildWhere renders the predicate as a WHERE clause, appending one bind
// argument per known term. Patterns are never interpolated into the SQL.
func buildWhere(pred query.Predicate, args []any) (string, []any) {
	if pred.MatchesAll() {
		return "", args
	}

	terms := make([]string, 0, len(pred.Terms))
	for _, term := range pred.Terms {
		col, ok := columnFor(term.Field)
		if !ok {
			terms = append(terms, "FALSE")
			continue
		}

		expr := pq.QuoteIdentifier(col)
		switch {
		case col == "wallet_address":
			// unset wallets are NULL but match as the empty string
			expr = "COALESCE(" + expr + ", '')"
		case !textColumns[col]:
			expr += "::text"
		}

		args = append(args, term.Pattern)
		terms = append(terms, expr+" ~* $"+strconv.Itoa(len(args)))
	}

	return " WHERE " + strings.Join(terms, " AND "), args
}

// buildOrderBy renders the sort spec. Unknown and repeated fields are
// skipped; an empty spec falls back to creation order, and id is always the
// last key so that paging is deterministic.
func buildOrderBy(sort query.SortSpec) string {
	seen := make(map[string]bool, len(sort)+1)
	keys := make([]string, 0, len(sort)+2)

	for _, s := range sort {
		col, ok := columnFor(s.Field)
		if !ok || seen[col] {
			continue
		}
		seen[col] = true

		dir := "ASC"
		if s.Descending {
			dir = "DESC"
		}
		keys = append(keys, pq.QuoteIdentifier(col)+" "+dir)
	}

	if len(keys) == 0 {
		seen[defaultOrderColumn] = true
		keys = append(keys, pq.QuoteIdentifier(defaultOrderColumn)+" ASC")
	}
	if !seen[tieBreakColumn] {
		keys = append(keys, pq.QuoteIdentifier(tieBreakColumn)+" ASC")
	}

	return " ORDER BY " + strings.Join(keys, ", ")
}

// listStatements holds the count and window statements for one Find call.
// Both share the same WHERE clause and arguments.
type listStatements struct {
	countSQL  string
	countArgs []any
	pageSQL   string
	pageArgs  []any
}

func buildListStatements(pred query.Predicate, sort query.SortSpec, skip, limit int) listStatements {
	where, args := buildWhere(pred, nil)

	countSQL := "SELECT COUNT(*) FROM users" + where

	pageArgs := make([]any, len(args), len(args)+2)
	copy(pageArgs, args)
	pageArgs = append(pageArgs, limit, skip)

	pageSQL := fmt.Sprintf("SELECT %s FROM users%s%s LIMIT $%d OFFSET $%d",
		userColumnList, where, buildOrderBy(sort), len(pageArgs)-1, len(pageArgs))

	return listStatements{
		countSQL:  countSQL,
		countArgs: args,
		pageSQL:   pageSQL,
		pageArgs:  pageArgs,
	}
}
