package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Query builds one REST gateway request against a table or view.
type Query struct {
	client  *Client
	table   string
	columns string
	filters url.Values
	order   []string
	limit   int
	offset  int
	ranged  bool
	count   bool
	single  bool
}

// From starts a query on table.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table, columns: "*", filters: url.Values{}}
}

// Select restricts the returned columns.
func (q *Query) Select(columns string) *Query {
	if strings.TrimSpace(columns) != "" {
		q.columns = columns
	}
	return q
}

// Eq adds column = value.
func (q *Query) Eq(column string, value any) *Query {
	q.filters.Add(column, "eq."+fmt.Sprint(value))
	return q
}

// In adds column IN (values).
func (q *Query) In(column string, values []string) *Query {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	q.filters.Add(column, "in.("+strings.Join(quoted, ",")+")")
	return q
}

// Gte adds column >= value.
func (q *Query) Gte(column string, value any) *Query {
	q.filters.Add(column, "gte."+fmt.Sprint(value))
	return q
}

// Order sorts by column. Calls accumulate.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.order = append(q.order, column+"."+dir)
	return q
}

// Range selects rows from..to inclusive.
func (q *Query) Range(from, to int) *Query {
	if from < 0 {
		from = 0
	}
	if to < from {
		to = from
	}
	q.offset = from
	q.limit = to - from + 1
	q.ranged = true
	return q
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// CountExact asks the gateway for the exact total matching the filters.
func (q *Query) CountExact() *Query {
	q.count = true
	return q
}

// Single expects exactly one row; zero rows become a not-found error.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

func (q *Query) path() string {
	return "/rest/v1/" + url.PathEscape(q.table)
}

func (q *Query) values(withShape bool) url.Values {
	out := url.Values{}
	for k, vs := range q.filters {
		out[k] = append([]string(nil), vs...)
	}
	if withShape {
		out.Set("select", q.columns)
		if len(q.order) > 0 {
			out.Set("order", strings.Join(q.order, ","))
		}
		if q.limit > 0 {
			out.Set("limit", strconv.Itoa(q.limit))
		}
		if q.ranged && q.offset > 0 {
			out.Set("offset", strconv.Itoa(q.offset))
		}
	}
	return out
}

func (q *Query) readHeaders() map[string]string {
	headers := map[string]string{}
	if q.count {
		headers["Prefer"] = "count=exact"
	}
	if q.single {
		headers["Accept"] = "application/vnd.pgrst.object+json"
	}
	return headers
}

// Rows is a page of decoded rows plus the exact total when requested (-1 otherwise).
type Rows[T any] struct {
	Items []T
	Total int
}

// Fetch runs q as a read and decodes the rows.
func Fetch[T any](ctx context.Context, q *Query) Result[Rows[T]] {
	op := "select " + q.table
	res := q.client.send(ctx, request{
		op:      op,
		method:  http.MethodGet,
		path:    q.path(),
		query:   q.values(true),
		headers: q.readHeaders(),
	})
	resp, err := res.Unwrap()
	if err != nil {
		return Err[Rows[T]](res.Error())
	}

	total := -1
	if q.count {
		total = parseContentRange(resp.header.Get("Content-Range"))
	}

	if q.single {
		one := decodeJSON[T](op, res)
		if !one.IsOk() {
			return Err[Rows[T]](one.Error())
		}
		item, _ := one.Unwrap()
		return Ok(Rows[T]{Items: []T{item}, Total: total})
	}

	items := decodeJSON[[]T](op, res)
	if !items.IsOk() {
		return Err[Rows[T]](items.Error())
	}
	list, _ := items.Unwrap()
	if list == nil {
		list = []T{}
	}
	if total < 0 && q.count {
		total = len(list)
	}
	return Ok(Rows[T]{Items: list, Total: total})
}

// Insert creates rows and returns their stored representation.
func Insert[T any](ctx context.Context, q *Query, rows any) Result[[]T] {
	op := "insert " + q.table
	return decodeJSON[[]T](op, q.client.send(ctx, request{
		op:      op,
		method:  http.MethodPost,
		path:    q.path(),
		query:   url.Values{"select": {q.columns}},
		body:    rows,
		headers: map[string]string{"Prefer": "return=representation"},
	}))
}

// Upsert inserts or merges rows on the conflict column.
func Upsert[T any](ctx context.Context, q *Query, onConflict string, rows any) Result[[]T] {
	op := "upsert " + q.table
	params := url.Values{"select": {q.columns}}
	if onConflict != "" {
		params.Set("on_conflict", onConflict)
	}
	return decodeJSON[[]T](op, q.client.send(ctx, request{
		op:      op,
		method:  http.MethodPost,
		path:    q.path(),
		query:   params,
		body:    rows,
		headers: map[string]string{"Prefer": "resolution=merge-duplicates,return=representation"},
	}))
}

// Update patches every row matching the filters. Unfiltered updates are refused.
func Update[T any](ctx context.Context, q *Query, fields map[string]any) Result[[]T] {
	op := "update " + q.table
	if len(q.filters) == 0 {
		return Err[[]T](&Error{Op: op, Kind: KindInvalid, Message: "update requires a filter"})
	}
	params := q.values(false)
	params.Set("select", q.columns)
	return decodeJSON[[]T](op, q.client.send(ctx, request{
		op:      op,
		method:  http.MethodPatch,
		path:    q.path(),
		query:   params,
		body:    fields,
		headers: map[string]string{"Prefer": "return=representation"},
	}))
}

// Delete removes every row matching the filters. Unfiltered deletes are refused.
func Delete(ctx context.Context, q *Query) Result[struct{}] {
	op := "delete " + q.table
	if len(q.filters) == 0 {
		return Err[struct{}](&Error{Op: op, Kind: KindInvalid, Message: "delete requires a filter"})
	}
	res := q.client.send(ctx, request{
		op:     op,
		method: http.MethodDelete,
		path:   q.path(),
		query:  q.values(false),
	})
	return Map(res, func(response) struct{} { return struct{}{} })
}

// RPC calls the remote procedure fn with named arguments.
func RPC[T any](ctx context.Context, c *Client, fn string, args map[string]any) Result[T] {
	op := "rpc " + fn
	if args == nil {
		args = map[string]any{}
	}
	return decodeJSON[T](op, c.send(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/rest/v1/rpc/" + url.PathEscape(fn),
		body:   args,
	}))
}

// parseContentRange reads the total from "0-24/3573" or "*/0".
func parseContentRange(header string) int {
	idx := strings.LastIndexByte(header, '/')
	if idx < 0 || idx == len(header)-1 {
		return -1
	}
	total, err := strconv.Atoi(header[idx+1:])
	if err != nil {
		return -1
	}
	return total
}
