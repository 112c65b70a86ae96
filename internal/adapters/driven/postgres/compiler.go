package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/arealis/stac-search-core/internal/core/domain"
)

// executableQuery is one compiled relational query
type executableQuery struct {
	SQL  string
	Args []any
}

// compiler lowers a query plan into a single SQL statement. Spatial
// predicates go to ST_Intersects against the GIST index, temporal predicates
// to interval comparisons, membership to = ANY, and the seek bound to a
// predicate over the same columns as the ORDER BY so paging stays
// O(log n + limit).
type compiler struct {
	reg  domain.Queryables
	args []any
}

const selectColumns = `id, collection_id, ST_AsGeoJSON(geometry), ` +
	`ST_XMin(geometry), ST_YMin(geometry), ST_XMax(geometry), ST_YMax(geometry), ` +
	`datetime, properties, assets`

// compileSearch lowers the plan into the page query. Always fetches limit+1
// rows: the overflow row signals "more pages exist" without a count query.
func compileSearch(plan *domain.QueryPlan) (executableQuery, error) {
	c := &compiler{reg: plan.Queryables}

	var where []string
	if plan.Filter != nil {
		pred, err := c.predicate(plan.Filter)
		if err != nil {
			return executableQuery{}, err
		}
		where = append(where, pred)
	}
	if plan.Seek != nil {
		pred, err := c.seekPredicate(plan.Sort, plan.Seek)
		if err != nil {
			return executableQuery{}, err
		}
		where = append(where, pred)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectColumns)
	sb.WriteString(" FROM items")
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	orderBy, err := c.orderBy(plan.Sort)
	if err != nil {
		return executableQuery{}, err
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(orderBy)
	sb.WriteString(fmt.Sprintf(" LIMIT %d", plan.Limit+1))

	return executableQuery{SQL: sb.String(), Args: c.args}, nil
}

// compileCount lowers the plan's filter into an exact count query, ignoring
// paging
func compileCount(plan *domain.QueryPlan) (executableQuery, error) {
	c := &compiler{reg: plan.Queryables}

	sql := "SELECT COUNT(*) FROM items"
	if plan.Filter != nil {
		pred, err := c.predicate(plan.Filter)
		if err != nil {
			return executableQuery{}, err
		}
		sql += " WHERE " + pred
	}
	return executableQuery{SQL: sql, Args: c.args}, nil
}

// predicate lowers one expression tree node. The variant set is closed; a
// node the compiler does not know is an internal error, not a client error.
func (c *compiler) predicate(expr domain.Expr) (string, error) {
	switch e := expr.(type) {
	case *domain.And:
		return c.connective(e.Children, " AND ")
	case *domain.Or:
		return c.connective(e.Children, " OR ")
	case *domain.Not:
		child, err := c.predicate(e.Child)
		if err != nil {
			return "", err
		}
		return "NOT " + child, nil
	case *domain.Comparison:
		return c.comparison(e)
	case *domain.InSet:
		return c.membership(e)
	case *domain.SpatialIntersects:
		return fmt.Sprintf("ST_Intersects(geometry, ST_MakeEnvelope(%s, %s, %s, %s, 4326))",
			c.arg(e.Envelope.MinLon), c.arg(e.Envelope.MinLat),
			c.arg(e.Envelope.MaxLon), c.arg(e.Envelope.MaxLat)), nil
	case *domain.TemporalOverlaps:
		var parts []string
		if e.Interval.Start != nil {
			parts = append(parts, fmt.Sprintf("datetime >= %s", c.arg(*e.Interval.Start)))
		}
		if e.Interval.End != nil {
			parts = append(parts, fmt.Sprintf("datetime <= %s", c.arg(*e.Interval.End)))
		}
		if len(parts) == 0 {
			return "TRUE", nil
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil
	default:
		return "", fmt.Errorf("unknown filter node %T", expr)
	}
}

func (c *compiler) connective(children []domain.Expr, sep string) (string, error) {
	parts := make([]string, len(children))
	for i, child := range children {
		pred, err := c.predicate(child)
		if err != nil {
			return "", err
		}
		parts[i] = pred
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

var opSQL = map[domain.CompareOp]string{
	domain.OpEq:   "=",
	domain.OpNeq:  "<>",
	domain.OpLt:   "<",
	domain.OpLte:  "<=",
	domain.OpGt:   ">",
	domain.OpGte:  ">=",
	domain.OpLike: "LIKE",
}

func (c *compiler) comparison(e *domain.Comparison) (string, error) {
	col, err := c.column(e.Property)
	if err != nil {
		return "", err
	}
	op, ok := opSQL[e.Op]
	if !ok {
		return "", fmt.Errorf("unknown comparison operator %q", e.Op)
	}
	return fmt.Sprintf("%s %s %s", col, op, c.arg(e.Value.Scalar())), nil
}

func (c *compiler) membership(e *domain.InSet) (string, error) {
	col, err := c.column(e.Property)
	if err != nil {
		return "", err
	}
	if len(e.Values) == 0 {
		// Empty membership matches nothing; keep the query provably empty
		return "FALSE", nil
	}
	switch e.Values[0].Type {
	case domain.TypeNumber:
		vals := make([]float64, len(e.Values))
		for i, v := range e.Values {
			vals[i] = v.Num
		}
		return fmt.Sprintf("%s = ANY(%s)", col, c.arg(pq.Array(vals))), nil
	case domain.TypeTimestamp:
		vals := make([]time.Time, len(e.Values))
		for i, v := range e.Values {
			vals[i] = v.Time
		}
		return fmt.Sprintf("%s = ANY(%s)", col, c.arg(pq.Array(vals))), nil
	default:
		vals := make([]string, len(e.Values))
		for i, v := range e.Values {
			vals[i] = v.Str
		}
		return fmt.Sprintf("%s = ANY(%s)", col, c.arg(pq.Array(vals))), nil
	}
}

// seekPredicate resumes strictly after the cursor's sort-key tuple. With a
// uniform direction the tuple comparison form keeps the predicate on the
// same composite index as the ORDER BY; mixed directions fall back to the
// nested expansion, which is equivalent row-by-row.
func (c *compiler) seekPredicate(sort domain.SortKey, seek []domain.Value) (string, error) {
	if len(seek) != len(sort) {
		return "", fmt.Errorf("seek tuple has %d values for %d sort fields", len(seek), len(sort))
	}

	uniform := true
	for _, f := range sort {
		if f.Direction != sort[0].Direction {
			uniform = false
			break
		}
	}

	cols := make([]string, len(sort))
	for i, f := range sort {
		col, err := c.column(f.Field)
		if err != nil {
			return "", err
		}
		cols[i] = col
	}

	if uniform {
		op := ">"
		if sort[0].Direction == domain.Descending {
			op = "<"
		}
		placeholders := make([]string, len(seek))
		for i, v := range seek {
			placeholders[i] = c.arg(v.Scalar())
		}
		return fmt.Sprintf("(%s) %s (%s)",
			strings.Join(cols, ", "), op, strings.Join(placeholders, ", ")), nil
	}

	// Nested expansion: k1 > v1 OR (k1 = v1 AND (k2 > v2 OR (k2 = v2 AND ...)))
	var build func(i int) string
	build = func(i int) string {
		op := ">"
		if sort[i].Direction == domain.Descending {
			op = "<"
		}
		strict := fmt.Sprintf("%s %s %s", cols[i], op, c.arg(seek[i].Scalar()))
		if i == len(sort)-1 {
			return strict
		}
		equal := fmt.Sprintf("%s = %s", cols[i], c.arg(seek[i].Scalar()))
		return fmt.Sprintf("(%s OR (%s AND %s))", strict, equal, build(i+1))
	}
	return build(0), nil
}

func (c *compiler) orderBy(sort domain.SortKey) (string, error) {
	parts := make([]string, len(sort))
	for i, f := range sort {
		col, err := c.column(f.Field)
		if err != nil {
			return "", err
		}
		dir := "ASC"
		if f.Direction == domain.Descending {
			dir = "DESC"
		}
		parts[i] = col + " " + dir
	}
	return strings.Join(parts, ", "), nil
}

// column maps a queryable name to its column expression. Base queryables
// have dedicated columns; extension properties live in the JSONB document
// and are cast to their declared type.
func (c *compiler) column(name string) (string, error) {
	switch name {
	case "id":
		return "id", nil
	case "collection":
		return "collection_id", nil
	case "datetime":
		return "datetime", nil
	case "geometry":
		return "geometry", nil
	}

	t, ok := c.reg.TypeOf(name)
	if !ok {
		return "", fmt.Errorf("unknown queryable %q", name)
	}
	expr := fmt.Sprintf("properties->>%s", pq.QuoteLiteral(name))
	switch t {
	case domain.TypeNumber:
		return "(" + expr + ")::double precision", nil
	case domain.TypeTimestamp:
		return "(" + expr + ")::timestamptz", nil
	default:
		return expr, nil
	}
}

// arg appends a query argument and returns its placeholder
func (c *compiler) arg(v any) string {
	c.args = append(c.args, v)
	return fmt.Sprintf("$%d", len(c.args))
}
