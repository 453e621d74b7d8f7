package plugins

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/krisalay/dataset-host/dataset"
	"github.com/krisalay/dataset-host/descriptor"
	"github.com/krisalay/dataset-host/host"
)

const DataPointsModule = "data_points"

/*
DataPoints extracts rows from a dataset:

	GET /datasets/:dataset_id/data_points/filter.<format>

Query parameters:
  - var, keep: comma separated variable names to return, and extra columns to keep
  - return_null: keep rows where every requested variable is null
  - dim: the row dimension; defaults to time_var, then depth_var, then the first dimension
  - time_var, time_start, time_end: select rows by time, returned as column t
  - depth_var, depth_start, depth_end: select rows by depth (default 0 to 1), returned as column z
  - x_var, y_var: columns returned as x and y
*/
type DataPoints struct {
	name string
}

var _ host.DatasetRouter = DataPoints{}

func NewDataPoints() DataPoints { return DataPoints{name: DataPointsModule} }

func newDataPoints(_ context.Context, d descriptor.Plugin, _ Env) (host.Plugin, error) {
	kw := struct {
		Name string `yaml:"name"`
	}{}
	if err := d.DecodeKwargs(&kw); err != nil {
		return nil, err
	}
	p := NewDataPoints()
	if kw.Name != "" {
		p.name = kw.Name
	}
	return p, nil
}

func (p DataPoints) Name() string              { return p.name }
func (DataPoints) DatasetRouterPrefix() string { return "/data_points" }

func (DataPoints) DatasetRoutes(g *echo.Group, deps host.Dependencies) {
	g.GET("/filter.:format", func(c echo.Context) error {
		format := Format(c.Param("format"))
		if !format.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unsupported format %q", c.Param("format")))
		}

		q, err := parsePointsQuery(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		v, err := deps.Dataset(c)
		if err != nil {
			return err
		}
		ds, ok := v.(*dataset.Dataset)
		if !ok {
			return echo.NewHTTPError(http.StatusNotImplemented, fmt.Sprintf("dataset is a %T, not a tabular dataset", v))
		}

		tbl, err := q.extract(ds)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return write(c, format, tbl, q.axes())
	})
}

type pointsQuery struct {
	vars, keep []string
	returnNull bool
	dim        string

	timeVar            string
	timeStart, timeEnd *time.Time

	depthVar             string
	depthStart, depthEnd float64

	xVar, yVar string
}

func commaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parsePointsQuery(c echo.Context) (*pointsQuery, error) {
	q := &pointsQuery{
		vars:       commaList(c.QueryParam("var")),
		keep:       commaList(c.QueryParam("keep")),
		dim:        c.QueryParam("dim"),
		timeVar:    c.QueryParam("time_var"),
		depthVar:   c.QueryParam("depth_var"),
		depthStart: 0,
		depthEnd:   1,
		xVar:       c.QueryParam("x_var"),
		yVar:       c.QueryParam("y_var"),
	}

	if s := c.QueryParam("return_null"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("return_null: %w", err)
		}
		q.returnNull = b
	}

	var err error
	if q.timeStart, err = timeParam(c, "time_start"); err != nil {
		return nil, err
	}
	if q.timeEnd, err = timeParam(c, "time_end"); err != nil {
		return nil, err
	}
	if err := floatParam(c, "depth_start", &q.depthStart); err != nil {
		return nil, err
	}
	if err := floatParam(c, "depth_end", &q.depthEnd); err != nil {
		return nil, err
	}
	return q, nil
}

func timeParam(c echo.Context, name string) (*time.Time, error) {
	s := c.QueryParam(name)
	if s == "" {
		return nil, nil
	}
	t, ok := parseTime(s)
	if !ok {
		return nil, fmt.Errorf("%s: cannot parse time %q", name, s)
	}
	return &t, nil
}

func floatParam(c echo.Context, name string, dst *float64) error {
	s := c.QueryParam(name)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = f
	return nil
}

// renames maps source columns to their standard axis names.
func (q *pointsQuery) renames() map[string]string {
	out := map[string]string{}
	if q.timeVar != "" {
		out[q.timeVar] = "t"
	}
	if q.depthVar != "" {
		out[q.depthVar] = "z"
	}
	if q.xVar != "" {
		out[q.xVar] = "x"
	}
	if q.yVar != "" {
		out[q.yVar] = "y"
	}
	return out
}

// axes are the renamed axis columns, in t, z, x, y order.
func (q *pointsQuery) axes() []string {
	var out []string
	for _, pair := range [][2]string{{q.timeVar, "t"}, {q.depthVar, "z"}, {q.xVar, "x"}, {q.yVar, "y"}} {
		if pair[0] != "" {
			out = append(out, pair[1])
		}
	}
	return out
}

func (q *pointsQuery) rowDim(ds *dataset.Dataset) (string, error) {
	if q.dim != "" {
		return q.dim, nil
	}
	for _, candidate := range []string{q.timeVar, q.depthVar} {
		if _, ok := ds.Dim(candidate); ok && candidate != "" {
			return candidate, nil
		}
	}
	dims := ds.Dims()
	if len(dims) == 0 {
		return "", fmt.Errorf("dataset has no dimensions")
	}
	return dims[0].Name, nil
}

func (q *pointsQuery) extract(ds *dataset.Dataset) (*dataset.Table, error) {
	dim, err := q.rowDim(ds)
	if err != nil {
		return nil, err
	}

	var names []string
	if len(q.vars) > 0 {
		names = append(names, q.vars...)
		for _, extra := range append(append([]string{}, q.keep...), q.timeVar, q.depthVar, q.xVar, q.yVar) {
			if _, ok := ds.Variable(extra); ok && extra != dim && !contains(names, extra) {
				names = append(names, extra)
			}
		}
	}

	full, err := ds.Table(dim, names)
	if err != nil {
		return nil, err
	}

	valueCols := q.vars
	if len(valueCols) == 0 {
		valueCols = full.Columns[1:]
	}

	// Row selection
	rows := full.Rows[:0:0]
	for _, row := range full.Rows {
		if !q.selected(full, row) {
			continue
		}
		if !q.returnNull && allNull(full, row, valueCols) {
			continue
		}
		rows = append(rows, row)
	}

	// Column selection
	renames := q.renames()
	keep := map[string]bool{}
	for _, c := range valueCols {
		keep[c] = true
	}
	for _, c := range q.keep {
		keep[c] = true
	}
	for src := range renames {
		keep[src] = true
	}

	out := &dataset.Table{}
	var idx []int
	for i, c := range full.Columns {
		if !keep[c] {
			continue
		}
		idx = append(idx, i)
		if to, ok := renames[c]; ok {
			c = to
		}
		out.Columns = append(out.Columns, c)
	}
	out.Rows = make([][]any, len(rows))
	for r, row := range rows {
		projected := make([]any, len(idx))
		for j, i := range idx {
			projected[j] = row[i]
		}
		out.Rows[r] = projected
	}
	return out, nil
}

func (q *pointsQuery) selected(t *dataset.Table, row []any) bool {
	if q.timeVar != "" {
		if i := t.ColumnIndex(q.timeVar); i >= 0 {
			v, ok := toTime(row[i])
			if !ok {
				return false
			}
			if q.timeStart != nil && v.Before(*q.timeStart) {
				return false
			}
			if q.timeEnd != nil && v.After(*q.timeEnd) {
				return false
			}
		}
	}
	if q.depthVar != "" {
		if i := t.ColumnIndex(q.depthVar); i >= 0 {
			v, ok := toFloat(row[i])
			if !ok || v < q.depthStart || v > q.depthEnd {
				return false
			}
		}
	}
	return true
}

func allNull(t *dataset.Table, row []any, cols []string) bool {
	for _, c := range cols {
		if i := t.ColumnIndex(c); i >= 0 && row[i] != nil {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// parseTime reads a timestamp, treating zone-less values as UTC.
func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case string:
		return parseTime(t)
	}
	return time.Time{}, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
