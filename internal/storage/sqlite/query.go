package sqlite

import (
	"fmt"
	"strings"
	"time"
)

// where accumulates AND-ed conditions and their arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// anyLike adds "(col1 LIKE ? OR col2 LIKE ? ...)" for a case-insensitive
// substring match of value against every column.
func (w *where) anyLike(value string, cols ...string) {
	pattern := likePattern(value)
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = col + ` LIKE ? ESCAPE '\'`
		w.args = append(w.args, pattern)
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func likePattern(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(value) + "%"
}

// orderBy translates ordering keys such as "-record_date" into an ORDER BY
// clause using only the whitelisted columns. Unknown keys are ignored and
// fallback applies when nothing valid remains. tiebreak keeps pages stable.
func orderBy(keys []string, allowed map[string]string, fallback, tiebreak string) string {
	var parts []string
	for _, key := range keys {
		key = strings.TrimSpace(key)
		dir := "ASC"
		if strings.HasPrefix(key, "-") {
			dir = "DESC"
			key = key[1:]
		}
		col, ok := allowed[key]
		if !ok {
			continue
		}
		parts = append(parts, col+" "+dir)
	}
	if len(parts) == 0 {
		parts = append(parts, fallback)
	}
	return " ORDER BY " + strings.Join(parts, ", ") + ", " + tiebreak
}

func limitOffset(size, offset int) string {
	if size <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", size, offset)
}

// timestamp scans DATETIME columns regardless of whether the driver already
// converted them to time.Time.
type timestamp struct {
	t *time.Time
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (ts timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*ts.t = v.UTC()
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	case nil:
		*ts.t = time.Time{}
		return nil
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", src)
	}
}

func (ts timestamp) parse(s string) error {
	s = strings.TrimSuffix(s, "Z")
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*ts.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("scan timestamp: unrecognized format %q", s)
}
