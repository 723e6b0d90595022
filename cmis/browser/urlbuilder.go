package browser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/content-interop/cmis-go/cmis"
)

// extraReserved are the characters escaped beyond standard URI escaping in
// query values and path segments, so servers never see them as syntax.
const extraReserved = ";?:@&=+$,[]"

// escape percent-encodes s for use in a query value or path. keepSlash
// leaves "/" intact, for whole paths appended as-is.
func escape(s string, keepSlash bool) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			b.WriteByte(ch)
		case ch == '-' || ch == '_' || ch == '.' || ch == '~':
			b.WriteByte(ch)
		case ch == '/' && keepSlash:
			b.WriteByte(ch)
		default:
			fmt.Fprintf(&b, "%%%02X", ch)
		}
	}
	return b.String()
}

func escapeValue(s string) string       { return escape(s, false) }
func escapePathSegment(s string) string { return escape(s, false) }
func escapePath(s string) string        { return escape(s, true) }

// urlBuilder assembles one request URL from a base, appended path segments
// and query parameters. Parameters with nil values are omitted rather than
// encoded; enum and boolean values are normalized to their wire literals.
type urlBuilder struct {
	path  string
	query []string
}

// newURLBuilder splits base into path and existing query. The existing
// query is preserved verbatim.
func newURLBuilder(base string) *urlBuilder {
	b := &urlBuilder{path: base}
	if i := strings.IndexByte(base, '?'); i >= 0 {
		b.path = base[:i]
		if q := base[i+1:]; q != "" {
			b.query = append(b.query, q)
		}
	}
	return b
}

func (b *urlBuilder) clone() *urlBuilder {
	return &urlBuilder{path: b.path, query: append([]string(nil), b.query...)}
}

// addPathSegment appends one escaped segment; "/" inside the segment is
// escaped so it cannot split into two segments.
func (b *urlBuilder) addPathSegment(segment string) *urlBuilder {
	b.path = strings.TrimSuffix(b.path, "/") + "/" + escapePathSegment(segment)
	return b
}

// addPath appends a whole repository path; "/" separates segments and stays
// unescaped.
func (b *urlBuilder) addPath(path string) *urlBuilder {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return b
	}
	b.path = strings.TrimSuffix(b.path, "/") + "/" + escapePath(trimmed)
	return b
}

// addParam appends name=value. Nil values and nil typed pointers are
// omitted.
func (b *urlBuilder) addParam(name string, value any) *urlBuilder {
	s, ok := normalizeParam(value)
	if !ok {
		return b
	}
	b.query = append(b.query, escapeValue(name)+"="+escapeValue(s))
	return b
}

// selector appends the cmisselector parameter.
func (b *urlBuilder) selector(sel string) *urlBuilder {
	return b.addParam(cmis.ParamSelector, sel)
}

func (b *urlBuilder) String() string {
	if len(b.query) == 0 {
		return b.path
	}
	return b.path + "?" + strings.Join(b.query, "&")
}

// normalizeParam renders a parameter value as its wire literal. The false
// return means "omit this parameter".
func normalizeParam(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	case bool:
		return strconv.FormatBool(v), true
	case *bool:
		if v == nil {
			return "", false
		}
		return strconv.FormatBool(*v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case *int64:
		if v == nil {
			return "", false
		}
		return strconv.FormatInt(*v, 10), true
	case fmt.Stringer:
		return v.String(), true
	default:
		// Enum string types reach here.
		return fmt.Sprintf("%v", v), true
	}
}
