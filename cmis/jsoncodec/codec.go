// Package jsoncodec converts between the browser-binding JSON-tree envelope
// and the content model. The conversion is one forward pass per record:
// known keys are dispatched by name, unknown keys are routed to the record's
// extension tree instead of failing, and polymorphic records are constructed
// from their explicit discriminator before their fields are decoded.
package jsoncodec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
	"github.com/content-interop/cmis-go/internal/platform/logutil"
)

// TypeResolver resolves type definitions for succinct property decoding.
// The browser binding supplies a fresh per-call resolver bound to the target
// repository; ReloadTypeDefinition bypasses any longer-lived cache.
type TypeResolver interface {
	TypeDefinition(ctx context.Context, typeID string) (*model.TypeDefinition, error)
	ReloadTypeDefinition(ctx context.Context, typeID string) (*model.TypeDefinition, error)
}

// Codec converts wire JSON trees to and from the content model. The zero
// value decodes everything and encodes for CMIS 1.1 with epoch-millisecond
// date-times.
type Codec struct {
	// DateTimeFormat selects the date-time encoding: epoch milliseconds
	// (simple, the default) or ISO-8601 (extended). Decoding accepts both
	// regardless.
	DateTimeFormat cmis.DateTimeFormat

	// Version guards encoding: fields that only exist from CMIS 1.1 onward
	// are dropped with a warning when targeting 1.0.
	Version cmis.Version

	// Logger receives interop warnings for skipped anomalies. Nil discards.
	Logger *slog.Logger
}

func (c *Codec) logger() *slog.Logger { return logutil.NoopIfNil(c.Logger) }

func (c *Codec) version() cmis.Version {
	if c.Version == "" {
		return cmis.Version11
	}
	return c.Version
}

// ParseObject parses wire bytes into a JSON object with exact-precision
// numbers. A non-object top level is a structural failure.
func ParseObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("malformed JSON body: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}
	return obj, nil
}

// ParseArray parses wire bytes into a JSON array with exact-precision
// numbers.
func ParseArray(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("malformed JSON body: %w", err)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON array, got %T", v)
	}
	return arr, nil
}

// obj wraps one wire JSON object and tracks which keys were consumed, so
// the leftovers can be routed to the extension tree.
type obj struct {
	m        map[string]any
	consumed map[string]bool
}

func newObj(m map[string]any) *obj {
	return &obj{m: m, consumed: make(map[string]bool, len(m))}
}

func (o *obj) take(key string) (any, bool) {
	v, ok := o.m[key]
	if ok {
		o.consumed[key] = true
	}
	return v, ok
}

func (o *obj) str(key string) string {
	v, _ := o.take(key)
	s, _ := v.(string)
	return s
}

func (o *obj) boolPtr(key string) *bool {
	v, ok := o.take(key)
	if !ok {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}

func (o *obj) intPtr(key string) *int64 {
	v, ok := o.take(key)
	if !ok {
		return nil
	}
	n, ok := v.(json.Number)
	if !ok {
		return nil
	}
	i, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return nil
	}
	return &i
}

func (o *obj) decimalPtr(key string) *decimal.Decimal {
	v, ok := o.take(key)
	if !ok {
		return nil
	}
	n, ok := v.(json.Number)
	if !ok {
		return nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return nil
	}
	return &d
}

func (o *obj) object(key string) map[string]any {
	v, _ := o.take(key)
	m, _ := v.(map[string]any)
	return m
}

func (o *obj) array(key string) []any {
	v, _ := o.take(key)
	a, _ := v.([]any)
	return a
}

func (o *obj) strings(key string) []string {
	arr := o.array(key)
	if arr == nil {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// extensions converts every unconsumed key into extension nodes, in sorted
// key order for stable output.
func (o *obj) extensions() []*model.ExtensionNode {
	var keys []string
	for k := range o.m {
		if !o.consumed[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)
	var nodes []*model.ExtensionNode
	for _, k := range keys {
		nodes = append(nodes, toExtensionNodes(k, o.m[k])...)
	}
	return nodes
}

// toExtensionNodes converts an unknown wire value into extension nodes.
// Scalars become value nodes (their literal text), objects become children,
// and arrays repeat the node name per element.
func toExtensionNodes(name string, v any) []*model.ExtensionNode {
	switch t := v.(type) {
	case map[string]any:
		node := &model.ExtensionNode{Name: name}
		var keys []string
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			node.Children = append(node.Children, toExtensionNodes(k, t[k])...)
		}
		return []*model.ExtensionNode{node}
	case []any:
		var nodes []*model.ExtensionNode
		for _, item := range t {
			nodes = append(nodes, toExtensionNodes(name, item)...)
		}
		if nodes == nil {
			nodes = []*model.ExtensionNode{{Name: name}}
		}
		return nodes
	case nil:
		return []*model.ExtensionNode{{Name: name}}
	case string:
		return []*model.ExtensionNode{{Name: name, Value: t}}
	case bool:
		return []*model.ExtensionNode{{Name: name, Value: strconv.FormatBool(t)}}
	case json.Number:
		return []*model.ExtensionNode{{Name: name, Value: t.String()}}
	default:
		return []*model.ExtensionNode{{Name: name, Value: fmt.Sprintf("%v", t)}}
	}
}

// writeExtensions re-emits extension nodes into a wire object, after the
// known fields. Repeated sibling names collapse back into arrays.
func writeExtensions(out map[string]any, nodes []*model.ExtensionNode) {
	grouped := make(map[string][]*model.ExtensionNode)
	var order []string
	for _, n := range nodes {
		if _, seen := grouped[n.Name]; !seen {
			order = append(order, n.Name)
		}
		grouped[n.Name] = append(grouped[n.Name], n)
	}
	for _, name := range order {
		group := grouped[name]
		if len(group) == 1 {
			out[name] = extensionValue(group[0])
			continue
		}
		arr := make([]any, 0, len(group))
		for _, n := range group {
			arr = append(arr, extensionValue(n))
		}
		out[name] = arr
	}
}

func extensionValue(n *model.ExtensionNode) any {
	if len(n.Children) == 0 {
		if n.Value == "" {
			return nil
		}
		return n.Value
	}
	child := make(map[string]any, len(n.Children))
	writeExtensions(child, n.Children)
	return child
}

// parseDateTime accepts either an epoch-milliseconds number or an ISO-8601
// string, whichever the server negotiated.
func parseDateTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case json.Number:
		ms, err := strconv.ParseInt(t.String(), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid epoch datetime %q: %w", t.String(), err)
		}
		return time.UnixMilli(ms).UTC(), nil
	case string:
		ts, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			ts, err = time.Parse(time.RFC3339, t)
		}
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid ISO-8601 datetime %q", t)
		}
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("invalid datetime value of type %T", v)
}

// parseValue parses one wire scalar into a typed value using kind-specific
// rules. Integers and decimals are parsed from their exact decimal literal,
// never through float64.
func parseValue(kind cmis.PropertyType, v any) (model.Value, error) {
	switch kind {
	case cmis.PropertyString, cmis.PropertyID, cmis.PropertyHTML, cmis.PropertyURI:
		s, ok := v.(string)
		if !ok {
			return model.Value{}, fmt.Errorf("expected string for %s value, got %T", kind, v)
		}
		return model.TextValue(kind, s)
	case cmis.PropertyInteger:
		n, ok := v.(json.Number)
		if !ok {
			return model.Value{}, fmt.Errorf("expected number for integer value, got %T", v)
		}
		i, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil {
			return model.Value{}, fmt.Errorf("invalid integer %q: %w", n.String(), err)
		}
		return model.IntegerValue(i), nil
	case cmis.PropertyDecimal:
		n, ok := v.(json.Number)
		if !ok {
			return model.Value{}, fmt.Errorf("expected number for decimal value, got %T", v)
		}
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return model.Value{}, fmt.Errorf("invalid decimal %q: %w", n.String(), err)
		}
		return model.DecimalValue(d), nil
	case cmis.PropertyBoolean:
		b, ok := v.(bool)
		if !ok {
			return model.Value{}, fmt.Errorf("expected boolean value, got %T", v)
		}
		return model.BooleanValue(b), nil
	case cmis.PropertyDateTime:
		ts, err := parseDateTime(v)
		if err != nil {
			return model.Value{}, err
		}
		return model.DateTimeValue(ts), nil
	}
	return model.Value{}, fmt.Errorf("unknown property type %q", kind)
}

// encodeValue renders a typed value as a wire scalar.
func (c *Codec) encodeValue(v model.Value) any {
	switch v.Kind() {
	case cmis.PropertyInteger:
		return json.Number(strconv.FormatInt(v.Integer(), 10))
	case cmis.PropertyDecimal:
		return json.Number(v.Decimal().String())
	case cmis.PropertyBoolean:
		return v.Boolean()
	case cmis.PropertyDateTime:
		if c.DateTimeFormat == cmis.DateTimeExtended {
			return v.Time().Format(time.RFC3339Nano)
		}
		return json.Number(strconv.FormatInt(v.Time().UnixMilli(), 10))
	default:
		return v.Text()
	}
}
