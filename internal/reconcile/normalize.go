package reconcile

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/reassign/internal/ir"
	"github.com/roach88/reassign/internal/relation"
)

// Normalize turns a raw nested payload into a Payload for d.
//
// raw may be an ir.Value or anything ir.FromNative accepts. A mapping is a
// single entry, a sequence of mappings is many entries. An indexed mapping
// ({"0": {...}, "1": {...}}) is accepted for Collection relationships and
// ordered by index.
//
// Keys are NFC normalized and trimmed, in the entry and one level into any
// nested mapping or sequence of mappings. Deeper payloads are left as-is.
//
// Normalize has no side effects. Every failure is INVALID_PAYLOAD_SHAPE.
func Normalize(raw any, d relation.Descriptor) (Payload, error) {
	v, err := ir.FromNative(raw)
	if err != nil {
		return Payload{}, &Error{
			Code:     ErrCodeInvalidPayloadShape,
			Message:  "payload is not representable",
			Relation: d.Name,
			Err:      err,
		}
	}

	var (
		objects []ir.Object
		many    bool
	)

	switch val := v.(type) {
	case ir.List:
		many = true
		objects = make([]ir.Object, 0, len(val))
		for i, elem := range val {
			obj, ok := elem.(ir.Object)
			if !ok {
				return Payload{}, shapeError(d, "entry %d is %s, expected a mapping", i, kindOf(elem))
			}
			objects = append(objects, obj)
		}
	case ir.Object:
		if indexed, ok := indexedEntries(val); ok && d.Cardinality == relation.Collection {
			many = true
			objects = indexed
		} else {
			objects = []ir.Object{val}
		}
	default:
		return Payload{}, shapeError(d, "payload is %s, expected a mapping or a sequence of mappings", kindOf(v))
	}

	switch {
	case many && d.Cardinality == relation.Single:
		return Payload{}, shapeError(d, "sequence payload for single relationship")
	case !many && d.Cardinality == relation.Collection:
		return Payload{}, shapeError(d, "mapping payload for collection relationship")
	}

	p := Payload{Many: many, Entries: make([]Entry, 0, len(objects))}
	for i, obj := range objects {
		entry, err := normalizeEntry(i, obj, d)
		if err != nil {
			return Payload{}, err
		}
		p.Entries = append(p.Entries, entry)
	}
	return p, nil
}

func normalizeEntry(index int, obj ir.Object, d relation.Descriptor) (Entry, error) {
	attrs, err := normalizeKeys(obj, true)
	if err != nil {
		return Entry{}, shapeError(d, "entry %d: %v", index, err)
	}

	e := Entry{Index: index}

	if v, ok := attrs[DestroyKey]; ok {
		e.Destroy = Truthy(v)
		delete(attrs, DestroyKey)
	}
	if v, ok := attrs[DeleteKey]; ok {
		e.Delete = Truthy(v)
		delete(attrs, DeleteKey)
	}

	if v, ok := attrs[d.LookupKey]; ok {
		delete(attrs, d.LookupKey)
		if !isBlank(v) {
			if _, scalar := ir.KeyString(v); !scalar {
				return Entry{}, shapeError(d, "entry %d: lookup key %q holds %s", index, d.LookupKey, kindOf(v))
			}
			e.LookupValue = v
		}
	}

	e.Fields = attrs
	return e, nil
}

// normalizeKeys returns a copy of obj with canonical keys. When descend is
// true, mappings and sequences of mappings directly under obj are
// normalized too, without descending further.
func normalizeKeys(obj ir.Object, descend bool) (ir.Object, error) {
	out := make(ir.Object, len(obj))
	for _, k := range obj.SortedKeys() {
		nk := normalizeKey(k)
		if _, dup := out[nk]; dup {
			return nil, &keyError{key: nk}
		}

		v := obj[k]
		if descend {
			switch val := v.(type) {
			case ir.Object:
				inner, err := normalizeKeys(val, false)
				if err != nil {
					return nil, err
				}
				v = inner
			case ir.List:
				list := make(ir.List, len(val))
				for i, elem := range val {
					if inner, ok := elem.(ir.Object); ok {
						n, err := normalizeKeys(inner, false)
						if err != nil {
							return nil, err
						}
						elem = n
					}
					list[i] = elem
				}
				v = list
			}
		}
		out[nk] = v
	}
	return out, nil
}

func normalizeKey(k string) string {
	return strings.TrimSpace(norm.NFC.String(k))
}

type keyError struct {
	key string
}

func (e *keyError) Error() string {
	return "duplicate key " + strconv.Quote(e.key) + " after normalization"
}

// indexedEntries recognizes {"0": {...}, "1": {...}} collection payloads.
func indexedEntries(obj ir.Object) ([]ir.Object, bool) {
	if len(obj) == 0 {
		return nil, false
	}

	type indexed struct {
		n   int64
		obj ir.Object
	}
	items := make([]indexed, 0, len(obj))
	for k, v := range obj {
		n, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		if err != nil {
			return nil, false
		}
		inner, ok := v.(ir.Object)
		if !ok {
			return nil, false
		}
		items = append(items, indexed{n: n, obj: inner})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].n < items[j].n })
	out := make([]ir.Object, len(items))
	for i, it := range items {
		out[i] = it.obj
	}
	return out, true
}

func isBlank(v ir.Value) bool {
	if ir.IsNull(v) {
		return true
	}
	s, ok := v.(ir.String)
	return ok && strings.TrimSpace(string(s)) == ""
}

func kindOf(v ir.Value) string {
	switch v.(type) {
	case nil, ir.Null:
		return "null"
	case ir.String:
		return "a string"
	case ir.Int:
		return "an integer"
	case ir.Bool:
		return "a boolean"
	case ir.List:
		return "a sequence"
	case ir.Object:
		return "a mapping"
	default:
		return "unknown"
	}
}

func shapeError(d relation.Descriptor, format string, args ...any) *Error {
	e := newInvalidPayloadShape(format, args...)
	e.Relation = d.Name
	return e
}
