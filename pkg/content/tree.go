package content

import (
	"reflect"
	"sort"
	"strconv"
)

// Tree is the root object holding every editable text and asset URL of the site.
// Nested objects are map[string]any, lists are []any, leaves are scalars.
type Tree map[string]any

// Clone returns a fully independent copy of the tree.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	return cloneMap(t)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case Tree:
		return cloneMap(v)
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = cloneValue(v[i])
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	default:
		return v
	}
}

// Equal reports whether two trees hold the same structure and leaf values.
func Equal(a, b Tree) bool {
	return reflect.DeepEqual(map[string]any(a.Clone()), map[string]any(b.Clone()))
}

// IsLeaf reports whether value is a scalar: a string, a number or a boolean.
// nil is not a leaf; an absent text is the empty string.
func IsLeaf(value any) bool {
	if value == nil {
		return false
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// Change is a leaf whose value differs between two trees.
type Change struct {
	Path   string `json:"path"`
	Before any    `json:"before"`
	After  any    `json:"after"`
}

// Diff lists the leaves that differ between before and after, ordered by path.
func Diff(before, after Tree) []Change {
	changes := []Change{}
	diffValue("", cloneValue(before), cloneValue(after), &changes)
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return changes
}

func diffValue(prefix string, before, after any, out *[]Change) {
	bm, bIsMap := before.(map[string]any)
	am, aIsMap := after.(map[string]any)
	if bIsMap && aIsMap {
		keys := make(map[string]struct{}, len(bm)+len(am))
		for k := range bm {
			keys[k] = struct{}{}
		}
		for k := range am {
			keys[k] = struct{}{}
		}
		for k := range keys {
			diffValue(join(prefix, k), bm[k], am[k], out)
		}
		return
	}

	bl, bIsList := before.([]any)
	al, aIsList := after.([]any)
	if bIsList && aIsList {
		n := len(bl)
		if len(al) > n {
			n = len(al)
		}
		for i := 0; i < n; i++ {
			var b, a any
			if i < len(bl) {
				b = bl[i]
			}
			if i < len(al) {
				a = al[i]
			}
			diffValue(join(prefix, strconv.Itoa(i)), b, a, out)
		}
		return
	}

	if !reflect.DeepEqual(before, after) {
		*out = append(*out, Change{Path: prefix, Before: before, After: after})
	}
}

func join(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}
