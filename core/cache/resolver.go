package cache

import (
	"iter"
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractKeys enumerates the flattened keys of doc in document order.
//
// Nested objects are descended while the current level is below maxDepth-1, so
// maxDepth 1 yields only top-level properties. Arrays are never descended: the key
// stops at the array itself. A maxDepth of zero or less means DefaultMaxDepth.
// The returned sequence holds no state and may be ranged over repeatedly.
func ExtractKeys(doc *Document, maxDepth int) iter.Seq[string] {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return func(yield func(string) bool) {
		if doc == nil {
			return
		}
		walkKeys(gjson.ParseBytes(doc.raw), "", 0, maxDepth, yield)
	}
}

// walkKeys reports false once yield asked to stop.
func walkKeys(node gjson.Result, parent string, depth, maxDepth int, yield func(string) bool) bool {
	// A repeated member name decodes to its last value, so only the last
	// occurrence is listed and descended.
	last := make(map[string]int)
	i := 0
	node.ForEach(func(k, _ gjson.Result) bool {
		last[k.String()] = i
		i++
		return true
	})

	i = 0
	more := true
	node.ForEach(func(k, v gjson.Result) bool {
		name := k.String()
		pos := i
		i++
		if last[name] != pos {
			return true
		}

		key := name
		if depth > 0 {
			key = parent + "." + name
		}
		if !yield(key) {
			more = false
			return false
		}
		if v.IsObject() && depth < maxDepth-1 {
			if !walkKeys(v, key, depth+1, maxDepth, yield) {
				more = false
				return false
			}
		}
		return true
	})
	return more
}

// Resolve looks key up in node, trying in order:
//
//  1. a property literally named key, dots included;
//  2. a split at the first dot, where node[head] is an object holding the whole
//     remainder as a property, or else resolving the remainder inside node[head];
//  3. a walk over every dot-separated segment.
//
// A JSON null counts as found.
func Resolve(key string, node map[string]any) (any, bool) {
	if node == nil {
		return nil, false
	}
	if v, ok := node[key]; ok {
		return v, true
	}

	if head, rest, found := strings.Cut(key, "."); found {
		if child, ok := node[head].(map[string]any); ok {
			if v, ok := child[rest]; ok {
				return v, true
			}
			if v, ok := Resolve(rest, child); ok {
				return v, true
			}
		}
	}

	return walkPath(strings.Split(key, "."), node)
}

func walkPath(segments []string, node map[string]any) (any, bool) {
	var cur any = node
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// keyIndex maps lowercased flat keys to their first-discovered spelling.
type keyIndex map[string]string

func buildIndex(doc *Document, maxDepth int) (keyIndex, int) {
	idx := make(keyIndex)
	count := 0
	for key := range ExtractKeys(doc, maxDepth) {
		count++
		lower := strings.ToLower(key)
		if _, exists := idx[lower]; !exists {
			idx[lower] = key
		}
	}
	return idx, count
}

func (idx keyIndex) lookup(lowerKey string, root map[string]any) (any, bool) {
	flat, ok := idx[lowerKey]
	if !ok {
		return nil, false
	}
	return Resolve(flat, root)
}

// KeyResolver applies the lookup cascade used by SourceCache.Get.
type KeyResolver struct {
	prefixes []string
}

// NewKeyResolver returns a resolver trying the given namespace prefixes in order.
// Prefixes are matched case-insensitively; a trailing dot is optional.
func NewKeyResolver(prefixes []string) *KeyResolver {
	r := &KeyResolver{}
	seen := make(map[string]struct{}, len(prefixes))
	for _, p := range prefixes {
		p = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(p), "."))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		r.prefixes = append(r.prefixes, p)
	}
	return r
}

// Prefixes returns the normalized namespace prefixes.
func (r *KeyResolver) Prefixes() []string {
	return append([]string(nil), r.prefixes...)
}

// Get resolves key against doc. The first step that finds a value wins:
//
//	a. case-insensitive match against the indexed flat keys
//	b. for each prefix the key lacks, the same match with "<prefix>." prepended
//	c. for each prefix the key carries, the same match with it stripped
//	d. Resolve on the key exactly as given
func (r *KeyResolver) Get(doc *Document, idx keyIndex, key string) (any, bool) {
	if doc == nil || key == "" {
		return nil, false
	}
	root := doc.Root()
	lower := strings.ToLower(key)

	if v, ok := idx.lookup(lower, root); ok {
		return v, true
	}

	for _, p := range r.prefixes {
		ns := p + "."
		candidate := ns + lower
		if strings.HasPrefix(lower, ns) {
			candidate = lower[len(ns):]
		}
		if v, ok := idx.lookup(candidate, root); ok {
			return v, true
		}
	}

	return Resolve(key, root)
}
