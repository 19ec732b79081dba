package reconcile

import (
	"fmt"
	"reflect"
	"sort"
)

// ReconcileAll compares every key of previous and current. A nil side counts as
// empty. Results are sorted by key.
func ReconcileAll(previous, current Side) []ReconcileResult {
	union := buildUnion(previous, current)

	results := make([]ReconcileResult, 0, len(union))
	for key := range union {
		results = append(results, buildResult(key, previous, current))
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Key < results[j].Key
	})
	return results
}

// Summarize counts results by status and keeps up to sample keys of each change kind.
func Summarize(results []ReconcileResult, sample int) Summary {
	var s Summary
	keep := func(keys []string, key string) []string {
		if len(keys) < sample {
			return append(keys, key)
		}
		return keys
	}
	for _, r := range results {
		switch r.Status() {
		case StatusAdded:
			s.Added++
			s.AddedKeys = keep(s.AddedKeys, r.Key)
		case StatusRemoved:
			s.Removed++
			s.RemovedKeys = keep(s.RemovedKeys, r.Key)
		case StatusChanged:
			s.Changed++
			s.ChangedKeys = keep(s.ChangedKeys, r.Key)
		default:
			s.Unchanged++
		}
	}
	return s
}

// buildUnion creates a union of the keys of both sides.
func buildUnion(previous, current Side) map[string]struct{} {
	union := make(map[string]struct{})
	for _, side := range []Side{previous, current} {
		if side == nil {
			continue
		}
		for key := range side.Keys() {
			union[key] = struct{}{}
		}
	}
	return union
}

// buildResult creates a ReconcileResult for a single key.
func buildResult(key string, previous, current Side) ReconcileResult {
	prev, prevPresent := lookup(previous, key)
	cur, curPresent := lookup(current, key)

	result := ReconcileResult{
		Key:             key,
		PreviousPresent: prevPresent,
		CurrentPresent:  curPresent,
		Mismatch:        []string{},
	}
	if prevPresent && curPresent {
		result.Mismatch = compareValues(prev, cur)
	}
	return result
}

func lookup(side Side, key string) (any, bool) {
	if side == nil {
		return nil, false
	}
	return side.Value(key)
}

func compareValues(prev, cur any) []string {
	if reflect.DeepEqual(prev, cur) {
		return []string{}
	}
	if pk, ck := kind(prev), kind(cur); pk != ck {
		return []string{fmt.Sprintf("type: %s -> %s", pk, ck)}
	}
	switch p := prev.(type) {
	case map[string]any:
		c := cur.(map[string]any)
		return []string{fmt.Sprintf("members: %d -> %d", len(p), len(c))}
	case []any:
		c := cur.([]any)
		return []string{fmt.Sprintf("items: %d -> %d", len(p), len(c))}
	}
	return []string{fmt.Sprintf("value: %v -> %v", prev, cur)}
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return "number"
	}
}
