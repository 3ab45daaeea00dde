package pipeline

import (
	"sort"
	"strconv"
)

// flattenResult converts a nested API result into a sorted (header, row)
// pair so it can flow through the same column mapping machinery as CSV
// sources. Keys are dotted paths; sorting keeps the merge deterministic.
func flattenResult(result map[string]any) ([]string, []string) {
	flat := make(map[string]string)
	flattenInto("", result, flat)

	header := make([]string, 0, len(flat))
	for key := range flat {
		header = append(header, key)
	}
	sort.Strings(header)

	row := make([]string, len(header))
	for i, key := range header {
		row[i] = flat[key]
	}
	return header, row
}

func flattenInto(prefix string, value any, out map[string]string) {
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			flattenInto(joinKey(prefix, key), child, out)
		}
	case []any:
		for i, child := range v {
			flattenInto(joinKey(prefix, strconv.Itoa(i)), child, out)
		}
	case string:
		out[prefix] = v
	case bool:
		out[prefix] = strconv.FormatBool(v)
	case float64:
		out[prefix] = strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		// absent stays absent
	default:
		// json.Unmarshal into any only produces the cases above
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
