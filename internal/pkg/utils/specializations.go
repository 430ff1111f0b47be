package utils

import (
	"encoding/json"
	"strings"
)

// SpecsToString converts []string to JSON string (safe for DB)
func SpecsToString(specs []string) string {
	if len(specs) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(specs)
	return string(data)
}

// StringToSpecs converts DB string back to []string
func StringToSpecs(s string) []string {
	if s == "" || s == "[]" {
		return []string{}
	}
	var specs []string
	if err := json.Unmarshal([]byte(s), &specs); err != nil {
		// Fallback: treat as comma-separated if invalid JSON
		return strings.Split(s, ",")
	}
	return specs
}

// NormalizeSpecs приводит список к нижнему регистру, убирает пустые
// значения и дубликаты, сохраняя исходный порядок.
func NormalizeSpecs(specs []string) []string {
	seen := make(map[string]bool, len(specs))
	out := make([]string, 0, len(specs))
	for _, s := range specs {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
