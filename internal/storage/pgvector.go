package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatVector converts a float32 slice to pgvector string format.
// Example output: "[0.1,0.2,0.3]"
func FormatVector(embedding []float32) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// ParseVector converts a pgvector string literal back to a float32 slice
func ParseVector(value string) ([]float32, error) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return nil, fmt.Errorf("invalid vector literal: %q", value)
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, "["), "]")
	if inner == "" {
		return []float32{}, nil
	}

	parts := strings.Split(inner, ",")
	vector := make([]float32, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %d: %w", i, err)
		}
		vector[i] = float32(f)
	}

	return vector, nil
}
