package utils

import (
	"crypto/sha256"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RoundTo rounds v to the given number of decimal places, halves away from zero.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// JoinFloats formats values with a fixed precision and joins them with commas.
func JoinFloats(values []float64, precision int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', precision, 64)
	}
	return strings.Join(parts, ",")
}

// ParseFloatList parses a comma-separated list of decimals.
func ParseFloatList(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty value list")
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value at position %d: %q", i+1, part)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("value at position %d is not finite", i+1)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseIntList parses a comma-separated list of integers.
func ParseIntList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid integer at position %d: %q", i+1, part)
		}
		out = append(out, v)
	}
	return out, nil
}

// JoinInts joins integers with commas.
func JoinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// SeedFrom derives a deterministic shuffle seed from an arbitrary key.
func SeedFrom(key string) int64 {
	sum := sha256.Sum256([]byte(key))
	return BytesToInt(sum[:])
}

// BytesToInt converts a byte slice (e.g., from SHA256 sum) to an int64.
func BytesToInt(b []byte) int64 {
	// Take the first 8 bytes (or less if available) to fit into int64
	var i int64
	for idx, val := range b {
		if idx >= 8 {
			break
		}
		i = (i << 8) | int64(val)
	}
	return i
}
