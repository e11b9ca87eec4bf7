package stringutils

import (
	"bufio"
	"io"
	"strings"

	"github.com/samber/lo"
)

// MaskSecret keeps the first 6 and last 4 characters of s. Short values are fully masked.
func MaskSecret(s string) string {
	const head, tail = 6, 4
	if len(s) <= head+tail {
		return strings.Repeat("*", len(s))
	}
	return s[:head] + "..." + s[len(s)-tail:]
}

// Clean trims items, drops empty ones and removes duplicates keeping first occurrence.
func Clean(items []string) []string {
	trimmed := lo.Map(items, func(s string, _ int) string { return strings.TrimSpace(s) })
	return lo.Uniq(lo.Compact(trimmed))
}

// ReadLines returns the non-empty, non-comment lines of r.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
