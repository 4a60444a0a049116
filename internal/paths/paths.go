// Package paths decomposes candidate strings into path components for
// the matcher. The separator is '/' on every platform; candidate lists
// handed over by editors use forward slashes regardless of OS.
package paths

import "strings"

// Separator between path components.
const Separator = '/'

// Basename returns the part of path after the rightmost separator, or
// the whole input when it has none.
func Basename(path string) string {
	if pos := strings.LastIndexByte(path, Separator); pos >= 0 {
		return path[pos+1:]
	}
	return path
}

// Components splits path into its components left to right. Every
// component except possibly the last keeps its trailing separator, so
// concatenating the components reproduces the input. An empty input
// yields nil.
func Components(path string) []string {
	return AppendComponents(nil, path)
}

// AppendComponents appends the components of path to dst and returns
// the extended slice. Matcher workers pass dst[:0] to reuse the
// backing array across candidates.
func AppendComponents(dst []string, path string) []string {
	for {
		pos := strings.IndexByte(path, Separator)
		if pos < 0 {
			if path != "" {
				dst = append(dst, path)
			}
			return dst
		}
		dst = append(dst, path[:pos+1])
		path = path[pos+1:]
	}
}

// Distance returns the number of components that must be traversed to
// get from x to y: len(x)+len(y)-2k, where k is the length of their
// longest common component prefix.
func Distance(x, y []string) int {
	end := min(len(x), len(y))
	common := 0
	for common < end && x[common] == y[common] {
		common++
	}
	return len(x) + len(y) - 2*common
}
