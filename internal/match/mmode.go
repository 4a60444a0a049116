package match

import (
	"fmt"
	"strings"

	"github.com/kk-code-lab/fpick/internal/paths"
)

// Mode selects which part of a candidate line is matched against the
// query. Editors hand over buffer and file lists in a handful of
// tab-delimited line shapes; the mode picks the match key out of them.
type Mode int

const (
	// ModeFullLine matches against the whole line.
	ModeFullLine Mode = iota
	// ModeFilenameOnly matches against the basename.
	ModeFilenameOnly
	// ModeFirstNonTab matches against the line up to its first tab.
	ModeFirstNonTab
	// ModeUntilLastTab matches against the line up to its last tab.
	ModeUntilLastTab
)

// ParseMode resolves a mode name. The empty string selects
// ModeFullLine.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "", "full-line":
		return ModeFullLine, nil
	case "filename-only":
		return ModeFilenameOnly, nil
	case "first-non-tab":
		return ModeFirstNonTab, nil
	case "until-last-tab":
		return ModeUntilLastTab, nil
	}
	return 0, fmt.Errorf("%w: unknown match mode %q", ErrInvalidOption, name)
}

// Key extracts the match key from line and the byte offset of the key
// within it. Match positions are relative to the key; adding the
// offset maps them back onto the line.
func (m Mode) Key(line string) (key string, offset int) {
	switch m {
	case ModeFilenameOnly:
		base := paths.Basename(line)
		return base, len(line) - len(base)
	case ModeFirstNonTab:
		if tab := strings.IndexByte(line, '\t'); tab >= 0 {
			return line[:tab], 0
		}
	case ModeUntilLastTab:
		if tab := strings.LastIndexByte(line, '\t'); tab >= 0 {
			return line[:tab], 0
		}
	}
	return line, 0
}

// InvertQuery splits query on a single-byte delimiter and rejoins the
// pieces in reverse order with nothing between them, so "mat/src" with
// delimiter '/' becomes "srcmat". An empty delim returns the query
// unchanged.
func InvertQuery(query, delim string) (string, error) {
	if delim == "" {
		return query, nil
	}
	if len(delim) > 1 {
		return "", fmt.Errorf(
			"%w: query inverting delimiter must be a single character",
			ErrInvalidOption)
	}
	parts := strings.Split(query, delim)
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ""), nil
}
