package match

import (
	"errors"
	"fmt"
)

// ErrInvalidOption reports an option rejected at binding time.
var ErrInvalidOption = errors.New("invalid option")

// ErrRematch reports that a ranked match failed to re-match while
// collecting match positions. This indicates a matcher bug, never bad
// input.
var ErrRematch = errors.New("re-match failed")

// QueryPathMode controls whether each maximal run of query code points
// between path separators must match entirely inside one candidate
// component.
type QueryPathMode int

const (
	// QueryPathAuto behaves like QueryPathStrict when the query
	// contains a path separator and like QueryPathNormal otherwise.
	QueryPathAuto QueryPathMode = iota
	QueryPathNormal
	QueryPathStrict
)

// Options configure a matching invocation. The zero value is not
// usable; start from DefaultOptions.
type Options struct {
	// CRFile is the currently open file. Empty means none.
	CRFile string

	// MatchCRFile permits a candidate equal to CRFile to match.
	MatchCRFile bool

	// Limit bounds the number of emitted matches. 0 means unbounded.
	Limit int

	// NrThreads is the number of matcher workers. Must be >= 1.
	NrThreads int

	// Path enables path semantics for the query and all candidates.
	Path bool

	// Unicode decodes the query and candidates as UTF-8 instead of
	// byte-at-a-time.
	Unicode bool

	// WantMatchInfo passes per-match position info to the sink.
	WantMatchInfo bool

	// QueryPathMode governs component-confinement of query segments.
	QueryPathMode QueryPathMode
}

// DefaultOptions returns the options used when the caller does not
// override anything: single-threaded path matching with no limit.
func DefaultOptions() Options {
	return Options{
		NrThreads:     1,
		Path:          true,
		QueryPathMode: QueryPathAuto,
	}
}

func (o *Options) validate() error {
	if o.NrThreads < 1 {
		return fmt.Errorf("%w: nr_threads must be >= 1, got %d",
			ErrInvalidOption, o.NrThreads)
	}
	switch o.QueryPathMode {
	case QueryPathAuto, QueryPathNormal, QueryPathStrict:
	default:
		return fmt.Errorf("%w: unknown query path mode %d",
			ErrInvalidOption, o.QueryPathMode)
	}
	return nil
}
