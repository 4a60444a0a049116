package match

import "fmt"

// MaxPrefixScore is the worst possible prefix score tier. It is also
// the widest value representable in the packed reverse score.
const MaxPrefixScore uint32 = 1<<31 - 1

// Scorer holds the per-candidate match state before reduction to a
// single rank value. All fields are bounded by the candidate length.
type Scorer struct {
	// PrefixScore tiers the quality of the key-part match:
	//
	//   0                  the query's key segment is a prefix of the key
	//   word index sum     every key-segment code point matched at a
	//                      word prefix (sum of 1-indexed matched words)
	//   MaxPrefixScore-3   match not from the query basename start but
	//                      hitting the first key code point
	//   MaxPrefixScore-2   greedy match from the query basename start
	//                      that hit the first key code point
	//   MaxPrefixScore-1   greedy match from the query basename start
	//   MaxPrefixScore     everything else
	//
	// Lower is better.
	PrefixScore uint32

	// WordPrefixLen counts matched code points at word starts in the
	// key. Higher is better.
	WordPrefixLen int

	// Parts counts path components that contributed at least one
	// match. Lower is better.
	Parts int

	// CurFilePrefixLen is the byte length of the common prefix between
	// the key and the current file's basename (truncated past its last
	// dot). Higher is better; 0 when the candidate is the current file.
	CurFilePrefixLen int

	// PathDistance counts components traversed between the current
	// file's directory and the candidate. Lower is better.
	PathDistance int

	// UnmatchedLen counts trailing key code points after the last
	// match. Lower is weakly preferred: extending the query at its end
	// is the cheapest refinement.
	UnmatchedLen int
}

// Packed field widths, low to high:
// unmatched_len 8, path_distance 6, cur_file_prefix_len 6, parts 8,
// word_prefix_len 3, prefix_score 31.
const (
	unmatchedBits  = 8
	distanceBits   = 6
	curPrefixBits  = 6
	partsBits      = 8
	wordPrefixBits = 3
)

// ReverseScore packs the scorer into a single value ordered
// lexicographically on (PrefixScore, -WordPrefixLen, Parts,
// -CurFilePrefixLen, PathDistance, UnmatchedLen). Lower is better.
func (s *Scorer) ReverseScore() uint64 {
	shift := uint(0)
	rev := clampBits(uint64(s.UnmatchedLen), unmatchedBits) << shift
	shift += unmatchedBits
	rev |= clampBits(uint64(s.PathDistance), distanceBits) << shift
	shift += distanceBits
	rev |= invertBits(uint64(s.CurFilePrefixLen), curPrefixBits) << shift
	shift += curPrefixBits
	rev |= clampBits(uint64(s.Parts), partsBits) << shift
	shift += partsBits
	rev |= invertBits(uint64(s.WordPrefixLen), wordPrefixBits) << shift
	shift += wordPrefixBits
	rev |= uint64(s.PrefixScore) << shift
	return rev
}

// DebugString renders every scorer field for score tracing.
func (s *Scorer) DebugString() string {
	return fmt.Sprintf("prefix_score=%d, word_prefix_len=%d, parts=%d, "+
		"cur_file_prefix_len=%d, path_distance=%d, unmatched_len=%d",
		s.PrefixScore, s.WordPrefixLen, s.Parts, s.CurFilePrefixLen,
		s.PathDistance, s.UnmatchedLen)
}

func clampBits(v uint64, bits uint) uint64 {
	if max := uint64(1)<<bits - 1; v > max {
		return max
	}
	return v
}

// invertBits maps a maximize-field into the minimize packing.
func invertBits(v uint64, bits uint) uint64 {
	max := uint64(1)<<bits - 1
	return max - clampBits(v, bits)
}
