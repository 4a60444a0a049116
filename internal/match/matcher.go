package match

import (
	"sort"
	"strings"

	"github.com/kk-code-lab/fpick/internal/chars"
	"github.com/kk-code-lab/fpick/internal/paths"
)

// Matcher scores candidates against a single decoded query. It keeps
// private scratch buffers, so a Matcher must not be shared between
// goroutines; the pipeline builds one per worker.
type Matcher struct {
	opts Options
	dec  *chars.Decoder

	queryChars    []rune
	queryKeyBegin int
	requireFull   bool
	caseSensitive bool

	curFileDirParts []string
	curFileKey      string

	keepPositions bool

	// Scratch reused across candidates.
	itemParts []string
	keyChars  []rune
	keyOffs   []int
	tempChars []rune
	tempOffs  []int

	// State of the most recent Match call, reset at the start of each
	// call; meaningful only when that call succeeded.
	scorer    Scorer
	positions []int
}

// NewMatcher builds a matcher for query. The options are bound here:
// invalid combinations are rejected before any candidate is scored.
func NewMatcher(query string, opts Options) (*Matcher, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return newMatcher(query, opts, opts.WantMatchInfo), nil
}

// newMatcher assumes opts have been validated. keepPositions is set
// for the rescoring matcher on the driver thread and by NewMatcher when
// opts.WantMatchInfo is true; pipeline workers skip position
// bookkeeping entirely.
func newMatcher(query string, opts Options, keepPositions bool) *Matcher {
	m := &Matcher{
		opts:          opts,
		dec:           chars.NewDecoder(opts.Unicode),
		keepPositions: keepPositions,
	}
	m.queryChars = m.dec.Decompose(query, nil)

	if opts.Path {
		m.queryKeyBegin = 0
		for i, cp := range m.queryChars {
			if cp == paths.Separator {
				m.queryKeyBegin = i + 1
			}
		}
		switch opts.QueryPathMode {
		case QueryPathStrict:
			m.requireFull = true
		case QueryPathAuto:
			m.requireFull = m.queryKeyBegin > 0
		}
	}

	for _, cp := range m.queryChars {
		if m.dec.IsUppercase(cp) {
			m.caseSensitive = true
			break
		}
	}

	// The current file's own name is dropped from the distance
	// reference so the open file is not favored over its siblings.
	curParts := paths.Components(opts.CRFile)
	if len(curParts) > 0 {
		m.curFileDirParts = curParts[:len(curParts)-1]
	}
	m.curFileKey = paths.Basename(opts.CRFile)
	if dot := strings.LastIndexByte(m.curFileKey, '.'); dot >= 0 {
		m.curFileKey = m.curFileKey[:dot+1]
	}

	return m
}

// Match reports whether item matches the query and, on success, leaves
// the scorer state and (when enabled) the match positions readable via
// the accessors until the next call.
func (m *Matcher) Match(item string) bool {
	ok := m.matchItem(item)
	if ok && m.keepPositions {
		sort.Ints(m.positions)
	}
	debugMatch(item, ok, &m.scorer)
	return ok
}

// ReverseScore returns the packed rank value of the last match. Lower
// is better.
func (m *Matcher) ReverseScore() uint64 { return m.scorer.ReverseScore() }

// Scorer returns the field-level state of the last match.
func (m *Matcher) Scorer() Scorer { return m.scorer }

// Positions returns the sorted byte offsets covered by the last match.
// The slice is reused by the next Match call.
func (m *Matcher) Positions() []int { return m.positions }

func (m *Matcher) matchItem(item string) bool {
	m.scorer = Scorer{PrefixScore: MaxPrefixScore}
	m.positions = m.positions[:0]

	if !m.opts.MatchCRFile && m.opts.CRFile != "" && item == m.opts.CRFile {
		return false
	}

	if m.opts.Path {
		m.itemParts = paths.AppendComponents(m.itemParts[:0], item)
	} else {
		m.itemParts = append(m.itemParts[:0], item)
	}

	if m.opts.Path {
		if m.opts.CRFile != "" {
			m.scorer.PathDistance = paths.Distance(m.curFileDirParts, m.itemParts)
		}
		if len(m.itemParts) > 0 && item != m.opts.CRFile {
			m.scorer.CurFilePrefixLen = commonPrefixLen(
				m.curFileKey, m.itemParts[len(m.itemParts)-1])
		}
	}

	if len(m.queryChars) == 0 {
		return true
	}

	// Rightmost path components are preferred, so components are
	// consumed right to left, and query code points greedily right to
	// left within them.
	qi := len(m.queryChars) - 1
	qkey := len(m.queryChars)
	base := len(item)
	keyBase := 0
	keyByteLen := 0
	for pi := len(m.itemParts) - 1; pi >= 0 && qi >= 0; pi-- {
		part := m.itemParts[pi]
		base -= len(part)
		partIdx := len(m.itemParts) - 1 - pi

		partChars, partOffs := m.decodePart(part, partIdx)
		if partIdx == 0 {
			keyBase = base
			keyByteLen = len(part)
		}

		qPrev := qi
		posMark := len(m.positions)
		sepConsumed := false
		for ci := len(partChars) - 1; ci >= 0 && qi >= 0; ci-- {
			if m.matchChar(partChars[ci], m.queryChars[qi]) {
				if partChars[ci] == paths.Separator && ci == len(partChars)-1 {
					sepConsumed = true
				}
				if m.keepPositions && partIdx > 0 {
					m.appendPositions(partOffs, ci, base, len(part))
				}
				qi--
			}
		}

		// In strict query path mode a query block must line up with a
		// whole candidate component: the consumption must stop at a
		// block boundary, and in components left of the key it must
		// cover every non-separator code point.
		if m.requireFull && !m.fullPartOK(partIdx, partChars, qPrev, qi, sepConsumed) {
			qi = qPrev
			m.positions = m.positions[:posMark]
			continue
		}

		if qi != qPrev {
			m.scorer.Parts++
		}
		if partIdx == 0 {
			qkey = qi + 1
		}
	}

	if qi >= 0 {
		return false
	}

	m.matchKey(m.keyChars, m.keyOffs, keyBase, keyByteLen, qkey)
	return true
}

func (m *Matcher) fullPartOK(partIdx int, partChars []rune, qPrev, qi int, sepConsumed bool) bool {
	if !(qi < 0 || m.queryChars[qi] == paths.Separator) {
		return false
	}
	if partIdx == 0 {
		// The key block is the part still being typed.
		return true
	}
	consumed := qPrev - qi
	if consumed == 0 {
		return true
	}
	nonSep := len(partChars)
	if nonSep > 0 && partChars[nonSep-1] == paths.Separator {
		nonSep--
	}
	if sepConsumed {
		consumed--
	}
	return consumed == nonSep
}

// matchKey refines the match over the key (the rightmost component, or
// the whole item outside path mode). key holds the decoded code
// points, offs their byte offsets when positions are kept, base the
// key's byte offset within the item and byteLen its byte length. qkey
// is the query index where the key segment starts.
func (m *Matcher) matchKey(key []rune, offs []int, base, byteLen, qkey int) {
	n := len(m.queryChars)
	if qkey >= n {
		m.scorer.UnmatchedLen = len(key)
		return
	}
	qkeyStart := qkey == m.queryKeyBegin

	// Two passes: the first admits only word-prefix matches so that a
	// match like "fb" -> "foo_bar" is detected as such; the second
	// matches greedily.
	for pass := 0; pass < 2; pass++ {
		qi := qkey
		wordIndex := uint32(0)
		atWordStart := true
		wordMatched := false
		fullPrefix := qkeyStart
		wordIndexSum := uint32(0)
		wordPrefixLen := 0
		startMatched := false
		posMark := len(m.positions)

		for i := 0; i < len(key); i++ {
			if m.isWordPrefix(key, i) {
				wordIndex++
				atWordStart = true
				wordMatched = false
			}
			if pass == 0 && m.dec.IsAlphanumeric(m.queryChars[qi]) && !atWordStart {
				fullPrefix = false
				continue
			}
			if m.matchChar(key[i], m.queryChars[qi]) {
				if atWordStart {
					wordPrefixLen++
				}
				if pass == 0 && !wordMatched {
					wordIndexSum += wordIndex
					wordMatched = true
				}
				if i == 0 {
					startMatched = true
				}
				if m.keepPositions {
					m.appendPositions(offs, i, base, byteLen)
				}
				qi++
				if qi == n {
					m.scorer.UnmatchedLen = len(key) - (i + 1)
					m.scorer.WordPrefixLen = wordPrefixLen
					m.scorer.PrefixScore = prefixTier(
						pass, qkeyStart, fullPrefix, startMatched, wordIndexSum)
					return
				}
			} else {
				atWordStart = false
				fullPrefix = false
			}
		}
		m.positions = m.positions[:posMark]
	}

	// Unreachable for a verdict-positive item: the greedy pass must
	// complete because the key segment was already consumed within the
	// key during the right-to-left walk.
	m.scorer.UnmatchedLen = len(key)
}

// prefixTier maps the refinement outcome onto the PrefixScore tiers.
func prefixTier(pass int, qkeyStart, fullPrefix, startMatched bool, wordIndexSum uint32) uint32 {
	switch {
	case fullPrefix:
		return 0
	case pass == 0 && qkeyStart:
		return wordIndexSum
	case !qkeyStart && startMatched:
		return MaxPrefixScore - 3
	case pass == 1 && qkeyStart && startMatched:
		return MaxPrefixScore - 2
	case pass == 1 && qkeyStart:
		return MaxPrefixScore - 1
	default:
		return MaxPrefixScore
	}
}

func (m *Matcher) matchChar(item, query rune) bool {
	if !m.caseSensitive && m.dec.IsUppercase(item) {
		// A case-insensitive query contains no uppercase, so only item
		// code points ever need folding.
		item = m.dec.ToLowercase(item)
	}
	return item == query
}

// isWordPrefix reports whether key[i] starts a word: the key start, an
// alphanumeric after a non-alphanumeric, or an uppercase after a
// non-uppercase.
func (m *Matcher) isWordPrefix(key []rune, i int) bool {
	if i == 0 {
		return true
	}
	if m.dec.IsAlphanumeric(key[i]) && !m.dec.IsAlphanumeric(key[i-1]) {
		return true
	}
	if m.dec.IsUppercase(key[i]) && !m.dec.IsUppercase(key[i-1]) {
		return true
	}
	return false
}

// decodePart decodes one component into the matcher's scratch buffers:
// the rightmost component into the key buffers, every other into the
// shared temp buffers.
func (m *Matcher) decodePart(part string, partIdx int) ([]rune, []int) {
	if partIdx == 0 {
		m.keyChars = m.keyChars[:0]
		if m.keepPositions {
			m.keyOffs = m.keyOffs[:0]
			m.keyChars, m.keyOffs = m.dec.DecomposeOffsets(part, m.keyChars, m.keyOffs)
		} else {
			m.keyChars = m.dec.Decompose(part, m.keyChars)
		}
		return m.keyChars, m.keyOffs
	}
	m.tempChars = m.tempChars[:0]
	if m.keepPositions {
		m.tempOffs = m.tempOffs[:0]
		m.tempChars, m.tempOffs = m.dec.DecomposeOffsets(part, m.tempChars, m.tempOffs)
	} else {
		m.tempChars = m.dec.Decompose(part, m.tempChars)
	}
	return m.tempChars, m.tempOffs
}

// appendPositions records every byte of the code point at index ci of
// a part whose decoded offsets are offs and whose byte offset within
// the item is base. partLen bounds the final code point's span.
func (m *Matcher) appendPositions(offs []int, ci, base, partLen int) {
	start := offs[ci]
	end := partLen
	if ci+1 < len(offs) {
		end = offs[ci+1]
	}
	for b := start; b < end; b++ {
		m.positions = append(m.positions, base+b)
	}
}

func commonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
