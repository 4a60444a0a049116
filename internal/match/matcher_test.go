package match

import (
	"reflect"
	"testing"
)

// matchAll runs the full pipeline over candidates and returns the
// emitted match keys in rank order.
func matchAll(t *testing.T, query string, opts Options, candidates []string) []string {
	t.Helper()
	var ranked []string
	err := ForEachMatch(query, opts, NewStringSource(candidates),
		func(item *Item, info *MatchInfo) {
			ranked = append(ranked, item.MatchKey)
		})
	if err != nil {
		t.Fatalf("ForEachMatch(%q) failed: %v", query, err)
	}
	return ranked
}

func indexOf(ranked []string, item string) int {
	for i, r := range ranked {
		if r == item {
			return i
		}
	}
	return -1
}

func assertMatched(t *testing.T, ranked []string, item string) {
	t.Helper()
	if indexOf(ranked, item) < 0 {
		t.Errorf("incorrectly failed to match %q", item)
	}
}

func assertNotMatched(t *testing.T, ranked []string, item string) {
	t.Helper()
	if indexOf(ranked, item) >= 0 {
		t.Errorf("incorrectly matched %q", item)
	}
}

func assertRank(t *testing.T, ranked []string, item string, want int) {
	t.Helper()
	if got := indexOf(ranked, item); got != want {
		t.Errorf("expected %q at rank %d, got %d (ranking: %q)", item, want, got, ranked)
	}
}

func assertBetter(t *testing.T, ranked []string, betterItem, worseItem string) {
	t.Helper()
	bi := indexOf(ranked, betterItem)
	wi := indexOf(ranked, worseItem)
	if bi < 0 || wi < 0 || bi >= wi {
		t.Errorf("expected %q (rank %d) to outrank %q (rank %d)", betterItem, bi, worseItem, wi)
	}
}

func TestMatchOrder(t *testing.T) {
	ranked := matchAll(t, "fb", DefaultOptions(), []string{
		"barfoo", "fbar", "foo/bar", "foo/fbar", "foo/foobar",
		"foo/foo_bar", "foo/foo_bar_test", "foo/foo_test_bar",
		"foo/FooBar", "foo/abar", "foo/qux", "foob/ar",
	})

	assertNotMatched(t, ranked, "barfoo")
	assertNotMatched(t, ranked, "foo/qux")
	for _, item := range []string{
		"fbar", "foo/bar", "foo/fbar", "foo/foobar", "foo/foo_bar",
		"foo/foo_bar_test", "foo/foo_test_bar", "foo/FooBar",
		"foo/abar", "foob/ar",
	} {
		assertMatched(t, ranked, item)
	}

	// "fbar" ranks highest: the query is a full prefix of the key.
	assertRank(t, ranked, "fbar", 0)
	// "foo/fbar" is the same key match, losing only the sort key tie.
	assertRank(t, ranked, "foo/fbar", 1)
	// Word boundary matches come next, in either order.
	assertBetter(t, ranked, "foo/fbar", "foo/foo_bar")
	assertBetter(t, ranked, "foo/fbar", "foo/FooBar")
	// More trailing unmatched characters rank lower.
	assertBetter(t, ranked, "foo/foo_bar", "foo/foo_bar_test")
	assertBetter(t, ranked, "foo/FooBar", "foo/foo_bar_test")
	// Matches in consecutive words beat matches in scattered words.
	assertBetter(t, ranked, "foo/foo_bar_test", "foo/foo_test_bar")
	// Breaking the match across path components ranks lower still.
	assertBetter(t, ranked, "foo/foo_test_bar", "foo/bar")
	// A 'b' that is not a detectable word boundary match is worse.
	assertBetter(t, ranked, "foo/bar", "foo/foobar")
	// Matches missing the start of the filename rank lowest.
	assertBetter(t, ranked, "foo/bar", "foo/abar")
	assertBetter(t, ranked, "foo/bar", "foob/ar")
	assertBetter(t, ranked, "foo/foobar", "foo/abar")
	assertBetter(t, ranked, "foo/foobar", "foob/ar")
}

func TestSpecialPaths(t *testing.T) {
	ranked := matchAll(t, "a", DefaultOptions(), []string{"", "/", "a/", "/a"})

	assertNotMatched(t, ranked, "")
	assertNotMatched(t, ranked, "/")
	assertMatched(t, ranked, "a/")
	assertMatched(t, ranked, "/a")
}

func TestSmartcaseSensitive(t *testing.T) {
	ranked := matchAll(t, "Foo", DefaultOptions(), []string{"foo", "Foo", "FOO"})
	if !reflect.DeepEqual(ranked, []string{"Foo"}) {
		t.Errorf("uppercase query matched %q, want only \"Foo\"", ranked)
	}
}

func TestSmartcaseInsensitive(t *testing.T) {
	ranked := matchAll(t, "foo", DefaultOptions(), []string{"foo", "Foo", "FOO"})
	// All match with identical scores; the sort key decides.
	want := []string{"FOO", "Foo", "foo"}
	if !reflect.DeepEqual(ranked, want) {
		t.Errorf("lowercase query ranked %q, want %q", ranked, want)
	}
}

func TestQueryPathModeStrict(t *testing.T) {
	// The separator in the query switches AUTO to STRICT: "src" must
	// consume a whole candidate component.
	ranked := matchAll(t, "src/mat", DefaultOptions(), []string{
		"src/matcher.cc", "test/src/match.h", "src_old/matcher.cc",
	})

	assertMatched(t, ranked, "src/matcher.cc")
	assertMatched(t, ranked, "test/src/match.h")
	assertNotMatched(t, ranked, "src_old/matcher.cc")
}

func TestQueryPathModeNormal(t *testing.T) {
	opts := DefaultOptions()
	opts.QueryPathMode = QueryPathNormal
	ranked := matchAll(t, "src/mat", opts, []string{"src_old/matcher.cc"})
	assertMatched(t, ranked, "src_old/matcher.cc")
}

func TestEmptyQueryOrdersBySortKey(t *testing.T) {
	ranked := matchAll(t, "", DefaultOptions(), []string{
		"zebra/deep/path.go", "alpha.go", "mid/file.go",
	})
	want := []string{"alpha.go", "mid/file.go", "zebra/deep/path.go"}
	if !reflect.DeepEqual(ranked, want) {
		t.Errorf("empty query ranked %q, want %q", ranked, want)
	}
}

func TestCRFileAdmission(t *testing.T) {
	opts := DefaultOptions()
	opts.CRFile = "foo/bar.c"
	ranked := matchAll(t, "", opts, []string{"foo/bar.c", "foo/baz.c", "qux/bar.c"})
	assertNotMatched(t, ranked, "foo/bar.c")
	assertMatched(t, ranked, "foo/baz.c")
	assertMatched(t, ranked, "qux/bar.c")

	opts.MatchCRFile = true
	ranked = matchAll(t, "", opts, []string{"foo/bar.c", "foo/baz.c"})
	assertMatched(t, ranked, "foo/bar.c")
}

func TestCRFileBiasesRanking(t *testing.T) {
	opts := DefaultOptions()
	opts.CRFile = "src/app/main.go"
	ranked := matchAll(t, "util", opts, []string{
		"src/app/util.go", "vendor/lib/util.go",
	})
	// The sibling of the open file wins on path distance.
	assertRank(t, ranked, "src/app/util.go", 0)
	assertRank(t, ranked, "vendor/lib/util.go", 1)
}

func TestNonPathMode(t *testing.T) {
	opts := DefaultOptions()
	opts.Path = false
	ranked := matchAll(t, "ab", opts, []string{"a/b", "axb", "ba"})
	assertMatched(t, ranked, "a/b")
	assertMatched(t, ranked, "axb")
	assertNotMatched(t, ranked, "ba")
}

func TestMatcherPositions(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		item    string
		unicode bool
		want    []int
	}{
		{"key only", "fb", "foo/fbar", false, []int{4, 5}},
		{"across components", "fb", "foo/bar", false, []int{0, 4}},
		{"byte offsets around unmatched multibyte code point", "ab", "a日b", true, []int{0, 4}},
		{"greedy key match", "fb", "foo/foobar", false, []int{4, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Unicode = tt.unicode
			opts.WantMatchInfo = true
			m, err := NewMatcher(tt.query, opts)
			if err != nil {
				t.Fatalf("NewMatcher: %v", err)
			}
			if !m.Match(tt.item) {
				t.Fatalf("Match(%q, %q) = false", tt.query, tt.item)
			}
			if !reflect.DeepEqual(m.Positions(), tt.want) {
				t.Errorf("positions = %v, want %v", m.Positions(), tt.want)
			}
		})
	}
}

func TestPositionsStrictlyIncreasing(t *testing.T) {
	opts := DefaultOptions()
	opts.WantMatchInfo = true
	m, err := NewMatcher("abc", opts)
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	for _, item := range []string{"a/b/c", "aabbcc", "xaxbxc", "abc"} {
		if !m.Match(item) {
			t.Fatalf("Match(%q) = false", item)
		}
		positions := m.Positions()
		for i := 1; i < len(positions); i++ {
			if positions[i] <= positions[i-1] {
				t.Errorf("positions for %q not strictly increasing: %v", item, positions)
			}
		}
		for _, pos := range positions {
			if pos < 0 || pos >= len(item) {
				t.Errorf("position %d for %q out of range", pos, item)
			}
		}
	}
}

func TestRematchRoundTrip(t *testing.T) {
	opts := DefaultOptions()
	m, err := NewMatcher("fb", opts)
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	for _, item := range []string{"fbar", "foo/bar", "foo/foo_bar"} {
		if !m.Match(item) {
			t.Fatalf("Match(%q) = false", item)
		}
		first := m.ReverseScore()
		if !m.Match(item) {
			t.Fatalf("re-Match(%q) = false", item)
		}
		if second := m.ReverseScore(); second != first {
			t.Errorf("re-match of %q scored %d, want %d", item, second, first)
		}
	}
}

func TestSubsequenceVerdict(t *testing.T) {
	opts := DefaultOptions()
	m, err := NewMatcher("abc", opts)
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	tests := []struct {
		item string
		want bool
	}{
		{"abc", true},
		{"a/b/c", true},
		{"xaybzc", true},
		{"acb", false},
		{"ab", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := m.Match(tt.item); got != tt.want {
			t.Errorf("Match(\"abc\", %q) = %v, want %v", tt.item, got, tt.want)
		}
	}
}

func TestOptionBinding(t *testing.T) {
	opts := DefaultOptions()
	opts.NrThreads = 0
	if _, err := NewMatcher("x", opts); err == nil {
		t.Errorf("NewMatcher accepted nr_threads=0")
	}
	err := ForEachMatch("x", opts, NewStringSource(nil), func(*Item, *MatchInfo) {})
	if err == nil {
		t.Errorf("ForEachMatch accepted nr_threads=0")
	}
}

func TestScorerPacking(t *testing.T) {
	// Each field must dominate every field after it.
	ordered := []Scorer{
		{PrefixScore: 0, WordPrefixLen: 0, Parts: 200, PathDistance: 50, UnmatchedLen: 200},
		{PrefixScore: 1, WordPrefixLen: 7, Parts: 0, CurFilePrefixLen: 63},
		{PrefixScore: 1, WordPrefixLen: 6, Parts: 0, CurFilePrefixLen: 63},
		{PrefixScore: 1, WordPrefixLen: 6, Parts: 1, CurFilePrefixLen: 63},
		{PrefixScore: 1, WordPrefixLen: 6, Parts: 1, CurFilePrefixLen: 10},
		{PrefixScore: 1, WordPrefixLen: 6, Parts: 1, CurFilePrefixLen: 10, PathDistance: 3},
		{PrefixScore: 1, WordPrefixLen: 6, Parts: 1, CurFilePrefixLen: 10, PathDistance: 3, UnmatchedLen: 9},
		{PrefixScore: MaxPrefixScore - 3},
		{PrefixScore: MaxPrefixScore - 2},
		{PrefixScore: MaxPrefixScore - 1},
		{PrefixScore: MaxPrefixScore},
	}
	for i := 1; i < len(ordered); i++ {
		prev := ordered[i-1].ReverseScore()
		cur := ordered[i].ReverseScore()
		if prev >= cur {
			t.Errorf("scorer %d (rev %d) does not outrank scorer %d (rev %d)",
				i-1, prev, i, cur)
		}
	}
}

func TestScorerClamping(t *testing.T) {
	// Out-of-width values saturate instead of bleeding into the next
	// field.
	big := Scorer{WordPrefixLen: 1000, Parts: 1000, CurFilePrefixLen: 1000,
		PathDistance: 1000, UnmatchedLen: 1000}
	saturated := Scorer{WordPrefixLen: 7, Parts: 255, CurFilePrefixLen: 63,
		PathDistance: 63, UnmatchedLen: 255}
	if big.ReverseScore() != saturated.ReverseScore() {
		t.Errorf("clamped packing mismatch: %d vs %d",
			big.ReverseScore(), saturated.ReverseScore())
	}
}
