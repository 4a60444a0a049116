package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/kk-code-lab/fpick/internal/highlight"
	"github.com/kk-code-lab/fpick/internal/input"
	"github.com/kk-code-lab/fpick/internal/match"
	"github.com/kk-code-lab/fpick/internal/picker"
)

func main() {
	var (
		query         = flag.String("query", "", "query to match candidates against")
		crfile        = flag.String("crfile", "", "currently open file, used to bias ranking")
		limit         = flag.Int("limit", 10, "maximum number of matches to print (0 = unlimited)")
		maxThreads    = flag.Int("threads", 0, "matcher threads (0 = all CPUs)")
		path          = flag.Bool("path", true, "treat query and candidates as paths")
		unicodeFlag   = flag.Bool("unicode", false, "decode query and candidates as UTF-8")
		matchCRFile   = flag.Bool("match-crfile", false, "allow the crfile itself to match")
		mmodeName     = flag.String("mmode", "", "match mode: full-line, filename-only, first-non-tab, until-last-tab")
		highlightName = flag.String("highlight", "", "highlight regex mode: none, basic, detailed")
		linePrefix    = flag.String("prefix", "", "prefix for each highlight regex")
		invertDelim   = flag.String("invert-delimiter", "", "split the query on this character and reverse the pieces")
		debug         = flag.Bool("debug", false, "print score details and match positions")
		interactive   = flag.Bool("interactive", false, "pick interactively instead of printing matches")
	)
	flag.Parse()

	if err := run(options{
		query:         *query,
		crfile:        *crfile,
		limit:         *limit,
		maxThreads:    *maxThreads,
		path:          *path,
		unicode:       *unicodeFlag,
		matchCRFile:   *matchCRFile,
		mmodeName:     *mmodeName,
		highlightName: *highlightName,
		linePrefix:    *linePrefix,
		invertDelim:   *invertDelim,
		debug:         *debug,
		interactive:   *interactive,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "fpick: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	query         string
	crfile        string
	limit         int
	maxThreads    int
	path          bool
	unicode       bool
	matchCRFile   bool
	mmodeName     string
	highlightName string
	linePrefix    string
	invertDelim   string
	debug         bool
	interactive   bool
}

func run(o options) error {
	mmode, err := match.ParseMode(o.mmodeName)
	if err != nil {
		return err
	}
	hlMode, err := highlight.ParseMode(o.highlightName)
	if err != nil {
		return err
	}
	query, err := match.InvertQuery(o.query, o.invertDelim)
	if err != nil {
		return err
	}

	lines, err := input.ReadLines(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading candidates: %w", err)
	}

	items := make([]match.Item, len(lines))
	deltas := make(map[string]int, len(lines))
	for i, line := range lines {
		key, delta := mmode.Key(line)
		items[i] = match.Item{MatchKey: key, SortKey: line, Data: line}
		if delta != 0 {
			deltas[line] = delta
		}
	}

	mopts := match.DefaultOptions()
	mopts.CRFile = o.crfile
	mopts.MatchCRFile = o.matchCRFile
	mopts.Limit = o.limit
	mopts.NrThreads = nrThreads(o.maxThreads)
	mopts.Path = o.path
	mopts.Unicode = o.unicode
	mopts.WantMatchInfo = o.debug || hlMode != highlight.ModeNone

	if o.interactive {
		p, err := picker.New(items, mopts)
		if err != nil {
			return err
		}
		selection, err := p.Run()
		if err != nil {
			return err
		}
		if selection != "" {
			fmt.Println(selection)
		}
		return nil
	}

	out := &strings.Builder{}
	err = match.ForEachMatch(query, mopts, match.NewSliceSource(items),
		func(item *match.Item, info *match.MatchInfo) {
			line := item.Data.(string)
			fmt.Fprintln(out, line)
			if info == nil {
				return
			}
			positions := info.MatchPositions()
			if delta := deltas[line]; delta != 0 {
				shifted := make([]int, len(positions))
				for i, pos := range positions {
					shifted[i] = pos + delta
				}
				positions = shifted
			}
			if o.debug {
				fmt.Fprintf(out, "- score: %d; %s\n", info.Score(), info.ScoreDebugString())
				fmt.Fprintf(out, "- match positions: %s\n", joinInts(positions, ", "))
			}
			for _, re := range highlight.Regexes(hlMode, line, positions, o.linePrefix) {
				fmt.Fprintf(out, "- regex: %s\n", re)
			}
		})
	if err != nil {
		return err
	}
	fmt.Print(out.String())
	return nil
}

func nrThreads(maxThreads int) int {
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	if maxThreads > 0 && n > maxThreads {
		n = maxThreads
	}
	return n
}

func joinInts(values []int, sep string) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteString(sep)
		}
		fmt.Fprintf(&b, "%d", v)
	}
	return b.String()
}
