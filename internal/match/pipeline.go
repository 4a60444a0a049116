package match

import (
	"container/heap"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// MatchInfo exposes the state of one match to the sink. It is only
// passed when Options.WantMatchInfo is set.
type MatchInfo struct {
	scorer    Scorer
	positions []int
}

// Score renders the match quality with higher-is-better polarity.
func (mi *MatchInfo) Score() uint64 {
	return ^mi.scorer.ReverseScore()
}

// ScoreDebugString lists the individual scorer fields.
func (mi *MatchInfo) ScoreDebugString() string {
	return mi.scorer.DebugString()
}

// MatchPositions returns the sorted byte offsets of the matched bytes
// in the candidate's match key.
func (mi *MatchInfo) MatchPositions() []int {
	return mi.positions
}

// Sink receives matched items one at a time on the calling goroutine,
// in descending match quality. info is nil unless match info was
// requested.
type Sink func(item *Item, info *MatchInfo)

// matched binds an item to its reverse score inside the pipeline.
type matched struct {
	revScore uint64
	item     Item
}

// better reports whether x outranks y: reverse score ascending, sort
// key ascending.
func better(x, y *matched) bool {
	if x.revScore != y.revScore {
		return x.revScore < y.revScore
	}
	return x.item.SortKey < y.item.SortKey
}

// worstFirst is a heap keyed so the worst retained match pops first,
// bounding each worker's memory to limit+1 entries.
type worstFirst []matched

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return better(&h[j], &h[i]) }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *worstFirst) Push(x any) {
	*h = append(*h, x.(matched))
}

func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// ForEachMatch drives the scorer over every candidate src yields and
// invokes dst once per surviving match in rank order. With
// opts.NrThreads > 1 candidates are scored in parallel; the emission
// order is identical regardless of thread count.
func ForEachMatch(query string, opts Options, src Source, dst Sink) error {
	if err := opts.validate(); err != nil {
		return err
	}

	workerMatches := make([]worstFirst, opts.NrThreads)
	var g errgroup.Group
	for i := 0; i < opts.NrThreads; i++ {
		i := i
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("matcher worker: %v", r)
				}
			}()
			workerMatches[i] = matchWorker(query, opts, src)
			return nil
		})
	}
	// Workers run to source exhaustion; the first captured error
	// surfaces only after every worker has finished.
	if err := g.Wait(); err != nil {
		return err
	}
	if s, ok := src.(interface{ Err() error }); ok {
		if err := s.Err(); err != nil {
			return fmt.Errorf("source: %w", err)
		}
	}

	nrMatches := 0
	for _, wm := range workerMatches {
		nrMatches += len(wm)
	}
	all := make([]matched, 0, nrMatches)
	for _, wm := range workerMatches {
		all = append(all, wm...)
	}

	sort.Slice(all, func(i, j int) bool { return better(&all[i], &all[j]) })
	if opts.Limit > 0 && len(all) > opts.Limit {
		all = all[:opts.Limit]
	}

	if !opts.WantMatchInfo {
		for i := range all {
			dst(&all[i].item, nil)
		}
		return nil
	}

	// Re-match the survivors with position tracking on. A survivor
	// that fails to re-match indicates a scorer defect.
	rescorer := newMatcher(query, opts, true)
	for i := range all {
		if !rescorer.Match(all[i].item.MatchKey) {
			return fmt.Errorf("%w: %q", ErrRematch, all[i].item.MatchKey)
		}
		info := &MatchInfo{
			scorer:    rescorer.Scorer(),
			positions: append([]int(nil), rescorer.Positions()...),
		}
		dst(&all[i].item, info)
	}
	return nil
}

// matchWorker pulls batches from src until exhaustion, keeping its
// matches bounded to limit+1 when a limit is set.
func matchWorker(query string, opts Options, src Source) worstFirst {
	m := newMatcher(query, opts, false)
	var matches worstFirst
	if opts.Limit > 0 {
		matches = make(worstFirst, 0, opts.Limit+1)
	}
	batch := make([]Item, 0, src.BatchSize())
	more := true
	for more {
		batch = batch[:0]
		more = src.Fill(&batch)
		for i := range batch {
			if !m.Match(batch[i].MatchKey) {
				continue
			}
			mt := matched{revScore: m.ReverseScore(), item: batch[i]}
			if opts.Limit > 0 {
				heap.Push(&matches, mt)
				if matches.Len() > opts.Limit {
					heap.Pop(&matches)
				}
			} else {
				matches = append(matches, mt)
			}
		}
	}
	return matches
}
