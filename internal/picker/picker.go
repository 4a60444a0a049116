// Package picker implements the interactive terminal front end: a
// query prompt over a fixed candidate list with a live ranked view of
// the best matches.
package picker

import (
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/kk-code-lab/fpick/internal/match"
)

// Theme defines picker colors.
type Theme struct {
	Foreground  tcell.Color
	Prompt      tcell.Color
	MatchFg     tcell.Color
	SelectionBg tcell.Color
	SelectionFg tcell.Color
	CounterFg   tcell.Color
}

// DefaultTheme returns the default color scheme.
func DefaultTheme() Theme {
	return Theme{
		Foreground:  tcell.ColorDefault,
		Prompt:      tcell.Color33,
		MatchFg:     tcell.Color208,
		SelectionBg: tcell.Color33,
		SelectionFg: tcell.ColorWhite,
		CounterFg:   tcell.ColorLightSlateGray,
	}
}

type result struct {
	item      match.Item
	positions []int
}

// Picker drives one interactive selection session.
type Picker struct {
	screen   tcell.Screen
	ownedScr bool
	theme    Theme
	items    []match.Item
	opts     match.Options

	query    []rune
	selected int
	results  []result
}

// New creates a picker over items with its own terminal screen.
func New(items []match.Item, opts match.Options) (*Picker, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	p := NewWithScreen(screen, items, opts)
	p.ownedScr = true
	return p, nil
}

// NewWithScreen creates a picker on an existing screen. The caller
// keeps ownership of the screen; tests pass a simulation screen.
func NewWithScreen(screen tcell.Screen, items []match.Item, opts match.Options) *Picker {
	return &Picker{
		screen: screen,
		theme:  DefaultTheme(),
		items:  items,
		opts:   opts,
	}
}

// Run processes events until the user accepts or aborts. It returns
// the accepted item's sort key, or "" on abort.
func (p *Picker) Run() (string, error) {
	if p.ownedScr {
		defer p.screen.Fini()
	}
	if err := p.refresh(); err != nil {
		return "", err
	}
	p.draw()

	for {
		ev := p.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			p.screen.Sync()
			if err := p.refresh(); err != nil {
				return "", err
			}
		case *tcell.EventKey:
			done, accepted, err := p.handleKey(ev)
			if err != nil {
				return "", err
			}
			if done {
				return accepted, nil
			}
		}
		p.draw()
	}
}

// handleKey returns done=true when the session ends; accepted carries
// the selection.
func (p *Picker) handleKey(ev *tcell.EventKey) (done bool, accepted string, err error) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true, "", nil
	case tcell.KeyEnter:
		if p.selected >= 0 && p.selected < len(p.results) {
			return true, p.results[p.selected].item.SortKey, nil
		}
		return true, "", nil
	case tcell.KeyUp, tcell.KeyCtrlP:
		if p.selected > 0 {
			p.selected--
		}
		return false, "", nil
	case tcell.KeyDown, tcell.KeyCtrlN:
		if p.selected < len(p.results)-1 {
			p.selected++
		}
		return false, "", nil
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(p.query) > 0 {
			p.query = p.query[:len(p.query)-1]
			err = p.refresh()
		}
		return false, "", err
	case tcell.KeyCtrlU:
		if len(p.query) > 0 {
			p.query = p.query[:0]
			err = p.refresh()
		}
		return false, "", err
	case tcell.KeyRune:
		p.query = append(p.query, ev.Rune())
		return false, "", p.refresh()
	}
	return false, "", nil
}

// refresh re-runs the match pipeline for the current query, bounded to
// the rows that fit on screen.
func (p *Picker) refresh() error {
	_, h := p.screen.Size()
	rows := h - 1
	if rows < 1 {
		rows = 1
	}

	opts := p.opts
	opts.Limit = rows
	opts.WantMatchInfo = true

	p.results = p.results[:0]
	err := match.ForEachMatch(string(p.query), opts,
		match.NewSliceSource(p.items),
		func(item *match.Item, info *match.MatchInfo) {
			var positions []int
			if info != nil {
				positions = info.MatchPositions()
			}
			p.results = append(p.results, result{item: *item, positions: positions})
		})
	if err != nil {
		return err
	}
	if p.selected >= len(p.results) {
		p.selected = len(p.results) - 1
	}
	if p.selected < 0 {
		p.selected = 0
	}
	return nil
}

func (p *Picker) draw() {
	p.screen.Clear()
	w, h := p.screen.Size()

	p.drawPrompt(w)
	for row := 0; row < h-1 && row < len(p.results); row++ {
		p.drawResult(row, w)
	}
	p.screen.Show()
}

func (p *Picker) drawPrompt(w int) {
	style := tcell.StyleDefault.Foreground(p.theme.Prompt).Bold(true)
	x := drawText(p.screen, 0, 0, w, "> ", style)
	x = drawText(p.screen, x, 0, w, string(p.query),
		tcell.StyleDefault.Foreground(p.theme.Foreground))
	p.screen.ShowCursor(x, 0)

	counter := formatCounter(len(p.results), len(p.items))
	cw := runewidth.StringWidth(counter)
	if x+1+cw <= w {
		drawText(p.screen, w-cw, 0, w,
			counter, tcell.StyleDefault.Foreground(p.theme.CounterFg))
	}
}

func (p *Picker) drawResult(row, w int) {
	res := &p.results[row]
	base := tcell.StyleDefault.Foreground(p.theme.Foreground)
	matchStyle := tcell.StyleDefault.Foreground(p.theme.MatchFg).Bold(true)
	if row == p.selected {
		base = base.Background(p.theme.SelectionBg).Foreground(p.theme.SelectionFg)
		matchStyle = matchStyle.Background(p.theme.SelectionBg)
		for x := 0; x < w; x++ {
			p.screen.SetContent(x, row+1, ' ', nil, base)
		}
	}

	text := res.item.MatchKey
	matched := matchedByteSet(res.positions)
	x := 0
	for i, r := range text {
		if x >= w {
			break
		}
		style := base
		if matched[i] {
			style = matchStyle
		}
		p.screen.SetContent(x, row+1, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}

// matchedByteSet marks the leading byte offsets to highlight.
func matchedByteSet(positions []int) map[int]bool {
	set := make(map[int]bool, len(positions))
	for _, pos := range positions {
		set[pos] = true
	}
	return set
}

func formatCounter(matched, total int) string {
	return strconv.Itoa(matched) + "/" + strconv.Itoa(total)
}

func drawText(screen tcell.Screen, x, y, maxW int, text string, style tcell.Style) int {
	for _, r := range text {
		if x >= maxW {
			break
		}
		screen.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
	return x
}
