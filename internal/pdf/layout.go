package pdf

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

const (
	rowTolerance  = 2.5
	edgeThickness = 3.0
	edgeMerge     = 2.0
	minEdgeLength = 5.0
)

// Glyph is a positioned run of text as emitted by the content stream.
// Coordinates follow PDF space: Y grows upwards.
type Glyph struct {
	X, Y, W float64
	Size    float64
	S       string
}

// Rect is a filled or stroked rectangle, typically a table rule or cell.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Layout is the positioned content of one page.
type Layout struct {
	Page   int
	Glyphs []Glyph
	Rects  []Rect
}

// Word is a horizontal run of glyphs without a visible gap.
type Word struct {
	X0, X1 float64
	Text   string
}

// Line is a set of words sharing a baseline, ordered left to right.
type Line struct {
	Y     float64
	Words []Word
}

// Text joins the line's words with single spaces.
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Words))
	for _, w := range l.Words {
		parts = append(parts, w.Text)
	}
	return strings.Join(parts, " ")
}

// Lines groups glyphs into lines top to bottom.
func (l Layout) Lines() []Line {
	type bucket struct {
		yMin, yMax float64
		glyphs     []Glyph
	}
	var buckets []bucket
	for _, g := range l.Glyphs {
		if g.S == "" {
			continue
		}
		placed := false
		for i := range buckets {
			if g.Y >= buckets[i].yMin-rowTolerance && g.Y <= buckets[i].yMax+rowTolerance {
				buckets[i].glyphs = append(buckets[i].glyphs, g)
				buckets[i].yMin = math.Min(buckets[i].yMin, g.Y)
				buckets[i].yMax = math.Max(buckets[i].yMax, g.Y)
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, bucket{yMin: g.Y, yMax: g.Y, glyphs: []Glyph{g}})
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].yMax > buckets[j].yMax
	})

	lines := make([]Line, 0, len(buckets))
	for _, b := range buckets {
		words := wordsOf(b.glyphs)
		if len(words) == 0 {
			continue
		}
		lines = append(lines, Line{Y: (b.yMin + b.yMax) / 2, Words: words})
	}
	return lines
}

func wordsOf(glyphs []Glyph) []Word {
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].X < glyphs[j].X })

	var words []Word
	var cur strings.Builder
	var x0, x1 float64
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, Word{X0: x0, X1: x1, Text: cur.String()})
			cur.Reset()
		}
	}

	breakNext := false
	for _, g := range glyphs {
		parts := strings.Fields(g.S)
		if len(parts) == 0 {
			flush()
			x1 = g.X + g.W
			continue
		}
		size := g.Size
		if size <= 0 {
			size = 10
		}
		if breakNext || g.X-x1 > size*0.25 || startsWithSpace(g.S) {
			flush()
		}
		for i, part := range parts {
			if i > 0 {
				flush()
			}
			if cur.Len() == 0 {
				x0 = g.X
			}
			cur.WriteString(part)
		}
		x1 = g.X + g.W
		breakNext = endsWithSpace(g.S)
	}
	flush()
	return words
}

func startsWithSpace(s string) bool {
	return s != "" && unicode.IsSpace([]rune(s)[0])
}

func endsWithSpace(s string) bool {
	r := []rune(s)
	return len(r) > 0 && unicode.IsSpace(r[len(r)-1])
}

// Text reconstructs the page text one line per row.
func (l Layout) Text() string {
	lines := l.Lines()
	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		out = append(out, ln.Text())
	}
	return strings.Join(out, "\n")
}

// Grid rebuilds the page's tabular content as rows of cells. When ruling
// rectangles outline columns the cells follow them; otherwise each line is
// split at wide horizontal gaps.
func (l Layout) Grid() [][]string {
	lines := l.Lines()
	if len(lines) == 0 {
		return nil
	}
	cols := l.columnEdges()
	if len(cols) < 3 {
		return gapGrid(lines)
	}

	bands := l.rowEdges()
	top, bottom := math.Inf(1), math.Inf(-1)
	if len(bands) >= 2 {
		top, bottom = bands[len(bands)-1], bands[0]
	}

	var grid [][]string
	lastBand := -1
	for _, ln := range lines {
		if ln.Y > top+edgeMerge || ln.Y < bottom-edgeMerge {
			continue
		}
		cells := make([]string, len(cols)-1)
		for _, w := range ln.Words {
			idx := columnOf(cols, (w.X0+w.X1)/2)
			if cells[idx] != "" {
				cells[idx] += " "
			}
			cells[idx] += w.Text
		}
		band := bandOf(bands, ln.Y)
		if band >= 0 && band == lastBand && len(grid) > 0 {
			prev := grid[len(grid)-1]
			for i, c := range cells {
				if c == "" {
					continue
				}
				if prev[i] != "" {
					prev[i] += " "
				}
				prev[i] += c
			}
			continue
		}
		grid = append(grid, cells)
		lastBand = band
	}
	return grid
}

// columnEdges returns the sorted x positions of vertical rules.
func (l Layout) columnEdges() []float64 {
	var xs []float64
	for _, r := range l.Rects {
		w, h := math.Abs(r.X1-r.X0), math.Abs(r.Y1-r.Y0)
		switch {
		case w <= edgeThickness && h >= minEdgeLength:
			xs = append(xs, (r.X0+r.X1)/2)
		case w > edgeThickness && h > edgeThickness:
			xs = append(xs, math.Min(r.X0, r.X1), math.Max(r.X0, r.X1))
		}
	}
	return mergeEdges(xs)
}

// rowEdges returns the sorted y positions of horizontal rules.
func (l Layout) rowEdges() []float64 {
	var ys []float64
	for _, r := range l.Rects {
		w, h := math.Abs(r.X1-r.X0), math.Abs(r.Y1-r.Y0)
		switch {
		case h <= edgeThickness && w >= minEdgeLength:
			ys = append(ys, (r.Y0+r.Y1)/2)
		case w > edgeThickness && h > edgeThickness:
			ys = append(ys, math.Min(r.Y0, r.Y1), math.Max(r.Y0, r.Y1))
		}
	}
	return mergeEdges(ys)
}

func mergeEdges(vs []float64) []float64 {
	if len(vs) == 0 {
		return nil
	}
	sort.Float64s(vs)
	out := []float64{vs[0]}
	for _, v := range vs[1:] {
		if v-out[len(out)-1] > edgeMerge {
			out = append(out, v)
		}
	}
	return out
}

func columnOf(edges []float64, x float64) int {
	for i := 0; i < len(edges)-1; i++ {
		if x < edges[i+1] {
			return i
		}
	}
	return len(edges) - 2
}

// bandOf returns the index of the horizontal band holding y, or -1 when
// no rules were found.
func bandOf(edges []float64, y float64) int {
	if len(edges) < 2 {
		return -1
	}
	for i := 0; i < len(edges)-1; i++ {
		if y < edges[i+1] {
			return i
		}
	}
	return len(edges) - 2
}

func gapGrid(lines []Line) [][]string {
	grid := make([][]string, 0, len(lines))
	for _, ln := range lines {
		var cells []string
		var cur []string
		var prevEnd float64
		for i, w := range ln.Words {
			if i > 0 && w.X0-prevEnd > 12 {
				cells = append(cells, strings.Join(cur, " "))
				cur = nil
			}
			cur = append(cur, w.Text)
			prevEnd = w.X1
		}
		cells = append(cells, strings.Join(cur, " "))
		grid = append(grid, cells)
	}
	return grid
}
