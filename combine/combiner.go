// Package combine computes the rows admitted by all active widgets.
//
// Each widget with a non-default state contributes the bitmap of rows its
// kind matches; the result is their intersection. Categorical kinds are
// answered from cached per-value bitmaps, other kinds scan their column
// over the rows still in the running result.
package combine

import (
	"log/slog"

	"github.com/RoaringBitmap/roaring"

	"github.com/hugr-lab/adaptive-filter/internal/recovery"
	"github.com/hugr-lab/adaptive-filter/table"
	"github.com/hugr-lab/adaptive-filter/widget"
)

// States gives the current state of a column.
type States interface {
	Get(column string) widget.State
}

// StateMap is a States backed by a map.
type StateMap map[string]widget.State

func (m StateMap) Get(column string) widget.State { return m[column] }

// Combiner intersects widget matches. It caches per-value bitmaps of
// categorical columns for the table it last saw.
//
// Combiner is not safe for concurrent use.
type Combiner struct {
	logger *slog.Logger

	tbl    *table.Table
	values map[string]map[string]*roaring.Bitmap
}

// New returns a Combiner. A nil logger discards log output.
func New(logger *slog.Logger) *Combiner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Combiner{logger: logger}
}

// Combine is a one-shot Combiner.Combine without logging or caching.
func Combine(tbl *table.Table, states States, specs []widget.Spec) *ResultIndex {
	return New(nil).Combine(tbl, states, specs)
}

// Reset drops the cached value bitmaps.
func (c *Combiner) Reset() {
	c.tbl = nil
	c.values = nil
}

// Combine returns the rows of tbl that pass the states of every spec.
// Default or nil states impose no restriction. A state the kind rejects,
// or a kind that panics, is logged and ignored.
func (c *Combiner) Combine(tbl *table.Table, states States, specs []widget.Spec) *ResultIndex {
	if c.tbl != tbl {
		c.tbl = tbl
		c.values = make(map[string]map[string]*roaring.Bitmap)
	}

	result := roaring.New()
	result.AddRange(0, uint64(tbl.NumRows()))

	active := 0
	for _, spec := range specs {
		if result.IsEmpty() {
			break
		}

		st := states.Get(spec.Column)
		if st == nil || st.IsDefault() {
			continue
		}
		if spec.Kind == nil {
			c.logger.Warn("Widget has no kind", "column", spec.Column)
			continue
		}
		if err := widget.Check(spec.Kind, st); err != nil {
			c.logger.Warn("Ignoring invalid widget state",
				"column", spec.Column,
				"kind", spec.KindName,
				"error", err,
			)
			continue
		}
		col, ok := tbl.Column(spec.Column)
		if !ok {
			c.logger.Warn("Widget column not in table", "column", spec.Column)
			continue
		}

		match, err := recovery.RecoverToValue(c.logger, spec.KindName+".Matches", func() (*roaring.Bitmap, error) {
			return c.match(col, spec.Kind, st, result), nil
		})
		if err != nil {
			continue
		}
		result.And(match)
		active++
	}

	c.logger.Debug("Combined filters",
		"active", active,
		"rows", tbl.NumRows(),
		"matched", result.GetCardinality(),
	)
	return newIndex(tbl, result)
}

// match returns the rows among candidates that kind admits for st.
func (c *Combiner) match(col *table.Column, kind widget.Kind, st widget.State, candidates *roaring.Bitmap) *roaring.Bitmap {
	if sm, ok := kind.(widget.SetMatcher); ok {
		idx := c.valueIndex(col)
		out := roaring.New()
		for _, v := range sm.Values(st) {
			if bm, ok := idx[v]; ok {
				out.Or(bm)
			}
		}
		return out
	}

	out := roaring.New()
	it := candidates.Iterator()
	for it.HasNext() {
		pos := it.Next()
		if kind.Matches(col.Value(int(pos)), st) {
			out.Add(pos)
		}
	}
	return out
}

// valueIndex returns the positions of each distinct value of col.
func (c *Combiner) valueIndex(col *table.Column) map[string]*roaring.Bitmap {
	if idx, ok := c.values[col.Name]; ok {
		return idx
	}

	idx := make(map[string]*roaring.Bitmap)
	for i := range col.Len() {
		v := col.Value(i)
		if !v.Valid {
			continue
		}
		bm, ok := idx[v.Text]
		if !ok {
			bm = roaring.New()
			idx[v.Text] = bm
		}
		bm.Add(uint32(i))
	}
	for _, bm := range idx {
		bm.RunOptimize()
	}
	c.values[col.Name] = idx
	return idx
}
