// Package serialize encodes widget states into compact, versioned snapshots.
//
// A snapshot is a MessagePack envelope compressed with ZStandard. Only the
// built-in state shapes can be stored; the row index is never persisted.
package serialize

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/paulmach/orb"

	"github.com/hugr-lab/adaptive-filter/internal/msgpack"
	"github.com/hugr-lab/adaptive-filter/widget"
)

// SnapshotVersion is the envelope version written by EncodeStates.
const SnapshotVersion = 1

const maxSnapshotSize = 64 << 20

var (
	// ErrCorrupt indicates data that is not a readable snapshot.
	ErrCorrupt = errors.New("corrupt snapshot")

	// ErrVersion indicates a snapshot written by an unsupported version.
	ErrVersion = errors.New("unsupported snapshot version")

	// ErrUnsupportedState indicates a state type that cannot be stored.
	ErrUnsupportedState = errors.New("unsupported state type")
)

const (
	typeSelection = "selection"
	typeRange     = "range"
	typePeriod    = "period"
	typeExtent    = "extent"
)

type envelope struct {
	Version int      `msgpack:"v"`
	States  []record `msgpack:"states"`
}

type record struct {
	Column string     `msgpack:"column"`
	Type   string     `msgpack:"type"`
	Values []string   `msgpack:"values,omitempty"`
	Min    *float64   `msgpack:"min,omitempty"`
	Max    *float64   `msgpack:"max,omitempty"`
	From   *time.Time `msgpack:"from,omitempty"`
	To     *time.Time `msgpack:"to,omitempty"`
	Bound  []float64  `msgpack:"bound,omitempty"`
}

// EncodeStates serializes non-default states in column order.
func EncodeStates(states map[string]widget.State) ([]byte, error) {
	columns := make([]string, 0, len(states))
	for col, st := range states {
		if st != nil && !st.IsDefault() {
			columns = append(columns, col)
		}
	}
	slices.Sort(columns)

	env := envelope{Version: SnapshotVersion, States: make([]record, 0, len(columns))}
	for _, col := range columns {
		rec, err := toRecord(col, states[col])
		if err != nil {
			return nil, err
		}
		env.States = append(env.States, rec)
	}

	data, err := msgpack.Encode(env)
	if err != nil {
		return nil, err
	}
	c, err := sharedCompressor()
	if err != nil {
		return nil, err
	}
	return c.Compress(data), nil
}

// DecodeStates reverses EncodeStates.
func DecodeStates(data []byte) (map[string]widget.State, error) {
	d, err := sharedDecompressor()
	if err != nil {
		return nil, err
	}
	raw, err := d.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var env envelope
	if err := msgpack.Decode(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if env.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, env.Version)
	}

	states := make(map[string]widget.State, len(env.States))
	for _, rec := range env.States {
		st, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		states[rec.Column] = st
	}
	return states, nil
}

func toRecord(column string, st widget.State) (record, error) {
	rec := record{Column: column}
	switch s := st.(type) {
	case widget.Selection:
		rec.Type = typeSelection
		rec.Values = s
	case widget.Range:
		rec.Type = typeRange
		rec.Min, rec.Max = s.Min, s.Max
	case widget.Period:
		rec.Type = typePeriod
		rec.From, rec.To = s.From, s.To
	case widget.Extent:
		rec.Type = typeExtent
		b := s.Bound
		rec.Bound = []float64{b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y()}
	default:
		return rec, fmt.Errorf("%w: column %s has %T", ErrUnsupportedState, column, st)
	}
	return rec, nil
}

func fromRecord(rec record) (widget.State, error) {
	switch rec.Type {
	case typeSelection:
		return widget.Selection(rec.Values), nil
	case typeRange:
		return widget.Range{Min: rec.Min, Max: rec.Max}, nil
	case typePeriod:
		return widget.Period{From: rec.From, To: rec.To}, nil
	case typeExtent:
		if len(rec.Bound) != 4 {
			return nil, fmt.Errorf("%w: column %s extent has %d coordinates", ErrCorrupt, rec.Column, len(rec.Bound))
		}
		return widget.Within(orb.Bound{
			Min: orb.Point{rec.Bound[0], rec.Bound[1]},
			Max: orb.Point{rec.Bound[2], rec.Bound[3]},
		}), nil
	}
	return nil, fmt.Errorf("%w: column %s has state type %q", ErrCorrupt, rec.Column, rec.Type)
}
