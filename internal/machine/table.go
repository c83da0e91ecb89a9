package machine

import (
	"encoding/json"
	"fmt"
)

// RuleTable is the full transition function of one candidate machine:
// exactly states*symbols cells indexed by state*symbols + symbol.
// Immutable once constructed.
type RuleTable struct {
	states  int
	symbols int
	cells   []Transition
}

// NewRuleTable validates the cell count against the (states, symbols) shape.
func NewRuleTable(states, symbols int, cells []Transition) (RuleTable, error) {
	if states <= 0 || symbols <= 0 {
		return RuleTable{}, fmt.Errorf("invalid shape %dx%d", states, symbols)
	}
	if len(cells) != states*symbols {
		return RuleTable{}, fmt.Errorf("rule table has %d cells, want %d for %d states x %d symbols",
			len(cells), states*symbols, states, symbols)
	}
	owned := make([]Transition, len(cells))
	copy(owned, cells)
	return RuleTable{states: states, symbols: symbols, cells: owned}, nil
}

func (t RuleTable) States() int  { return t.states }
func (t RuleTable) Symbols() int { return t.symbols }

// At returns the transition for (state, symbol).
func (t RuleTable) At(state, symbol int) Transition {
	return t.cells[state*t.symbols+symbol]
}

// Cells returns a copy of the cell sequence in table order.
func (t RuleTable) Cells() []Transition {
	out := make([]Transition, len(t.cells))
	copy(out, t.cells)
	return out
}

// HasHalt reports whether at least one cell halts. The generator rejects
// tables without one: a machine that cannot halt cannot be a busy beaver
// candidate.
func (t RuleTable) HasHalt() bool {
	for _, cell := range t.cells {
		if cell.IsHalt() {
			return true
		}
	}
	return false
}

// Encode produces the canonical byte encoding: a compact JSON array of
// 3-int tuples in cell order, no whitespace. Content hashing and block
// files both use this encoding, so re-encoding a loaded table reproduces
// its hash exactly.
func (t RuleTable) Encode() ([]byte, error) {
	tuples := make([][3]int, len(t.cells))
	for i, cell := range t.cells {
		tuples[i] = cell.Tuple()
	}
	return json.Marshal(tuples)
}

// DecodeRuleTable parses the canonical encoding back into a table with the
// given shape.
func DecodeRuleTable(states, symbols int, data []byte) (RuleTable, error) {
	var tuples [][3]int
	if err := json.Unmarshal(data, &tuples); err != nil {
		return RuleTable{}, fmt.Errorf("decode rule table: %w", err)
	}
	cells := make([]Transition, 0, len(tuples))
	for i, tuple := range tuples {
		cell, err := FromTuple(tuple)
		if err != nil {
			return RuleTable{}, fmt.Errorf("decode rule table cell %d: %w", i, err)
		}
		// Decoded bytes are untrusted: a cell referencing a symbol or
		// state outside the table shape would index past the cell slice
		// at execution time.
		if !cell.IsHalt() {
			if cell.Write >= symbols {
				return RuleTable{}, fmt.Errorf("decode rule table cell %d: write symbol %d out of range for %d symbols",
					i, cell.Write, symbols)
			}
			if cell.Next >= states {
				return RuleTable{}, fmt.Errorf("decode rule table cell %d: next state %d out of range for %d states",
					i, cell.Next, states)
			}
		}
		cells = append(cells, cell)
	}
	return NewRuleTable(states, symbols, cells)
}
