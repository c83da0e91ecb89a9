package machine

import (
	"encoding/json"
	"fmt"
)

// Direction is the head movement encoded in a transition.
type Direction int

const (
	Left  Direction = 0
	Right Direction = 1
)

func (d Direction) String() string {
	if d == Left {
		return "L"
	}
	return "R"
}

// haltSentinel is the serialized form of a halt cell. The sentinel is a
// storage encoding only; in-memory code must check IsHalt, never Write == -1.
var haltSentinel = [3]int{-1, 0, -1}

// Transition is one cell of a rule table: either a tape action
// (write a symbol, move the head, switch state) or a halt.
type Transition struct {
	Write int
	Dir   Direction
	Next  int
	halt  bool
}

// Move builds an action transition.
func Move(write int, dir Direction, next int) Transition {
	return Transition{Write: write, Dir: dir, Next: next}
}

// Halt builds a halting transition.
func Halt() Transition {
	return Transition{Write: -1, Next: -1, halt: true}
}

func (t Transition) IsHalt() bool {
	return t.halt
}

// Tuple returns the serialized 3-int form: [write, direction, next_state],
// with [-1, 0, -1] for halt.
func (t Transition) Tuple() [3]int {
	if t.halt {
		return haltSentinel
	}
	return [3]int{t.Write, int(t.Dir), t.Next}
}

// FromTuple decodes the serialized 3-int form.
func FromTuple(tuple [3]int) (Transition, error) {
	if tuple[0] == -1 {
		return Halt(), nil
	}
	if tuple[0] < 0 {
		return Transition{}, fmt.Errorf("invalid write symbol %d", tuple[0])
	}
	if tuple[1] != int(Left) && tuple[1] != int(Right) {
		return Transition{}, fmt.Errorf("invalid direction bit %d", tuple[1])
	}
	if tuple[2] < 0 {
		return Transition{}, fmt.Errorf("invalid next state %d", tuple[2])
	}
	return Move(tuple[0], Direction(tuple[1]), tuple[2]), nil
}

func (t Transition) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Tuple())
}

func (t *Transition) UnmarshalJSON(data []byte) error {
	var tuple [3]int
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	decoded, err := FromTuple(tuple)
	if err != nil {
		return err
	}
	*t = decoded
	return nil
}

// TransitionOptions enumerates every possible transition for a
// (states, symbols) space, in the fixed order the generator depends on:
// write-symbol major, then direction L before R, then next state, with the
// single halt option appended last.
func TransitionOptions(states, symbols int) []Transition {
	options := make([]Transition, 0, symbols*2*states+1)
	for write := 0; write < symbols; write++ {
		for _, dir := range []Direction{Left, Right} {
			for next := 0; next < states; next++ {
				options = append(options, Move(write, dir, next))
			}
		}
	}
	options = append(options, Halt())
	return options
}
