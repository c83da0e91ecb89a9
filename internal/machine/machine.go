package machine

// Result is the outcome of one bounded simulation. Halted == false with
// Steps == maxSteps means the step budget ran out: inconclusive, never a
// proof of non-halting.
type Result struct {
	Steps  int
	Halted bool
}

// Run simulates one machine on a zero-initialized bounded tape of tapeSize
// cells, head starting at the midpoint, until it halts or maxSteps
// transitions have been applied.
//
// A head move past either tape edge clamps to the edge index and the
// machine continues. This bounds simulation cost but makes the model an
// approximation of an infinite-tape machine, not a faithful one.
func Run(table RuleTable, maxSteps, tapeSize int) Result {
	tape := make([]int, tapeSize)
	head := tapeSize / 2
	state := 0

	for steps := 0; steps < maxSteps; steps++ {
		cell := table.At(state, tape[head])
		if cell.IsHalt() {
			return Result{Steps: steps, Halted: true}
		}
		tape[head] = cell.Write
		if cell.Dir == Left {
			head--
		} else {
			head++
		}
		if head < 0 {
			head = 0
		} else if head >= tapeSize {
			head = tapeSize - 1
		}
		state = cell.Next
	}
	return Result{Steps: maxSteps, Halted: false}
}

// Machine is a single steppable machine over a bounded tape, used by the
// inspector for traced runs. Batch simulation goes through Run, which
// shares the same step semantics.
type Machine struct {
	table  RuleTable
	tape   []int
	head   int
	state  int
	steps  int
	halted bool
}

func New(table RuleTable, tapeSize int) *Machine {
	return &Machine{
		table: table,
		tape:  make([]int, tapeSize),
		head:  tapeSize / 2,
	}
}

func (m *Machine) Head() int    { return m.head }
func (m *Machine) State() int   { return m.state }
func (m *Machine) Steps() int   { return m.steps }
func (m *Machine) Halted() bool { return m.halted }

// Tape returns a copy of the current tape contents.
func (m *Machine) Tape() []int {
	out := make([]int, len(m.tape))
	copy(out, m.tape)
	return out
}

// Step applies one transition. A halted machine stays halted.
func (m *Machine) Step() {
	if m.halted {
		return
	}
	cell := m.table.At(m.state, m.tape[m.head])
	if cell.IsHalt() {
		m.halted = true
		return
	}
	m.tape[m.head] = cell.Write
	if cell.Dir == Left {
		m.head--
	} else {
		m.head++
	}
	if m.head < 0 {
		m.head = 0
	} else if m.head >= len(m.tape) {
		m.head = len(m.tape) - 1
	}
	m.state = cell.Next
	m.steps++
}
