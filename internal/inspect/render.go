// Package inspect renders rule tables for humans: a terminal transition
// grid in compact busy-beaver notation and a LaTeX array for write-ups.
package inspect

import (
	"fmt"
	"strings"

	"github.com/larrywigington/busybeaverGPU/internal/machine"
)

// stateLetter names states A, B, C, ... as busy beaver literature does.
func stateLetter(state int) string {
	return string(rune('A' + state))
}

// cellNotation renders one transition in compact notation, e.g. "1RB":
// write 1, move right, go to state B. Halt cells render as "HALT".
func cellNotation(t machine.Transition) string {
	if t.IsHalt() {
		return "HALT"
	}
	return fmt.Sprintf("%d%s%s", t.Write, t.Dir, stateLetter(t.Next))
}

// RenderTable renders the transition grid, one row per state, one column
// per read symbol.
func RenderTable(table machine.RuleTable) string {
	var b strings.Builder
	b.WriteString(" ")
	for symbol := 0; symbol < table.Symbols(); symbol++ {
		fmt.Fprintf(&b, "\t%d", symbol)
	}
	b.WriteByte('\n')
	for state := 0; state < table.States(); state++ {
		fmt.Fprintf(&b, "State %s", stateLetter(state))
		for symbol := 0; symbol < table.Symbols(); symbol++ {
			fmt.Fprintf(&b, "\t%s", cellNotation(table.At(state, symbol)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderLaTeX renders the same grid as a LaTeX array.
func RenderLaTeX(table machine.RuleTable) string {
	var b strings.Builder
	b.WriteString(`\begin{array}{c|` + strings.Repeat("c", table.Symbols()) + "}\n")
	headers := make([]string, table.Symbols())
	for symbol := range headers {
		headers[symbol] = fmt.Sprintf(`\text{%d}`, symbol)
	}
	b.WriteString("State/Symbol & " + strings.Join(headers, " & ") + ` \\ \hline` + "\n")
	for state := 0; state < table.States(); state++ {
		row := make([]string, 0, table.Symbols()+1)
		row = append(row, stateLetter(state))
		for symbol := 0; symbol < table.Symbols(); symbol++ {
			row = append(row, cellNotation(table.At(state, symbol)))
		}
		b.WriteString(strings.Join(row, " & ") + ` \\` + "\n")
	}
	b.WriteString(`\end{array}` + "\n")
	return b.String()
}

// RenderTape renders a window of a running machine's tape with a head
// marker and the current state, for traced single-machine runs.
func RenderTape(m *machine.Machine, window int) string {
	tape := m.Tape()
	lo := m.Head() - window
	if lo < 0 {
		lo = 0
	}
	hi := m.Head() + window
	if hi > len(tape)-1 {
		hi = len(tape) - 1
	}

	var cells, marks []string
	for pos := lo; pos <= hi; pos++ {
		cells = append(cells, fmt.Sprintf("%d", tape[pos]))
		if pos == m.Head() {
			marks = append(marks, "^")
		} else {
			marks = append(marks, " ")
		}
	}
	return strings.Join(cells, " ") + "\n" +
		strings.TrimRight(strings.Join(marks, " "), " ") + "\n" +
		fmt.Sprintf("State: %s, Steps: %d, Halted: %v\n", stateLetter(m.State()), m.Steps(), m.Halted())
}
