package inspect

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larrywigington/busybeaverGPU/internal/machine"
)

// renderTestTable reads: A0 -> 1RB, A1 -> 0RB, B0 -> 1LA, B1 -> HALT.
func renderTestTable(t *testing.T) machine.RuleTable {
	t.Helper()
	table, err := machine.NewRuleTable(2, 2, []machine.Transition{
		machine.Move(1, machine.Right, 1),
		machine.Move(0, machine.Right, 1),
		machine.Move(1, machine.Left, 0),
		machine.Halt(),
	})
	require.NoError(t, err)
	return table
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRenderTable(t *testing.T) {
	golden(t).Assert(t, "table", []byte(RenderTable(renderTestTable(t))))
}

func TestRenderLaTeX(t *testing.T) {
	golden(t).Assert(t, "latex", []byte(RenderLaTeX(renderTestTable(t))))
}

func TestCellNotation(t *testing.T) {
	assert.Equal(t, "1RB", cellNotation(machine.Move(1, machine.Right, 1)))
	assert.Equal(t, "0LA", cellNotation(machine.Move(0, machine.Left, 0)))
	assert.Equal(t, "HALT", cellNotation(machine.Halt()))
}

func TestStateLetter(t *testing.T) {
	assert.Equal(t, "A", stateLetter(0))
	assert.Equal(t, "C", stateLetter(2))
}

func TestRenderTape(t *testing.T) {
	m := machine.New(renderTestTable(t), 16)

	out := RenderTape(m, 3)
	assert.Equal(t, "0 0 0 0 0 0 0\n      ^\nState: A, Steps: 0, Halted: false\n", out)

	// Three steps reach the halt cell; the window tracks the head.
	for i := 0; i < 3; i++ {
		m.Step()
	}
	m.Step()
	out = RenderTape(m, 3)
	assert.Equal(t, "0 0 0 1 0 0 0\n      ^\nState: B, Steps: 3, Halted: true\n", out)
}

func TestRenderTape_WindowClampsAtEdges(t *testing.T) {
	m := machine.New(renderTestTable(t), 6)

	out := RenderTape(m, 10)
	assert.Equal(t, "0 0 0 0 0 0\n      ^\nState: A, Steps: 0, Halted: false\n", out)
}
