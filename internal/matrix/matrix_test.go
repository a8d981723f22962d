package matrix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpand_TwoAxes_ProducesFullProductInOrder(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	axes := []Axis{
		{Name: "python", Values: []string{"3.8", "3.9"}},
		{Name: "os", Values: []string{"jammy", "noble"}},
	}

	// --- Act ---
	cells, err := Expand(axes)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, cells, 4)

	wantIDs := []string{
		"python=3.8,os=jammy",
		"python=3.8,os=noble",
		"python=3.9,os=jammy",
		"python=3.9,os=noble",
	}
	for i, want := range wantIDs {
		require.Equal(t, want, cells[i].ID())
	}
}

func TestExpand_SingleAxis_OneCellPerValue(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	axes := []Axis{{Name: "version", Values: []string{"3.8", "3.9", "3.10"}}}

	// --- Act ---
	cells, err := Expand(axes)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, cells, 3)
	for i, want := range []string{"3.8", "3.9", "3.10"} {
		got, ok := cells[i].Value("version")
		require.True(t, ok)
		require.Equal(t, want, got)
	}
}

func TestExpand_NoAxes_ProducesOneEmptyCell(t *testing.T) {
	t.Parallel()

	// --- Act ---
	cells, err := Expand(nil)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, cells, 1)
	require.Empty(t, cells[0].Bindings)
	require.Equal(t, "default", cells[0].ID())
}

func TestExpand_EmptyAxis_Fails(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	axes := []Axis{
		{Name: "python", Values: []string{"3.8"}},
		{Name: "os", Values: nil},
	}

	// --- Act ---
	cells, err := Expand(axes)

	// --- Assert ---
	require.Error(t, err)
	require.Nil(t, cells)
	require.Contains(t, err.Error(), `axis "os" has no values`)
}

func TestExpand_RepeatedCalls_AreIdentical(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	axes := []Axis{
		{Name: "a", Values: []string{"1", "2"}},
		{Name: "b", Values: []string{"x", "y", "z"}},
	}

	// --- Act ---
	first, err := Expand(axes)
	require.NoError(t, err)
	second, err := Expand(axes)
	require.NoError(t, err)

	// --- Assert ---
	require.Equal(t, first, second)
}

func TestCell_Value_MissingAxis(t *testing.T) {
	t.Parallel()

	cell := Cell{Axes: []string{"python"}, Bindings: map[string]string{"python": "3.9"}}

	_, ok := cell.Value("ruby")
	require.False(t, ok)
}
