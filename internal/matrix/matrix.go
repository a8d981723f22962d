package matrix

import (
	"fmt"
	"strings"
)

// Axis is a named parameter with an ordered list of discrete values.
type Axis struct {
	Name   string
	Values []string
}

// Cell is one concrete assignment of a value to every axis. Axes preserves
// the declaration order so the cell renders and exports deterministically.
type Cell struct {
	Axes     []string
	Bindings map[string]string
}

// ID renders the cell's canonical identity, e.g. "python=3.8,os=jammy".
// A grid with no axes produces a single cell identified as "default".
func (c Cell) ID() string {
	if len(c.Axes) == 0 {
		return "default"
	}
	parts := make([]string, len(c.Axes))
	for i, name := range c.Axes {
		parts[i] = name + "=" + c.Bindings[name]
	}
	return strings.Join(parts, ",")
}

// Value returns the cell's binding for the named axis.
func (c Cell) Value(axis string) (string, bool) {
	v, ok := c.Bindings[axis]
	return v, ok
}

// Expand produces the cartesian product of the given axes as a flat cell
// list. The order is deterministic: the first declared axis varies slowest
// and the last varies fastest. Zero axes expand to exactly one empty cell,
// so an un-parameterized grid still runs its plan once.
func Expand(axes []Axis) ([]Cell, error) {
	total := 1
	for _, axis := range axes {
		if len(axis.Values) == 0 {
			return nil, fmt.Errorf("axis %q has no values", axis.Name)
		}
		total *= len(axis.Values)
	}

	names := make([]string, len(axes))
	for i, axis := range axes {
		names[i] = axis.Name
	}

	cells := make([]Cell, 0, total)
	indices := make([]int, len(axes))
	for i := 0; i < total; i++ {
		bindings := make(map[string]string, len(axes))
		for j, axis := range axes {
			bindings[axis.Name] = axis.Values[indices[j]]
		}
		cells = append(cells, Cell{Axes: names, Bindings: bindings})

		// Advance the odometer, last axis first.
		for j := len(axes) - 1; j >= 0; j-- {
			indices[j]++
			if indices[j] < len(axes[j].Values) {
				break
			}
			indices[j] = 0
		}
	}

	return cells, nil
}
