package tile

import (
	"fmt"
	"strings"
)

// Kind is the content of a single board cell.
type Kind uint8

const (
	Empty Kind = iota
	Wall
	Floor
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "EMPTY"
	case Wall:
		return "WALL"
	case Floor:
		return "FLOOR"
	default:
		return fmt.Sprintf("KIND(%d)", uint8(k))
	}
}

// Solid reports whether the cell blocks movement.
func (k Kind) Solid() bool {
	return k != Floor
}

func (k Kind) Valid() bool {
	return k <= Floor
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EMPTY", "NOTHING":
		return Empty, nil
	case "WALL":
		return Wall, nil
	case "FLOOR":
		return Floor, nil
	}
	return Empty, fmt.Errorf("unknown tile kind %q", s)
}
