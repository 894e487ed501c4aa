package validation

import (
	"slices"
	"strconv"
	"strings"
)

var defaultLevels = [...]int{100, 200, 300, 400, 500, 600, 700}

var defaultProgrammes = [...]string{
	"Computer Science",
	"Business Administration",
	"Engineering",
	"Mathematics",
	"Physics",
}

// Rules carries the configurable allow-lists. An empty Programmes list
// accepts any non-empty programme; an empty Levels list falls back to the
// default level set.
type Rules struct {
	Programmes []string
	Levels     []int
}

// DefaultRules returns a fresh copy of the built-in allow-lists.
func DefaultRules() Rules {
	return Rules{
		Programmes: slices.Clone(defaultProgrammes[:]),
		Levels:     slices.Clone(defaultLevels[:]),
	}
}

func (r Rules) levels() []int {
	if len(r.Levels) == 0 {
		return defaultLevels[:]
	}
	return r.Levels
}

func (r Rules) levelMessage() string {
	levels := r.levels()
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = strconv.Itoa(l)
	}
	var list string
	switch len(parts) {
	case 1:
		list = parts[0]
	default:
		list = strings.Join(parts[:len(parts)-1], ", ") + ", or " + parts[len(parts)-1]
	}
	return "Invalid Level: Must be " + list
}
