// Package matcher finds configured interactions among tracked entities by
// combining pairwise box overlap with slot-based label matching.
package matcher

import (
	"fmt"
	"time"

	"github.com/cobryan05/Yolo2Mqtt/internal/geo"
	"github.com/cobryan05/Yolo2Mqtt/internal/tracked"
)

// MaxSlotDepth bounds the slot-assignment recursion. A template with more
// slots than this is a configuration error, not a matching miss.
const MaxSlotDepth = 8

// ErrSlotDepthExceeded reports a template whose slot list exceeds
// MaxSlotDepth. It is fatal: the configuration must be fixed.
var ErrSlotDepthExceeded = fmt.Errorf("interaction template exceeds %d slots", MaxSlotDepth)

// Template is one configured interaction: a named relationship between
// co-located labeled entities.
type Template struct {
	Name        string
	Slots       [][]string // acceptable labels per slot
	Threshold   float64    // minimum IoS overlap ratio, inclusive
	MinSustain  time.Duration
	ExpireAfter time.Duration
}

// Overlap is one unordered pair of entity indices with a nonzero
// intersection.
type Overlap struct {
	A, B  int
	Ratio float64 // intersection over smaller area
}

// Match is one satisfied template: the ordered labels that filled its
// slots. Identity is the label sequence, not the physical entities; two
// different cats overlapping the same bowl yield equal matches.
type Match struct {
	Template Template
	Labels   []string
}

// Matcher evaluates a fixed set of templates against entity snapshots.
// It never mutates the entities it inspects.
type Matcher struct {
	templates []Template
}

// New creates a matcher for the given templates. Templates whose slot
// count exceeds MaxSlotDepth are rejected.
func New(templates []Template) (*Matcher, error) {
	for _, t := range templates {
		if len(t.Slots) > MaxSlotDepth {
			return nil, fmt.Errorf("%w: template %q has %d slots", ErrSlotDepthExceeded, t.Name, len(t.Slots))
		}
	}
	return &Matcher{templates: templates}, nil
}

// Overlaps computes the IoS ratio for every pair of entities whose boxes
// geometrically intersect. Pairs with zero intersection are omitted rather
// than reported as zero.
func Overlaps(entities []*tracked.Entity) []Overlap {
	var overlaps []Overlap
	for i := 0; i < len(entities); i++ {
		for j := i + 1; j < len(entities); j++ {
			boxA, boxB := entities[i].LastBox(), entities[j].LastBox()
			if geo.IntersectionArea(boxA, boxB) == 0 {
				continue
			}
			overlaps = append(overlaps, Overlap{A: i, B: j, Ratio: geo.IoS(boxA, boxB)})
		}
	}
	return overlaps
}

// FindMatches returns every interaction currently evidenced by the entity
// snapshot: for each template, every overlapping pair at or above the
// template threshold, and for each such pair every valid assignment of its
// two members to the template slots. All valid permutations are returned
// as separate matches.
//
// Matching only ever considers the members of a single pairwise overlap,
// so a template declaring more than two slots can never be fully
// satisfied; no larger overlap sets are computed.
func (m *Matcher) FindMatches(entities []*tracked.Entity) ([]Match, error) {
	overlaps := Overlaps(entities)

	var matches []Match
	for _, tmpl := range m.templates {
		for _, ov := range overlaps {
			if ov.Ratio < tmpl.Threshold {
				continue
			}
			members := []string{entities[ov.A].Label(), entities[ov.B].Label()}
			assignments, err := assignSlots(tmpl.Slots, members)
			if err != nil {
				return nil, fmt.Errorf("template %q: %w", tmpl.Name, err)
			}
			for _, labels := range assignments {
				matches = append(matches, Match{Template: tmpl, Labels: labels})
			}
		}
	}
	return matches, nil
}

// assignSlots enumerates every way to place the member labels into the
// slots such that each slot receives a label it accepts and every member
// is used exactly once. Assignments that leave a slot empty or a member
// unused are not valid.
func assignSlots(slots [][]string, members []string) ([][]string, error) {
	used := make([]bool, len(members))
	current := make([]string, 0, len(slots))
	var results [][]string

	var recurse func(depth int) error
	recurse = func(depth int) error {
		if depth > MaxSlotDepth {
			return ErrSlotDepthExceeded
		}
		if depth == len(slots) {
			for _, u := range used {
				if !u {
					return nil // a member was left over, not a full match
				}
			}
			assignment := make([]string, len(current))
			copy(assignment, current)
			results = append(results, assignment)
			return nil
		}
		for i, label := range members {
			if used[i] || !slotAccepts(slots[depth], label) {
				continue
			}
			used[i] = true
			current = append(current, label)
			if err := recurse(depth + 1); err != nil {
				return err
			}
			current = current[:len(current)-1]
			used[i] = false
		}
		return nil
	}

	if err := recurse(0); err != nil {
		return nil, err
	}
	return results, nil
}

func slotAccepts(slot []string, label string) bool {
	for _, accepted := range slot {
		if accepted == label {
			return true
		}
	}
	return false
}
