package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobryan05/Yolo2Mqtt/internal/geo"
	"github.com/cobryan05/Yolo2Mqtt/internal/tracked"
)

func entityAt(t *testing.T, label string, box geo.Rect) *tracked.Entity {
	t.Helper()
	e := tracked.New()
	e.MarkSeen(&tracked.Detection{Label: label, Confidence: 0.9, Box: box}, true)
	return e
}

func TestOverlapsSkipsDisjointPairs(t *testing.T) {
	t.Parallel()

	entities := []*tracked.Entity{
		entityAt(t, "cat", geo.Rect{X: 0.0, Y: 0.0, Width: 0.2, Height: 0.2}),
		entityAt(t, "dog", geo.Rect{X: 0.1, Y: 0.0, Width: 0.2, Height: 0.2}),
		entityAt(t, "bird", geo.Rect{X: 0.8, Y: 0.8, Width: 0.1, Height: 0.1}),
	}

	overlaps := Overlaps(entities)
	require.Len(t, overlaps, 1)
	assert.Equal(t, 0, overlaps[0].A)
	assert.Equal(t, 1, overlaps[0].B)
	assert.InDelta(t, 0.5, overlaps[0].Ratio, 1e-9)
}

func TestThresholdIsInclusive(t *testing.T) {
	t.Parallel()

	// Boxes arranged so IoS is exactly 0.5; a threshold of 0.5 must match.
	entities := []*tracked.Entity{
		entityAt(t, "cat", geo.Rect{X: 0.0, Y: 0.0, Width: 0.2, Height: 0.2}),
		entityAt(t, "bowl", geo.Rect{X: 0.1, Y: 0.0, Width: 0.2, Height: 0.2}),
	}

	tmpl := Template{
		Name:      "feeding",
		Slots:     [][]string{{"cat"}, {"bowl"}},
		Threshold: 0.5,
	}
	m, err := New([]Template{tmpl})
	require.NoError(t, err)

	matches, err := m.FindMatches(entities)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "feeding", matches[0].Template.Name)
	assert.Equal(t, []string{"cat", "bowl"}, matches[0].Labels)

	// Just above the observed ratio there must be no match.
	tmpl.Threshold = 0.5 + 1e-9
	m, err = New([]Template{tmpl})
	require.NoError(t, err)
	matches, err = m.FindMatches(entities)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestAllPermutationsReturned(t *testing.T) {
	t.Parallel()

	// Both slots accept both labels, so both orderings are valid and both
	// must be returned as separate matches.
	entities := []*tracked.Entity{
		entityAt(t, "cat", geo.Rect{X: 0.0, Y: 0.0, Width: 0.2, Height: 0.2}),
		entityAt(t, "dog", geo.Rect{X: 0.0, Y: 0.0, Width: 0.2, Height: 0.2}),
	}

	tmpl := Template{
		Name:      "playing",
		Slots:     [][]string{{"cat", "dog"}, {"cat", "dog"}},
		Threshold: 0.5,
	}
	m, err := New([]Template{tmpl})
	require.NoError(t, err)

	matches, err := m.FindMatches(entities)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	var sequences [][]string
	for _, match := range matches {
		sequences = append(sequences, match.Labels)
	}
	assert.Contains(t, sequences, []string{"cat", "dog"})
	assert.Contains(t, sequences, []string{"dog", "cat"})
}

func TestSameLabelPairMatchesBothSlots(t *testing.T) {
	t.Parallel()

	entities := []*tracked.Entity{
		entityAt(t, "cat", geo.Rect{X: 0.0, Y: 0.0, Width: 0.2, Height: 0.2}),
		entityAt(t, "cat", geo.Rect{X: 0.05, Y: 0.0, Width: 0.2, Height: 0.2}),
	}

	tmpl := Template{
		Name:      "cats-together",
		Slots:     [][]string{{"cat"}, {"cat"}},
		Threshold: 0.5,
	}
	m, err := New([]Template{tmpl})
	require.NoError(t, err)

	matches, err := m.FindMatches(entities)
	require.NoError(t, err)
	// Two identical-label members produce two permutations with the same
	// label sequence; deduplication is the engine's concern, not ours.
	assert.Len(t, matches, 2)
}

func TestThreeSlotTemplateNeverMatches(t *testing.T) {
	t.Parallel()

	// Matching only considers pairwise overlaps, so a template with more
	// than two slots cannot be fully satisfied.
	entities := []*tracked.Entity{
		entityAt(t, "cat", geo.Rect{X: 0.0, Y: 0.0, Width: 0.2, Height: 0.2}),
		entityAt(t, "dog", geo.Rect{X: 0.0, Y: 0.0, Width: 0.2, Height: 0.2}),
	}

	tmpl := Template{
		Name:      "crowd",
		Slots:     [][]string{{"cat"}, {"dog"}, {"bird"}},
		Threshold: 0.1,
	}
	m, err := New([]Template{tmpl})
	require.NoError(t, err)

	matches, err := m.FindMatches(entities)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSingleSlotTemplateLeavesMemberUnused(t *testing.T) {
	t.Parallel()

	// A one-slot template cannot consume both members of a pair, so no
	// match is produced.
	entities := []*tracked.Entity{
		entityAt(t, "cat", geo.Rect{X: 0.0, Y: 0.0, Width: 0.2, Height: 0.2}),
		entityAt(t, "dog", geo.Rect{X: 0.0, Y: 0.0, Width: 0.2, Height: 0.2}),
	}

	tmpl := Template{
		Name:      "solo",
		Slots:     [][]string{{"cat", "dog"}},
		Threshold: 0.1,
	}
	m, err := New([]Template{tmpl})
	require.NoError(t, err)

	matches, err := m.FindMatches(entities)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSlotDepthGuard(t *testing.T) {
	t.Parallel()

	slots := make([][]string, MaxSlotDepth+1)
	for i := range slots {
		slots[i] = []string{"cat"}
	}

	_, err := New([]Template{{Name: "pathological", Slots: slots, Threshold: 0.1, MinSustain: time.Second}})
	require.ErrorIs(t, err, ErrSlotDepthExceeded)
}

func TestFindMatchesDoesNotMutateEntities(t *testing.T) {
	t.Parallel()

	e := entityAt(t, "cat", geo.Rect{X: 0.0, Y: 0.0, Width: 0.2, Height: 0.2})
	before := e.ToRecord()

	m, err := New([]Template{{
		Name:      "feeding",
		Slots:     [][]string{{"cat"}, {"bowl"}},
		Threshold: 0.5,
	}})
	require.NoError(t, err)

	_, err = m.FindMatches([]*tracked.Entity{e, entityAt(t, "bowl", geo.Rect{X: 0.0, Y: 0.0, Width: 0.3, Height: 0.3})})
	require.NoError(t, err)
	assert.Equal(t, before, e.ToRecord())
}
