// Package tracked folds noisy per-frame detections into a stable per-object
// label judgment. An object detector may report the same physical object as
// "cat" one frame and "dog" the next; Entity accumulates confidence
// statistics per label and derives a single best label weighted both by how
// often a label was reported and how confident those reports were.
package tracked

import (
	"encoding/json"

	"github.com/cobryan05/Yolo2Mqtt/internal/geo"
	"github.com/cobryan05/Yolo2Mqtt/internal/stats"
)

// Detection is one raw observation from the object detector.
type Detection struct {
	Label      string
	Confidence float64
	Box        geo.Rect
}

// labelObservation holds the confidence stream and most recent box for one
// label of an entity.
type labelObservation struct {
	conf    stats.Running
	lastBox geo.Rect
}

// Entity aggregates a stream of detections for a single tracked object id.
type Entity struct {
	labels map[string]*labelObservation
	// order records labels in first-observed order so that best-label
	// resolution is deterministic. On an exact share tie the label seen
	// first wins.
	order []string

	age           int
	framesSeen    int // carried on the wire format but never incremented, see Record
	missingStreak int

	bestLabel string
	bestConf  float64
	lastBox   geo.Rect
}

// New returns an empty entity. The first detection is folded in via MarkSeen.
func New() *Entity {
	return &Entity{labels: make(map[string]*labelObservation)}
}

// MarkSeen records that the object was present in a polling cycle.
// newPollCycle increments the entity age, and is false when the same cycle
// delivers several detections for one object. A nil detection means the
// tracker followed the object without a fresh classification: the missing
// streak resets but no label statistics change.
func (e *Entity) MarkSeen(det *Detection, newPollCycle bool) {
	if newPollCycle {
		e.age++
	}
	e.missingStreak = 0

	if det == nil {
		return
	}

	obs, ok := e.labels[det.Label]
	if !ok {
		obs = &labelObservation{}
		e.labels[det.Label] = obs
		e.order = append(e.order, det.Label)
	}
	obs.conf.AddValue(det.Confidence)
	obs.lastBox = det.Box
	e.lastBox = det.Box

	e.recalculateBest()
}

// MarkMissing records a polling cycle in which the object was not detected.
func (e *Entity) MarkMissing() {
	e.missingStreak++
}

// recalculateBest re-derives the best label judgment.
//
// Each label's share is its raw confidence mass (sum of all reported
// confidences) divided by the total mass across labels. The best label is
// the one with the largest share, and the reported confidence is that
// label's mean confidence scaled by its share: "how sure are we it is this
// label at all" times "how confident were the reports that said so".
func (e *Entity) recalculateBest() {
	var totalMass float64
	for _, obs := range e.labels {
		totalMass += obs.conf.Sum()
	}
	if totalMass == 0 {
		e.bestLabel = ""
		e.bestConf = 0.0
		return
	}

	bestShare := 0.0
	bestLabel := ""
	var bestObs *labelObservation
	for _, label := range e.order {
		obs := e.labels[label]
		share := obs.conf.Sum() / totalMass
		if share > bestShare {
			bestShare = share
			bestLabel = label
			bestObs = obs
		}
	}

	e.bestLabel = bestLabel
	e.bestConf = bestObs.conf.Avg() * bestShare
}

// LabelConf returns the share of confidence mass attributed to label, or 0
// if the label was never observed.
func (e *Entity) LabelConf(label string) float64 {
	obs, ok := e.labels[label]
	if !ok {
		return 0.0
	}
	var totalMass float64
	for _, o := range e.labels {
		totalMass += o.conf.Sum()
	}
	if totalMass == 0 {
		return 0.0
	}
	return obs.conf.Sum() / totalMass
}

// Label returns the current best label, or "" before any detection.
func (e *Entity) Label() string { return e.bestLabel }

// Confidence returns the confidence of the best label.
func (e *Entity) Confidence() float64 { return e.bestConf }

// Age returns the number of polling cycles the entity has existed.
func (e *Entity) Age() int { return e.age }

// MissingStreak returns the number of consecutive polling cycles without a
// detection.
func (e *Entity) MissingStreak() int { return e.missingStreak }

// LastBox returns the most recent bounding box seen across all labels.
func (e *Entity) LastBox() geo.Rect { return e.lastBox }

// Record is the flat wire representation of an entity as exchanged with the
// detection feed.
//
// FramesSeen exists in the wire format but no operation updates it; it is
// carried for compatibility only.
type Record struct {
	Label         string     `json:"label"`
	Confidence    float64    `json:"confidence"`
	Age           int        `json:"age"`
	FramesSeen    int        `json:"framesSeen"`
	MissingStreak int        `json:"missingStreak"`
	Box           [4]float64 `json:"box"`
}

// ToRecord flattens the entity into its wire representation.
func (e *Entity) ToRecord() Record {
	return Record{
		Label:         e.bestLabel,
		Confidence:    e.bestConf,
		Age:           e.age,
		FramesSeen:    e.framesSeen,
		MissingStreak: e.missingStreak,
		Box:           e.lastBox.Coords(),
	}
}

// FromRecord reconstructs an entity from its wire representation. The label
// statistics collapse to a single observation, so Label and Confidence
// reproduce the record exactly.
func FromRecord(rec Record) *Entity {
	e := New()
	if rec.Label != "" {
		e.MarkSeen(&Detection{Label: rec.Label, Confidence: rec.Confidence, Box: geo.NewRect(rec.Box)}, false)
	}
	e.age = rec.Age
	e.framesSeen = rec.FramesSeen
	e.missingStreak = rec.MissingStreak
	e.lastBox = geo.NewRect(rec.Box)
	return e
}

// Serialize encodes the entity wire record as JSON.
func (e *Entity) Serialize() ([]byte, error) {
	return json.Marshal(e.ToRecord())
}

// Deserialize decodes a JSON wire record into an entity.
func Deserialize(data []byte) (*Entity, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return FromRecord(rec), nil
}
