package timetable

import (
	"strconv"
	"strings"

	"rtmap/internal/model"
)

// Identifier returns the canonical identifier of a stop sequence: the
// 1-based position followed by the stop id, for every stop, with no
// separator.
func Identifier(stopIDs []int) string {
	var b strings.Builder
	for i, id := range stopIDs {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}

// sequenceKey is an unambiguous map key for a stop sequence. Identifier
// alone can collide when stop ids differ in length.
func sequenceKey(stopIDs []int) string {
	var b strings.Builder
	for _, id := range stopIDs {
		b.WriteString(strconv.Itoa(id))
		b.WriteByte(',')
	}
	return b.String()
}

// ShapeIndex deduplicates stop sequences into shapes. The first sequence to
// be resolved owns the shape; its stops are expanded once, at creation.
type ShapeIndex struct {
	byKey  map[string]int
	shapes []model.Shape
	stops  []model.ShapeStop
}

func NewShapeIndex() *ShapeIndex {
	return &ShapeIndex{byKey: make(map[string]int)}
}

// Resolve returns the shape id for stopIDs, creating the shape and its
// ShapeStops on first sight.
func (x *ShapeIndex) Resolve(stopIDs []int) (id int, created bool) {
	key := sequenceKey(stopIDs)
	if id, ok := x.byKey[key]; ok {
		return id, false
	}
	id = len(x.shapes) + 1
	x.byKey[key] = id
	x.shapes = append(x.shapes, model.Shape{ID: id, Identifier: Identifier(stopIDs)})
	for i, stopID := range stopIDs {
		x.stops = append(x.stops, model.ShapeStop{
			ID:       len(x.stops) + 1,
			ShapeID:  id,
			StopID:   stopID,
			Sequence: i + 1,
		})
	}
	return id, true
}

func (x *ShapeIndex) Shapes() []model.Shape         { return x.shapes }
func (x *ShapeIndex) ShapeStops() []model.ShapeStop { return x.stops }

// DirectionIndex deduplicates stop sequences into directions. Unlike shapes,
// directions keep no stop table; their legs come from the router.
type DirectionIndex struct {
	byKey      map[string]int
	directions []model.Direction
	stopIDs    [][]int
}

func NewDirectionIndex() *DirectionIndex {
	return &DirectionIndex{byKey: make(map[string]int)}
}

// Resolve returns the direction for stopIDs, creating it on first sight
// with the given terminus ids. A zero terminus falls back to the first or
// last stop of the sequence.
func (x *DirectionIndex) Resolve(stopIDs []int, originID, destinationID int) (model.Direction, bool) {
	key := sequenceKey(stopIDs)
	if id, ok := x.byKey[key]; ok {
		return x.directions[id-1], false
	}
	d := model.Direction{ID: len(x.directions) + 1, Identifier: Identifier(stopIDs)}
	d.OriginID, d.DestinationID = termini(stopIDs, originID, destinationID)
	x.byKey[key] = d.ID
	x.directions = append(x.directions, d)
	x.stopIDs = append(x.stopIDs, append([]int(nil), stopIDs...))
	return d, true
}

// StopIDs returns the stop sequence of direction id.
func (x *DirectionIndex) StopIDs(id int) []int {
	return x.stopIDs[id-1]
}

func (x *DirectionIndex) Directions() []model.Direction { return x.directions }

func termini(stopIDs []int, originID, destinationID int) (int, int) {
	if len(stopIDs) > 0 {
		if originID == 0 {
			originID = stopIDs[0]
		}
		if destinationID == 0 {
			destinationID = stopIDs[len(stopIDs)-1]
		}
	}
	return originID, destinationID
}
