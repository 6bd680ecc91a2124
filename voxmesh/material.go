package voxmesh

import (
	"sort"

	"github.com/google/uuid"
)

// Tier orders submeshes inside a chunk. Lower tiers draw first.
type Tier uint8

const (
	TierXRay Tier = iota
	TierHighlight
	TierSelection
	TierEdgeHighlight
	TierBase
	TierOverlay
)

func (t Tier) String() string {
	return [...]string{"xray", "highlight", "selection", "edge-highlight", "base", "overlay"}[t]
}

// FaceKey identifies one face of one voxel.
type FaceKey struct {
	Pos  Coord
	Face FaceIndex
}

// EditorState is the editor-side selection state that picks materials. It is
// passed to the grouper explicitly; the zero value renders plain materials.
type EditorState struct {
	// XRay, when set, replaces every material in the chunk.
	XRay                  Material
	Highlight             Material
	HighlightedSubstances map[uuid.UUID]bool
	Selection             Material
	SelectedFaces         map[FaceKey]bool
	// EdgeHighlights is indexed by the 4-bit mask of selected in-plane edges.
	EdgeHighlights [16]Material
	SelectedEdges  map[FaceKey]uint8
}

// Submesh is one draw batch: a material and the triangles that use it.
type Submesh struct {
	Tier     Tier
	Material Material
	Indices  []uint32
}

type groupKey struct {
	tier Tier
	mat  Material
}

// MaterialGrouper buckets face triangles chunk-wide by tier and material.
type MaterialGrouper struct {
	state  *EditorState
	index  map[groupKey]int
	groups []Submesh
}

func NewMaterialGrouper(state *EditorState) *MaterialGrouper {
	if state == nil {
		state = &EditorState{}
	}
	return &MaterialGrouper{state: state, index: make(map[groupKey]int)}
}

func (g *MaterialGrouper) add(t Tier, m Material, tris []uint32) {
	if m == NoMaterial || len(tris) == 0 {
		return
	}
	k := groupKey{t, m}
	i, ok := g.index[k]
	if !ok {
		i = len(g.groups)
		g.index[k] = i
		g.groups = append(g.groups, Submesh{Tier: t, Material: m})
	}
	g.groups[i].Indices = append(g.groups[i].Indices, tris...)
}

// AddFace routes the triangles of one face to every material it renders
// with.
func (g *MaterialGrouper) AddFace(pos Coord, c *Cell, f FaceIndex, tris []uint32) {
	st := g.state
	if st.XRay != NoMaterial {
		g.add(TierXRay, st.XRay, tris)
		return
	}
	key := FaceKey{pos, f}
	if c.Substance != uuid.Nil && st.HighlightedSubstances[c.Substance] {
		g.add(TierHighlight, st.Highlight, tris)
	}
	if st.SelectedFaces[key] {
		g.add(TierSelection, st.Selection, tris)
	}
	if mask := st.SelectedEdges[key] & 0xF; mask != 0 {
		g.add(TierEdgeHighlight, st.EdgeHighlights[mask], tris)
	}
	face := c.Faces[f]
	g.add(TierBase, face.Material, tris)
	g.add(TierOverlay, face.Overlay, tris)
}

// Submeshes returns the groups ordered by tier, then first appearance.
func (g *MaterialGrouper) Submeshes() []Submesh {
	out := append([]Submesh(nil), g.groups...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out
}
