package api

import (
	"bytes"
	"fmt"
	"log"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/voxelsplace/bevelmesh/config"
	"github.com/voxelsplace/bevelmesh/voxmesh"
	"github.com/voxelsplace/bevelmesh/world"
)

// Options builds world options from a config.
func Options(cfg config.Config, logger *log.Logger, obs world.RebuildObserver) world.Options {
	return world.Options{
		ChunkSize:    cfg.ChunkSize,
		SphereExtent: cfg.SphereCornerExtent,
		Logger:       logger,
		Observer:     obs,
	}
}

// EditorState fills the editor materials from config. Selections stay
// empty; callers add them before handing the state to the world. The x-ray
// material is only applied when xray is set.
func EditorState(cfg config.EditorConfig, xray bool) voxmesh.EditorState {
	st := voxmesh.EditorState{
		Highlight: voxmesh.Material(cfg.HighlightMaterial),
		Selection: voxmesh.Material(cfg.SelectionMaterial),
	}
	if xray {
		st.XRay = voxmesh.Material(cfg.XRayMaterial)
	}
	for mask := uint8(1); mask < 16; mask++ {
		st.EdgeHighlights[mask] = voxmesh.Material(cfg.EdgeHighlightMaterial(mask))
	}
	return st
}

// ChunksToGLB exports every built chunk as one glTF mesh with a primitive
// per submesh. Chunks without a mesh are skipped, so call Flush first.
func ChunksToGLB(w *world.World, generator string) ([]byte, error) {
	doc := gltf.NewDocument()
	doc.Asset.Generator = generator
	materials := map[voxmesh.Material]uint32{}

	for _, ch := range w.Chunks() {
		m := ch.Mesh
		if m == nil || m.VertexCount() == 0 || len(m.Submeshes) == 0 {
			continue
		}
		positions := make([][3]float32, len(m.Positions))
		normals := make([][3]float32, len(m.Normals))
		tangents := make([][4]float32, len(m.Tangents))
		uvs := make([][2]float32, len(m.UVs))
		for i := range m.Positions {
			positions[i] = [3]float32(m.Positions[i])
			normals[i] = [3]float32(m.Normals[i])
			tangents[i] = [4]float32(m.Tangents[i])
			uvs[i] = [2]float32(m.UVs[i])
		}
		posAccessor := modeler.WritePosition(doc, positions)
		normalAccessor := modeler.WriteNormal(doc, normals)
		tangentAccessor := modeler.WriteTangent(doc, tangents)
		uvAccessor := modeler.WriteTextureCoord(doc, uvs)

		mesh := &gltf.Mesh{Name: fmt.Sprintf("chunk_%d_%d_%d", ch.Key.X, ch.Key.Y, ch.Key.Z)}
		for _, sub := range m.Submeshes {
			mat, ok := materials[sub.Material]
			if !ok {
				mat = uint32(len(doc.Materials))
				materials[sub.Material] = mat
				doc.Materials = append(doc.Materials, &gltf.Material{
					Name:                 string(sub.Material),
					PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorFactor: &[4]float32{1, 1, 1, 1}, MetallicFactor: gltf.Float(0), RoughnessFactor: gltf.Float(1)},
					AlphaMode:            gltf.AlphaOpaque,
				})
			}
			indicesAccessor := modeler.WriteIndices(doc, sub.Indices)
			mesh.Primitives = append(mesh.Primitives, &gltf.Primitive{
				Attributes: map[string]uint32{
					gltf.POSITION:   uint32(posAccessor),
					gltf.NORMAL:     uint32(normalAccessor),
					gltf.TANGENT:    uint32(tangentAccessor),
					gltf.TEXCOORD_0: uint32(uvAccessor),
				},
				Indices:  gltf.Index(uint32(indicesAccessor)),
				Material: gltf.Index(mat),
			})
		}
		doc.Meshes = append(doc.Meshes, mesh)
		node := uint32(len(doc.Nodes))
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: mesh.Name, Mesh: gltf.Index(uint32(len(doc.Meshes) - 1))})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, node)
	}

	var out bytes.Buffer
	enc := gltf.NewEncoder(&out)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// WorldToGLB loads a snapshot, builds every chunk and exports it with the
// configured editor state.
func WorldToGLB(snapshot []byte, cfg config.Config, logger *log.Logger) ([]byte, error) {
	w, err := world.LoadSnapshot(snapshot, Options(cfg, logger, nil))
	if err != nil {
		return nil, err
	}
	w.SetEditorState(EditorState(cfg.Editor, cfg.Export.XRay))
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return ChunksToGLB(w, cfg.Export.Generator)
}

// ApplyEdits applies an encoded edit stream to a snapshot and returns the
// new snapshot.
func ApplyEdits(snapshot, edits []byte, cfg config.Config) ([]byte, error) {
	w, err := world.LoadSnapshot(snapshot, Options(cfg, nil, nil))
	if err != nil {
		return nil, err
	}
	ops, err := world.DecodeEdits(edits)
	if err != nil {
		return nil, err
	}
	if err := w.Apply(ops); err != nil {
		return nil, err
	}
	comp, err := world.ParseCompression(cfg.Export.Compression)
	if err != nil {
		return nil, err
	}
	return w.MarshalSnapshot(comp)
}
