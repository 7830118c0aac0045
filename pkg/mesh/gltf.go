package mesh

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/qmuntal/gltf"

	"github.com/taigrr/tracecore/pkg/math3d"
)

// LoadGLB loads a binary GLTF (.glb) file into a Mesh, deduplicating
// nothing further since GLTF's own vertex layout is already per-draw
// deduplicated; vertices here are consumed as-is, one entry per GLTF
// attribute index, per spec 4.2.6's construction note (the hash-table
// dedup it describes is for the non-indexed triangle-soup constructor,
// see NewFromSoup).
func LoadGLB(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf %s: %w", filepath.Base(path), err)
	}

	var vertices []Vertex
	var triangles []Triangle

	for _, gm := range doc.Meshes {
		for _, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
				continue
			}
			posIdx, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			positions, err := readVec3Accessor(doc, posIdx)
			if err != nil {
				return nil, fmt.Errorf("read positions: %w", err)
			}

			var normals []math3d.Vec3
			if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
				normals, err = readVec3Accessor(doc, normIdx)
				if err != nil {
					return nil, fmt.Errorf("read normals: %w", err)
				}
			}

			var uvs []math3d.Vec2
			if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
				uvs, err = readVec2Accessor(doc, uvIdx)
				if err != nil {
					return nil, fmt.Errorf("read uvs: %w", err)
				}
			}

			base := int32(len(vertices))
			hasNormals := len(normals) == len(positions)
			for i := range positions {
				v := Vertex{Position: positions[i]}
				if i < len(normals) {
					v.Normal = normals[i]
				}
				if i < len(uvs) {
					v.UV = math3d.V2(uvs[i].X, 1.0-uvs[i].Y)
				}
				vertices = append(vertices, v)
			}

			var indices []int
			if prim.Indices != nil {
				indices, err = readIndices(doc, *prim.Indices)
				if err != nil {
					return nil, fmt.Errorf("read indices: %w", err)
				}
			} else {
				indices = make([]int, len(positions))
				for i := range indices {
					indices[i] = i
				}
			}

			for i := 0; i+2 < len(indices); i += 3 {
				triangles = append(triangles, Triangle{
					V:      [3]int32{base + int32(indices[i]), base + int32(indices[i+2]), base + int32(indices[i+1])},
					Smooth: hasNormals,
				})
			}
		}
	}

	m := New(vertices, triangles)
	if !hasAnyNormal(vertices) {
		m.computeFlatNormals()
	}
	return m, nil
}

func hasAnyNormal(vs []Vertex) bool {
	for _, v := range vs {
		if v.Normal.LenSq() > 1e-12 {
			return true
		}
	}
	return false
}

// computeFlatNormals assigns each triangle's face normal to its three
// vertices, used when a loaded mesh carries no normals of its own.
func (m *Mesh) computeFlatNormals() {
	for i := range m.Triangles {
		t := &m.Triangles[i]
		n := t.planeNormal
		m.Vertices[t.V[0]].Normal = n
		m.Vertices[t.V[1]].Normal = n
		m.Vertices[t.V[2]].Normal = n
	}
}

func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("expected VEC3, got %v", accessor.Type)
	}
	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}
	floats, ok := data.([][3]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected data type for VEC3")
	}
	out := make([]math3d.Vec3, len(floats))
	for i, f := range floats {
		out[i] = math3d.V3(float64(f[0]), float64(f[1]), float64(f[2]))
	}
	return out, nil
}

func readVec2Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec2 {
		return nil, fmt.Errorf("expected VEC2, got %v", accessor.Type)
	}
	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}
	floats, ok := data.([][2]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected data type for VEC2")
	}
	out := make([]math3d.Vec2, len(floats))
	for i, f := range floats {
		out[i] = math3d.V2(float64(f[0]), float64(f[1]))
	}
	return out, nil
}

func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor := doc.Accessors[accessorIdx]
	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}
	switch v := data.(type) {
	case []uint8:
		out := make([]int, len(v))
		for i, x := range v {
			out[i] = int(x)
		}
		return out, nil
	case []uint16:
		out := make([]int, len(v))
		for i, x := range v {
			out[i] = int(x)
		}
		return out, nil
	case []uint32:
		out := make([]int, len(v))
		for i, x := range v {
			out[i] = int(x)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected index type: %T", data)
	}
}

func readAccessorData(doc *gltf.Document, accessor *gltf.Accessor) (any, error) {
	if accessor.BufferView == nil {
		return nil, fmt.Errorf("accessor has no buffer view")
	}
	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]

	bufData := buffer.Data
	if bufData == nil {
		return nil, fmt.Errorf("buffer has no data (external buffers not supported)")
	}

	start := bufferView.ByteOffset + accessor.ByteOffset
	stride := bufferView.ByteStride
	count := accessor.Count

	switch accessor.Type {
	case gltf.AccessorVec3:
		if stride == 0 {
			stride = 12
		}
		out := make([][3]float32, count)
		for i := 0; i < count; i++ {
			offset := start + i*stride
			for j := 0; j < 3; j++ {
				out[i][j] = readFloat32(bufData[offset+j*4:])
			}
		}
		return out, nil

	case gltf.AccessorVec2:
		if stride == 0 {
			stride = 8
		}
		out := make([][2]float32, count)
		for i := 0; i < count; i++ {
			offset := start + i*stride
			for j := 0; j < 2; j++ {
				out[i][j] = readFloat32(bufData[offset+j*4:])
			}
		}
		return out, nil

	case gltf.AccessorScalar:
		if stride == 0 {
			switch accessor.ComponentType {
			case gltf.ComponentUbyte:
				stride = 1
			case gltf.ComponentUshort:
				stride = 2
			case gltf.ComponentUint:
				stride = 4
			}
		}
		switch accessor.ComponentType {
		case gltf.ComponentUbyte:
			out := make([]uint8, count)
			for i := 0; i < count; i++ {
				out[i] = bufData[start+i*stride]
			}
			return out, nil
		case gltf.ComponentUshort:
			out := make([]uint16, count)
			for i := 0; i < count; i++ {
				offset := start + i*stride
				out[i] = uint16(bufData[offset]) | uint16(bufData[offset+1])<<8
			}
			return out, nil
		case gltf.ComponentUint:
			out := make([]uint32, count)
			for i := 0; i < count; i++ {
				offset := start + i*stride
				out[i] = uint32(bufData[offset]) |
					uint32(bufData[offset+1])<<8 |
					uint32(bufData[offset+2])<<16 |
					uint32(bufData[offset+3])<<24
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("unsupported accessor type: %v / %v", accessor.Type, accessor.ComponentType)
}

func readFloat32(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits)
}
