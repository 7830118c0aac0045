package mesh

import "github.com/taigrr/tracecore/pkg/math3d"

// Soup is an unindexed triangle-soup input: one position/normal/UV
// triple per corner, three corners per triangle, with no sharing between
// adjacent faces. NewFromSoup deduplicates these into the shared
// vertex/index representation Mesh stores internally, per spec 4.2.6's
// construction note about deduplicating vertices, normals, and UVs
// through a hash table keyed by value.
type Soup struct {
	Positions []math3d.Vec3
	Normals   []math3d.Vec3 // optional; same length as Positions if present
	UVs       []math3d.Vec2 // optional; same length as Positions if present
	Smooth    bool
}

// vertexKey buckets a vertex by its rounded attribute values so that
// floating-point noise from upstream tools does not prevent two
// practically-identical corners from sharing a slot.
type vertexKey struct {
	px, py, pz int64
	nx, ny, nz int64
	u, v       int64
}

const soupQuantum = 1 << 16

func quantize(f float64) int64 {
	return int64(f * soupQuantum)
}

func keyFor(p, n math3d.Vec3, uv math3d.Vec2) vertexKey {
	return vertexKey{
		px: quantize(p.X), py: quantize(p.Y), pz: quantize(p.Z),
		nx: quantize(n.X), ny: quantize(n.Y), nz: quantize(n.Z),
		u: quantize(uv.X), v: quantize(uv.Y),
	}
}

// NewFromSoup builds a Mesh from triangle-soup corners, bucketing
// identical corners into shared vertex slots before handing the result
// to New.
func NewFromSoup(s Soup) *Mesh {
	table := make(map[vertexKey]int32, len(s.Positions))
	var vertices []Vertex
	var triangles []Triangle

	indexOf := func(i int) int32 {
		var n math3d.Vec3
		if i < len(s.Normals) {
			n = s.Normals[i]
		}
		var uv math3d.Vec2
		if i < len(s.UVs) {
			uv = s.UVs[i]
		}
		k := keyFor(s.Positions[i], n, uv)
		if idx, ok := table[k]; ok {
			return idx
		}
		idx := int32(len(vertices))
		vertices = append(vertices, Vertex{Position: s.Positions[i], Normal: n, UV: uv})
		table[k] = idx
		return idx
	}

	for i := 0; i+2 < len(s.Positions); i += 3 {
		triangles = append(triangles, Triangle{
			V:      [3]int32{indexOf(i), indexOf(i + 1), indexOf(i + 2)},
			Smooth: s.Smooth && len(s.Normals) == len(s.Positions),
		})
	}

	m := New(vertices, triangles)
	if len(s.Normals) != len(s.Positions) {
		m.computeFlatNormals()
	}
	return m
}
