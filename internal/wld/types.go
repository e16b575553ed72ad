package wld

import "eq-zone-loader/internal/mathutil"

// Vertex holds one mesh vertex. Positions are mesh-local: add the owning
// geometry's Center to place them in zone space.
type Vertex struct {
	Pos    mathutil.Vec3
	Normal mathutil.Vec3
	U, V   float32
}

// Triangle indexes three vertices. The stored winding is already reversed
// from the file order.
type Triangle struct {
	V1, V2, V3   uint32
	TextureIndex uint32
	Flags        uint32
}

// VertexPiece maps a run of vertices to an owning bone for rigid skinning.
// In the legacy mesh format the second field is a start index, not a bone.
type VertexPiece struct {
	Count int16
	Bone  int16
}

// TextureAnimation describes an animated texture slot.
type TextureAnimation struct {
	Animated bool
	DelayMS  int32
	Frames   []string
}

// Geometry is one decoded mesh.
type Geometry struct {
	Name   string
	Center mathutil.Vec3
	Min    mathutil.Vec3
	Max    mathutil.Vec3

	Vertices  []Vertex
	Triangles []Triangle

	// Per texture slot, indexed by Triangle.TextureIndex.
	TextureNames     []string
	TextureInvisible []bool
	TextureAnims     []TextureAnimation

	VertexPieces []VertexPiece
	VertexAnim   *VertexAnimation
}

// ObjectDef names the fragments an actor is built from. The references
// point at model reference or skeleton reference fragments; resolve them
// with Zone.GeometriesForObject and Zone.SkeletonForObject.
type ObjectDef struct {
	Name     string
	MeshRefs []uint32
}

// Placeable is one placed instance of an object definition.
type Placeable struct {
	Name     string
	Position mathutil.Vec3
	Rotation mathutil.Vec3 // degrees, already normalized from 512ths of a circle
	Scale    mathutil.Vec3
}

// BoneTransform is a single keyframe: normalized rotation, translation and
// uniform scale.
type BoneTransform struct {
	Rotation mathutil.Quat
	Shift    mathutil.Vec3
	Scale    float32
}

// TrackDef holds the raw keyframes for one bone track.
type TrackDef struct {
	Name   string
	Frames []BoneTransform
}

// TrackRef names a TrackDef and carries the metadata decoded from that
// name. AnimCode/ModelCode/BoneName are only meaningful when Parsed is set.
type TrackRef struct {
	Name       string
	TrackIndex uint32 // fragment index of the TrackDef
	FrameMS    int32

	AnimCode  string
	ModelCode string
	BoneName  string
	Pose      bool
	Parsed    bool
}

// Bone is one node of a skeleton. Children are indices into Skeleton.Bones.
type Bone struct {
	Name        string
	Orientation *BoneTransform // nil when no pose track resolved
	MeshRef     uint32         // fragment index of an attached mesh, 0 = none
	Children    []int
}

// Skeleton holds bones in file order plus the derived hierarchy arrays.
type Skeleton struct {
	Name          string
	Bones         []*Bone
	ParentIndices []int // -1 for roots; len == len(Bones)
	Roots         []int // indices of bones owned by nobody
}

// Light is a placed light source, merged from its definition fragment.
type Light struct {
	Name     string
	Position mathutil.Vec3
	Radius   float32
	R, G, B  float32

	Flags        uint32
	FrameCount   uint32
	CurrentFrame uint32
	SleepMS      uint32
	Levels       []float32
	Colors       [][3]float32
}

// Animated reports whether the light cycles through frames.
func (l *Light) Animated() bool { return l.FrameCount > 1 }

// AmbientRegion ties an ambient light to a set of BSP regions.
type AmbientRegion struct {
	Name       string
	Flags      uint32
	RegionRefs []int32
}

// GlobalAmbient is the zone-wide ambient color, normalized to [0,1].
type GlobalAmbient struct {
	R, G, B, A float32
}

// VertexAnimFrame is one frame of animated vertex positions, flattened
// x,y,z per vertex.
type VertexAnimFrame struct {
	Positions []float32
}

// VertexAnimation holds per-frame vertex positions for meshes such as
// flags and banners.
type VertexAnimation struct {
	Name    string
	DelayMS int
	Frames  []VertexAnimFrame
}
