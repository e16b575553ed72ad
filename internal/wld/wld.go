// Package wld decodes the binary scene-description format stored inside
// PFS archives: meshes, textures, skeletons and animation tracks,
// placeables, lights, vertex animations and the zone's BSP spatial index.
//
// The file is a flat stream of typed fragments that cross-reference each
// other by a dense 1-based index assigned in stream order. Decoding is a
// single pass; references resolve through per-category index maps built as
// fragments stream past.
package wld

import (
	"errors"
	"fmt"

	"eq-zone-loader/internal/mathutil"
	"eq-zone-loader/internal/pfs"
)

const (
	wldMagic      = 0x54503D02
	legacyVersion = 0x00015500
)

// Fragment type codes.
const (
	fragTextureName   = 0x03
	fragTextureBrush  = 0x04
	fragTextureRef    = 0x05
	fragSkeleton      = 0x10
	fragSkeletonRef   = 0x11
	fragTrackDef      = 0x12
	fragTrackRef      = 0x13
	fragObjectDef     = 0x14
	fragPlaceable     = 0x15
	fragLightDef      = 0x1B
	fragBspTree       = 0x21
	fragBspRegion     = 0x22
	fragLightInstance = 0x28
	fragRegionTypes   = 0x29
	fragAmbientRegion = 0x2A
	fragLegacyMesh    = 0x2C
	fragModelRef      = 0x2D
	fragVertexAnimRef = 0x2F
	fragMaterial      = 0x30
	fragMaterialList  = 0x31
	fragGlobalAmbient = 0x35
	fragMesh          = 0x36
	fragVertexAnimDef = 0x37
)

// ErrNoSceneData is returned by Load when the buffer parsed but produced
// none of geometry, placeables, object defs, skeletons or lights.
var ErrNoSceneData = errors.New("wld: no usable scene data")

// Zone is the decoded object graph of one scene file.
type Zone struct {
	Geometries         []*Geometry
	GeometryByFragment map[uint32]*Geometry
	ObjectDefs         map[string]ObjectDef
	Placeables         []*Placeable
	Skeletons          map[uint32]*Skeleton
	TrackDefs          map[uint32]*TrackDef
	TrackRefs          map[uint32]*TrackRef
	Lights             []*Light
	AmbientRegions     []*AmbientRegion
	GlobalAmbient      *GlobalAmbient
	VertexAnims        map[uint32]*VertexAnimation
	BSP                *Tree

	// Reference fragments kept for consumers resolving object definition
	// chains: model ref -> mesh fragment, skeleton ref -> skeleton
	// fragment. A zero mesh fragment marks an unresolved model ref.
	ModelRefs    map[uint32]uint32
	SkeletonRefs map[uint32]uint32

	// RegionCount is the region total declared in the header, used to
	// size PVS visibility arrays.
	RegionCount uint32
}

// loader carries the cross-reference maps that only live for the duration
// of one parse.
type loader struct {
	zone    *Zone
	strings stringTable
	legacy  bool

	textures        map[uint32][]string // 0x03: frame names
	brushes         map[uint32]textureBrush
	textureRefs     map[uint32]uint32 // 0x05 -> 0x04
	materials       map[uint32]material
	brushSets       map[uint32][]uint32       // 0x31: material refs
	orientations    map[uint32]*BoneTransform // 0x12 first frame
	orientationRefs map[uint32]uint32         // 0x13 -> 0x12
	lightDefs       map[uint32]lightDef

	// Mesh <-> vertex-animation links can appear in either order; these
	// secondary indices resolve whichever side arrives last.
	vertexAnimRefs map[uint32]uint32      // 0x2F -> 0x37
	pendingByRef   map[uint32][]*Geometry // meshes waiting on a 0x2F index
	pendingByDef   map[uint32][]*Geometry // meshes waiting on a 0x37 index
}

// Load decodes a scene buffer. It fails only on a malformed header or when
// nothing usable was recovered; individual bad fragments are skipped.
func Load(data []byte) (*Zone, error) {
	if len(data) < 28 {
		return nil, fmt.Errorf("wld: buffer too short (%d bytes)", len(data))
	}

	hdr := newReader(data[:28])
	magic := hdr.readU32()
	version := hdr.readU32()
	fragmentCount := hdr.readU32()
	regionCount := hdr.readU32()
	hdr.skip(4)
	hashLen := hdr.readU32()
	hdr.skip(4)

	if magic != wldMagic {
		return nil, fmt.Errorf("wld: bad magic 0x%08X", magic)
	}
	if 28+int(hashLen) > len(data) {
		return nil, fmt.Errorf("wld: string table past end of buffer")
	}

	hash := make([]byte, hashLen)
	copy(hash, data[28:28+hashLen])
	decodeString(hash)

	l := &loader{
		zone: &Zone{
			GeometryByFragment: make(map[uint32]*Geometry),
			ObjectDefs:         make(map[string]ObjectDef),
			Skeletons:          make(map[uint32]*Skeleton),
			TrackDefs:          make(map[uint32]*TrackDef),
			TrackRefs:          make(map[uint32]*TrackRef),
			VertexAnims:        make(map[uint32]*VertexAnimation),
			ModelRefs:          make(map[uint32]uint32),
			SkeletonRefs:       make(map[uint32]uint32),
			RegionCount:        regionCount,
		},
		strings:         stringTable(hash),
		legacy:          version == legacyVersion,
		textures:        make(map[uint32][]string),
		brushes:         make(map[uint32]textureBrush),
		textureRefs:     make(map[uint32]uint32),
		materials:       make(map[uint32]material),
		brushSets:       make(map[uint32][]uint32),
		orientations:    make(map[uint32]*BoneTransform),
		orientationRefs: make(map[uint32]uint32),
		lightDefs:       make(map[uint32]lightDef),
		vertexAnimRefs:  make(map[uint32]uint32),
		pendingByRef:    make(map[uint32][]*Geometry),
		pendingByDef:    make(map[uint32][]*Geometry),
	}

	// Fragment start offsets accumulate from the declared sizes; a corrupt
	// size desynchronizes everything after it. Not defended, matching the
	// format's design.
	pos := 28 + int(hashLen)
	for i := uint32(1); i <= fragmentCount; i++ {
		if pos+8 > len(data) {
			break
		}
		size := binary32(data[pos:])
		typ := binary32(data[pos+4:])
		body := data[pos+8:]
		if int(size) < len(body) {
			body = body[:size]
		}
		l.dispatch(typ, body, i)
		pos += 8 + int(size)
	}

	z := l.zone
	if len(z.Geometries) == 0 && len(z.Placeables) == 0 && len(z.ObjectDefs) == 0 &&
		len(z.Skeletons) == 0 && len(z.Lights) == 0 {
		return nil, ErrNoSceneData
	}
	return z, nil
}

// LoadFromArchive opens the archive at path and decodes the named scene
// file from it.
func LoadFromArchive(archivePath, name string) (*Zone, error) {
	archive, err := pfs.Open(archivePath)
	if err != nil {
		return nil, err
	}
	data, err := archive.Get(name)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

func binary32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func (l *loader) dispatch(typ uint32, body []byte, index uint32) {
	// Every fragment body leads with a signed name reference.
	if len(body) < 4 {
		return
	}
	nameRef := int32(binary32(body))
	r := newReader(body[4:])

	switch typ {
	case fragTextureName:
		l.parseTextureName(r, index)
	case fragTextureBrush:
		l.parseTextureBrush(r, index)
	case fragTextureRef:
		l.parseTextureRef(r, index)
	case fragMaterial:
		l.parseMaterial(r, index)
	case fragMaterialList:
		l.parseMaterialList(r, index)
	case fragMesh:
		l.parseMesh(r, index, nameRef)
	case fragLegacyMesh:
		l.parseLegacyMesh(r, index, nameRef)
	case fragModelRef:
		l.parseModelRef(r, index)
	case fragObjectDef:
		l.parseObjectDef(r, nameRef)
	case fragPlaceable:
		l.parsePlaceable(r)
	case fragSkeleton:
		l.parseSkeleton(r, index, nameRef)
	case fragSkeletonRef:
		l.parseSkeletonRef(r, index)
	case fragTrackDef:
		l.parseTrackDef(r, index, nameRef)
	case fragTrackRef:
		l.parseTrackRef(r, index, nameRef)
	case fragLightDef:
		l.parseLightDef(r, index, nameRef)
	case fragLightInstance:
		l.parseLightInstance(r)
	case fragAmbientRegion:
		l.parseAmbientRegion(r, nameRef)
	case fragGlobalAmbient:
		l.parseGlobalAmbient(r)
	case fragVertexAnimDef:
		l.parseVertexAnimDef(r, index, nameRef)
	case fragVertexAnimRef:
		l.parseVertexAnimRef(r, index)
	case fragBspTree:
		l.parseBspTree(r)
	case fragBspRegion:
		l.parseBspRegion(r)
	case fragRegionTypes:
		l.parseRegionTypes(r, nameRef)
	default:
		// Unknown fragment types are skipped silently.
	}
}

// CombinedGeometry merges all meshes into one geometry in zone space,
// re-adding each mesh's stored center and deduplicating texture slots.
func (z *Zone) CombinedGeometry() *Geometry {
	if len(z.Geometries) == 0 {
		return nil
	}

	combined := &Geometry{
		Name: "combined",
		Min:  mathutil.Vec3{f32Max, f32Max, f32Max},
		Max:  mathutil.Vec3{-f32Max, -f32Max, -f32Max},
	}
	slotByName := make(map[string]uint32)
	var vertexOffset uint32

	for _, g := range z.Geometries {
		remap := make([]uint32, len(g.TextureNames))
		for i, name := range g.TextureNames {
			invisible := i < len(g.TextureInvisible) && g.TextureInvisible[i]
			var anim TextureAnimation
			if i < len(g.TextureAnims) {
				anim = g.TextureAnims[i]
			}

			if slot, ok := slotByName[name]; ok {
				remap[i] = slot
				if invisible {
					combined.TextureInvisible[slot] = true
				}
				if anim.Animated && !combined.TextureAnims[slot].Animated {
					combined.TextureAnims[slot] = anim
				}
				continue
			}
			slot := uint32(len(combined.TextureNames))
			slotByName[name] = slot
			combined.TextureNames = append(combined.TextureNames, name)
			combined.TextureInvisible = append(combined.TextureInvisible, invisible)
			combined.TextureAnims = append(combined.TextureAnims, anim)
			remap[i] = slot
		}

		for _, v := range g.Vertices {
			v.Pos = v.Pos.Add(g.Center)
			combined.Vertices = append(combined.Vertices, v)
			for axis := 0; axis < 3; axis++ {
				combined.Min[axis] = min(combined.Min[axis], v.Pos[axis])
				combined.Max[axis] = max(combined.Max[axis], v.Pos[axis])
			}
		}

		for _, tri := range g.Triangles {
			t := Triangle{
				V1:    tri.V1 + vertexOffset,
				V2:    tri.V2 + vertexOffset,
				V3:    tri.V3 + vertexOffset,
				Flags: tri.Flags,
			}
			if int(tri.TextureIndex) < len(remap) {
				t.TextureIndex = remap[tri.TextureIndex]
			} else {
				t.TextureIndex = tri.TextureIndex
			}
			combined.Triangles = append(combined.Triangles, t)
		}
		vertexOffset += uint32(len(g.Vertices))
	}
	return combined
}

const f32Max = 3.4028234663852886e+38

// GeometryForRegion returns the mesh tied to a BSP region, or nil when the
// region holds no polygons.
func (z *Zone) GeometryForRegion(regionIndex int) *Geometry {
	if z.BSP == nil || regionIndex < 0 || regionIndex >= len(z.BSP.Regions) {
		return nil
	}
	region := z.BSP.Regions[regionIndex]
	if !region.ContainsPolygons || region.MeshRef < 0 {
		return nil
	}
	return z.GeometryByFragment[uint32(region.MeshRef)]
}

// SkeletonForObject resolves an object definition's references to its
// skeleton, or nil when none of them points at one.
func (z *Zone) SkeletonForObject(def ObjectDef) *Skeleton {
	for _, ref := range def.MeshRefs {
		if skelIdx, ok := z.SkeletonRefs[ref]; ok {
			if sk, ok := z.Skeletons[skelIdx]; ok {
				return sk
			}
		}
	}
	return nil
}

// GeometriesForObject resolves an object definition's references to
// meshes, following model reference fragments where present.
func (z *Zone) GeometriesForObject(def ObjectDef) []*Geometry {
	var gs []*Geometry
	for _, ref := range def.MeshRefs {
		meshIdx := ref
		if idx, ok := z.ModelRefs[ref]; ok {
			if idx == 0 {
				continue
			}
			meshIdx = idx
		}
		if g, ok := z.GeometryByFragment[meshIdx]; ok {
			gs = append(gs, g)
		}
	}
	return gs
}

// HasPVSData reports whether at least one region carries visible-set data.
func (z *Zone) HasPVSData() bool {
	if z.BSP == nil {
		return false
	}
	for _, region := range z.BSP.Regions {
		if len(region.Visible) > 0 {
			return true
		}
	}
	return false
}
