package wld

import (
	"strconv"
	"strings"

	"github.com/chewxy/math32"

	"eq-zone-loader/internal/mathutil"
)

// RegionKind tags the gameplay semantics of a BSP region.
type RegionKind uint8

const (
	RegionNormal RegionKind = iota
	RegionWater
	RegionLava
	RegionPVP
	RegionZoneLine
	RegionWaterBlockLOS
	RegionFreezingWater
	RegionSlippery
	RegionUnknown
)

// ZoneLineKind selects how a zone-line destination is expressed.
type ZoneLineKind uint8

const (
	// ZoneLineReference points into an externally supplied zone-point
	// table by index.
	ZoneLineReference ZoneLineKind = iota
	// ZoneLineAbsolute embeds the full destination in the region name.
	ZoneLineAbsolute
)

// ZoneLine is a decoded zone transition destination. Exactly one of Index
// (Reference) or ZoneID/X/Y/Z/Heading (Absolute) is meaningful.
type ZoneLine struct {
	Kind    ZoneLineKind
	Index   uint32
	ZoneID  uint16
	X, Y, Z float32
	Heading float32
}

// Region is one BSP leaf region.
type Region struct {
	ContainsPolygons bool
	MeshRef          int32 // mesh fragment index, -1 = none
	Kinds            []RegionKind
	ZoneLine         *ZoneLine
	// Visible is the decoded potentially-visible-set: Visible[i] reports
	// whether region i can be seen from this one.
	Visible []bool
}

// Node is one BSP splitting plane. Child indices are 0-based, -1 = none;
// a nonzero RegionID is 1-based into Tree.Regions.
type Node struct {
	Normal      mathutil.Vec3
	Dist        float32
	RegionID    int32
	Left, Right int32
}

// Tree is the zone's spatial index.
type Tree struct {
	Nodes   []Node
	Regions []*Region
}

// 0x21: BSP tree nodes, 28 bytes each. Children are stored 1-based.
func (l *loader) parseBspTree(r *reader) {
	count := r.readU32()
	if r.failed {
		return
	}

	tree := l.bspTree()
	for i := uint32(0); i < count; i++ {
		node := Node{
			Normal:   mathutil.Vec3{r.readF32(), r.readF32(), r.readF32()},
			Dist:     r.readF32(),
			RegionID: r.readI32(),
			Left:     r.readI32() - 1,
			Right:    r.readI32() - 1,
		}
		if r.failed {
			return
		}
		tree.Nodes = append(tree.Nodes, node)
	}
}

// 0x22: BSP region. Most of the body is sized data blocks this loader
// skips; the useful parts are the polygon flag, the RLE visible-set and
// the trailing mesh reference.
func (l *loader) parseBspRegion(r *reader) {
	if r.remaining() < 36 {
		return
	}
	tree := l.bspTree()
	region := &Region{MeshRef: -1}

	flags := r.readI32()
	region.ContainsPolygons = flags == 0x181
	r.skip(4) // always 0
	data1Size := int(r.readI32())
	data2Size := int(r.readI32())
	r.skip(4) // always 0
	data3Size := int(r.readI32())
	r.skip(4) // data4 size, no payload in known files
	r.skip(4) // always 0
	data5Size := int(r.readI32())
	r.skip(4) // data6 size

	r.skip(12*data1Size + 12*data2Size)
	for i := 0; i < data3Size; i++ {
		if r.remaining() < 8 {
			break
		}
		r.skip(4) // flags
		n := int(r.readI32())
		r.skip(n * 4)
	}
	r.skip(28 * data5Size)

	if r.remaining() >= 2 {
		pvsSize := int(r.readI16())
		if pvsSize > 0 && l.zone.RegionCount > 0 && r.remaining() >= pvsSize {
			region.Visible = decodeRlePvs(r.data[r.off:r.off+pvsSize], l.zone.RegionCount)
		}
		r.skip(pvsSize)
	}

	r.skip(4)  // byte counts
	r.skip(16) // padding

	if region.ContainsPolygons && r.remaining() >= 4 {
		region.MeshRef = r.readI32()
	}

	tree.Regions = append(tree.Regions, region)
}

// 0x29: region types. The fragment name encodes the semantics; the body
// lists which regions they apply to.
func (l *loader) parseRegionTypes(r *reader, nameRef int32) {
	if l.zone.BSP == nil {
		return
	}
	r.skip(4) // flags
	count := int(r.readI32())
	if r.failed || count < 0 {
		return
	}

	indices := make([]int32, 0, count)
	for i := 0; i < count; i++ {
		if r.remaining() < 4 {
			break
		}
		indices = append(indices, r.readI32())
	}

	token := strings.ToLower(l.strings.name(nameRef))
	kinds, zoneLine := decodeRegionName(token)

	for _, idx := range indices {
		if idx < 0 || int(idx) >= len(l.zone.BSP.Regions) {
			continue
		}
		region := l.zone.BSP.Regions[idx]
		region.Kinds = kinds
		region.ZoneLine = zoneLine
	}
}

func (l *loader) bspTree() *Tree {
	if l.zone.BSP == nil {
		l.zone.BSP = &Tree{}
	}
	return l.zone.BSP
}

// decodeRegionName maps a region-type token to semantic tags. Unmatched
// or short tokens carry no special semantics.
func decodeRegionName(token string) ([]RegionKind, *ZoneLine) {
	switch {
	case strings.HasPrefix(token, "wtn_") || strings.HasPrefix(token, "wt_"):
		return []RegionKind{RegionWater}, nil
	case strings.HasPrefix(token, "wtntp"):
		return []RegionKind{RegionWater, RegionZoneLine}, decodeZoneLine(token)
	case strings.HasPrefix(token, "lan_") || strings.HasPrefix(token, "la_"):
		return []RegionKind{RegionLava}, nil
	case strings.HasPrefix(token, "lantp"):
		return []RegionKind{RegionLava, RegionZoneLine}, decodeZoneLine(token)
	case strings.HasPrefix(token, "drntp"):
		return []RegionKind{RegionZoneLine}, decodeZoneLine(token)
	case len(token) >= 6 && token[0] == 'z' && strings.Contains(token, "_zone"):
		// z####_zone: the digits are a zone-point index. Field width was
		// reverse-engineered; accept any run of digits up to the "_".
		zl := &ZoneLine{Kind: ZoneLineReference}
		if end := strings.IndexByte(token, '_'); end > 1 {
			if n, err := strconv.ParseUint(token[1:end], 10, 32); err == nil {
				zl.Index = uint32(n)
			}
		}
		return []RegionKind{RegionZoneLine}, zl
	case strings.HasPrefix(token, "drp_"):
		return []RegionKind{RegionPVP}, nil
	case strings.HasPrefix(token, "drn_"):
		if strings.Contains(token, "_s_") {
			return []RegionKind{RegionSlippery}, nil
		}
		return []RegionKind{RegionUnknown}, nil
	case strings.HasPrefix(token, "sln_"):
		return []RegionKind{RegionWaterBlockLOS}, nil
	case strings.HasPrefix(token, "vwn_"):
		return []RegionKind{RegionFreezingWater}, nil
	default:
		return []RegionKind{RegionNormal}, nil
	}
}

// decodeZoneLine parses a zone-line destination from a drntp/wtntp/lantp
// token. Layout after the 5-byte prefix: zoneId in 5 digits; zoneId 255
// means a reference with the index in the next 6 digits; anything else is
// an absolute destination with x/y/z in 6 digits each and heading in 3.
func decodeZoneLine(token string) *ZoneLine {
	if token == "drntp_zone" {
		return &ZoneLine{Kind: ZoneLineReference}
	}
	if len(token) < 10 {
		return nil
	}

	zoneID, err := strconv.Atoi(token[5:10])
	if err != nil {
		return nil
	}

	if zoneID == 255 {
		zl := &ZoneLine{Kind: ZoneLineReference}
		if len(token) >= 16 {
			if n, err := strconv.Atoi(token[10:16]); err == nil && n >= 0 {
				zl.Index = uint32(n)
			}
		}
		return zl
	}

	zl := &ZoneLine{Kind: ZoneLineAbsolute, ZoneID: uint16(zoneID)}
	if len(token) >= 28 {
		zl.X = digitField(token[10:16])
		zl.Y = digitField(token[16:22])
		zl.Z = digitField(token[22:28])
	}
	if len(token) >= 31 {
		zl.Heading = digitField(token[28:31])
	}
	return zl
}

func digitField(s string) float32 {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return float32(n)
}

// decodeRlePvs expands the run-length encoded potentially-visible-set of
// one region. Byte ranges: 0x00-0x3E skip, 0x3F+word skip, 0x40-0x7F skip
// then include from packed 3-bit fields, 0x80-0xBF include then skip,
// 0xC0-0xFE include, 0xFF+word include.
func decodeRlePvs(data []byte, regionCount uint32) []bool {
	visible := make([]bool, regionCount)
	region := uint32(0)
	i := 0

	include := func(n uint32) {
		for ; n > 0 && region < regionCount; n-- {
			visible[region] = true
			region++
		}
	}

	for i < len(data) && region < regionCount {
		b := data[i]
		i++
		switch {
		case b <= 0x3E:
			region += uint32(b)
		case b == 0x3F:
			if i+2 > len(data) {
				return visible
			}
			region += uint32(data[i]) | uint32(data[i+1])<<8
			i += 2
		case b <= 0x7F:
			v := b - 0x40
			region += uint32(v>>3) & 0x07
			include(uint32(v) & 0x07)
		case b <= 0xBF:
			v := b - 0x80
			include(uint32(v>>3) & 0x07)
			region += uint32(v) & 0x07
		case b <= 0xFE:
			include(uint32(b - 0xC0))
		default: // 0xFF
			if i+2 > len(data) {
				return visible
			}
			include(uint32(data[i]) | uint32(data[i+1])<<8)
			i += 2
		}
	}
	return visible
}

// FindRegion walks the tree from the root to the region containing the
// point. A node with a region id resolves immediately; a missing child
// ends the walk with no region. The descent is iterative and bounded by
// the node count so corrupt or cyclic child links cannot hang the caller.
func (t *Tree) FindRegion(p mathutil.Vec3) *Region {
	if t == nil || len(t.Nodes) == 0 {
		return nil
	}

	idx := int32(0)
	for depth := 0; depth <= len(t.Nodes); depth++ {
		if idx < 0 || int(idx) >= len(t.Nodes) {
			return nil
		}
		node := &t.Nodes[idx]

		if node.RegionID > 0 && int(node.RegionID-1) < len(t.Regions) {
			return t.Regions[node.RegionID-1]
		}

		dot := node.Normal.Dot(p) + node.Dist
		if dot >= 0 {
			idx = node.Left // front
		} else {
			idx = node.Right // back
		}
	}
	return nil
}

// CheckZoneLine resolves the region containing the point and returns its
// zone-line destination, or nil when the point is not inside a zone line.
func (t *Tree) CheckZoneLine(p mathutil.Vec3) *ZoneLine {
	region := t.FindRegion(p)
	if region == nil {
		return nil
	}
	for _, kind := range region.Kinds {
		if kind == RegionZoneLine && region.ZoneLine != nil {
			return region.ZoneLine
		}
	}
	return nil
}

// Bounds is an axis-aligned box used for region extent queries.
type Bounds struct {
	Min, Max mathutil.Vec3
	Valid    bool
}

// Merge unions another bounds into b.
func (b *Bounds) Merge(other Bounds) {
	if !other.Valid {
		return
	}
	if !b.Valid {
		*b = other
		return
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], other.Min[i])
		b.Max[i] = max(b.Max[i], other.Max[i])
	}
}

// RegionBounds approximates the axis-aligned extent of a region by
// clipping the initial bounds against the splitting planes on the way
// down. regionIndex is 0-based.
func (t *Tree) RegionBounds(regionIndex int, initial Bounds) Bounds {
	if len(t.Nodes) == 0 || regionIndex < 0 || regionIndex >= len(t.Regions) {
		return Bounds{}
	}

	type frame struct {
		node   int32
		bounds Bounds
	}
	stack := []frame{{node: 0, bounds: initial}}
	var result Bounds

	// Depth bound mirrors FindRegion: each node is visited at most once
	// per side, so the stack cannot grow past the node count on sane
	// input; corrupt trees just stop early.
	for steps := 0; len(stack) > 0 && steps < 4*len(t.Nodes); steps++ {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.node < 0 || int(f.node) >= len(t.Nodes) || !f.bounds.Valid {
			continue
		}
		node := &t.Nodes[f.node]

		if node.RegionID > 0 {
			if int(node.RegionID-1) == regionIndex {
				result.Merge(f.bounds)
			}
			continue
		}
		if node.Left >= 0 {
			stack = append(stack, frame{node.Left, clipBounds(f.bounds, node, true)})
		}
		if node.Right >= 0 {
			stack = append(stack, frame{node.Right, clipBounds(f.bounds, node, false)})
		}
	}
	return result
}

// clipBounds returns the part of an AABB on one side of a splitting plane,
// approximated per axis at the box center.
func clipBounds(b Bounds, node *Node, front bool) Bounds {
	if !b.Valid {
		return b
	}

	anyOnSide, allOnSide := false, true
	for corner := 0; corner < 8; corner++ {
		p := mathutil.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if corner&1 != 0 {
			p[0] = b.Max[0]
		}
		if corner&2 != 0 {
			p[1] = b.Max[1]
		}
		if corner&4 != 0 {
			p[2] = b.Max[2]
		}
		onFront := node.Normal.Dot(p)+node.Dist >= 0
		if onFront == front {
			anyOnSide = true
		} else {
			allOnSide = false
		}
	}
	if !anyOnSide {
		return Bounds{}
	}
	if allOnSide {
		return b
	}

	const epsilon = 0.001
	result := b
	for axis := 0; axis < 3; axis++ {
		n := node.Normal[axis]
		if math32.Abs(n) <= epsilon {
			continue
		}
		// Plane crossing for this axis, evaluated at the center of the
		// other two.
		rest := node.Dist
		for other := 0; other < 3; other++ {
			if other != axis {
				rest += node.Normal[other] * (b.Min[other] + b.Max[other]) / 2
			}
		}
		at := -rest / n
		if at <= b.Min[axis] || at >= b.Max[axis] {
			continue
		}
		if (n > 0) == front {
			result.Min[axis] = max(result.Min[axis], at)
		} else {
			result.Max[axis] = min(result.Max[axis], at)
		}
	}

	for axis := 0; axis < 3; axis++ {
		if result.Min[axis] >= result.Max[axis] {
			return Bounds{}
		}
	}
	return result
}
