package wld

import (
	"testing"

	"eq-zone-loader/internal/mathutil"
)

// twoRegionTree splits space on the YZ plane: x >= 0 lands in region 0,
// x < 0 in region 1.
func twoRegionTree() *Tree {
	return &Tree{
		Nodes: []Node{
			{Normal: mathutil.Vec3{1, 0, 0}, Dist: 0, Left: 1, Right: 2},
			{RegionID: 1, Left: -1, Right: -1},
			{RegionID: 2, Left: -1, Right: -1},
		},
		Regions: []*Region{
			{MeshRef: -1, Kinds: []RegionKind{RegionNormal}},
			{MeshRef: -1, Kinds: []RegionKind{RegionWater}},
		},
	}
}

func TestFindRegion(t *testing.T) {
	tree := twoRegionTree()

	front := tree.FindRegion(mathutil.Vec3{5, 0, 0})
	if front != tree.Regions[0] {
		t.Error("point on front side should land in region 0")
	}
	back := tree.FindRegion(mathutil.Vec3{-5, 0, 0})
	if back != tree.Regions[1] {
		t.Error("point on back side should land in region 1")
	}
	// The plane itself counts as the front side.
	if tree.FindRegion(mathutil.Vec3{0, 3, 3}) != tree.Regions[0] {
		t.Error("point on the plane should land in region 0")
	}
}

func TestFindRegionMissingChild(t *testing.T) {
	tree := &Tree{
		Nodes: []Node{
			{Normal: mathutil.Vec3{1, 0, 0}, Left: -1, Right: -1},
		},
	}
	if r := tree.FindRegion(mathutil.Vec3{5, 0, 0}); r != nil {
		t.Errorf("expected nil region, got %+v", r)
	}

	var empty *Tree
	if empty.FindRegion(mathutil.Vec3{}) != nil {
		t.Error("nil tree should yield no region")
	}
}

func TestFindRegionCyclicTree(t *testing.T) {
	// Both children loop back to the root; the walk must terminate.
	tree := &Tree{
		Nodes: []Node{
			{Normal: mathutil.Vec3{1, 0, 0}, Left: 0, Right: 0},
		},
	}
	if r := tree.FindRegion(mathutil.Vec3{1, 1, 1}); r != nil {
		t.Errorf("expected nil region from cyclic tree, got %+v", r)
	}
}

func TestCheckZoneLine(t *testing.T) {
	tree := twoRegionTree()
	tree.Regions[0].Kinds = []RegionKind{RegionZoneLine}
	tree.Regions[0].ZoneLine = &ZoneLine{Kind: ZoneLineReference, Index: 4}

	zl := tree.CheckZoneLine(mathutil.Vec3{5, 0, 0})
	if zl == nil || zl.Index != 4 {
		t.Errorf("zone line = %+v, want reference index 4", zl)
	}
	if tree.CheckZoneLine(mathutil.Vec3{-5, 0, 0}) != nil {
		t.Error("water region should not report a zone line")
	}
}

func TestDecodeZoneLine(t *testing.T) {
	tests := []struct {
		token string
		want  *ZoneLine
	}{
		{"drntp_zone", &ZoneLine{Kind: ZoneLineReference}},
		{"drntp00255000123_zone", &ZoneLine{Kind: ZoneLineReference, Index: 123}},
		{
			"drntp00002001000002000000300090_zone",
			&ZoneLine{Kind: ZoneLineAbsolute, ZoneID: 2, X: 1000, Y: 2000, Z: 300, Heading: 90},
		},
		// Too short for coordinates: zone id only.
		{"drntp00007", &ZoneLine{Kind: ZoneLineAbsolute, ZoneID: 7}},
		{"drntpxxxxx", nil},
		{"drntp", nil},
	}
	for _, tt := range tests {
		got := decodeZoneLine(tt.token)
		if (got == nil) != (tt.want == nil) {
			t.Errorf("decodeZoneLine(%q) = %+v, want %+v", tt.token, got, tt.want)
			continue
		}
		if got == nil {
			continue
		}
		if *got != *tt.want {
			t.Errorf("decodeZoneLine(%q) = %+v, want %+v", tt.token, got, tt.want)
		}
	}
}

func TestDecodeRegionName(t *testing.T) {
	tests := []struct {
		token    string
		kinds    []RegionKind
		zoneLine bool
	}{
		{"wtn_01", []RegionKind{RegionWater}, false},
		{"wt_02", []RegionKind{RegionWater}, false},
		{"wtntp00255000003_zone", []RegionKind{RegionWater, RegionZoneLine}, true},
		{"lan_01", []RegionKind{RegionLava}, false},
		{"lantp00255000003_zone", []RegionKind{RegionLava, RegionZoneLine}, true},
		{"drntp00255000003_zone", []RegionKind{RegionZoneLine}, true},
		{"z0005_zone", []RegionKind{RegionZoneLine}, true},
		{"drp_arena", []RegionKind{RegionPVP}, false},
		{"drn_a_s_b", []RegionKind{RegionSlippery}, false},
		{"drn_plain", []RegionKind{RegionUnknown}, false},
		{"sln_01", []RegionKind{RegionWaterBlockLOS}, false},
		{"vwn_01", []RegionKind{RegionFreezingWater}, false},
		{"something_else", []RegionKind{RegionNormal}, false},
	}
	for _, tt := range tests {
		kinds, zl := decodeRegionName(tt.token)
		if len(kinds) != len(tt.kinds) {
			t.Errorf("decodeRegionName(%q) kinds = %v, want %v", tt.token, kinds, tt.kinds)
			continue
		}
		for i := range kinds {
			if kinds[i] != tt.kinds[i] {
				t.Errorf("decodeRegionName(%q) kinds = %v, want %v", tt.token, kinds, tt.kinds)
				break
			}
		}
		if (zl != nil) != tt.zoneLine {
			t.Errorf("decodeRegionName(%q) zone line = %+v, want present=%v", tt.token, zl, tt.zoneLine)
		}
	}
}

func TestDecodeRegionNameIndexedZone(t *testing.T) {
	_, zl := decodeRegionName("z0005_zone")
	if zl == nil || zl.Kind != ZoneLineReference || zl.Index != 5 {
		t.Errorf("z0005_zone = %+v, want reference index 5", zl)
	}
}

func TestDecodeRlePvs(t *testing.T) {
	// skip 2, include 3, skip 1 + include 1 packed, include 1 + skip 2
	// packed, include 3 via word form.
	data := []byte{0x02, 0xC3, 0x49, 0x8A, 0xFF, 0x03, 0x00}
	visible := decodeRlePvs(data, 20)

	want := map[int]bool{2: true, 3: true, 4: true, 6: true, 7: true,
		10: true, 11: true, 12: true}
	for i, v := range visible {
		if v != want[i] {
			t.Errorf("region %d visible = %v, want %v", i, v, want[i])
		}
	}
}

func TestDecodeRlePvsWordSkip(t *testing.T) {
	// 0x3F takes a 16-bit skip count.
	visible := decodeRlePvs([]byte{0x3F, 0x05, 0x00, 0xC1}, 10)
	for i, v := range visible {
		if v != (i == 5) {
			t.Errorf("region %d visible = %v", i, v)
		}
	}
}

func TestDecodeRlePvsTruncated(t *testing.T) {
	// A word opcode cut off mid-operand must not panic or overrun.
	visible := decodeRlePvs([]byte{0xFF}, 5)
	for i, v := range visible {
		if v {
			t.Errorf("region %d visible = true, want false", i)
		}
	}
}

// bspRegionBody builds a minimal 0x22 body with no skipped data blocks.
func bspRegionBody(containsPolygons bool, pvs []byte, meshRef int32) []byte {
	w := &leBuf{}
	w.i32(0) // name ref
	if containsPolygons {
		w.i32(0x181)
	} else {
		w.i32(0)
	}
	w.u32(0) // always 0
	w.i32(0) // data1 size
	w.i32(0) // data2 size
	w.u32(0) // always 0
	w.i32(0) // data3 size
	w.i32(0) // data4 size
	w.u32(0) // always 0
	w.i32(0) // data5 size
	w.i32(0) // data6 size
	w.i16(int16(len(pvs)))
	w.raw(pvs)
	w.zeros(4)  // byte counts
	w.zeros(16) // padding
	if containsPolygons {
		w.i32(meshRef)
	}
	return w.b
}

func TestLoadBspFragments(t *testing.T) {
	b := newBuilder()
	listFrag := addTextureChain(b, "GRASS.BMP")
	meshFrag := b.frag(fragMesh, meshBody(b.stringRef("R_DMSPRITEDEF"), listFrag, 0, false))

	// Two leaves split on the YZ plane; both carry a region, children are
	// stored 1-based in the file.
	b.frag(fragBspTree, (&leBuf{}).
		i32(0).
		u32(3).
		f32(1).f32(0).f32(0).f32(0).i32(0).i32(2).i32(3).
		f32(0).f32(0).f32(0).f32(0).i32(1).i32(0).i32(0).
		f32(0).f32(0).f32(0).f32(0).i32(2).i32(0).i32(0).b)

	// Region 0 holds the mesh and sees both regions.
	b.frag(fragBspRegion, bspRegionBody(true, []byte{0xC2}, int32(meshFrag)))
	b.frag(fragBspRegion, bspRegionBody(false, nil, 0))

	// Region 1 is a water volume.
	typeName := b.stringRef("WTN_01_WLD")
	b.frag(fragRegionTypes, (&leBuf{}).
		i32(typeName).
		u32(0). // flags
		i32(1). // region count
		i32(1).b)

	zone, err := Load(b.build(modernVersion, 2))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tree := zone.BSP
	if tree == nil {
		t.Fatal("no spatial index decoded")
	}
	if len(tree.Nodes) != 3 || len(tree.Regions) != 2 {
		t.Fatalf("tree = %d nodes %d regions", len(tree.Nodes), len(tree.Regions))
	}

	// File child indices 2 and 3 become 0-based 1 and 2.
	if tree.Nodes[0].Left != 1 || tree.Nodes[0].Right != 2 {
		t.Errorf("root children = (%d, %d), want (1, 2)", tree.Nodes[0].Left, tree.Nodes[0].Right)
	}

	front := tree.FindRegion(mathutil.Vec3{5, 0, 0})
	if front != tree.Regions[0] {
		t.Fatal("front point should resolve to region 0")
	}
	if !front.ContainsPolygons || front.MeshRef != int32(meshFrag) {
		t.Errorf("region 0 = polygons %v mesh %d", front.ContainsPolygons, front.MeshRef)
	}
	if g := zone.GeometryForRegion(0); g == nil || g.Name != "R_DMSPRITEDEF" {
		t.Errorf("GeometryForRegion(0) = %v", g)
	}
	if zone.GeometryForRegion(1) != nil {
		t.Error("region 1 holds no polygons")
	}

	if len(front.Visible) != 2 || !front.Visible[0] || !front.Visible[1] {
		t.Errorf("region 0 visible = %v, want both", front.Visible)
	}
	if !zone.HasPVSData() {
		t.Error("HasPVSData should report true")
	}

	back := tree.FindRegion(mathutil.Vec3{-5, 0, 0})
	if back != tree.Regions[1] {
		t.Fatal("back point should resolve to region 1")
	}
	if len(back.Kinds) != 1 || back.Kinds[0] != RegionWater {
		t.Errorf("region 1 kinds = %v, want water", back.Kinds)
	}
}

func TestRegionBounds(t *testing.T) {
	tree := twoRegionTree()
	initial := Bounds{
		Min:   mathutil.Vec3{-10, -10, -10},
		Max:   mathutil.Vec3{10, 10, 10},
		Valid: true,
	}

	front := tree.RegionBounds(0, initial)
	if !front.Valid {
		t.Fatal("region 0 bounds should be valid")
	}
	if !near(front.Min[0], 0) || !near(front.Max[0], 10) {
		t.Errorf("region 0 x extent = [%v, %v], want [0, 10]", front.Min[0], front.Max[0])
	}
	if !near(front.Min[1], -10) || !near(front.Max[1], 10) {
		t.Errorf("region 0 y extent = [%v, %v], want untouched", front.Min[1], front.Max[1])
	}

	back := tree.RegionBounds(1, initial)
	if !back.Valid {
		t.Fatal("region 1 bounds should be valid")
	}
	if !near(back.Min[0], -10) || !near(back.Max[0], 0) {
		t.Errorf("region 1 x extent = [%v, %v], want [-10, 0]", back.Min[0], back.Max[0])
	}

	if out := tree.RegionBounds(5, initial); out.Valid {
		t.Error("out-of-range region index should yield invalid bounds")
	}
}
