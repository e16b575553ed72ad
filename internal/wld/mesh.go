package wld

import "eq-zone-loader/internal/mathutil"

// 0x36: mesh with fixed-point vertex storage. Positions are int16 scaled
// by 2^-exponent and stored relative to the mesh center; UVs are int16/256
// in the legacy sub-format and float32 in the modern one; normals are
// signed bytes over 127. Triangle winding is reversed from file order.
func (l *loader) parseMesh(r *reader, index uint32, nameRef int32) {
	r.skip(4) // flags
	brushSetRef := r.readU32()
	vertexAnimRef := r.readU32()
	r.skip(8) // frag3, frag4
	center := mathutil.Vec3{r.readF32(), r.readF32(), r.readF32()}
	r.skip(12) // params2
	r.skip(4)  // max distance
	minB := mathutil.Vec3{r.readF32(), r.readF32(), r.readF32()}
	maxB := mathutil.Vec3{r.readF32(), r.readF32(), r.readF32()}

	vertexCount := int(r.readU16())
	texCoordCount := int(r.readU16())
	normalCount := int(r.readU16())
	colorCount := int(r.readU16())
	polygonCount := int(r.readU16())
	vertexPieceCount := int(r.readU16())
	polygonTexCount := int(r.readU16())
	vertexTexCount := int(r.readU16())
	r.skip(2) // size9
	scaleExp := r.readI16()
	if r.failed {
		return
	}

	g := &Geometry{
		Name:   l.strings.name(nameRef),
		Center: center,
		Min:    minB,
		Max:    maxB,
	}
	scale := float32(1) / float32(int32(1)<<uint(scaleExp&31))

	g.Vertices = make([]Vertex, vertexCount)
	for i := range g.Vertices {
		g.Vertices[i].Pos = mathutil.Vec3{
			float32(r.readI16()) * scale,
			float32(r.readI16()) * scale,
			float32(r.readI16()) * scale,
		}
	}

	for i := 0; i < texCoordCount; i++ {
		var u, v float32
		if l.legacy {
			u = float32(r.readI16()) / 256
			v = float32(r.readI16()) / 256
		} else {
			u = r.readF32()
			v = r.readF32()
		}
		if i < vertexCount {
			g.Vertices[i].U = u
			g.Vertices[i].V = v
		}
	}

	for i := 0; i < normalCount; i++ {
		n := mathutil.Vec3{
			float32(r.readI8()) / 127,
			float32(r.readI8()) / 127,
			float32(r.readI8()) / 127,
		}
		if i < vertexCount {
			g.Vertices[i].Normal = n
		}
	}

	r.skip(4 * colorCount) // packed RGBA, unused

	readTriangles(r, g, polygonCount)
	readVertexPieces(r, g, vertexPieceCount)
	readTextureMaps(r, g, polygonTexCount)
	r.skip(4 * vertexTexCount)

	if r.failed || len(g.Vertices) == 0 || len(g.Triangles) == 0 {
		return
	}

	l.resolveTextureSlots(g, brushSetRef)
	l.linkVertexAnimation(g, vertexAnimRef)

	l.zone.Geometries = append(l.zone.Geometries, g)
	l.zone.GeometryByFragment[index] = g
}

// 0x2C: legacy mesh found in older character archives. Same layout idea as
// 0x36 but with raw float32 vertices, UVs and normals, and with the second
// vertex-piece field holding a start index instead of a bone.
func (l *loader) parseLegacyMesh(r *reader, index uint32, nameRef int32) {
	flags := r.readU32()
	vertexCount := int(r.readU32())
	texCoordCount := int(r.readU32())
	normalCount := int(r.readU32())
	colorCount := int(r.readU32())
	polygonCount := int(r.readU32())
	vertexPieceCount := int(r.readU16())
	polygonTexCount := int(r.readU16())
	vertexTexCount := int(r.readU16())
	r.skip(2) // size9
	r.skip(4) // scale, 1.0 for legacy meshes
	center := mathutil.Vec3{r.readF32(), r.readF32(), r.readF32()}
	r.skip(12) // params
	r.skip(4)  // max distance
	minB := mathutil.Vec3{r.readF32(), r.readF32(), r.readF32()}
	maxB := mathutil.Vec3{r.readF32(), r.readF32(), r.readF32()}
	if r.failed {
		return
	}
	// Counts are 32-bit here; reject anything the body cannot hold.
	if vertexCount > r.remaining()/12 || texCoordCount > r.remaining()/8 ||
		normalCount > r.remaining()/12 {
		return
	}

	g := &Geometry{
		Name:   l.strings.name(nameRef),
		Center: center,
		Min:    minB,
		Max:    maxB,
	}

	g.Vertices = make([]Vertex, vertexCount)
	for i := range g.Vertices {
		g.Vertices[i].Pos = mathutil.Vec3{r.readF32(), r.readF32(), r.readF32()}
	}

	for i := 0; i < texCoordCount; i++ {
		u, v := r.readF32(), r.readF32()
		if i < vertexCount {
			g.Vertices[i].U = u
			g.Vertices[i].V = v
		}
	}

	for i := 0; i < normalCount; i++ {
		n := mathutil.Vec3{r.readF32(), r.readF32(), r.readF32()}
		if i < vertexCount {
			g.Vertices[i].Normal = n.Normalize()
		}
	}

	r.skip(4 * colorCount)

	readTriangles(r, g, polygonCount)
	readVertexPieces(r, g, vertexPieceCount)
	readTextureMaps(r, g, polygonTexCount)
	r.skip(4 * vertexTexCount)

	if r.failed || len(g.Vertices) == 0 || len(g.Triangles) == 0 {
		return
	}

	// Legacy meshes keep the material list reference in the low flag bits.
	l.resolveTextureSlots(g, flags&0xFFFF)

	l.zone.Geometries = append(l.zone.Geometries, g)
	l.zone.GeometryByFragment[index] = g
}

// 0x2D: model reference pointing at a mesh fragment.
func (l *loader) parseModelRef(r *reader, index uint32) {
	ref := r.readI32()
	if r.failed {
		return
	}
	if ref > 0 {
		l.zone.ModelRefs[index] = uint32(ref)
	} else {
		l.zone.ModelRefs[index] = 0
	}
}

func readTriangles(r *reader, g *Geometry, count int) {
	g.Triangles = make([]Triangle, 0, min(count, r.remaining()/8))
	for i := 0; i < count; i++ {
		flags := r.readU16()
		i1 := r.readU16()
		i2 := r.readU16()
		i3 := r.readU16()
		if r.failed {
			return
		}
		// Stored winding is reversed.
		g.Triangles = append(g.Triangles, Triangle{
			V1:    uint32(i3),
			V2:    uint32(i2),
			V3:    uint32(i1),
			Flags: uint32(flags),
		})
	}
}

func readVertexPieces(r *reader, g *Geometry, count int) {
	g.VertexPieces = make([]VertexPiece, 0, min(count, r.remaining()/4))
	for i := 0; i < count; i++ {
		n := r.readI16()
		bone := r.readI16()
		if r.failed {
			return
		}
		g.VertexPieces = append(g.VertexPieces, VertexPiece{Count: n, Bone: bone})
	}
}

// readTextureMaps assigns texture slots to runs of consecutive triangles.
func readTextureMaps(r *reader, g *Geometry, count int) {
	tri := 0
	for i := 0; i < count; i++ {
		polyCount := int(r.readU16())
		tex := uint32(r.readU16())
		if r.failed {
			return
		}
		for j := 0; j < polyCount && tri < len(g.Triangles); j++ {
			g.Triangles[tri].TextureIndex = tex
			tri++
		}
	}
}
