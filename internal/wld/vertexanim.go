package wld

// Vertex animations arrive as a definition (0x37) plus a reference (0x2F)
// that meshes point at, and either side may appear before the mesh. The
// pending maps below hold meshes whose link could not be resolved yet and
// are drained as the missing fragments stream past.

// 0x37: per-frame vertex positions, int16 scaled by 2^-exponent.
func (l *loader) parseVertexAnimDef(r *reader, index uint32, nameRef int32) {
	r.skip(4) // flags
	vertexCount := int(r.readU16())
	frameCount := int(r.readU16())
	delayMS := int(r.readU16())
	r.skip(2) // param2
	scaleExp := r.readI16()
	if r.failed {
		return
	}

	anim := &VertexAnimation{
		Name:    l.strings.name(nameRef),
		DelayMS: delayMS,
	}
	if anim.DelayMS <= 0 {
		anim.DelayMS = 100
	}
	scale := float32(1) / float32(int32(1)<<uint(scaleExp&31))

	anim.Frames = make([]VertexAnimFrame, frameCount)
	for f := range anim.Frames {
		positions := make([]float32, 0, vertexCount*3)
		for v := 0; v < vertexCount; v++ {
			positions = append(positions,
				float32(r.readI16())*scale,
				float32(r.readI16())*scale,
				float32(r.readI16())*scale)
		}
		if r.failed {
			return
		}
		anim.Frames[f].Positions = positions
	}

	l.zone.VertexAnims[index] = anim

	for _, g := range l.pendingByDef[index] {
		g.VertexAnim = anim
	}
	delete(l.pendingByDef, index)
}

// 0x2F: reference from a mesh to a 0x37 definition.
func (l *loader) parseVertexAnimRef(r *reader, index uint32) {
	ref := r.readI32()
	if r.failed || ref <= 0 {
		return
	}
	l.vertexAnimRefs[index] = uint32(ref)

	if waiting := l.pendingByRef[index]; len(waiting) > 0 {
		if anim, ok := l.zone.VertexAnims[uint32(ref)]; ok {
			for _, g := range waiting {
				g.VertexAnim = anim
			}
		} else {
			l.pendingByDef[uint32(ref)] = append(l.pendingByDef[uint32(ref)], waiting...)
		}
		delete(l.pendingByRef, index)
	}
}

// linkVertexAnimation attaches a mesh to its animation when the chain is
// already known, or parks the mesh on the index that is still missing.
func (l *loader) linkVertexAnimation(g *Geometry, animRef uint32) {
	if animRef == 0 {
		return
	}
	defIdx, ok := l.vertexAnimRefs[animRef]
	if !ok {
		l.pendingByRef[animRef] = append(l.pendingByRef[animRef], g)
		return
	}
	if anim, ok := l.zone.VertexAnims[defIdx]; ok {
		g.VertexAnim = anim
		return
	}
	l.pendingByDef[defIdx] = append(l.pendingByDef[defIdx], g)
}
