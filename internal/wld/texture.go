package wld

import "strings"

// The texture chain resolves through four fragment levels:
// mesh -> material list (0x31) -> material (0x30) -> texture ref (0x05)
// -> brush (0x04) -> texture names (0x03).

type textureBrush struct {
	flags       uint32
	animated    bool
	delayMS     int32
	textureRefs []uint32 // 0x03 fragment indices
}

type material struct {
	invisible bool
	brushRef  uint32 // 0x04 fragment index via 0x05, 0 = none
	hasBrush  bool
}

// 0x03: one or more texture filenames, each length-prefixed and
// obfuscated with the string key from offset 0.
func (l *loader) parseTextureName(r *reader, index uint32) {
	count := r.readU32()
	if count == 0 {
		count = 1
	}

	frames := make([]string, 0, min(int(count), r.remaining()/2))
	for i := uint32(0); i < count; i++ {
		nameLen := int(r.readU16())
		raw := r.take(nameLen)
		if raw == nil {
			break
		}
		buf := make([]byte, nameLen)
		copy(buf, raw)
		decodeString(buf)
		frames = append(frames, strings.ToLower(cString(buf)))
	}
	if r.failed {
		return
	}
	l.textures[index] = frames
}

// 0x04: texture brush, optionally animated.
func (l *loader) parseTextureBrush(r *reader, index uint32) {
	flags := r.readU32()
	count := r.readU32()
	if count == 0 {
		count = 1
	}

	brush := textureBrush{
		flags:    flags,
		animated: flags&(1<<3) != 0,
	}
	if flags&(1<<2) != 0 {
		r.skip(4)
	}
	if brush.animated {
		brush.delayMS = r.readI32()
	}

	for i := uint32(0); i < count; i++ {
		ref := r.readI32()
		if r.failed {
			return
		}
		if ref > 0 {
			brush.textureRefs = append(brush.textureRefs, uint32(ref))
		}
	}
	l.brushes[index] = brush
}

// 0x05: single reference to a 0x04 brush.
func (l *loader) parseTextureRef(r *reader, index uint32) {
	ref := r.readI32()
	if r.failed || ref <= 0 {
		return
	}
	l.textureRefs[index] = uint32(ref)
}

// 0x30: material. A zero material type or missing bitmap reference marks
// a boundary/invisible slot.
func (l *loader) parseMaterial(r *reader, index uint32) {
	r.skip(4) // flags
	parameters := r.readU32()
	r.skip(4) // color RGBA
	r.skip(8) // brightness, scaled ambient
	bitmapRef := r.readI32()
	if r.failed {
		return
	}

	m := material{}
	materialType := parameters &^ 0x80000000
	if materialType == 0 || bitmapRef == 0 {
		m.invisible = true
	} else if brushRef, ok := l.textureRefs[uint32(bitmapRef)]; ok {
		m.brushRef = brushRef
		m.hasBrush = true
	}
	l.materials[index] = m
}

// 0x31: material list referenced by meshes.
func (l *loader) parseMaterialList(r *reader, index uint32) {
	r.skip(4) // unknown
	count := r.readU32()

	refs := make([]uint32, 0, min(int(count), r.remaining()/4))
	for i := uint32(0); i < count; i++ {
		ref := r.readU32()
		if r.failed {
			return
		}
		if ref > 0 {
			refs = append(refs, ref)
		}
	}
	l.brushSets[index] = refs
}

// resolveTextureSlots fills a geometry's per-slot texture data from a
// material list reference. Slots with no resolvable texture are marked
// invisible. When no list resolves at all, empty slots are sized to cover
// the triangle texture indices.
func (l *loader) resolveTextureSlots(g *Geometry, brushSetRef uint32) {
	if refs, ok := l.brushSets[brushSetRef]; brushSetRef > 0 && ok {
		for _, matRef := range refs {
			var name string
			var anim TextureAnimation
			invisible := true

			if m, ok := l.materials[matRef]; ok {
				invisible = m.invisible || !m.hasBrush
				if m.hasBrush {
					if brush, ok := l.brushes[m.brushRef]; ok {
						anim.Animated = brush.animated
						anim.DelayMS = brush.delayMS
						for _, texIdx := range brush.textureRefs {
							anim.Frames = append(anim.Frames, l.textures[texIdx]...)
						}
						if len(anim.Frames) > 0 {
							name = anim.Frames[0]
						}
					}
				}
			}

			g.TextureNames = append(g.TextureNames, name)
			g.TextureInvisible = append(g.TextureInvisible, invisible)
			g.TextureAnims = append(g.TextureAnims, anim)
		}
	}

	if len(g.TextureNames) == 0 {
		var maxIdx uint32
		for _, tri := range g.Triangles {
			if tri.TextureIndex > maxIdx {
				maxIdx = tri.TextureIndex
			}
		}
		g.TextureNames = make([]string, maxIdx+1)
		g.TextureInvisible = make([]bool, maxIdx+1)
		g.TextureAnims = make([]TextureAnimation, maxIdx+1)
	}
}

// cString truncates at the first NUL.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
