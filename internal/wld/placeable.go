package wld

import (
	"strings"

	"eq-zone-loader/internal/mathutil"
)

// 0x15 layout flags. Fields are only present when their flag is set.
const (
	placeableHasCurrentAction  = 0x01
	placeableHasLocation       = 0x02
	placeableHasBoundingRadius = 0x04
	placeableHasScaleFactor    = 0x08
	placeableHasSound          = 0x10
	placeableHasVertexColors   = 0x100
)

// Rotations are stored in 512ths of a full circle.
const rotationModifier = 360.0 / 512.0

// 0x14: object (actor) definition. Names are upper-cased with the
// _ACTORDEF suffix stripped so they match placeable instance names.
func (l *loader) parseObjectDef(r *reader, nameRef int32) {
	flags := r.readU32()
	r.skip(4) // callback name ref
	entries := r.readU32()
	entries2 := r.readU32()
	r.skip(4) // bounds ref
	if flags&1 != 0 {
		r.skip(4)
	}
	if flags&2 != 0 {
		r.skip(4)
	}

	def := ObjectDef{Name: actorName(l.strings.name(nameRef))}

	for i := uint32(0); i < entries; i++ {
		n := r.readU32()
		if r.failed {
			return
		}
		r.skip(int(n) * 8)
	}
	for i := uint32(0); i < entries2; i++ {
		ref := r.readU32()
		if r.failed {
			return
		}
		if ref > 0 {
			def.MeshRefs = append(def.MeshRefs, ref)
		}
	}

	if def.Name != "" {
		l.zone.ObjectDefs[def.Name] = def
	}
}

// 0x15: placeable instance. The object name comes from the body's leading
// string reference, not the fragment name.
func (l *loader) parsePlaceable(r *reader) {
	objectRef := r.readI32()
	if r.failed || objectRef >= 0 {
		return
	}

	p := &Placeable{
		Name:  actorName(l.strings.at(-objectRef)),
		Scale: mathutil.Vec3{1, 1, 1},
	}

	flags := r.readU32()
	r.skip(4) // collision sphere ref
	if flags&placeableHasCurrentAction != 0 {
		r.skip(4)
	}

	var rawRotX, rawRotY float32
	if flags&placeableHasLocation != 0 {
		p.Position = mathutil.Vec3{r.readF32(), r.readF32(), r.readF32()}
		rawRotX = r.readF32()
		rawRotY = r.readF32()
		r.skip(4) // third rotation value, unused
		r.skip(4) // unknown
	}
	// Normalized rotation: yaw comes from the first raw value, negated.
	p.Rotation = mathutil.Vec3{0, -rawRotX * rotationModifier, rawRotY * rotationModifier}

	if flags&placeableHasBoundingRadius != 0 {
		r.skip(4)
	}
	if flags&placeableHasScaleFactor != 0 {
		s := r.readF32()
		p.Scale = mathutil.Vec3{s, s, s}
	}
	if flags&placeableHasSound != 0 {
		r.skip(4)
	}
	if flags&placeableHasVertexColors != 0 {
		r.skip(4)
	}
	if r.failed {
		return
	}

	l.zone.Placeables = append(l.zone.Placeables, p)
}

// actorName upper-cases and strips the _ACTORDEF suffix.
func actorName(name string) string {
	name = strings.ToUpper(name)
	if i := strings.Index(name, "_ACTORDEF"); i >= 0 {
		name = name[:i]
	}
	return name
}
