package wld

import (
	"strings"

	"eq-zone-loader/internal/mathutil"
)

// 0x10: skeleton hierarchy. Bones arrive in file order, each carrying a
// child-index list; the parent array and root set are derived after the
// whole arena is read. Bones are defined exactly once, so indices are the
// only ownership model needed.
func (l *loader) parseSkeleton(r *reader, index uint32, nameRef int32) {
	flags := r.readU32()
	boneCount := r.readU32()
	r.skip(4) // polygon animation fragment
	if flags&1 != 0 {
		r.skip(12)
	}
	if flags&2 != 0 {
		r.skip(4)
	}

	sk := &Skeleton{Name: l.strings.name(nameRef)}

	type relation struct{ parent, child int }
	var relations []relation

	for i := uint32(0); i < boneCount; i++ {
		boneNameRef := r.readI32()
		r.skip(4) // bone flags
		orientationRef := r.readI32()
		meshRef := r.readI32()
		childCount := r.readU32()
		if r.failed {
			break
		}

		bone := &Bone{Name: l.strings.name(boneNameRef)}
		if orientationRef > 0 {
			if defIdx, ok := l.orientationRefs[uint32(orientationRef)]; ok {
				bone.Orientation = l.orientations[defIdx]
			}
		}
		if meshRef > 0 {
			bone.MeshRef = uint32(meshRef)
		}
		sk.Bones = append(sk.Bones, bone)

		for j := uint32(0); j < childCount; j++ {
			child := r.readI32()
			if r.failed {
				break
			}
			relations = append(relations, relation{parent: int(i), child: int(child)})
		}
	}

	if len(sk.Bones) == 0 {
		return
	}

	sk.ParentIndices = make([]int, len(sk.Bones))
	for i := range sk.ParentIndices {
		sk.ParentIndices[i] = -1
	}
	for _, rel := range relations {
		if rel.parent < 0 || rel.parent >= len(sk.Bones) ||
			rel.child < 0 || rel.child >= len(sk.Bones) {
			continue
		}
		sk.Bones[rel.parent].Children = append(sk.Bones[rel.parent].Children, rel.child)
		sk.ParentIndices[rel.child] = rel.parent
	}

	for i, parent := range sk.ParentIndices {
		if parent == -1 {
			sk.Roots = append(sk.Roots, i)
		}
	}

	l.zone.Skeletons[index] = sk
}

// 0x11: reference to a skeleton fragment.
func (l *loader) parseSkeletonRef(r *reader, index uint32) {
	ref := r.readI32()
	if r.failed || ref <= 0 {
		return
	}
	l.zone.SkeletonRefs[index] = uint32(ref)
}

// 0x12: track definition. Each keyframe is eight int16 values:
// (qw, qx, qy, qz, tx, ty, tz, scaleDenom). The quaternion is normalized
// by its full 4-component length, translation is fixed-point over 256, and
// a zero scale denominator means scale 1.
func (l *loader) parseTrackDef(r *reader, index uint32, nameRef int32) {
	r.skip(4) // flags
	frameCount := int(r.readI32())
	if r.failed || frameCount < 0 {
		return
	}

	def := &TrackDef{
		Name:   l.strings.name(nameRef),
		Frames: make([]BoneTransform, 0, min(frameCount, r.remaining()/16)),
	}
	for i := 0; i < frameCount; i++ {
		qw := float32(r.readI16())
		qx := float32(r.readI16())
		qy := float32(r.readI16())
		qz := float32(r.readI16())
		tx := float32(r.readI16())
		ty := float32(r.readI16())
		tz := float32(r.readI16())
		scaleDenom := r.readI16()
		if r.failed {
			return
		}

		frame := BoneTransform{
			Rotation: mathutil.Quat{qx, qy, qz, qw}.Normalize(),
			Shift:    mathutil.Vec3{tx / 256, ty / 256, tz / 256},
			Scale:    1,
		}
		if scaleDenom != 0 {
			frame.Scale = float32(scaleDenom) / 256
		}
		def.Frames = append(def.Frames, frame)
	}

	l.zone.TrackDefs[index] = def
	if len(def.Frames) > 0 {
		// First frame doubles as the bone rest orientation.
		orientation := def.Frames[0]
		l.orientations[index] = &orientation
	}
}

// 0x13: track reference. The name encodes which animation, model and bone
// the track drives.
func (l *loader) parseTrackRef(r *reader, index uint32, nameRef int32) {
	defRef := r.readI32()
	flags := r.readI32()
	if r.failed {
		return
	}

	ref := &TrackRef{Name: l.strings.name(nameRef)}
	if defRef > 0 {
		ref.TrackIndex = uint32(defRef)
	}
	if flags&1 != 0 {
		ref.FrameMS = r.readI32()
	}

	decodeTrackName(ref)

	l.zone.TrackRefs[index] = ref
	if ref.TrackIndex > 0 {
		l.orientationRefs[index] = ref.TrackIndex
	}
}

// decodeTrackName splits a track name into animation, model and bone
// codes. An action track leads with letter+digit+digit ("c01humhead");
// otherwise the track is a pose with a synthetic "pos" animation code. A
// bare 3-character name is a model-level root pose.
func decodeTrackName(ref *TrackRef) {
	if ref.Name == "" {
		return
	}
	name := strings.ToLower(ref.Name)
	if i := strings.Index(name, "_track"); i >= 0 {
		name = name[:i]
	}

	hasAnimCode := len(name) >= 6 &&
		isLetter(name[0]) && isDigit(name[1]) && isDigit(name[2])

	switch {
	case hasAnimCode:
		ref.AnimCode = name[:3]
		ref.ModelCode = name[3:6]
		ref.BoneName = name[6:]
		ref.Parsed = true
	case len(name) >= 4:
		ref.AnimCode = "pos"
		ref.ModelCode = name[:3]
		ref.BoneName = name[3:]
		ref.Pose = true
		ref.Parsed = true
	case len(name) == 3:
		ref.AnimCode = "pos"
		ref.ModelCode = name
		ref.BoneName = "root"
		ref.Pose = true
		ref.Parsed = true
	}

	ref.BoneName = strings.TrimPrefix(ref.BoneName, "_")
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
