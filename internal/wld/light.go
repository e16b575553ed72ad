package wld

import "eq-zone-loader/internal/mathutil"

// 0x1B flag bits.
const (
	lightHasCurrentFrame = 0x01
	lightHasSleep        = 0x02
	lightHasLevels       = 0x04
	lightHasColor        = 0x10
)

type lightDef struct {
	name         string
	flags        uint32
	frameCount   uint32
	currentFrame uint32
	sleepMS      uint32
	levels       []float32
	colors       [][3]float32
	r, g, b      float32
}

// 0x1B: light definition. Variable layout driven by flags.
func (l *loader) parseLightDef(r *reader, index uint32, nameRef int32) {
	flags := r.readU32()
	frameCount := r.readU32()
	if r.failed {
		return
	}

	def := lightDef{
		name:       l.strings.name(nameRef),
		flags:      flags,
		frameCount: frameCount,
		r:          1,
		g:          1,
		b:          1,
	}
	if flags&lightHasCurrentFrame != 0 {
		def.currentFrame = r.readU32()
	}
	if flags&lightHasSleep != 0 {
		def.sleepMS = r.readU32()
	}
	if flags&lightHasLevels != 0 {
		def.levels = make([]float32, 0, min(int(frameCount), r.remaining()/4))
		for i := uint32(0); i < frameCount; i++ {
			v := r.readF32()
			if r.failed {
				return
			}
			def.levels = append(def.levels, v)
		}
	}
	if flags&lightHasColor != 0 {
		def.colors = make([][3]float32, 0, min(int(frameCount), r.remaining()/12))
		for i := uint32(0); i < frameCount; i++ {
			c := [3]float32{r.readF32(), r.readF32(), r.readF32()}
			if r.failed {
				return
			}
			def.colors = append(def.colors, c)
		}
		if len(def.colors) > 0 {
			def.r, def.g, def.b = def.colors[0][0], def.colors[0][1], def.colors[0][2]
		}
	}
	if r.failed {
		return
	}

	l.lightDefs[index] = def
}

// 0x28: light instance placing a definition at a position with a radius.
// A missing definition still yields a basic white light.
func (l *loader) parseLightInstance(r *reader) {
	ref := r.readI32()
	r.skip(4) // flags
	pos := mathutil.Vec3{r.readF32(), r.readF32(), r.readF32()}
	radius := r.readF32()
	if r.failed || ref <= 0 {
		return
	}

	light := &Light{
		Position:   pos,
		Radius:     radius,
		R:          1,
		G:          1,
		B:          1,
		FrameCount: 1,
	}
	if def, ok := l.lightDefs[uint32(ref)]; ok {
		light.Name = def.name
		light.R, light.G, light.B = def.r, def.g, def.b
		light.Flags = def.flags
		light.FrameCount = def.frameCount
		light.CurrentFrame = def.currentFrame
		light.SleepMS = def.sleepMS
		light.Levels = def.levels
		light.Colors = def.colors
	}

	l.zone.Lights = append(l.zone.Lights, light)
}

// 0x2A: ambient light applied to a set of BSP regions.
func (l *loader) parseAmbientRegion(r *reader, nameRef int32) {
	flags := r.readU32()
	count := r.readU32()
	if r.failed {
		return
	}

	ambient := &AmbientRegion{
		Name:       l.strings.name(nameRef),
		Flags:      flags,
		RegionRefs: make([]int32, 0, min(int(count), r.remaining()/4)),
	}
	for i := uint32(0); i < count; i++ {
		ref := r.readI32()
		if r.failed {
			return
		}
		ambient.RegionRefs = append(ambient.RegionRefs, ref)
	}

	l.zone.AmbientRegions = append(l.zone.AmbientRegions, ambient)
}

// 0x35: zone-wide ambient color, stored BGRA.
func (l *loader) parseGlobalAmbient(r *reader) {
	b := r.readByte()
	g := r.readByte()
	rd := r.readByte()
	a := r.readByte()
	if r.failed {
		return
	}
	l.zone.GlobalAmbient = &GlobalAmbient{
		R: float32(rd) / 255,
		G: float32(g) / 255,
		B: float32(b) / 255,
		A: float32(a) / 255,
	}
}
