package gpu

// Bindings gives a reference shader access to the resources bound for the
// current draw.
type Bindings interface {
	// Uniform returns the contents of the uniform buffer at group/binding,
	// or nil if none is bound.
	Uniform(group, binding uint32) []byte

	// Sample filters the texture bound at group/texture with the sampler
	// bound at group/sampler. Coordinates are normalized; (0,0) is the
	// top-left texel. The result is RGBA in [0,1].
	Sample(group, texture, sampler uint32, u, v float32) [4]float32
}

// ReferenceShader is a CPU rendition of a vertex/fragment shader pair. It
// must compute the same result as the WGSL modules of the pipeline it is
// attached to.
type ReferenceShader struct {
	// Varyings is the number of float32 values Vertex writes to out and
	// Fragment receives, interpolated perspective-correctly.
	Varyings int

	// Vertex transforms one vertex. attribs is indexed by shader location;
	// components missing from the vertex format are 0 (w is 1). It returns
	// the clip-space position.
	Vertex func(b Bindings, attribs [][4]float32, out []float32) [4]float32

	// Fragment shades one fragment and returns RGBA in [0,1]. For
	// premultiplied blending the color must already be premultiplied.
	Fragment func(b Bindings, in []float32) [4]float32
}
