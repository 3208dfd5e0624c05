// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/rtt/scene"
)

// UniformSize is the size of the camera uniform: projection then
// modelview, two column-major 4×4 float32 matrices.
const UniformSize = 2 * 16 * 4

// Camera is a perspective camera.
type Camera struct {
	Eye, Center, Up mgl32.Vec3

	// FovY is the vertical field of view in degrees.
	FovY float32
	// Aspect is width / height.
	Aspect    float32
	Near, Far float32

	Depth DepthConvention
}

// NewCameraForBounds frames b the way the demo scene is framed: a 30°
// camera on the -Y side of the bounds looking at their centre, +Z up,
// with near/far derived from the bounds radius. Empty bounds are treated
// as the unit cube around the origin.
func NewCameraForBounds(b scene.Bounds, aspect float32, depth DepthConvention) Camera {
	if b.Empty() {
		b = scene.Bounds{Min: mgl32.Vec3{-0.5, -0.5, -0.5}, Max: mgl32.Vec3{0.5, 0.5, 0.5}}
	}
	center := b.Center()
	radius := b.Diagonal() * 0.6
	if radius == 0 {
		radius = 1
	}
	return Camera{
		Eye:    center.Add(mgl32.Vec3{0, -radius * 3.5, 0}),
		Center: center,
		Up:     mgl32.Vec3{0, 0, 1},
		FovY:   30,
		Aspect: aspect,
		Near:   radius * 0.001,
		Far:    radius * 4.5,
		Depth:  depth,
	}
}

// NewQuadCamera frames the textured quads from above and in front, so
// both planes face the viewer.
func NewQuadCamera(b scene.Bounds, aspect float32, depth DepthConvention) Camera {
	cam := NewCameraForBounds(b, aspect, depth)
	radius := cam.Far / 4.5
	cam.Eye = cam.Center.Add(mgl32.Vec3{0, -radius * 1.2, radius * 3.2})
	cam.Up = mgl32.Vec3{0, 1, 0}
	return cam
}

// WithAspect returns a copy of c with a new aspect ratio.
func (c Camera) WithAspect(aspect float32) Camera {
	c.Aspect = aspect
	return c
}

// depthRemap maps OpenGL clip z in [-w, w] to [0, w], flipped for the
// reversed convention.
func depthRemap(d DepthConvention) mgl32.Mat4 {
	s := float32(0.5)
	if d == DepthReversed {
		s = -0.5
	}
	return mgl32.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, s, 0,
		0, 0, 0.5, 1,
	}
}

// Projection returns the projection matrix with depth in [0, 1].
func (c Camera) Projection() mgl32.Mat4 {
	aspect := c.Aspect
	if aspect <= 0 || math.IsNaN(float64(aspect)) {
		aspect = 1
	}
	p := mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
	return depthRemap(c.Depth).Mul4(p)
}

// View returns the modelview matrix.
func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Center, c.Up)
}

// Uniform encodes projection and modelview as the shader uniform block.
func (c Camera) Uniform() []byte {
	buf := make([]byte, UniformSize)
	putMat4(buf[0:64], c.Projection())
	putMat4(buf[64:128], c.View())
	return buf
}

func putMat4(dst []byte, m mgl32.Mat4) {
	for i, v := range m {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// readMat4 is the inverse of putMat4, used by reference shaders.
func readMat4(src []byte) mgl32.Mat4 {
	var m mgl32.Mat4
	if len(src) < 64 {
		return mgl32.Ident4()
	}
	for i := range m {
		m[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return m
}

// mvp decodes a camera uniform into projection × modelview.
func mvp(uniform []byte) mgl32.Mat4 {
	if len(uniform) < UniformSize {
		return mgl32.Ident4()
	}
	return readMat4(uniform[0:64]).Mul4(readMat4(uniform[64:128]))
}
