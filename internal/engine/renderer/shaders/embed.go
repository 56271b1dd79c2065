// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// CastleVertexShader transforms every scene mesh.
//
//go:embed castle.vert
var CastleVertexShader string

// CastleFragmentShader lights the scene with directional and point lights
// and applies distance fog.
//
//go:embed castle.frag
var CastleFragmentShader string

// TreeVertexShader moves tree centres to world space.
//
//go:embed castle_tree.vert
var TreeVertexShader string

// TreeGeometryShader expands each tree point into a quad facing the eye.
//
//go:embed castle_tree.geom
var TreeGeometryShader string

// TreeFragmentShader cuts the tree silhouette out of its quad.
//
//go:embed castle_tree.frag
var TreeFragmentShader string

// Uniform block names and their binding points.
const (
	PassBlock       = "PassCB"
	ObjectBlock     = "ObjectCB"
	MaterialBlock   = "MaterialCB"
	PassBinding     = 0
	ObjectBinding   = 1
	MaterialBinding = 2
)

// Vertex attribute locations.
const (
	VertexPosition = 0
	VertexNormal   = 1
	VertexTexCoord = 2
)
