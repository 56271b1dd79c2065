package frame

import "github.com/Faultbox/castle-waves/pkg/math"

// MaxLights is the size of the light array in PassConstants.
const MaxLights = 16

// ObjectConstants is the per-render-item record (std140 ObjectCB).
type ObjectConstants struct {
	World        math.Mat4
	TexTransform math.Mat4
}

// MaterialConstants is the per-material record (std140 MaterialCB).
type MaterialConstants struct {
	DiffuseAlbedo math.Vec4
	FresnelR0     math.Vec3
	Roughness     float32
	MatTransform  math.Mat4
}

// Light is one entry of the pass light array. Directional lights use
// Direction, point lights use Position and the falloff range.
type Light struct {
	Strength     math.Vec3
	FalloffStart float32
	Direction    math.Vec3
	FalloffEnd   float32
	Position     math.Vec3
	SpotPower    float32
}

// PassConstants is the per-frame camera and lighting record (std140 PassCB).
// Directional lights occupy Lights[0:NumDirLights], point lights follow.
type PassConstants struct {
	View                math.Mat4
	InvView             math.Mat4
	Proj                math.Mat4
	InvProj             math.Mat4
	ViewProj            math.Mat4
	InvViewProj         math.Mat4
	EyePosW             math.Vec3
	_                   float32
	RenderTargetSize    math.Vec2
	InvRenderTargetSize math.Vec2
	NearZ               float32
	FarZ                float32
	TotalTime           float32
	DeltaTime           float32
	AmbientLight        math.Vec4
	FogColor            math.Vec4
	FogStart            float32
	FogRange            float32
	NumDirLights        int32
	NumPointLights      int32
	Lights              [MaxLights]Light
}
