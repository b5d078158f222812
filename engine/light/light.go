package light

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu *sync.Mutex

	direction mgl32.Vec3
	color     mgl32.Vec3
	intensity float32
	ambient   float32
	enabled   bool
}

// Light is the directional key light the viewer shades models with.
// It has no position and no attenuation. The ambient term keeps faces turned away from it visible.
type Light interface {
	// Direction returns the normalized direction the light travels in.
	//
	// Returns:
	//   - mgl32.Vec3: the direction
	Direction() mgl32.Vec3

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Color() mgl32.Vec3

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Ambient returns the fraction of the base color that is always lit.
	//
	// Returns:
	//   - float32: the ambient factor in [0, 1]
	Ambient() float32

	// Enabled returns whether the light contributes. A disabled light leaves only the ambient term.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// SetDirection sets the light direction. A zero vector is ignored.
	//
	// Parameters:
	//   - dir: the direction, normalized before storing
	SetDirection(dir mgl32.Vec3)

	// SetEnabled toggles the light.
	//
	// Parameters:
	//   - enabled: whether the light contributes
	SetEnabled(enabled bool)

	// Radiance returns color * intensity, or zero when disabled.
	//
	// Returns:
	//   - mgl32.Vec3: the light's contribution
	Radiance() mgl32.Vec3
}

var _ Light = &lightImpl{}

// NewLight creates a white light shining down and away from a default camera.
//
// Parameters:
//   - options: functional options to configure the light
//
// Returns:
//   - Light: the new light
func NewLight(options ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:        &sync.Mutex{},
		direction: mgl32.Vec3{-0.4, -1, -0.6}.Normalize(),
		color:     mgl32.Vec3{1, 1, 1},
		intensity: 1,
		ambient:   0.25,
		enabled:   true,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.direction
}

func (l *lightImpl) Color() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intensity
}

func (l *lightImpl) Ambient() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ambient
}

func (l *lightImpl) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *lightImpl) SetDirection(dir mgl32.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if dir.Len() == 0 {
		return
	}
	l.direction = dir.Normalize()
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *lightImpl) Radiance() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return mgl32.Vec3{}
	}
	return l.color.Mul(l.intensity)
}
