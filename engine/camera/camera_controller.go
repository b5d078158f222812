package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraController owns the camera's position and look-at target. The Camera reads from it
// and computes the matrices. Embeds the orbit and planar control sets so both work from one instance.
type CameraController interface {
	orbitCameraController
	planarCameraController

	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: world-space camera position
	Position() mgl32.Vec3

	// Target returns the look-at point.
	//
	// Returns:
	//   - mgl32.Vec3: world-space target position
	Target() mgl32.Vec3

	// SetTarget sets the look-at/pivot point and recomputes position from spherical coordinates.
	//
	// Parameters:
	//   - target: world-space coordinates
	SetTarget(target mgl32.Vec3)

	// Zoom scales the orbit radius. Positive delta moves closer to the target.
	//
	// Parameters:
	//   - delta: scroll steps, scaled by ZoomSpeed
	Zoom(delta float32)

	// Frame points the camera at a sphere and backs off until it fits the field of view.
	// Radius limits are rescaled to the sphere so zoom stays usable for any model size.
	//
	// Parameters:
	//   - center: the sphere center
	//   - radius: the sphere radius
	//   - fovY: the camera's vertical field of view in radians
	Frame(center mgl32.Vec3, radius, fovY float32)
}

// orbitCameraController provides orbit controls using spherical coordinates (radius, azimuth, elevation)
// relative to the target/pivot point.
type orbitCameraController interface {
	// Orbit rotates around the target by the given angles. Elevation is clamped to its bounds.
	//
	// Parameters:
	//   - dAzimuth: horizontal change in radians
	//   - dElevation: vertical change in radians
	Orbit(dAzimuth, dElevation float32)

	// Drag orbits by a mouse movement in pixels, scaled by MouseSensitivity.
	//
	// Parameters:
	//   - dx: horizontal cursor movement
	//   - dy: vertical cursor movement
	Drag(dx, dy float32)

	// Radius returns the current orbit radius (distance from target).
	//
	// Returns:
	//   - float32: current distance from target
	Radius() float32

	// SetRadius sets the orbit radius directly, clamped to min/max bounds.
	//
	// Parameters:
	//   - radius: new distance from target
	SetRadius(radius float32)

	// Azimuth returns the current horizontal angle around the Y axis.
	//
	// Returns:
	//   - float32: azimuth in radians
	Azimuth() float32

	// Elevation returns the current vertical angle from the horizontal plane.
	//
	// Returns:
	//   - float32: elevation in radians
	Elevation() float32

	// OrbitSpeed returns the keyboard orbit speed in radians per step.
	//
	// Returns:
	//   - float32: radians per orbit step
	OrbitSpeed() float32
}

// planarCameraController translates position and target together along the camera's local axes,
// preserving the orbit relationship.
type planarCameraController interface {
	// Pan moves along the local right and up axes. Movement is proportional to the orbit radius.
	//
	// Parameters:
	//   - right: pan amount along the right axis
	//   - up: pan amount along the up axis
	Pan(right, up float32)
}
