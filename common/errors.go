package common

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingPosition is returned when a mesh primitive has no usable POSITION attribute.
	ErrMissingPosition = errors.New("primitive is missing the POSITION attribute")

	// ErrUnsupportedIndexType is returned when an index accessor is not an unsigned 8, 16 or 32 bit integer.
	ErrUnsupportedIndexType = errors.New("unsupported index component type")

	// ErrAccessorOutOfBounds is returned when an accessor, buffer view or buffer reference does not resolve.
	ErrAccessorOutOfBounds = errors.New("accessor out of bounds")

	// ErrNoDevice is returned when a GPU operation is requested without a device.
	ErrNoDevice = errors.New("no GPU device available")

	// ErrUnsupportedFormat is returned when a model file has an extension the loader does not handle.
	ErrUnsupportedFormat = errors.New("unsupported model format")
)

// AssetLoadError reports a failure to read or interpret a model asset.
// It is returned for open/parse failures and for structural problems in the document
// that make the asset unusable, such as a missing POSITION attribute.
type AssetLoadError struct {
	// Path is the asset path or stream name being loaded.
	Path string
	// Reason is a short human readable description of the failure.
	Reason string
	// Err is the underlying cause, if any.
	Err error
}

func (e *AssetLoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load asset %q: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("load asset %q: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *AssetLoadError) Unwrap() error {
	return e.Err
}

// NewAssetLoadError builds an AssetLoadError.
//
// Parameters:
//   - path: the asset path or stream name
//   - reason: a short description of what failed
//   - err: the underlying cause (may be nil)
//
// Returns:
//   - *AssetLoadError: the constructed error
func NewAssetLoadError(path, reason string, err error) *AssetLoadError {
	return &AssetLoadError{Path: path, Reason: reason, Err: err}
}

// GPUResourceError reports a failure to create or submit a GPU object.
type GPUResourceError struct {
	// Resource names the GPU object that failed, e.g. "vertex staging buffer".
	Resource string
	// Err is the underlying cause.
	Err error
}

func (e *GPUResourceError) Error() string {
	return fmt.Sprintf("gpu resource %s: %v", e.Resource, e.Err)
}

func (e *GPUResourceError) Unwrap() error {
	return e.Err
}

// NewGPUResourceError builds a GPUResourceError.
//
// Parameters:
//   - resource: the name of the GPU object that failed
//   - err: the underlying cause
//
// Returns:
//   - *GPUResourceError: the constructed error
func NewGPUResourceError(resource string, err error) *GPUResourceError {
	return &GPUResourceError{Resource: resource, Err: err}
}
