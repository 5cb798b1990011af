package render

import (
	"github.com/cockroachdb/errors"
)

// Failure categories. Every error returned by this package is marked with
// exactly one of them, so callers can branch with errors.Is.
var (
	ErrResourceCreation = errors.New("resource creation failure")
	ErrSelection        = errors.New("selection failure")
	ErrFrameExecution   = errors.New("frame execution failure")
	ErrAssetLoad        = errors.New("asset load failure")
)

// Specific causes.
var (
	ErrNoSuitableAdapter = errors.New("no suitable adapter")
	ErrNoGraphicsQueue   = errors.New("no queue family supports graphics")
	ErrNoPresentQueue    = errors.New("no queue family can present to the surface")
	ErrNoSurfaceFormat   = errors.New("no acceptable surface format")

	// ErrSurfaceOutOfDate is returned by a driver when the swapchain no longer
	// matches its surface. The renderer treats it as a rebuild trigger.
	ErrSurfaceOutOfDate = errors.New("surface out of date")
	ErrFenceTimeout     = errors.New("timed out waiting for in-flight fence")

	ErrTornDown = errors.New("renderer has been torn down")
)

func selectionFailure(err error) error {
	return errors.Mark(err, ErrSelection)
}

func creationFailure(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrResourceCreation)
}

func frameFailure(err error, step string) error {
	return errors.Mark(errors.Wrapf(err, "frame %s", step), ErrFrameExecution)
}

func assetFailure(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrAssetLoad)
}
