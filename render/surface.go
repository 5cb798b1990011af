package render

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

// Window is what the renderer needs from the windowing layer.
type Window interface {
	// RequiredInstanceExtensions lists the instance extensions the platform
	// needs to present to this window.
	RequiredInstanceExtensions() []string
	// DrawableSize is the current size of the window in pixels.
	DrawableSize() (width, height int)
}

// DefaultSurfaceFormat is the platform's default 8-bit BGRA UNORM format.
const DefaultSurfaceFormat = core1_0.FormatB8G8R8A8UnsignedNormalized

// FormatMode selects how a FormatPolicy treats its format.
type FormatMode int

const (
	// FormatAvoid takes the first reported format that is not the policy's.
	FormatAvoid FormatMode = iota
	// FormatPrefer takes the policy's format when reported, else the first one.
	FormatPrefer
)

// FormatPolicy chooses the swapchain surface format.
type FormatPolicy struct {
	Mode   FormatMode
	Format core1_0.Format
}

// AvoidFormat never picks f.
func AvoidFormat(f core1_0.Format) FormatPolicy {
	return FormatPolicy{Mode: FormatAvoid, Format: f}
}

// PreferFormat picks f when the surface supports it.
func PreferFormat(f core1_0.Format) FormatPolicy {
	return FormatPolicy{Mode: FormatPrefer, Format: f}
}

// Choose applies the policy to the formats a surface reports.
func (p FormatPolicy) Choose(formats []khr_surface.SurfaceFormat) (khr_surface.SurfaceFormat, error) {
	if len(formats) == 0 {
		return khr_surface.SurfaceFormat{}, errors.Wrap(ErrNoSurfaceFormat, "surface reports no formats")
	}

	switch p.Mode {
	case FormatPrefer:
		for _, format := range formats {
			if format.Format == p.Format {
				return format, nil
			}
		}
		return formats[0], nil
	default:
		for _, format := range formats {
			if format.Format != p.Format {
				return format, nil
			}
		}
		return khr_surface.SurfaceFormat{}, errors.Wrapf(ErrNoSurfaceFormat, "every reported format is %s", p.Format)
	}
}

// SurfaceConfig is the negotiated presentation setup for one swapchain.
type SurfaceConfig struct {
	Format      khr_surface.SurfaceFormat
	Extent      core1_0.Extent2D
	PresentMode khr_surface.PresentMode
	ImageCount  int

	SharingMode core1_0.SharingMode
	// QueueFamilies is empty for exclusive sharing.
	QueueFamilies []int

	// Capabilities the configuration was derived from.
	Capabilities *khr_surface.SurfaceCapabilities
}

// SurfaceNegotiator derives a SurfaceConfig from the adapter, the surface and
// the window.
type SurfaceNegotiator struct {
	Policy FormatPolicy
	Log    logrus.FieldLogger
}

// Negotiate queries the surface and builds a validated configuration.
func (n SurfaceNegotiator) Negotiate(adapter Adapter, surface Surface, families QueueFamilySelection, window Window) (SurfaceConfig, error) {
	formats, err := surface.Formats(adapter)
	if err != nil {
		return SurfaceConfig{}, creationFailure(err, "query surface formats")
	}

	capabilities, err := surface.Capabilities(adapter)
	if err != nil {
		return SurfaceConfig{}, creationFailure(err, "query surface capabilities")
	}

	format, err := n.Policy.Choose(formats)
	if err != nil {
		return SurfaceConfig{}, errors.Mark(err, ErrResourceCreation)
	}

	width, height := window.DrawableSize()
	sharingMode, queueFamilies := SharingFor(families)

	config := SurfaceConfig{
		Format:        format,
		Extent:        ClampExtent(width, height, capabilities),
		PresentMode:   khr_surface.PresentModeFIFO,
		ImageCount:    ImageCount(capabilities),
		SharingMode:   sharingMode,
		QueueFamilies: queueFamilies,
		Capabilities:  capabilities,
	}

	if n.Log != nil {
		n.Log.WithFields(logrus.Fields{
			"format": format.Format,
			"width":  config.Extent.Width,
			"height": config.Extent.Height,
			"images": config.ImageCount,
		}).Debug("negotiated surface")
	}

	return config, nil
}

// ClampExtent clamps each dimension of the drawable size into the surface's
// supported image extent range.
func ClampExtent(width, height int, capabilities *khr_surface.SurfaceCapabilities) core1_0.Extent2D {
	return core1_0.Extent2D{
		Width:  clamp(width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ImageCount asks for one image above the minimum, within the maximum when
// the surface has one.
func ImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

// SharingFor returns exclusive sharing when one family does both jobs and
// concurrent sharing over both families otherwise.
func SharingFor(families QueueFamilySelection) (core1_0.SharingMode, []int) {
	if families.Shared() {
		return core1_0.SharingModeExclusive, nil
	}
	return core1_0.SharingModeConcurrent, families.Unique()
}
