package render

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// Predicate is an adapter suitability check. It only looks at the adapter's
// properties, so new requirements can be added without touching selection.
type Predicate func(info AdapterInfo) bool

// SupportsExtensions requires every named device extension.
func SupportsExtensions(names ...string) Predicate {
	return func(info AdapterInfo) bool {
		for _, name := range names {
			if !info.HasExtension(name) {
				return false
			}
		}
		return true
	}
}

// SupportsSamplerAnisotropy requires the anisotropic sampling feature.
func SupportsSamplerAnisotropy(info AdapterInfo) bool {
	return info.Features.SamplerAnisotropy
}

// DefaultPredicates are the checks the renderer cannot run without.
func DefaultPredicates() []Predicate {
	return []Predicate{
		SupportsExtensions(khr_swapchain.ExtensionName),
		SupportsSamplerAnisotropy,
	}
}

// QueueFamilySelection holds the queue families used for drawing and
// presenting. They may be the same family.
type QueueFamilySelection struct {
	Graphics int
	Present  int
}

// Shared reports whether one family serves both roles.
func (s QueueFamilySelection) Shared() bool {
	return s.Graphics == s.Present
}

// Unique returns the distinct family indices, graphics first.
func (s QueueFamilySelection) Unique() []int {
	if s.Shared() {
		return []int{s.Graphics}
	}
	return []int{s.Graphics, s.Present}
}

// SelectedAdapter is the outcome of adapter selection.
type SelectedAdapter struct {
	Adapter  Adapter
	Info     AdapterInfo
	Families QueueFamilySelection
}

// DeviceSelector picks the adapter to render with.
type DeviceSelector struct {
	Predicates []Predicate
	Log        logrus.FieldLogger
}

// Select returns the first adapter that satisfies every predicate and has
// both a graphics and a present queue family for surface.
func (s DeviceSelector) Select(adapters []Adapter, surface Surface) (SelectedAdapter, error) {
	if len(adapters) == 0 {
		return SelectedAdapter{}, selectionFailure(errors.Wrap(ErrNoSuitableAdapter, "no physical adapters"))
	}

	var lastRejection error
	for i, adapter := range adapters {
		info, err := adapter.Info()
		if err != nil {
			s.logger().WithError(err).WithField("adapter", i).Warn("skipping adapter that cannot be queried")
			continue
		}

		if !s.suitable(info) {
			s.logger().WithField("adapter", info.Name).Debug("adapter rejected by suitability checks")
			continue
		}

		families, err := FindQueueFamilies(adapter, info, surface)
		if err != nil {
			if errors.Is(err, ErrSelection) {
				s.logger().WithField("adapter", info.Name).WithError(err).Debug("adapter rejected")
				lastRejection = err
				continue
			}
			return SelectedAdapter{}, err
		}

		s.logger().WithFields(logrus.Fields{
			"adapter":  info.Name,
			"graphics": families.Graphics,
			"present":  families.Present,
		}).Info("selected adapter")

		return SelectedAdapter{Adapter: adapter, Info: info, Families: families}, nil
	}

	err := errors.Wrapf(ErrNoSuitableAdapter, "none of %d adapters qualify", len(adapters))
	if lastRejection != nil {
		err = errors.WithSecondaryError(err, lastRejection)
	}
	return SelectedAdapter{}, selectionFailure(err)
}

func (s DeviceSelector) suitable(info AdapterInfo) bool {
	for _, p := range s.Predicates {
		if !p(info) {
			return false
		}
	}
	return true
}

func (s DeviceSelector) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// FindQueueFamilies looks for the first graphics-capable family and,
// independently, the first family that can present to surface.
func FindQueueFamilies(adapter Adapter, info AdapterInfo, surface Surface) (QueueFamilySelection, error) {
	graphics := -1
	for i, family := range info.QueueFamilies {
		if family.Flags&core1_0.QueueGraphics != 0 {
			graphics = i
			break
		}
	}
	if graphics < 0 {
		return QueueFamilySelection{}, selectionFailure(ErrNoGraphicsQueue)
	}

	present := -1
	for i := range info.QueueFamilies {
		supported, err := surface.PresentSupport(adapter, i)
		if err != nil {
			return QueueFamilySelection{}, creationFailure(err, "query present support of queue family %d", i)
		}
		if supported {
			present = i
			break
		}
	}
	if present < 0 {
		return QueueFamilySelection{}, selectionFailure(ErrNoPresentQueue)
	}

	return QueueFamilySelection{Graphics: graphics, Present: present}, nil
}
