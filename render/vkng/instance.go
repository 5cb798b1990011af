package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2"

	"github.com/honoriocassiano/idky/render"
)

type instance struct {
	instance  core1_0.Instance
	messenger ext_debug_utils.DebugUtilsMessenger
	window    *sdl.Window
	log       logrus.FieldLogger
}

func (i *instance) Adapters() ([]render.Adapter, error) {
	physicalDevices, _, err := i.instance.EnumeratePhysicalDevices()
	if err != nil {
		return nil, err
	}

	adapters := make([]render.Adapter, 0, len(physicalDevices))
	for _, pd := range physicalDevices {
		adapters = append(adapters, &adapter{physicalDevice: pd, log: i.log})
	}
	return adapters, nil
}

func (i *instance) CreateSurface() (render.Surface, error) {
	surfaceLoader := khr_surface.CreateExtensionFromInstance(i.instance)

	vkSurface, err := vkng_sdl2.CreateSurface(i.instance, surfaceLoader, i.window)
	if err != nil {
		return nil, errors.Wrap(err, "sdl")
	}

	return &surface{surface: vkSurface}, nil
}

// Destroy releases the debug messenger and then the instance.
func (i *instance) Destroy() {
	if i.messenger != nil {
		i.messenger.Destroy(nil)
		i.messenger = nil
	}
	if i.instance != nil {
		i.instance.Destroy(nil)
		i.instance = nil
	}
}

type surface struct {
	surface khr_surface.Surface
}

func (s *surface) PresentSupport(a render.Adapter, family int) (bool, error) {
	supported, _, err := s.surface.PhysicalDeviceSurfaceSupport(physicalDeviceOf(a), family)
	return supported, err
}

func (s *surface) Capabilities(a render.Adapter) (*khr_surface.SurfaceCapabilities, error) {
	capabilities, _, err := s.surface.PhysicalDeviceSurfaceCapabilities(physicalDeviceOf(a))
	return capabilities, err
}

func (s *surface) Formats(a render.Adapter) ([]khr_surface.SurfaceFormat, error) {
	formats, _, err := s.surface.PhysicalDeviceSurfaceFormats(physicalDeviceOf(a))
	return formats, err
}

func (s *surface) Destroy() {
	if s.surface != nil {
		s.surface.Destroy(nil)
		s.surface = nil
	}
}
