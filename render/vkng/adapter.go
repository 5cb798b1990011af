package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/honoriocassiano/idky/render"
)

type adapter struct {
	physicalDevice core1_0.PhysicalDevice
	log            logrus.FieldLogger
}

func physicalDeviceOf(a render.Adapter) core1_0.PhysicalDevice {
	return a.(*adapter).physicalDevice
}

func (a *adapter) Info() (render.AdapterInfo, error) {
	properties, err := a.physicalDevice.Properties()
	if err != nil {
		return render.AdapterInfo{}, errors.Wrap(err, "query device properties")
	}

	extensions, _, err := a.physicalDevice.EnumerateDeviceExtensionProperties()
	if err != nil {
		return render.AdapterInfo{}, errors.Wrap(err, "query device extensions")
	}

	info := render.AdapterInfo{
		Name:                 properties.DeviceName,
		Extensions:           make(map[string]struct{}, len(extensions)),
		MaxSamplerAnisotropy: properties.Limits.MaxSamplerAnisotropy,
	}

	for name := range extensions {
		info.Extensions[name] = struct{}{}
	}

	if features := a.physicalDevice.Features(); features != nil {
		info.Features = *features
	}

	for _, queueFamily := range a.physicalDevice.QueueFamilyProperties() {
		info.QueueFamilies = append(info.QueueFamilies, render.QueueFamily{
			Flags:      queueFamily.QueueFlags,
			QueueCount: queueFamily.QueueCount,
		})
	}

	memProperties := a.physicalDevice.MemoryProperties()
	for _, memoryType := range memProperties.MemoryTypes {
		info.MemoryTypes = append(info.MemoryTypes, memoryType.PropertyFlags)
	}

	a.log.WithFields(logrus.Fields{
		"adapter":  info.Name,
		"families": len(info.QueueFamilies),
	}).Debug("queried adapter")

	return info, nil
}

func (a *adapter) CreateDevice(options core1_0.DeviceCreateInfo) (render.Device, error) {
	vkDevice, _, err := a.physicalDevice.CreateDevice(nil, options)
	if err != nil {
		return nil, err
	}

	return &device{
		device:             vkDevice,
		swapchainExtension: khr_swapchain.CreateExtensionFromDevice(vkDevice),
	}, nil
}
