package render

import (
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_portability_subset"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// LogicalDevice is the device plus the queues the renderer drives.
type LogicalDevice struct {
	Device   Device
	Graphics Queue
	Present  Queue
	Families QueueFamilySelection
}

// LogicalDeviceFactory creates the logical device for a selected adapter.
type LogicalDeviceFactory struct {
	// Extensions are required on top of VK_KHR_swapchain.
	Extensions []string
	Log        logrus.FieldLogger
}

// DeviceCreateInfo builds the create info for selected: one queue per
// distinct family, the swapchain extension plus the portability subset when
// the adapter reports it, and anisotropic sampling.
func (f LogicalDeviceFactory) DeviceCreateInfo(selected SelectedAdapter) core1_0.DeviceCreateInfo {
	queuePriority := float32(1.0)

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	for _, family := range selected.Families.Unique() {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: family,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	extensionNames := []string{khr_swapchain.ExtensionName}
	for _, ext := range f.Extensions {
		if !contains(extensionNames, ext) {
			extensionNames = append(extensionNames, ext)
		}
	}

	// Required on portability implementations such as MoltenVK.
	if selected.Info.HasExtension(khr_portability_subset.ExtensionName) && !contains(extensionNames, khr_portability_subset.ExtensionName) {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	return core1_0.DeviceCreateInfo{
		QueueCreateInfos: queueFamilyOptions,
		EnabledFeatures: &core1_0.PhysicalDeviceFeatures{
			SamplerAnisotropy: true,
		},
		EnabledExtensionNames: extensionNames,
	}
}

// Create creates the logical device and resolves its queues.
func (f LogicalDeviceFactory) Create(selected SelectedAdapter) (*LogicalDevice, error) {
	info := f.DeviceCreateInfo(selected)

	device, err := selected.Adapter.CreateDevice(info)
	if err != nil {
		return nil, creationFailure(err, "create logical device on %q", selected.Info.Name)
	}

	if f.Log != nil {
		f.Log.WithFields(logrus.Fields{
			"queues":     len(info.QueueCreateInfos),
			"extensions": info.EnabledExtensionNames,
		}).Debug("created logical device")
	}

	return &LogicalDevice{
		Device:   device,
		Graphics: device.Queue(selected.Families.Graphics),
		Present:  device.Queue(selected.Families.Present),
		Families: selected.Families,
	}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
