// Package vkng implements the render driver interfaces over vkngwrapper.
package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_portability_enumeration"

	"github.com/honoriocassiano/idky/render"
)

// ValidationLayer is enabled when the renderer runs in debug mode.
const ValidationLayer = "VK_LAYER_KHRONOS_validation"

const engineName = "idky"

// Driver opens Vulkan instances for one SDL window.
type Driver struct {
	loader core.Loader
	window *sdl.Window
	log    logrus.FieldLogger
}

// New loads Vulkan through SDL. The window must have been created with
// sdl.WINDOW_VULKAN.
func New(window *sdl.Window, log logrus.FieldLogger) (*Driver, error) {
	loader, err := core.CreateLoaderFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan")
	}

	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Driver{loader: loader, window: window, log: log}, nil
}

// CreateInstance creates the instance and, in debug mode, its debug messenger.
func (d *Driver) CreateInstance(info render.InstanceInfo) (render.Instance, error) {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    info.ApplicationName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         engineName,
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := d.loader.AvailableExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "query instance extensions")
	}

	for _, ext := range info.Extensions {
		_, hasExt := extensions[ext]
		if !hasExt {
			return nil, errors.Newf("missing instance extension %s", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	if info.Debug {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
	}

	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if info.Debug {
		layers, _, err := d.loader.AvailableLayers()
		if err != nil {
			return nil, errors.Wrap(err, "query instance layers")
		}

		if _, hasValidation := layers[ValidationLayer]; !hasValidation {
			return nil, errors.WithHint(
				errors.Newf("validation layer %s not available", ValidationLayer),
				"install the LunarG Vulkan SDK or turn debug mode off",
			)
		}
		instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, ValidationLayer)

		// Covers messages from instance creation and destruction.
		instanceOptions.Next = d.debugMessengerOptions()
	}

	vkInstance, _, err := d.loader.CreateInstance(nil, instanceOptions)
	if err != nil {
		return nil, err
	}

	instance := &instance{instance: vkInstance, window: d.window, log: d.log}

	if info.Debug {
		debugLoader := ext_debug_utils.CreateExtensionFromInstance(vkInstance)
		instance.messenger, _, err = debugLoader.CreateDebugUtilsMessenger(vkInstance, nil, d.debugMessengerOptions())
		if err != nil {
			vkInstance.Destroy(nil)
			return nil, errors.Wrap(err, "create debug messenger")
		}
	}

	d.log.WithFields(logrus.Fields{
		"extensions": instanceOptions.EnabledExtensionNames,
		"layers":     instanceOptions.EnabledLayerNames,
	}).Debug("created instance")

	return instance, nil
}

func (d *Driver) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    d.logDebug,
	}
}

func (d *Driver) logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	entry := d.log.WithField("stage", "validation")
	switch {
	case severity&ext_debug_utils.SeverityError != 0:
		entry.Errorf("[%s %s] - %s", severity, msgType, data.Message)
	case severity&ext_debug_utils.SeverityWarning != 0:
		entry.Warnf("[%s %s] - %s", severity, msgType, data.Message)
	default:
		entry.Debugf("[%s %s] - %s", severity, msgType, data.Message)
	}
	return false
}
