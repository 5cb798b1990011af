package render

import (
	"github.com/sirupsen/logrus"
)

// Swapchain is the swapchain with its images and their views. Images belong
// to the swapchain; only the views are destroyed separately.
type Swapchain struct {
	Handle SwapchainHandle
	Images []Image
	Views  []Handle
	Config SurfaceConfig
}

// SwapchainManager builds and destroys Swapchains. A swapchain is never
// patched in place: resizing destroys it and builds a new one.
type SwapchainManager struct {
	Device  Device
	Surface Surface
	Log     logrus.FieldLogger
}

// Create builds the swapchain for config and one color view per image.
// On failure everything created so far is destroyed.
func (m SwapchainManager) Create(config SurfaceConfig) (*Swapchain, error) {
	handle, err := m.Device.CreateSwapchain(m.Surface, config)
	if err != nil {
		return nil, creationFailure(err, "create swapchain")
	}

	swapchain := &Swapchain{Handle: handle, Config: config}

	images, err := handle.Images()
	if err != nil {
		m.Destroy(swapchain)
		return nil, creationFailure(err, "get swapchain images")
	}
	swapchain.Images = images

	for i, image := range images {
		view, err := m.Device.CreateImageView(image, config.Format.Format)
		if err != nil {
			m.Destroy(swapchain)
			return nil, creationFailure(err, "create image view %d", i)
		}
		swapchain.Views = append(swapchain.Views, view)
	}

	if m.Log != nil {
		m.Log.WithFields(logrus.Fields{
			"images": len(images),
			"width":  config.Extent.Width,
			"height": config.Extent.Height,
		}).Info("created swapchain")
	}

	return swapchain, nil
}

// Destroy releases the views and then the swapchain.
func (m SwapchainManager) Destroy(swapchain *Swapchain) {
	if swapchain == nil {
		return
	}

	for _, view := range swapchain.Views {
		view.Destroy()
	}
	swapchain.Views = nil
	swapchain.Images = nil

	if swapchain.Handle != nil {
		swapchain.Handle.Destroy()
		swapchain.Handle = nil
	}
}
