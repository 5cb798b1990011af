package render

// SyncObjects are the pacing primitives of the single frame-in-flight slot.
type SyncObjects struct {
	ImageAvailable Handle
	RenderFinished Handle
	// InFlight starts signaled so the first frame does not wait forever.
	InFlight Fence
}

// NewSyncObjects creates both semaphores and the signaled in-flight fence.
func NewSyncObjects(device Device) (*SyncObjects, error) {
	sync := &SyncObjects{}

	var err error
	sync.ImageAvailable, err = device.CreateSemaphore()
	if err != nil {
		return nil, creationFailure(err, "create image-available semaphore")
	}

	sync.RenderFinished, err = device.CreateSemaphore()
	if err != nil {
		sync.Destroy()
		return nil, creationFailure(err, "create render-finished semaphore")
	}

	sync.InFlight, err = device.CreateFence(true)
	if err != nil {
		sync.Destroy()
		return nil, creationFailure(err, "create in-flight fence")
	}

	return sync, nil
}

// Destroy releases the semaphores before the fence.
func (s *SyncObjects) Destroy() {
	if s == nil {
		return
	}
	if s.RenderFinished != nil {
		s.RenderFinished.Destroy()
		s.RenderFinished = nil
	}
	if s.ImageAvailable != nil {
		s.ImageAvailable.Destroy()
		s.ImageAvailable = nil
	}
	if s.InFlight != nil {
		s.InFlight.Destroy()
		s.InFlight = nil
	}
}
