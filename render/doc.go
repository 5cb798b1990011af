// Package render bootstraps a graphics device for a window and draws frames
// to it.
//
// Bootstrap runs the stages in order: adapter selection, logical device
// creation, surface negotiation, swapchain creation and pipeline building.
// Renderer.DrawFrame then runs the frame loop body (wait, acquire, record,
// submit, present) and rebuilds the swapchain when the surface goes out of
// date. Renderer.Teardown destroys everything in reverse dependency order.
//
// The package only talks to the graphics API through the Driver interfaces;
// package render/vkng implements them over vkngwrapper.
package render
