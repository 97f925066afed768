package gpu

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// Window owns a GLFW window and the VkSurfaceKHR created against it.
// Grounded on the teacher's dieselvk/display.go CoreDisplay and the
// instance-bring-up sequence in asche/platform.go's NewPlatform, adapted
// from the teacher's ad-hoc Fatal()-on-error style to returned errors and
// narrowed to the single-window case the spec's demo command needs.
//
// glfw must be initialized (glfw.Init) and vk.SetGetInstanceProcAddr
// pointed at glfw.GetVulkanGetInstanceProcAddress before CreateInstance is
// called for a windowed application; OpenWindow does not do this itself
// since a headless Instance (no window at all) must stay possible.
type Window struct {
	handle  *glfw.Window
	surface vk.Surface
}

// RequiredInstanceExtensions reports the instance extensions GLFW needs
// to present to this platform's windowing system, mirroring the teacher's
// core.go call to window.GetRequiredInstanceExtensions.
func RequiredInstanceExtensions() []string {
	if !glfw.VulkanSupported() {
		return nil
	}
	return glfw.GetRequiredInstanceExtensions()
}

// OpenWindow creates a GLFW window configured for Vulkan (no client API,
// matching dieselvk_test's WindowHint(ClientAPI, NoAPI)) and resizable by
// default.
func OpenWindow(title string, width, height int) (*Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.True)

	handle, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: create window: %w", err)
	}
	return &Window{handle: handle}, nil
}

// CreateSurface creates the VkSurfaceKHR for this window against instance,
// per dieselvk/display.go's CoreDisplay.GetVulkanSurface.
func (w *Window) CreateSurface(instance *Instance) (vk.Surface, error) {
	surfacePtr, err := w.handle.CreateWindowSurface(&instance.handle, nil)
	if err != nil {
		return vk.NullSurface, fmt.Errorf("gpu: create window surface: %w", err)
	}
	w.surface = vk.SurfaceFromPointer(surfacePtr)
	return w.surface, nil
}

// Size reports the current framebuffer size, per CoreDisplay.GetSize.
func (w *Window) Size() (int, int) {
	return w.handle.GetFramebufferSize()
}

// ShouldClose reports whether the window's close flag was set (user
// clicked the close button, or Alt+F4 etc.), mirroring dieselvk_test's
// render loop condition.
func (w *Window) ShouldClose() bool {
	return w.handle.ShouldClose()
}

// Destroy destroys the surface (if created) and the underlying window.
func (w *Window) Destroy(instance *Instance) {
	if w.surface != vk.NullSurface {
		vk.DestroySurface(instance.handle, w.surface, nil)
	}
	w.handle.Destroy()
}

// PollEvents pumps the GLFW event queue; must be called once per frame
// from the thread glfw.Init() was called on.
func PollEvents() {
	glfw.PollEvents()
}
