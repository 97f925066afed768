// Command ashuradisplay is a minimal windowed smoke test for the gpu
// package: it opens a GLFW window, brings up a Vulkan instance/device
// against it, and clears the swapchain to a flat color every frame until
// the window is closed. Grounded on the teacher's dieselvk_test render
// loop (runtime.LockOSThread + glfw.Init/PollEvents/ShouldClose) and
// asche/platform.go's instance bring-up sequence.
package main

import (
	"log"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"

	"github.com/ashura-engine/ashura/gpu"
)

func init() {
	// GLFW and most of the Vulkan instance-creation path must run on the
	// OS thread that owns the window, per the teacher's render_test.go.
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		return err
	}

	window, err := gpu.OpenWindow("ashura", 1280, 720)
	if err != nil {
		return err
	}

	logger := gpu.NewDiscardLogger()

	instance, err := gpu.CreateInstance(gpu.InstanceConfig{
		ApplicationName:    "ashuradisplay",
		EnableValidation:   false,
		RequiredExtensions: gpu.RequiredInstanceExtensions(),
		Logger:             logger,
	})
	if err != nil {
		return err
	}
	defer instance.Destroy()

	surface, err := window.CreateSurface(instance)
	if err != nil {
		return err
	}
	defer window.Destroy(instance)

	device, err := instance.CreateDevice(nil, 3, []string{"VK_KHR_swapchain"}, logger)
	if err != nil {
		return err
	}
	defer device.Destroy()

	swapchain := gpu.NewSwapchain(device, surface, gpu.SwapchainInfo{
		PreferredBuffering: 2,
		Format:             vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		Usage:              vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		CompositeAlpha:     vk.CompositeAlphaOpaqueBit,
		PresentMode:        vk.PresentModeFifo,
	})
	defer swapchain.Destroy()

	frames, err := gpu.NewFrameContext(device, device.Buffering())
	if err != nil {
		return err
	}
	defer frames.Destroy()

	clear := vk.NewClearValue([]float32{0.05, 0.05, 0.08, 1.0})

	for !window.ShouldClose() {
		glfw.PollEvents()

		if err := frames.BeginFrame(swapchain); err != nil {
			return err
		}
		if swapchain.IsZeroSized() {
			// Nothing to draw into, but the frame is still submitted so the
			// slot's fence is signaled again for its next BeginFrame.
			if err := frames.SubmitFrame(swapchain); err != nil {
				return err
			}
			continue
		}

		width, height := window.Size()
		encoder := frames.Encoder()
		img := swapchain.Images()[swapchain.CurrentImage()]
		view := swapchain.ImageViews()[swapchain.CurrentImage()]

		encoder.BeginRendering(gpu.RenderingInfo{
			Area:   vk.Rect2D{Extent: vk.Extent2D{Width: uint32(width), Height: uint32(height)}},
			Layers: 1,
			Color: []gpu.ColorAttachment{{
				View:       view,
				Image:      img,
				Layout:     vk.ImageLayoutColorAttachmentOptimal,
				LoadOp:     vk.AttachmentLoadOpClear,
				StoreOp:    vk.AttachmentStoreOpStore,
				ClearValue: clear,
			}},
		})
		encoder.EndRendering()

		if err := frames.SubmitFrame(swapchain); err != nil {
			return err
		}
	}

	return device.WaitIdle()
}
