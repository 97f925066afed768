package gpu

import (
	"strings"

	vk "github.com/vulkan-go/vulkan"
)

// DeviceType mirrors VkPhysicalDeviceType ordering preference (spec §6.1:
// "the first device of each preferred type").
type DeviceType int

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegratedGPU
	DeviceTypeDiscreteGPU
	DeviceTypeVirtualGPU
	DeviceTypeCPU
)

func deviceTypeFromVk(t vk.PhysicalDeviceType) DeviceType {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return DeviceTypeIntegratedGPU
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return DeviceTypeDiscreteGPU
	case vk.PhysicalDeviceTypeVirtualGpu:
		return DeviceTypeVirtualGPU
	case vk.PhysicalDeviceTypeCpu:
		return DeviceTypeCPU
	default:
		return DeviceTypeOther
	}
}

// Properties surfaces the subset of device properties/limits the engine
// consults, per spec §6.1.
type Properties struct {
	APIVersion               uint32
	DriverVersion             uint32
	VendorID                  uint32
	DeviceID                  uint32
	DeviceName                string
	Type                      DeviceType
	HasUnifiedMemory          bool
	HasNonSolidFillMode       bool
	UniformBufferOffsetAlignment uint64
	StorageBufferOffsetAlignment uint64
	TimestampPeriod           float32
	MaxComputeWorkGroupCount  [3]uint32
	MaxComputeWorkGroupSize   [3]uint32
	MaxComputeWorkGroupInvocations uint32
	MaxUniformBufferRange     uint32
}

// Instance owns the VkInstance and the allocator/validation configuration
// it was created with (spec §6.1 create_instance). Grounded on the
// teacher's core.go CreateGraphicsInstance / platform.go NewPlatform
// instance-creation call shape.
type Instance struct {
	handle             vk.Instance
	validationEnabled  bool
	logger             *Logger
}

// InstanceConfig selects validation and the instance-level extensions to
// request (generalizes the teacher's BaseInstanceExtensions).
type InstanceConfig struct {
	ApplicationName    string
	EngineName         string
	EnableValidation   bool
	RequiredExtensions []string
	Logger             *Logger
}

// CreateInstance implements spec §6.1 create_instance, grounded on
// core.go's CreateGraphicsInstance and platform.go's NewPlatform.
func CreateInstance(cfg InstanceConfig) (*Instance, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = NewDiscardLogger()
	}

	layers := []string{}
	if cfg.EnableValidation {
		layers = append(layers, "VK_LAYER_KHRONOS_validation")
	}

	extensions := append([]string{}, cfg.RequiredExtensions...)
	if cfg.EnableValidation {
		extensions = append(extensions, "VK_EXT_debug_utils")
	}

	cLayers := toCStrings(layers)
	cExtensions := toCStrings(extensions)

	appName := cfg.ApplicationName
	if appName == "" {
		appName = "ashura"
	}
	engineName := cfg.EngineName
	if engineName == "" {
		engineName = "ashura"
	}

	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			PApplicationName:   appName + "\x00",
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			PEngineName:        engineName + "\x00",
			EngineVersion:      vk.MakeVersion(1, 0, 0),
			ApiVersion:         vk.MakeVersion(1, 2, 0),
		},
		EnabledLayerCount:       uint32(len(cLayers)),
		PpEnabledLayerNames:     cLayers,
		EnabledExtensionCount:   uint32(len(cExtensions)),
		PpEnabledExtensionNames: cExtensions,
	}, nil, &instance)
	if err := checkResult(ret); err != nil {
		logger.Error.Printf("create_instance failed: %v", err)
		return nil, err
	}

	return &Instance{handle: instance, validationEnabled: cfg.EnableValidation, logger: logger}, nil
}

func (i *Instance) Handle() vk.Instance { return i.handle }

func (i *Instance) Destroy() {
	vk.DestroyInstance(i.handle, nil)
}

// Device owns a logical device, its selected physical device, a single
// combined graphics+compute+transfer queue (multi-queue scheduling is a
// spec Non-goal), and the descriptor/command infrastructure built on it.
// Grounded on the teacher's CoreDevice (device.go) and platform.go's
// basePlatform, narrowed from the teacher's optional separate-present-queue
// support down to one queue family, per the Non-goal.
type Device struct {
	instance       *Instance
	physicalDevice vk.PhysicalDevice
	handle         vk.Device
	queueFamily    uint32
	queue          vk.Queue
	memProps       vk.PhysicalDeviceMemoryProperties
	props          Properties
	logger         *Logger
	buffering      int
}

// CreateDevice implements spec §6.1 instance.create_device: picks the
// first physical device of each preferred type (in order) that has a
// queue family supporting GRAPHICS|COMPUTE|TRANSFER, then creates a
// logical device with that single queue. Grounded on platform.go's
// NewPlatform device/queue selection and queue.go's CoreQueue matching.
func (i *Instance) CreateDevice(preferredTypes []DeviceType, buffering int, requiredExtensions []string, logger *Logger) (*Device, error) {
	if logger == nil {
		logger = i.logger
	}
	if buffering < 1 {
		buffering = 1
	}
	if buffering > MaxFrameBuffering {
		buffering = MaxFrameBuffering
	}

	var count uint32
	vk.EnumeratePhysicalDevices(i.handle, &count, nil)
	if count == 0 {
		return nil, &StatusError{Status: StatusDeviceLost}
	}
	physicalDevices := make([]vk.PhysicalDevice, count)
	vk.EnumeratePhysicalDevices(i.handle, &count, physicalDevices)

	type candidate struct {
		physicalDevice vk.PhysicalDevice
		deviceType     DeviceType
		queueFamily    uint32
	}
	var candidates []candidate
	for _, pd := range physicalDevices {
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(pd, &props)
		props.Deref()

		var qFamilyCount uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(pd, &qFamilyCount, nil)
		qFamilies := make([]vk.QueueFamilyProperties, qFamilyCount)
		vk.GetPhysicalDeviceQueueFamilyProperties(pd, &qFamilyCount, qFamilies)

		required := vk.QueueFlags(vk.QueueGraphicsBit) | vk.QueueFlags(vk.QueueComputeBit) | vk.QueueFlags(vk.QueueTransferBit)
		for idx, qf := range qFamilies {
			qf.Deref()
			if qf.QueueFlags&required == required {
				candidates = append(candidates, candidate{
					physicalDevice: pd,
					deviceType:     deviceTypeFromVk(props.DeviceType),
					queueFamily:    uint32(idx),
				})
				break
			}
		}
	}

	if len(candidates) == 0 {
		logger.Error.Print("create_device: no device exposes a combined graphics/compute/transfer queue family")
		return nil, &StatusError{Status: StatusDeviceLost}
	}

	pickOrder := preferredTypes
	if len(pickOrder) == 0 {
		pickOrder = []DeviceType{DeviceTypeDiscreteGPU, DeviceTypeIntegratedGPU, DeviceTypeVirtualGPU, DeviceTypeCPU, DeviceTypeOther}
	}

	var chosen *candidate
	for _, wantType := range pickOrder {
		for idx := range candidates {
			if candidates[idx].deviceType == wantType {
				chosen = &candidates[idx]
				break
			}
		}
		if chosen != nil {
			break
		}
	}
	if chosen == nil {
		chosen = &candidates[0]
	}

	priorities := []float32{1.0}
	queueCreateInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: chosen.queueFamily,
		QueueCount:       1,
		PQueuePriorities: priorities,
	}

	cExtensions := toCStrings(requiredExtensions)

	var device vk.Device
	ret := vk.CreateDevice(chosen.physicalDevice, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    1,
		PQueueCreateInfos:       []vk.DeviceQueueCreateInfo{queueCreateInfo},
		EnabledExtensionCount:   uint32(len(cExtensions)),
		PpEnabledExtensionNames: cExtensions,
	}, nil, &device)
	if err := checkResult(ret); err != nil {
		logger.Error.Printf("create_device: vkCreateDevice failed: %v", err)
		return nil, err
	}

	var queue vk.Queue
	vk.GetDeviceQueue(device, chosen.queueFamily, 0, &queue)

	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(chosen.physicalDevice, &memProps)
	memProps.Deref()

	var rawProps vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(chosen.physicalDevice, &rawProps)
	rawProps.Deref()
	rawProps.Limits.Deref()

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(chosen.physicalDevice, &features)
	features.Deref()

	name := cDeviceName(rawProps.DeviceName)

	props := Properties{
		APIVersion:                     rawProps.ApiVersion,
		DriverVersion:                  rawProps.DriverVersion,
		VendorID:                       rawProps.VendorID,
		DeviceID:                       rawProps.DeviceID,
		DeviceName:                     name,
		Type:                           deviceTypeFromVk(rawProps.DeviceType),
		HasUnifiedMemory:               chosen.deviceType == DeviceTypeIntegratedGPU,
		HasNonSolidFillMode:            features.FillModeNonSolid != vk.False,
		UniformBufferOffsetAlignment:   rawProps.Limits.MinUniformBufferOffsetAlignment,
		StorageBufferOffsetAlignment:   rawProps.Limits.MinStorageBufferOffsetAlignment,
		TimestampPeriod:                rawProps.Limits.TimestampPeriod,
		MaxComputeWorkGroupCount:       rawProps.Limits.MaxComputeWorkGroupCount,
		MaxComputeWorkGroupSize:        rawProps.Limits.MaxComputeWorkGroupSize,
		MaxComputeWorkGroupInvocations: rawProps.Limits.MaxComputeWorkGroupInvocations,
		MaxUniformBufferRange:          rawProps.Limits.MaxUniformBufferRange,
	}

	return &Device{
		instance:       i,
		physicalDevice: chosen.physicalDevice,
		handle:         device,
		queueFamily:    chosen.queueFamily,
		queue:          queue,
		memProps:       memProps,
		props:          props,
		logger:         logger,
		buffering:      buffering,
	}, nil
}

func (d *Device) Handle() vk.Device                 { return d.handle }
func (d *Device) PhysicalDevice() vk.PhysicalDevice  { return d.physicalDevice }
func (d *Device) Queue() vk.Queue                    { return d.queue }
func (d *Device) QueueFamily() uint32                { return d.queueFamily }
func (d *Device) Properties() Properties             { return d.props }
func (d *Device) Buffering() int                     { return d.buffering }

// GetDeviceProperties implements spec §6.1 device.get_device_properties.
func (d *Device) GetDeviceProperties() Properties { return d.props }

func (d *Device) WaitIdle() error {
	return checkResult(vk.DeviceWaitIdle(d.handle))
}

func (d *Device) WaitQueueIdle() error {
	return checkResult(vk.QueueWaitIdle(d.queue))
}

func (d *Device) Destroy() {
	vk.DestroyDevice(d.handle, nil)
}

// findMemoryType mirrors the teacher's extensions.go
// FindRequiredMemoryType/FindRequiredMemoryTypeFallback, generalized into a
// single function with an explicit fallback flag set.
func (d *Device) findMemoryType(typeBits uint32, required, preferred vk.MemoryPropertyFlags) (uint32, bool) {
	for i := uint32(0); i < d.memProps.MemoryTypeCount; i++ {
		memType := d.memProps.MemoryTypes[i]
		if typeBits&(1<<i) == 0 {
			continue
		}
		if memType.PropertyFlags&(required|preferred) == (required | preferred) {
			return i, true
		}
	}
	for i := uint32(0); i < d.memProps.MemoryTypeCount; i++ {
		if typeBits&(1<<i) == 0 {
			continue
		}
		memType := d.memProps.MemoryTypes[i]
		if memType.PropertyFlags&required == required {
			return i, true
		}
	}
	return 0, false
}

func toCStrings(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		if strings.HasSuffix(v, "\x00") {
			out[i] = v
		} else {
			out[i] = v + "\x00"
		}
	}
	return out
}

func cDeviceName(raw [256]byte) string {
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	return string(raw[:n])
}
