package gpu

import (
	"fmt"
	"runtime"

	vk "github.com/vulkan-go/vulkan"
)

// Status is the engine-level error kind surfaced from creation and
// frame-level APIs (spec §7). It deliberately does not expose raw
// vk.Result values to callers outside this package.
type Status int

const (
	StatusSuccess Status = iota
	StatusOutOfHostMemory
	StatusOutOfDeviceMemory
	StatusInitializationFailed
	StatusDeviceLost
	StatusSurfaceLost
	StatusExtensionNotPresent
	StatusFeatureNotPresent
	StatusFormatNotSupported
	StatusOutOfDate
	StatusSuboptimal
	StatusFragmented
	StatusTooManyObjects
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusOutOfHostMemory:
		return "OutOfHostMemory"
	case StatusOutOfDeviceMemory:
		return "OutOfDeviceMemory"
	case StatusInitializationFailed:
		return "InitializationFailed"
	case StatusDeviceLost:
		return "DeviceLost"
	case StatusSurfaceLost:
		return "SurfaceLost"
	case StatusExtensionNotPresent:
		return "ExtensionNotPresent"
	case StatusFeatureNotPresent:
		return "FeatureNotPresent"
	case StatusFormatNotSupported:
		return "FormatNotSupported"
	case StatusOutOfDate:
		return "OutOfDate"
	case StatusSuboptimal:
		return "Suboptimal"
	case StatusFragmented:
		return "Fragmented"
	case StatusTooManyObjects:
		return "TooManyObjects"
	default:
		return "Unknown"
	}
}

// StatusError wraps a Status with the vulkan result and the call site that
// produced it, generalizing the teacher's newError/runtime.Caller pattern.
type StatusError struct {
	Status Status
	Result vk.Result
	frame  string
}

func (e *StatusError) Error() string {
	if e.frame != "" {
		return fmt.Sprintf("ashura/gpu: %s (vk.Result=%d) at %s", e.Status, e.Result, e.frame)
	}
	return fmt.Sprintf("ashura/gpu: %s (vk.Result=%d)", e.Status, e.Result)
}

func statusFromResult(ret vk.Result) Status {
	switch ret {
	case vk.Success:
		return StatusSuccess
	case vk.ErrorOutOfHostMemory:
		return StatusOutOfHostMemory
	case vk.ErrorOutOfDeviceMemory:
		return StatusOutOfDeviceMemory
	case vk.ErrorInitializationFailed:
		return StatusInitializationFailed
	case vk.ErrorDeviceLost:
		return StatusDeviceLost
	case vk.ErrorSurfaceLostKhr:
		return StatusSurfaceLost
	case vk.ErrorExtensionNotPresent:
		return StatusExtensionNotPresent
	case vk.ErrorFeatureNotPresent:
		return StatusFeatureNotPresent
	case vk.ErrorFormatNotSupported:
		return StatusFormatNotSupported
	case vk.ErrorOutOfDateKhr:
		return StatusOutOfDate
	case vk.SuboptimalKhr:
		return StatusSuboptimal
	case vk.ErrorFragmentedPool:
		return StatusFragmented
	case vk.ErrorTooManyObjects:
		return StatusTooManyObjects
	default:
		return StatusUnknown
	}
}

// isError reports whether ret indicates anything other than a clean
// success (vk.Suboptimal is treated as a surfaced flag, not an error, per
// spec §7 — checkResult also returns nil for it, so callers that care
// compare the raw vk.Result against vk.SuboptimalKhr themselves).
func isError(ret vk.Result) bool {
	return ret != vk.Success && ret != vk.SuboptimalKhr
}

// newStatusError builds a *StatusError capturing the immediate caller,
// mirroring the teacher's errors.go newError.
func newStatusError(ret vk.Result) *StatusError {
	frame := ""
	if pc, file, line, ok := runtime.Caller(1); ok {
		fn := runtime.FuncForPC(pc)
		name := "?"
		if fn != nil {
			name = fn.Name()
		}
		frame = fmt.Sprintf("%s (%s:%d)", name, file, line)
	}
	return &StatusError{Status: statusFromResult(ret), Result: ret, frame: frame}
}

// checkResult turns a non-success vk.Result into an error, or nil.
func checkResult(ret vk.Result) error {
	if isError(ret) {
		return newStatusError(ret)
	}
	return nil
}

// invariant panics with a diagnostic if cond is false. Used for contract
// violations that spec §7 calls out as bugs rather than recoverable
// errors (Fragmented/TooManyObjects from the descriptor heap, malformed
// render-pass recordings, out-of-range resource accesses).
func invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
