package gpu

import vk "github.com/vulkan-go/vulkan"

// TimestampQuery wraps a timestamp query pool (spec §6.2/§6.3
// create_timestamp_query/reset_timestamp_query/write_timestamp/
// get_timestamp_query_result). No teacher/corpus analogue; grounded
// directly on original_source/ashura/gpu/vulkan.cc's query pool shape.
type TimestampQuery struct {
	handle vk.QueryPool
	count  uint32
}

func (d *Device) CreateTimestampQuery(count uint32) (*TimestampQuery, error) {
	invariant(count > 0, "gpu: timestamp query count must be > 0")
	var handle vk.QueryPool
	ret := vk.CreateQueryPool(d.handle, &vk.QueryPoolCreateInfo{
		SType:      vk.StructureTypeQueryPoolCreateInfo,
		QueryType:  vk.QueryTypeTimestamp,
		QueryCount: count,
	}, nil, &handle)
	if err := checkResult(ret); err != nil {
		return nil, err
	}
	return &TimestampQuery{handle: handle, count: count}, nil
}

func (d *Device) UninitTimestampQuery(q *TimestampQuery) {
	if q == nil {
		return
	}
	vk.DestroyQueryPool(d.handle, q.handle, nil)
}

// ResetTimestampQuery resets the full query range on the given encoder,
// which must be called outside any pass (§6.3 reset_timestamp_query).
func (e *CommandEncoder) ResetTimestampQuery(q *TimestampQuery) {
	if !e.ok() || e.state != EncoderReset {
		e.fail(StatusInitializationFailed)
		return
	}
	vk.CmdResetQueryPool(e.cmd, q.handle, 0, q.count)
}

// WriteTimestamp writes a GPU timestamp at the given pipeline stage into
// query index (§6.3 write_timestamp).
func (e *CommandEncoder) WriteTimestamp(q *TimestampQuery, stage vk.PipelineStageFlagBits, index uint32) {
	if !e.ok() {
		return
	}
	invariant(index < q.count, "gpu: timestamp query index out of range")
	vk.CmdWriteTimestamp(e.cmd, stage, q.handle, index)
}

// GetTimestampQueryResult implements §6.2 get_timestamp_query_result:
// reads back 64-bit timestamps with the wait bit set (no availability
// word is requested), per the original's documented query semantics.
func (d *Device) GetTimestampQueryResult(q *TimestampQuery, first, count uint32) ([]uint64, error) {
	invariant(first+count <= q.count, "gpu: timestamp query range out of bounds")
	data := make([]uint64, count)
	ret := vk.GetQueryPoolResults(d.handle, q.handle, first, count, uint(count)*8, data,
		8, vk.QueryResultFlags(vk.QueryResult64Bit)|vk.QueryResultFlags(vk.QueryResultWaitBit))
	if err := checkResult(ret); err != nil {
		return nil, err
	}
	return data, nil
}

// StatisticsQuery wraps a pipeline-statistics query pool (spec §6.2/§6.3
// create_statistics_query/reset_statistics_query/begin_statistics/
// end_statistics/get_statistics_query_result).
type StatisticsQuery struct {
	handle vk.QueryPool
	count  uint32
}

func (d *Device) CreateStatisticsQuery(count uint32) (*StatisticsQuery, error) {
	invariant(count > 0, "gpu: statistics query count must be > 0")
	var handle vk.QueryPool
	ret := vk.CreateQueryPool(d.handle, &vk.QueryPoolCreateInfo{
		SType:      vk.StructureTypeQueryPoolCreateInfo,
		QueryType:  vk.QueryTypePipelineStatistics,
		QueryCount: count,
		PipelineStatistics: vk.QueryPipelineStatisticFlags(vk.QueryPipelineStatisticInputAssemblyVerticesBit) |
			vk.QueryPipelineStatisticFlags(vk.QueryPipelineStatisticInputAssemblyPrimitivesBit) |
			vk.QueryPipelineStatisticFlags(vk.QueryPipelineStatisticVertexShaderInvocationsBit) |
			vk.QueryPipelineStatisticFlags(vk.QueryPipelineStatisticClippingInvocationsBit) |
			vk.QueryPipelineStatisticFlags(vk.QueryPipelineStatisticClippingPrimitivesBit) |
			vk.QueryPipelineStatisticFlags(vk.QueryPipelineStatisticFragmentShaderInvocationsBit) |
			vk.QueryPipelineStatisticFlags(vk.QueryPipelineStatisticComputeShaderInvocationsBit),
	}, nil, &handle)
	if err := checkResult(ret); err != nil {
		return nil, err
	}
	return &StatisticsQuery{handle: handle, count: count}, nil
}

func (d *Device) UninitStatisticsQuery(q *StatisticsQuery) {
	if q == nil {
		return
	}
	vk.DestroyQueryPool(d.handle, q.handle, nil)
}

func (e *CommandEncoder) ResetStatisticsQuery(q *StatisticsQuery) {
	if !e.ok() || e.state != EncoderReset {
		e.fail(StatusInitializationFailed)
		return
	}
	vk.CmdResetQueryPool(e.cmd, q.handle, 0, q.count)
}

func (e *CommandEncoder) BeginStatistics(q *StatisticsQuery, index uint32) {
	if !e.ok() {
		return
	}
	vk.CmdBeginQuery(e.cmd, q.handle, index, 0)
}

func (e *CommandEncoder) EndStatistics(q *StatisticsQuery, index uint32) {
	if !e.ok() {
		return
	}
	vk.CmdEndQuery(e.cmd, q.handle, index)
}

func (d *Device) GetStatisticsQueryResult(q *StatisticsQuery, index uint32) ([]uint64, error) {
	const numStatistics = 7
	data := make([]uint64, numStatistics)
	ret := vk.GetQueryPoolResults(d.handle, q.handle, index, 1, numStatistics*8, data,
		8, vk.QueryResultFlags(vk.QueryResult64Bit)|vk.QueryResultFlags(vk.QueryResultWaitBit))
	if err := checkResult(ret); err != nil {
		return nil, err
	}
	return data, nil
}

// BeginDebugMarker/EndDebugMarker implement §6.3's debug-marker pair,
// grounded on VK_EXT_debug_utils label scoping.
func (e *CommandEncoder) BeginDebugMarker(name string, color [4]float32) {
	if !e.ok() {
		return
	}
	vk.CmdBeginDebugUtilsLabelEXT(e.cmd, &vk.DebugUtilsLabelEXT{
		SType:      vk.StructureTypeDebugUtilsLabelExt,
		PLabelName: name + "\x00",
		Color:      color,
	})
}

func (e *CommandEncoder) EndDebugMarker() {
	if !e.ok() {
		return
	}
	vk.CmdEndDebugUtilsLabelEXT(e.cmd)
}
