// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingest

import (
	"encoding/json"
	"fmt"
)

// rawFrame is the JSON shape of one StackSummary element.
type rawFrame struct {
	Filename           uint32  `json:"filename"`
	Line               int32   `json:"line"`
	Name               string  `json:"name"`
	UninternedFilename *string `json:"uninterned_filename,omitempty"`
}

func (f rawFrame) toFrameSummary() FrameSummary {
	fs := FrameSummary{FilenameId: f.Filename, Line: f.Line, Name: f.Name}
	if f.UninternedFilename != nil {
		fs.UninternedFilename = *f.UninternedFilename
	}
	return fs
}

// strRecord is the JSON shape of the `str` interning record: a 2-element
// array `[string, id]`, not an object.
type strRecord struct {
	Name string
	Id   uint32
}

func (s *strRecord) UnmarshalJSON(b []byte) error {
	var tuple [2]json.RawMessage
	if err := json.Unmarshal(b, &tuple); err != nil {
		return err
	}
	if err := json.Unmarshal(tuple[0], &s.Name); err != nil {
		return err
	}
	return json.Unmarshal(tuple[1], &s.Id)
}

type emptyMeta struct{}

type graphDumpMeta struct {
	Name string `json:"name"`
}

type dynamoOutputGraphMeta struct{}

type dynamoStartMeta struct {
	Stack []rawFrame `json:"stack,omitempty"`
}

type inductorOutputCodeMeta struct {
	Filename *string `json:"filename,omitempty"`
}

type linkMeta struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type artifactMeta struct {
	Name     string `json:"name"`
	Encoding string `json:"encoding"`
}

type optimizeDdpSplitChildMeta struct {
	Name string `json:"name"`
}

type dumpFileMeta struct {
	Name string `json:"name"`
}

type compilationMetricsJSON struct {
	CoName                   *string  `json:"co_name,omitempty"`
	CoFilename               *string  `json:"co_filename,omitempty"`
	CoFirstLineNo            *int32   `json:"co_firstlineno,omitempty"`
	CacheSize                *uint64  `json:"cache_size,omitempty"`
	AccumulatedCacheSize     *uint64  `json:"accumulated_cache_size,omitempty"`
	GuardCount               *uint64  `json:"guard_count,omitempty"`
	ShapeEnvGuardCount       *uint64  `json:"shape_env_guard_count,omitempty"`
	GraphOpCount             *uint64  `json:"graph_op_count,omitempty"`
	GraphNodeCount           *uint64  `json:"graph_node_count,omitempty"`
	GraphInputCount          *uint64  `json:"graph_input_count,omitempty"`
	StartTime                *float64 `json:"start_time,omitempty"`
	EntireFrameCompileTimeS  *float64 `json:"entire_frame_compile_time_s,omitempty"`
	BackendCompileTimeS      *float64 `json:"backend_compile_time_s,omitempty"`
	InductorCompileTimeS     *float64 `json:"inductor_compile_time_s,omitempty"`
	CodeGenTimeS             *float64 `json:"code_gen_time_s,omitempty"`
	FailType                 *string  `json:"fail_type,omitempty"`
	FailReason               *string  `json:"fail_reason,omitempty"`
	FailUserFrameFilename    *string  `json:"fail_user_frame_filename,omitempty"`
	FailUserFrameLineNo      *uint32  `json:"fail_user_frame_lineno,omitempty"`
	NonCompliantOps          []string `json:"non_compliant_ops,omitempty"`
	CompliantCustomOps       []string `json:"compliant_custom_ops,omitempty"`
	RestartReasons           []string `json:"restart_reasons,omitempty"`
	DynamoTimeBeforeRestartS *float64 `json:"dynamo_time_before_restart_s,omitempty"`
}

func (m *compilationMetricsJSON) toMetrics() *CompilationMetrics {
	return &CompilationMetrics{
		CoName: m.CoName, CoFilename: m.CoFilename, CoFirstLineNo: m.CoFirstLineNo,
		CacheSize: m.CacheSize, AccumulatedCacheSize: m.AccumulatedCacheSize,
		GuardCount: m.GuardCount, ShapeEnvGuardCount: m.ShapeEnvGuardCount,
		GraphOpCount: m.GraphOpCount, GraphNodeCount: m.GraphNodeCount, GraphInputCount: m.GraphInputCount,
		StartTime: m.StartTime, EntireFrameCompileTimeS: m.EntireFrameCompileTimeS,
		BackendCompileTimeS: m.BackendCompileTimeS, InductorCompileTimeS: m.InductorCompileTimeS,
		CodeGenTimeS: m.CodeGenTimeS, FailType: m.FailType, FailReason: m.FailReason,
		FailUserFrameFilename: m.FailUserFrameFilename, FailUserFrameLineNo: m.FailUserFrameLineNo,
		NonCompliantOps: m.NonCompliantOps, CompliantCustomOps: m.CompliantCustomOps,
		RestartReasons: m.RestartReasons, DynamoTimeBeforeRestartS: m.DynamoTimeBeforeRestartS,
	}
}

type bwdCompilationMetricsJSON struct {
	InductorCompileTimeS *float64 `json:"inductor_compile_time_s,omitempty"`
	CodeGenTimeS         *float64 `json:"code_gen_time_s,omitempty"`
	FailType             *string  `json:"fail_type,omitempty"`
	FailReason           *string  `json:"fail_reason,omitempty"`
}

type aotAutogradBackwardMetricsJSON struct {
	StartTime   *float64 `json:"start_time,omitempty"`
	ElapsedTime *float64 `json:"elapsed_time,omitempty"`
	FailType    *string  `json:"fail_type,omitempty"`
	FailReason  *string  `json:"fail_reason,omitempty"`
}

type symbolicShapeSpecializationJSON struct {
	Symbol    *string    `json:"symbol,omitempty"`
	Sources   []string   `json:"sources,omitempty"`
	Value     *string    `json:"value,omitempty"`
	Reason    *string    `json:"reason,omitempty"`
	Stack     []rawFrame `json:"stack,omitempty"`
	UserStack []rawFrame `json:"user_stack,omitempty"`
}

type dynamoGuard struct {
	Code      string     `json:"code"`
	Stack     []rawFrame `json:"stack,omitempty"`
	UserStack []rawFrame `json:"user_stack,omitempty"`
}

// describeStorageMeta, describeTensorMeta, describeSourceMeta are the
// tensor-metadata-describer records supplemented from original_source/
// (see SPEC_FULL.md §12.2). Only the fields below are decoded and any
// others are dropped; the describer analyzers read only Id, to name
// their output file, and dump the payload itself.
type describeStorageMeta struct {
	Id           uint64 `json:"id"`
	DescriberId  uint64 `json:"describer_id"`
	Size         uint64 `json:"size"`
}

type describeTensorMeta struct {
	Id          uint64   `json:"id"`
	DescriberId uint64   `json:"describer_id"`
	Ndim        uint64   `json:"ndim"`
	Dtype       string   `json:"dtype"`
	Device      string   `json:"device"`
	Size        []string `json:"size"`
}

type describeSourceMeta struct {
	Id          uint64 `json:"id"`
	DescriberId uint64 `json:"describer_id"`
	Source      string `json:"source"`
}

// rawEnvelope is the full JSON shape of one decoded log line. Every field
// is optional; `str` is mutually exclusive with everything else per the
// spec's data model.
type rawEnvelope struct {
	Rank           *uint32 `json:"rank,omitempty"`
	FrameId        *uint32 `json:"frame_id,omitempty"`
	FrameCompileId *uint32 `json:"frame_compile_id,omitempty"`
	Attempt        *uint32 `json:"attempt,omitempty"`
	HasPayload     *string `json:"has_payload,omitempty"`

	Stack []rawFrame `json:"stack,omitempty"`

	Str *strRecord `json:"str,omitempty"`

	OptimizeDdpSplitGraph *emptyMeta `json:"optimize_ddp_split_graph,omitempty"`
	CompiledAutogradGraph *emptyMeta `json:"compiled_autograd_graph,omitempty"`
	AotForwardGraph       *emptyMeta `json:"aot_forward_graph,omitempty"`
	AotBackwardGraph      *emptyMeta `json:"aot_backward_graph,omitempty"`
	AotJointGraph         *emptyMeta `json:"aot_joint_graph,omitempty"`
	InductorPostGradGraph *emptyMeta `json:"inductor_post_grad_graph,omitempty"`
	DynamoCppGuardsStr    *emptyMeta `json:"dynamo_cpp_guards_str,omitempty"`
	DynamoGuards          *emptyMeta `json:"dynamo_guards,omitempty"`
	ChromiumEvent         *emptyMeta `json:"chromium_event,omitempty"`

	GraphDump             *graphDumpMeta                   `json:"graph_dump,omitempty"`
	DynamoOutputGraph     *dynamoOutputGraphMeta           `json:"dynamo_output_graph,omitempty"`
	DynamoStart           *dynamoStartMeta                 `json:"dynamo_start,omitempty"`
	InductorOutputCode    *inductorOutputCodeMeta          `json:"inductor_output_code,omitempty"`
	OptimizeDdpSplitChild *optimizeDdpSplitChildMeta       `json:"optimize_ddp_split_child,omitempty"`
	CompilationMetrics    *compilationMetricsJSON          `json:"compilation_metrics,omitempty"`
	BwdCompilationMetrics *bwdCompilationMetricsJSON       `json:"bwd_compilation_metrics,omitempty"`
	AOTAutogradBackwardCompilationMetrics *aotAutogradBackwardMetricsJSON `json:"aot_autograd_backward_compilation_metrics,omitempty"`
	Link                        *linkMeta                        `json:"link,omitempty"`
	Artifact                    *artifactMeta                    `json:"artifact,omitempty"`
	DumpFile                    *dumpFileMeta                    `json:"dump_file,omitempty"`
	SymbolicShapeSpecialization *symbolicShapeSpecializationJSON `json:"symbolic_shape_specialization,omitempty"`
	DescribeStorage             *describeStorageMeta             `json:"describe_storage,omitempty"`
	DescribeTensor              *describeTensorMeta              `json:"describe_tensor,omitempty"`
	DescribeSource              *describeSourceMeta              `json:"describe_source,omitempty"`
}

// knownEnvelopeFields lists every JSON key rawEnvelope recognizes, used to
// compute the "unknown fields" side map the spec requires.
var knownEnvelopeFields = map[string]bool{
	"rank": true, "frame_id": true, "frame_compile_id": true, "attempt": true,
	"has_payload": true, "stack": true, "str": true,
	"optimize_ddp_split_graph": true, "compiled_autograd_graph": true,
	"aot_forward_graph": true, "aot_backward_graph": true, "aot_joint_graph": true,
	"inductor_post_grad_graph": true, "dynamo_cpp_guards_str": true, "dynamo_guards": true,
	"chromium_event": true, "graph_dump": true, "dynamo_output_graph": true,
	"dynamo_start": true, "inductor_output_code": true, "optimize_ddp_split_child": true,
	"compilation_metrics": true, "bwd_compilation_metrics": true,
	"aot_autograd_backward_compilation_metrics": true, "link": true, "artifact": true,
	"dump_file": true, "symbolic_shape_specialization": true,
	"describe_storage": true, "describe_tensor": true, "describe_source": true,
}

// Envelope is the decoded JSON object carried by one surviving log record
// (C2's output). It is the input to the rank gate, the intern table, and
// the record dispatcher.
type Envelope struct {
	Rank       *uint32
	CompileId  OptCompileId
	HasPayload string // 32 lowercase hex chars, or "" if absent
	Stack      StackSummary

	Str *strRecord

	OptimizeDdpSplitGraph bool
	CompiledAutogradGraph bool
	AotForwardGraph       bool
	AotBackwardGraph      bool
	AotJointGraph         bool
	InductorPostGradGraph bool
	DynamoCppGuardsStr    bool
	DynamoGuards          bool
	ChromiumEvent         bool

	GraphDump             *graphDumpMeta
	DynamoOutputGraph     bool
	DynamoStart           *dynamoStartMeta
	InductorOutputCode    *inductorOutputCodeMeta
	OptimizeDdpSplitChild *optimizeDdpSplitChildMeta
	CompilationMetrics    *CompilationMetrics
	BwdCompilationMetrics *BwdCompilationMetrics
	AOTAutogradBackwardCompilationMetrics *AOTAutogradBackwardCompilationMetrics
	Link                        *linkMeta
	Artifact                    *artifactMeta
	DumpFile                    *dumpFileMeta
	SymbolicShapeSpecialization *SymbolicShapeSpecialization
	DescribeStorage             *describeStorageMeta
	DescribeTensor              *describeTensorMeta
	DescribeSource              *describeSourceMeta

	// UnknownFields lists the JSON keys on this line that were not
	// recognized by any of the fields above (the "unknown" side map in
	// §3's data model).
	UnknownFields []string
}

func toStackSummary(frames []rawFrame) StackSummary {
	if frames == nil {
		return nil
	}
	out := make(StackSummary, len(frames))
	for i, f := range frames {
		out[i] = f.toFrameSummary()
	}
	return out
}

// decodeEnvelope parses the JSON payload of one glog-prefixed line into an
// Envelope. A decode error here is reported to the caller as fail_json.
func decodeEnvelope(payload []byte) (*Envelope, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var generic map[string]json.RawMessage
	if err := json.Unmarshal(payload, &generic); err != nil {
		return nil, fmt.Errorf("decode envelope fields: %w", err)
	}
	var unknown []string
	for k := range generic {
		if !knownEnvelopeFields[k] {
			unknown = append(unknown, k)
		}
	}

	e := &Envelope{
		Rank:          raw.Rank,
		UnknownFields: unknown,
	}
	if raw.FrameId != nil && raw.FrameCompileId != nil {
		attempt := uint32(0)
		if raw.Attempt != nil {
			attempt = *raw.Attempt
		}
		e.CompileId = Some(CompileId{FrameId: *raw.FrameId, FrameCompileId: *raw.FrameCompileId, Attempt: attempt})
	}
	if raw.HasPayload != nil {
		e.HasPayload = *raw.HasPayload
	}
	e.Stack = toStackSummary(raw.Stack)
	e.Str = raw.Str
	e.OptimizeDdpSplitGraph = raw.OptimizeDdpSplitGraph != nil
	e.CompiledAutogradGraph = raw.CompiledAutogradGraph != nil
	e.AotForwardGraph = raw.AotForwardGraph != nil
	e.AotBackwardGraph = raw.AotBackwardGraph != nil
	e.AotJointGraph = raw.AotJointGraph != nil
	e.InductorPostGradGraph = raw.InductorPostGradGraph != nil
	e.DynamoCppGuardsStr = raw.DynamoCppGuardsStr != nil
	e.DynamoGuards = raw.DynamoGuards != nil
	e.ChromiumEvent = raw.ChromiumEvent != nil
	e.GraphDump = raw.GraphDump
	e.DynamoOutputGraph = raw.DynamoOutputGraph != nil
	e.DynamoStart = raw.DynamoStart
	e.InductorOutputCode = raw.InductorOutputCode
	e.OptimizeDdpSplitChild = raw.OptimizeDdpSplitChild
	if raw.CompilationMetrics != nil {
		e.CompilationMetrics = raw.CompilationMetrics.toMetrics()
	}
	if raw.BwdCompilationMetrics != nil {
		m := raw.BwdCompilationMetrics
		e.BwdCompilationMetrics = &BwdCompilationMetrics{
			InductorCompileTimeS: m.InductorCompileTimeS, CodeGenTimeS: m.CodeGenTimeS,
			FailType: m.FailType, FailReason: m.FailReason,
		}
	}
	if raw.AOTAutogradBackwardCompilationMetrics != nil {
		m := raw.AOTAutogradBackwardCompilationMetrics
		e.AOTAutogradBackwardCompilationMetrics = &AOTAutogradBackwardCompilationMetrics{
			StartTime: m.StartTime, ElapsedTime: m.ElapsedTime, FailType: m.FailType, FailReason: m.FailReason,
		}
	}
	e.Link = raw.Link
	e.Artifact = raw.Artifact
	e.DumpFile = raw.DumpFile
	if raw.SymbolicShapeSpecialization != nil {
		s := raw.SymbolicShapeSpecialization
		spec := &SymbolicShapeSpecialization{Sources: s.Sources, Stack: toStackSummary(s.Stack), UserStack: toStackSummary(s.UserStack)}
		if s.Symbol != nil {
			spec.Symbol = *s.Symbol
		}
		if s.Value != nil {
			spec.Value = *s.Value
		}
		if s.Reason != nil {
			spec.Reason = *s.Reason
		}
		e.SymbolicShapeSpecialization = spec
	}
	e.DescribeStorage = raw.DescribeStorage
	e.DescribeTensor = raw.DescribeTensor
	e.DescribeSource = raw.DescribeSource

	return e, nil
}
