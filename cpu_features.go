package matbench

import (
	"runtime"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sys/cpu"
)

// HostInfo describes the machine a benchmark ran on
type HostInfo struct {
	GOOS      string   `json:"goos"`
	GOARCH    string   `json:"goarch"`
	NumCPU    int      `json:"num_cpu"`
	GoVersion string   `json:"go_version"`
	Features  []string `json:"features,omitempty"`
}

type cpuFeature struct {
	name    string
	present bool
}

// detectCPUFeatures lists the SIMD extensions relevant to float64 kernels
func detectCPUFeatures() []string {
	features := []cpuFeature{
		{"SSE4", cpu.X86.HasSSE41 || cpu.X86.HasSSE42},
		{"AVX", cpu.X86.HasAVX},
		{"AVX2", cpu.X86.HasAVX2},
		{"FMA", cpu.X86.HasFMA},
		{"AVX512F", cpu.X86.HasAVX512F},
		{"NEON", cpu.ARM64.HasASIMD},
		{"SVE", cpu.ARM64.HasSVE},
	}
	present := lo.Filter(features, func(f cpuFeature, _ int) bool { return f.present })
	return lo.Map(present, func(f cpuFeature, _ int) string { return f.name })
}

// DetectHost probes the running machine
func DetectHost() HostInfo {
	return HostInfo{
		GOOS:      runtime.GOOS,
		GOARCH:    runtime.GOARCH,
		NumCPU:    runtime.NumCPU(),
		GoVersion: runtime.Version(),
		Features:  detectCPUFeatures(),
	}
}

// FeatureString returns a comma separated feature list
func (h HostInfo) FeatureString() string {
	if len(h.Features) == 0 {
		return "none"
	}
	return strings.Join(h.Features, ",")
}
