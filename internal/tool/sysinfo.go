package tool

import (
	"context"
	"os"
	"runtime"
	"time"
)

// SysInfoTool reports basic host information: OS, architecture, hostname,
// working directory, Go runtime stats. Useful as an always-available tool
// with a structured (non-string) result.
type SysInfoTool struct {
	started time.Time
}

func NewSysInfoTool() *SysInfoTool {
	return &SysInfoTool{started: time.Now()}
}

func (t *SysInfoTool) Name() string { return "system_info" }
func (t *SysInfoTool) Description() string {
	return "Get information about the host system: OS, architecture, hostname, CPU count, process uptime."
}

func (t *SysInfoTool) Parameters() map[string]any {
	return ToolParameters(map[string]Param{}, nil)
}

func (t *SysInfoTool) Validate(args map[string]any) bool { return true }

func (t *SysInfoTool) Execute(ctx context.Context, args map[string]any, conf map[string]any) (any, error) {
	hostname, _ := os.Hostname()
	wd, _ := os.Getwd()
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]any{
		"os":             runtime.GOOS,
		"arch":           runtime.GOARCH,
		"hostname":       hostname,
		"working_dir":    wd,
		"num_cpu":        runtime.NumCPU(),
		"go_version":     runtime.Version(),
		"goroutines":     runtime.NumGoroutine(),
		"heap_alloc_mb":  mem.HeapAlloc / 1024 / 1024,
		"uptime_seconds": int64(time.Since(t.started).Seconds()),
	}, nil
}
