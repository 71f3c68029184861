// Package diagnostics runs environment checks before an audit session:
// host resources, reviewer reachability and state-directory health.
package diagnostics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/hmarchand/wcagaudit/internal/core"
)

// CheckStatus is the outcome of a single check.
type CheckStatus string

const (
	CheckOK   CheckStatus = "ok"
	CheckWarn CheckStatus = "warn"
	CheckFail CheckStatus = "fail"
)

// Check is one diagnostic result.
type Check struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Details string      `json:"details,omitempty"`
}

// Report bundles all diagnostics.
type Report struct {
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
	Checks    []Check   `json:"checks"`
	CreatedAt time.Time `json:"created_at"`
}

// Healthy reports whether no check failed.
func (r *Report) Healthy() bool {
	for _, c := range r.Checks {
		if c.Status == CheckFail {
			return false
		}
	}
	return true
}

// Doctor runs the checks.
type Doctor struct {
	reviewer  core.Reviewer
	statePath string
}

// New creates a doctor. The reviewer may be nil when no endpoint is
// configured.
func New(reviewer core.Reviewer, statePath string) *Doctor {
	return &Doctor{reviewer: reviewer, statePath: statePath}
}

// Run executes all checks and never fails itself; problems land in the report.
func (d *Doctor) Run(ctx context.Context) *Report {
	report := &Report{
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		CreatedAt: time.Now(),
	}

	report.Checks = append(report.Checks, checkMemory())
	report.Checks = append(report.Checks, checkDisk())
	report.Checks = append(report.Checks, checkCPU(ctx))
	report.Checks = append(report.Checks, d.checkStateDir())
	report.Checks = append(report.Checks, d.checkReviewer(ctx))

	return report
}

func checkMemory() Check {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return Check{Name: "memory", Status: CheckWarn, Details: fmt.Sprintf("unavailable: %v", err)}
	}
	details := fmt.Sprintf("%.1f GiB total, %.0f%% used", float64(vm.Total)/(1<<30), vm.UsedPercent)
	if vm.UsedPercent > 95 {
		return Check{Name: "memory", Status: CheckWarn, Details: details}
	}
	return Check{Name: "memory", Status: CheckOK, Details: details}
}

func checkDisk() Check {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	usage, err := disk.Usage(wd)
	if err != nil {
		return Check{Name: "disk", Status: CheckWarn, Details: fmt.Sprintf("unavailable: %v", err)}
	}
	details := fmt.Sprintf("%.1f GiB free", float64(usage.Free)/(1<<30))
	if usage.Free < 256<<20 {
		return Check{Name: "disk", Status: CheckFail, Details: details + " (reports and checkpoints need space)"}
	}
	return Check{Name: "disk", Status: CheckOK, Details: details}
}

func checkCPU(ctx context.Context) Check {
	counts, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return Check{Name: "cpu", Status: CheckWarn, Details: fmt.Sprintf("unavailable: %v", err)}
	}
	return Check{Name: "cpu", Status: CheckOK, Details: fmt.Sprintf("%d logical cores", counts)}
}

func (d *Doctor) checkStateDir() Check {
	if d.statePath == "" {
		return Check{Name: "state", Status: CheckWarn, Details: "no state path configured; sessions are not resumable"}
	}
	dir := filepath.Dir(d.statePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Check{Name: "state", Status: CheckFail, Details: fmt.Sprintf("cannot create %s: %v", dir, err)}
	}
	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return Check{Name: "state", Status: CheckFail, Details: fmt.Sprintf("%s is not writable: %v", dir, err)}
	}
	os.Remove(probe)
	return Check{Name: "state", Status: CheckOK, Details: dir + " is writable"}
}

func (d *Doctor) checkReviewer(ctx context.Context) Check {
	if d.reviewer == nil {
		return Check{Name: "reviewer", Status: CheckWarn, Details: "no reviewer endpoint configured"}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := d.reviewer.Ping(pingCtx); err != nil {
		return Check{Name: "reviewer", Status: CheckFail, Details: fmt.Sprintf("unreachable: %v", err)}
	}
	return Check{Name: "reviewer", Status: CheckOK, Details: "service reachable"}
}
