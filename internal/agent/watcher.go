package agent

import (
	"context"
	"time"

	"github.com/mitchellh/go-ps"
)

// watcherInterval is the Child-Process Watcher's polling cadence (§4.2).
const watcherInterval = 100 * time.Millisecond

// watchChildren is the Child-Process Watcher (C10): one cooperative task
// per Agent, polling at 100ms, asking the OS for direct children of the
// shell PID to decide the Idle/Active transition. This is the sole
// source of truth for Agent status (§4.2) — nothing else may call
// SetStatus.
//
// go-ps gives direct children of a PID without depending on an external
// `pgrep` binary being on PATH.
func watchChildren(ctx context.Context, a *Agent) {
	ticker := time.NewTicker(watcherInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkChildren(a)
		}
	}
}

func checkChildren(a *Agent) {
	pid, ok := a.ShellPID()
	if !ok {
		return
	}

	hasChildren := len(childPIDs(pid)) > 0
	switch status := a.Status(); {
	case hasChildren && status == Idle:
		a.SetStatus(Active)
	case !hasChildren && status == Active:
		a.SetStatus(Idle)
	}
}

// childPIDs returns the PIDs of every process whose parent is pid.
func childPIDs(pid int) []int {
	procs, err := ps.Processes()
	if err != nil {
		return nil
	}
	var children []int
	for _, proc := range procs {
		if proc.PPid() == pid {
			children = append(children, proc.Pid())
		}
	}
	return children
}
