package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// PoolConfig describes how to size and spawn every Agent in a Pool.
type PoolConfig struct {
	Size         int
	Cols         uint16
	Rows         uint16
	ShellCommand string
	Dir          string
}

// Pool is a fixed-size collection of Agents (C4), sized by
// agents.pool. Every Agent gets identical dimensions, taken from
// web_ui.cols/rows.
type Pool struct {
	agents []*Agent
	next   atomic.Uint64
}

// NewPool spawns cfg.Size Agents. If any Agent fails to spawn, the
// Agents already spawned are closed and the error is returned — a
// partial pool is not a usable pool at construction time (contrast with
// a running Agent's own Startup failure, which only takes down that one
// Agent per §7).
func NewPool(cfg PoolConfig, log *slog.Logger) (*Pool, error) {
	if cfg.Size < 1 {
		return nil, fmt.Errorf("pool size must be >= 1, got %d", cfg.Size)
	}

	p := &Pool{agents: make([]*Agent, 0, cfg.Size)}
	for i := 0; i < cfg.Size; i++ {
		id := fmt.Sprintf("agent-%d", i)
		ag, err := New(id, cfg.Cols, cfg.Rows, cfg.ShellCommand, cfg.Dir, log)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("spawning %s: %w", id, err)
		}
		p.agents = append(p.agents, ag)
	}
	return p, nil
}

// Size reports the number of Agents in the pool.
func (p *Pool) Size() int { return len(p.agents) }

// Agents returns the pool's Agents in index order, for callers that need
// to start one task per Agent (rule evaluation, the Child-Process
// Watcher).
func (p *Pool) Agents() []*Agent {
	out := make([]*Agent, len(p.agents))
	copy(out, p.agents)
	return out
}

// GetByIndex returns agent i mod size.
func (p *Pool) GetByIndex(i int) *Agent {
	return p.agents[i%len(p.agents)]
}

// GetNext returns the next Agent in round-robin order, used by the
// Trigger Scheduler to distribute triggers across the pool.
func (p *Pool) GetNext() *Agent {
	i := p.next.Add(1) - 1
	return p.agents[int(i)%len(p.agents)]
}

// StartWatchers launches the Child-Process Watcher task for every
// Agent in the pool; they run until ctx is canceled.
func (p *Pool) StartWatchers(ctx context.Context) {
	for _, ag := range p.agents {
		go watchChildren(ctx, ag)
	}
}

// Close tears down every Agent in the pool.
func (p *Pool) Close() error {
	var firstErr error
	for _, ag := range p.agents {
		if err := ag.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
