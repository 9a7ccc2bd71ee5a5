package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Alia5/winbridge/protocol"
)

type processEvent struct {
	index, count int
	info         *protocol.ProcessInfo
}

// ProcessCollector gathers the GET_PROCESS replies following one
// LIST_PROCESSES request. Only one collection runs at a time.
type ProcessCollector struct {
	timeout time.Duration

	run sync.Mutex
	mu  sync.Mutex
	ch  chan processEvent
}

func NewProcessCollector(timeout time.Duration) *ProcessCollector {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &ProcessCollector{timeout: timeout}
}

// OnProcessInfo is the process info listener to install on the handler.
// Replies arriving while no collection runs are discarded.
func (c *ProcessCollector) OnProcessInfo(index, count int, info *protocol.ProcessInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch == nil {
		return
	}
	var copied *protocol.ProcessInfo
	if info != nil {
		v := *info
		copied = &v
	}
	select {
	case c.ch <- processEvent{index: index, count: count, info: copied}:
	default:
	}
}

// Collect calls request and waits until every announced process arrived, the
// timeout elapsed or ctx is done. Processes are returned by index. The
// second result reports whether the list is complete; it is false when the
// request could not be sent.
func (c *ProcessCollector) Collect(ctx context.Context, request func()) ([]protocol.ProcessInfo, bool) {
	c.run.Lock()
	defer c.run.Unlock()

	ch := make(chan processEvent, 256)
	c.mu.Lock()
	c.ch = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.ch = nil
		c.mu.Unlock()
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	request()

	got := map[int]protocol.ProcessInfo{}
	for {
		select {
		case ev := <-ch:
			if ev.info == nil {
				return sorted(got), false
			}
			got[ev.index] = *ev.info
			if len(got) >= ev.count {
				return sorted(got), true
			}
		case <-timer.C:
			return sorted(got), false
		case <-ctx.Done():
			return sorted(got), false
		}
	}
}

func sorted(m map[int]protocol.ProcessInfo) []protocol.ProcessInfo {
	idx := make([]int, 0, len(m))
	for i := range m {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]protocol.ProcessInfo, 0, len(idx))
	for _, i := range idx {
		out = append(out, m[i])
	}
	return out
}
