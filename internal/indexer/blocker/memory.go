package blocker

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/errors"
	"github.com/shirou/gopsutil/v4/mem"
)

// MemorySampler reports the bytes of memory currently available to the host.
type MemorySampler func() (uint64, error)

// SystemMemory samples available memory through gopsutil.
func SystemMemory() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

// Guard aborts a block build once free host memory drops below MinFree.
// It samples every Interval calls to Check. The guard is a soft limit: it
// cannot stop the kernel from killing the process, it only turns observed
// pressure into a reported failure instead of a partial index.
type Guard struct {
	Sample   MemorySampler
	MinFree  uint64
	Interval int
	calls    int
}

func NewGuard(sample MemorySampler, minFree uint64, interval int) *Guard {
	if sample == nil {
		sample = SystemMemory
	}
	if interval <= 0 {
		interval = 1000
	}
	return &Guard{Sample: sample, MinFree: minFree, Interval: interval}
}

// Check is called once per document.
func (g *Guard) Check() error {
	if g == nil || g.MinFree == 0 {
		return nil
	}
	g.calls++
	if g.calls%g.Interval != 0 {
		return nil
	}
	available, err := g.Sample()
	if err != nil {
		return fmt.Errorf("sampling available memory: %w", err)
	}
	if available < g.MinFree {
		return apperrors.Newf(apperrors.ErrResourceExhausted,
			"available memory %d bytes below floor %d bytes", available, g.MinFree)
	}
	return nil
}
