package accel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostAvailableMemoryNeverZero(t *testing.T) {
	assert.Greater(t, HostAvailableMemory(), uint64(0))
}

func TestProbeCachesResultAcrossCalls(t *testing.T) {
	p := &Probe{}
	first := p.GPUAvailable()
	second := p.GPUAvailable()
	assert.Equal(t, first, second)
	if !first {
		assert.NotEmpty(t, p.Reason())
	}
}

func TestDefaultReturnsSharedSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}
