package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat64PoolGetResizes(t *testing.T) {
	fp := NewFloat64Pool(4)

	small := fp.Get(3)
	assert.Len(t, *small, 3)
	fp.Put(small)

	large := fp.Get(10)
	assert.Len(t, *large, 10)
	assert.GreaterOrEqual(t, cap(*large), 10)
	fp.Put(large)
}

func TestBufferPoolReset(t *testing.T) {
	bp := NewBufferPool(16)
	buf := bp.Get()
	buf.WriteString("png")
	bp.Put(buf)

	again := bp.Get()
	assert.Equal(t, 0, again.Len())
}
