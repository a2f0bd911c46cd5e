package pool

import (
	"bytes"
	"sync"
)

// Float64Pool implements a pool of float64 slices used as scratch space
type Float64Pool struct {
	pool sync.Pool
	size int
}

// NewFloat64Pool creates a new pool whose fresh slices have the given capacity
func NewFloat64Pool(size int) *Float64Pool {
	return &Float64Pool{
		pool: sync.Pool{
			New: func() interface{} {
				buffer := make([]float64, 0, size)
				return &buffer
			},
		},
		size: size,
	}
}

// Get retrieves a slice of length n, growing the pooled one if needed
func (fp *Float64Pool) Get(n int) *[]float64 {
	buffer := fp.pool.Get().(*[]float64)
	if cap(*buffer) < n {
		*buffer = make([]float64, n)
		return buffer
	}
	*buffer = (*buffer)[:n]
	return buffer
}

// Put returns a slice to the pool for reuse
func (fp *Float64Pool) Put(buffer *[]float64) {
	*buffer = (*buffer)[:0]
	fp.pool.Put(buffer)
}

// BufferPool implements a pool of bytes.Buffer for rendered images
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool creates a new bytes.Buffer pool with the given initial capacity
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, size))
			},
		},
	}
}

// Get retrieves an empty buffer
func (bp *BufferPool) Get() *bytes.Buffer {
	return bp.pool.Get().(*bytes.Buffer)
}

// Put resets the buffer and returns it to the pool
func (bp *BufferPool) Put(buf *bytes.Buffer) {
	buf.Reset()
	bp.pool.Put(buf)
}
