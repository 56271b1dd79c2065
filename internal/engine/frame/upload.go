package frame

import (
	"fmt"
	"unsafe"
)

// ConstantBufferAlignment is the byte alignment every constant buffer
// element is padded to, so each element can be bound on its own.
const ConstantBufferAlignment = 256

// AlignConstantBufferSize rounds size up to ConstantBufferAlignment.
func AlignConstantBufferSize(size int) int {
	return (size + ConstantBufferAlignment - 1) &^ (ConstantBufferAlignment - 1)
}

// UploadBuffer is CPU-writable memory holding a fixed number of T records at
// a fixed stride. It is the staging side of one GPU buffer; the device copies
// Bytes() into the GPU resource when the owning slot is submitted.
//
// T must be plain data (no pointers, slices or strings).
type UploadBuffer[T any] struct {
	data     []byte
	stride   int
	count    int
	constant bool
}

// NewUploadBuffer allocates count elements. Constant buffers pad the element
// stride to ConstantBufferAlignment.
func NewUploadBuffer[T any](count int, isConstantBuffer bool) (*UploadBuffer[T], error) {
	if count <= 0 {
		return nil, fmt.Errorf("upload buffer: element count must be positive, got %d", count)
	}
	var zero T
	stride := int(unsafe.Sizeof(zero))
	if isConstantBuffer {
		stride = AlignConstantBufferSize(stride)
	}
	return &UploadBuffer[T]{
		data:     make([]byte, stride*count),
		stride:   stride,
		count:    count,
		constant: isConstantBuffer,
	}, nil
}

// CopyData writes v into element i. An index outside the allocated capacity
// is a caller bug and panics.
func (b *UploadBuffer[T]) CopyData(i int, v T) {
	if i < 0 || i >= b.count {
		panic(fmt.Sprintf("upload buffer: index %d out of range [0,%d)", i, b.count))
	}
	*(*T)(unsafe.Pointer(&b.data[i*b.stride])) = v
}

// At reads element i back.
func (b *UploadBuffer[T]) At(i int) T {
	if i < 0 || i >= b.count {
		panic(fmt.Sprintf("upload buffer: index %d out of range [0,%d)", i, b.count))
	}
	return *(*T)(unsafe.Pointer(&b.data[i*b.stride]))
}

// Bytes returns the whole backing store.
func (b *UploadBuffer[T]) Bytes() []byte {
	return b.data
}

// Len returns the element capacity.
func (b *UploadBuffer[T]) Len() int {
	return b.count
}

// ElementByteSize returns the stride between elements.
func (b *UploadBuffer[T]) ElementByteSize() int {
	return b.stride
}

// Offset returns the byte offset of element i.
func (b *UploadBuffer[T]) Offset(i int) int {
	return i * b.stride
}
