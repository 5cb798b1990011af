package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

// VertexBuffer is a host-visible buffer holding static geometry.
type VertexBuffer struct {
	Buffer      Buffer
	Memory      Memory
	Size        int
	VertexCount int
}

// FindMemoryType returns the first memory type allowed by typeBits whose
// flags include every requested property.
func FindMemoryType(memoryTypes []core1_0.MemoryPropertyFlags, typeBits uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	for i, flags := range memoryTypes {
		typeBit := uint32(1) << uint(i)
		if typeBits&typeBit != 0 && flags&properties == properties {
			return i, nil
		}
	}

	return 0, errors.Newf("no memory type matches bits %#x with properties %s", typeBits, properties)
}

// NewVertexBuffer creates a host-visible, coherent vertex buffer sized to
// vertices and uploads them.
func NewVertexBuffer(device Device, memoryTypes []core1_0.MemoryPropertyFlags, vertices []Vertex) (*VertexBuffer, error) {
	data, err := EncodeVertices(vertices)
	if err != nil {
		return nil, creationFailure(err, "encode vertices")
	}

	buffer, err := device.CreateBuffer(len(data), core1_0.BufferUsageVertexBuffer)
	if err != nil {
		return nil, creationFailure(err, "create vertex buffer")
	}

	vb := &VertexBuffer{Buffer: buffer, Size: len(data), VertexCount: len(vertices)}

	requirements := buffer.Requirements()
	memoryType, err := FindMemoryType(memoryTypes, requirements.TypeBits, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		vb.Destroy()
		return nil, creationFailure(err, "choose vertex buffer memory")
	}

	memory, err := device.AllocateMemory(requirements.Size, memoryType)
	if err != nil {
		vb.Destroy()
		return nil, creationFailure(err, "allocate vertex buffer memory")
	}
	vb.Memory = memory

	if err := buffer.Bind(memory); err != nil {
		vb.Destroy()
		return nil, creationFailure(err, "bind vertex buffer memory")
	}

	if err := memory.Write(0, data); err != nil {
		vb.Destroy()
		return nil, creationFailure(err, "upload vertices")
	}

	return vb, nil
}

// Destroy releases the buffer before its memory.
func (vb *VertexBuffer) Destroy() {
	if vb == nil {
		return
	}
	if vb.Buffer != nil {
		vb.Buffer.Destroy()
		vb.Buffer = nil
	}
	if vb.Memory != nil {
		vb.Memory.Destroy()
		vb.Memory = nil
	}
}
