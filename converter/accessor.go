package converter

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// accessorBuilder appends every accessor to the first buffer of the document.
// Each accessor gets its own 4-byte aligned buffer view.
type accessorBuilder struct {
	doc *gltf.Document
}

func componentType(data interface{}) (gltf.ComponentType, int, bool) {
	switch d := data.(type) {
	case []float32:
		return gltf.ComponentFloat, len(d), true
	case []uint8:
		return gltf.ComponentUbyte, len(d), true
	case []uint16:
		return gltf.ComponentUshort, len(d), true
	case []uint32:
		return gltf.ComponentUint, len(d), true
	}
	return 0, 0, false
}

func (b *accessorBuilder) align() {
	buf := b.doc.Buffers[0]
	if pad := len(buf.Data) % 4; pad != 0 {
		buf.Data = append(buf.Data, make([]byte, 4-pad)...)
		buf.ByteLength = uint32(len(buf.Data))
	}
}

// add writes a flat typed slice as a new accessor of the given shape.
func (b *accessorBuilder) add(name string, shape gltf.AccessorType, data interface{}, target gltf.Target) (uint32, error) {
	ctype, n, ok := componentType(data)
	if !ok {
		return 0, fmt.Errorf("%w: %s: unsupported array type %T", ErrInvalidAccessor, name, data)
	}
	arity := shapeArity[shape]
	if arity == 0 || n%arity != 0 {
		return 0, fmt.Errorf("%w: %s: length %d is not a multiple of %d", ErrInvalidAccessor, name, n, arity)
	}
	b.align()
	view := modeler.WriteBufferView(b.doc, target, data)
	b.doc.Buffers[0].ByteLength = uint32(len(b.doc.Buffers[0].Data))
	b.doc.Accessors = append(b.doc.Accessors, &gltf.Accessor{
		Name:          name,
		BufferView:    gltf.Index(view),
		ComponentType: ctype,
		Count:         uint32(n / arity),
		Type:          shape,
	})
	return uint32(len(b.doc.Accessors) - 1), nil
}

// addWithBounds is add plus per-component min/max, required for POSITION and
// animation inputs.
func (b *accessorBuilder) addWithBounds(name string, shape gltf.AccessorType, data []float32, target gltf.Target) (uint32, error) {
	idx, err := b.add(name, shape, data, target)
	if err != nil {
		return 0, err
	}
	acc := b.doc.Accessors[idx]
	acc.Min, acc.Max = bounds(data, shapeArity[shape])
	return idx, nil
}

func bounds(data []float32, arity int) ([]float32, []float32) {
	if len(data) < arity {
		return nil, nil
	}
	min := make([]float32, arity)
	max := make([]float32, arity)
	copy(min, data[:arity])
	copy(max, data[:arity])
	for i := arity; i < len(data); i++ {
		c := i % arity
		min[c] = math32.Min(min[c], data[i])
		max[c] = math32.Max(max[c], data[i])
	}
	return min, max
}

func (b *accessorBuilder) finish() {
	b.align()
}
