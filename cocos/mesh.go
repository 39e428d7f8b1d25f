package cocos

import (
	"fmt"

	"github.com/qmuntal/gltf/binary"
)

type ComponentKind int

const (
	KindFloat32 ComponentKind = iota
	KindUint8
	KindUint16
	KindUint32
)

func (k ComponentKind) Size() int {
	switch k {
	case KindUint8:
		return 1
	case KindUint16:
		return 2
	default:
		return 4
	}
}

// Format is a gfx vertex format name such as "RGB32F".
type Format string

type formatInfo struct {
	kind  ComponentKind
	count int
}

var formats = map[Format]formatInfo{
	"R32F":     {KindFloat32, 1},
	"RG32F":    {KindFloat32, 2},
	"RGB32F":   {KindFloat32, 3},
	"RGBA32F":  {KindFloat32, 4},
	"R8":       {KindUint8, 1},
	"RGBA8":    {KindUint8, 4},
	"RGBA8UI":  {KindUint8, 4},
	"R16UI":    {KindUint16, 1},
	"RGBA16UI": {KindUint16, 4},
	"R32UI":    {KindUint32, 1},
}

func (f Format) info() (formatInfo, error) {
	if fi, ok := formats[f]; ok {
		return fi, nil
	}
	return formatInfo{}, fmt.Errorf("unsupported vertex format: %q", string(f))
}

// Components returns the number of components per vertex, or 0 for unknown formats.
func (f Format) Components() int {
	return formats[f].count
}

func (f Format) Kind() ComponentKind {
	return formats[f].kind
}

func (f Format) size() int {
	fi := formats[f]
	return fi.kind.Size() * fi.count
}

type BufferView struct {
	Offset int
	Length int
	Count  int
	Stride int
}

type Attribute struct {
	Name         string
	Format       Format
	IsNormalized bool
}

type VertexBundle struct {
	View       BufferView
	Attributes []*Attribute
}

type Primitive struct {
	VertexBundleIndices []int
	IndexView           *BufferView
}

type MeshStruct struct {
	VertexBundles []*VertexBundle
	Primitives    []*Primitive
}

type Mesh struct {
	Name   string
	Struct MeshStruct
	Data   []byte
}

func (m *Mesh) primitive(index int) (*Primitive, error) {
	if index < 0 || index >= len(m.Struct.Primitives) {
		return nil, fmt.Errorf("mesh %q: primitive %d out of range", m.Name, index)
	}
	return m.Struct.Primitives[index], nil
}

// FindAttribute returns the attribute definition used by the primitive.
func (m *Mesh) FindAttribute(primitiveIndex int, name string) (*Attribute, error) {
	_, attr, _, err := m.findAttribute(primitiveIndex, name)
	return attr, err
}

func (m *Mesh) findAttribute(primitiveIndex int, name string) (*VertexBundle, *Attribute, int, error) {
	prim, err := m.primitive(primitiveIndex)
	if err != nil {
		return nil, nil, 0, err
	}
	for _, bi := range prim.VertexBundleIndices {
		if bi < 0 || bi >= len(m.Struct.VertexBundles) {
			return nil, nil, 0, fmt.Errorf("mesh %q: vertex bundle %d out of range", m.Name, bi)
		}
		bundle := m.Struct.VertexBundles[bi]
		offset := 0
		for _, attr := range bundle.Attributes {
			if attr.Name == name {
				return bundle, attr, offset, nil
			}
			offset += attr.Format.size()
		}
	}
	return nil, nil, 0, fmt.Errorf("mesh %q: primitive %d has no attribute %q", m.Name, primitiveIndex, name)
}

// ReadAttribute returns the attribute stream of a primitive as a flat typed
// slice ([]float32, []uint8, []uint16 or []uint32) with the interleaving removed.
func (m *Mesh) ReadAttribute(primitiveIndex int, name string) (interface{}, error) {
	bundle, attr, offset, err := m.findAttribute(primitiveIndex, name)
	if err != nil {
		return nil, err
	}
	fi, err := attr.Format.info()
	if err != nil {
		return nil, err
	}
	elemSize := fi.kind.Size() * fi.count
	stride := bundle.View.Stride
	if stride == 0 {
		stride = elemSize
	}
	count := bundle.View.Count
	if count < 0 || bundle.View.Offset < 0 || stride < 0 {
		return nil, fmt.Errorf("mesh %q: invalid view of attribute %q", m.Name, name)
	}

	tight := make([]byte, count*elemSize)
	for i := 0; i < count; i++ {
		st := bundle.View.Offset + i*stride + offset
		if st+elemSize > len(m.Data) {
			return nil, fmt.Errorf("mesh %q: attribute %q exceeds mesh data", m.Name, name)
		}
		copy(tight[i*elemSize:], m.Data[st:st+elemSize])
	}
	return decode(tight, fi.kind, count*fi.count)
}

// ReadIndices returns nil when the primitive is not indexed.
func (m *Mesh) ReadIndices(primitiveIndex int) (interface{}, error) {
	prim, err := m.primitive(primitiveIndex)
	if err != nil {
		return nil, err
	}
	view := prim.IndexView
	if view == nil {
		return nil, nil
	}
	var kind ComponentKind
	switch view.Stride {
	case 1:
		kind = KindUint8
	case 2:
		kind = KindUint16
	case 4:
		kind = KindUint32
	default:
		return nil, fmt.Errorf("mesh %q: unsupported index stride %d", m.Name, view.Stride)
	}
	end := view.Offset + view.Count*view.Stride
	if view.Offset < 0 || view.Count < 0 || end > len(m.Data) {
		return nil, fmt.Errorf("mesh %q: indices exceed mesh data", m.Name)
	}
	return decode(m.Data[view.Offset:end], kind, view.Count)
}

func decode(b []byte, kind ComponentKind, n int) (interface{}, error) {
	var data interface{}
	switch kind {
	case KindFloat32:
		data = make([]float32, n)
	case KindUint8:
		data = make([]uint8, n)
	case KindUint16:
		data = make([]uint16, n)
	case KindUint32:
		data = make([]uint32, n)
	}
	if err := binary.Read(b, 0, data); err != nil {
		return nil, err
	}
	return data, nil
}

func kindOf(data interface{}) (ComponentKind, int, bool) {
	switch d := data.(type) {
	case []float32:
		return KindFloat32, len(d), true
	case []uint8:
		return KindUint8, len(d), true
	case []uint16:
		return KindUint16, len(d), true
	case []uint32:
		return KindUint32, len(d), true
	}
	return 0, 0, false
}

type AttributeData struct {
	Name       string
	Format     Format
	Normalized bool
	Data       interface{}
}

type PrimitiveData struct {
	Attributes []*AttributeData
	Indices    interface{}
}

// BuildMesh packs flat attribute arrays into one interleaved vertex bundle per
// primitive, followed by that primitive's index stream.
func BuildMesh(name string, primitives []*PrimitiveData) (*Mesh, error) {
	mesh := &Mesh{Name: name}
	for pi, p := range primitives {
		prim := &Primitive{}
		bundle := &VertexBundle{}
		stride := 0
		count := -1
		for _, a := range p.Attributes {
			fi, err := a.Format.info()
			if err != nil {
				return nil, err
			}
			kind, n, ok := kindOf(a.Data)
			if !ok || kind != fi.kind {
				return nil, fmt.Errorf("mesh %q: attribute %q data does not match format %s", name, a.Name, a.Format)
			}
			if n%fi.count != 0 || (count >= 0 && n/fi.count != count) {
				return nil, fmt.Errorf("mesh %q: primitive %d attribute %q has wrong length %d", name, pi, a.Name, n)
			}
			count = n / fi.count
			stride += fi.kind.Size() * fi.count
			bundle.Attributes = append(bundle.Attributes, &Attribute{Name: a.Name, Format: a.Format, IsNormalized: a.Normalized})
		}
		if count < 0 {
			count = 0
		}

		base := align4(len(mesh.Data))
		region := make([]byte, base-len(mesh.Data)+count*stride)
		mesh.Data = append(mesh.Data, region...)
		offset := 0
		for _, a := range p.Attributes {
			elemSize := a.Format.size()
			tight := make([]byte, count*elemSize)
			if err := binary.Write(tight, 0, a.Data); err != nil {
				return nil, err
			}
			for i := 0; i < count; i++ {
				copy(mesh.Data[base+i*stride+offset:], tight[i*elemSize:(i+1)*elemSize])
			}
			offset += elemSize
		}
		bundle.View = BufferView{Offset: base, Length: count * stride, Count: count, Stride: stride}
		prim.VertexBundleIndices = []int{len(mesh.Struct.VertexBundles)}
		mesh.Struct.VertexBundles = append(mesh.Struct.VertexBundles, bundle)

		if p.Indices != nil {
			kind, n, ok := kindOf(p.Indices)
			if !ok || kind == KindFloat32 {
				return nil, fmt.Errorf("mesh %q: primitive %d has invalid index type %T", name, pi, p.Indices)
			}
			b := make([]byte, n*kind.Size())
			if err := binary.Write(b, 0, p.Indices); err != nil {
				return nil, err
			}
			ofs := align4(len(mesh.Data))
			mesh.Data = append(mesh.Data, make([]byte, ofs-len(mesh.Data))...)
			mesh.Data = append(mesh.Data, b...)
			prim.IndexView = &BufferView{Offset: ofs, Length: len(b), Count: n, Stride: kind.Size()}
		}
		mesh.Struct.Primitives = append(mesh.Struct.Primitives, prim)
	}
	return mesh, nil
}

func align4(n int) int {
	return (n + 3) &^ 3
}
