package gltfutil

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/binzume/cocos2gltf/geom"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/binary"
)

func Load(path string) (*gltf.Document, error) {
	return gltf.Open(path)
}

// Save writes doc as .glb when path has that extension. Otherwise the JSON is
// written with the buffer embedded as a data URI (embed) or as a .bin file
// next to it.
func Save(doc *gltf.Document, path string, embed bool) error {
	if strings.ToLower(filepath.Ext(path)) == ".glb" {
		for _, b := range doc.Buffers {
			b.URI = ""
		}
		return gltf.SaveBinary(doc, path)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for i, b := range doc.Buffers {
		if embed {
			b.EmbeddedResource()
		} else if i == 0 {
			b.URI = base + ".bin"
		} else {
			b.URI = fmt.Sprintf("%s_%d.bin", base, i)
		}
	}
	return gltf.Save(doc, path)
}

var arity = map[gltf.AccessorType]uint32{
	gltf.AccessorScalar: 1,
	gltf.AccessorVec2:   2,
	gltf.AccessorVec3:   3,
	gltf.AccessorVec4:   4,
	gltf.AccessorMat2:   4,
	gltf.AccessorMat3:   9,
	gltf.AccessorMat4:   16,
}

func accessorData(doc *gltf.Document, index uint32) (*gltf.Accessor, []byte, error) {
	if int(index) >= len(doc.Accessors) {
		return nil, nil, fmt.Errorf("accessor %d out of range", index)
	}
	acr := doc.Accessors[index]
	if acr.BufferView == nil {
		return nil, nil, fmt.Errorf("accessor %d has no buffer view", index)
	}
	if acr.Sparse != nil {
		return nil, nil, fmt.Errorf("accessor %d: sparse accessors are not supported", index)
	}
	bv := doc.BufferViews[*acr.BufferView]
	data := doc.Buffers[bv.Buffer].Data
	start := bv.ByteOffset + acr.ByteOffset
	end := bv.ByteOffset + bv.ByteLength
	if end > uint32(len(data)) || start > end {
		return nil, nil, fmt.Errorf("accessor %d exceeds buffer", index)
	}
	return acr, data[start:end], nil
}

// ReadFloats returns the float components of an accessor as a flat slice.
func ReadFloats(doc *gltf.Document, index uint32) ([]float32, error) {
	acr, b, err := accessorData(doc, index)
	if err != nil {
		return nil, err
	}
	if acr.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("accessor %d is not float", index)
	}
	out := make([]float32, acr.Count*arity[acr.Type])
	if err := binary.Read(b, 0, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadUints returns integer components of an accessor widened to uint32.
func ReadUints(doc *gltf.Document, index uint32) ([]uint32, error) {
	acr, b, err := accessorData(doc, index)
	if err != nil {
		return nil, err
	}
	n := acr.Count * arity[acr.Type]
	out := make([]uint32, n)
	switch acr.ComponentType {
	case gltf.ComponentUbyte:
		v := make([]uint8, n)
		err = binary.Read(b, 0, v)
		for i := range v {
			out[i] = uint32(v[i])
		}
	case gltf.ComponentUshort:
		v := make([]uint16, n)
		err = binary.Read(b, 0, v)
		for i := range v {
			out[i] = uint32(v[i])
		}
	case gltf.ComponentUint:
		err = binary.Read(b, 0, out)
	default:
		return nil, fmt.Errorf("accessor %d is not an unsigned integer accessor", index)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func writeFloats(doc *gltf.Document, index uint32, v []float32) error {
	_, b, err := accessorData(doc, index)
	if err != nil {
		return err
	}
	return binary.Write(b, 0, v)
}

// Scale uniformly scales the document: node translations, POSITION
// accessors, translation tracks and inverse bind matrices.
func Scale(doc *gltf.Document, s float32) error {
	if s == 1 || s == 0 {
		return nil
	}
	scaleMat := geom.NewScaleMatrix4(s, s, s)

	accs := map[uint32]bool{}
	for _, m := range doc.Meshes {
		for _, p := range m.Primitives {
			if a, ok := p.Attributes["POSITION"]; ok {
				accs[a] = true
			}
		}
	}
	for _, a := range doc.Animations {
		for _, ch := range a.Channels {
			if ch.Target.Path == gltf.TRSTranslation && ch.Sampler != nil {
				if out := a.Samplers[*ch.Sampler].Output; out != nil {
					accs[*out] = false
				}
			}
		}
	}
	for a, bounds := range accs {
		pos, err := ReadFloats(doc, a)
		if err != nil {
			return err
		}
		for i := 0; i+2 < len(pos); i += 3 {
			v := scaleMat.ApplyTo(geom.NewVector3FromSlice(pos[i : i+3])).ToArray()
			copy(pos[i:i+3], v[:])
		}
		if err := writeFloats(doc, a, pos); err != nil {
			return err
		}
		if acr := doc.Accessors[a]; bounds && len(acr.Min) == 3 && len(acr.Max) == 3 {
			for i := range acr.Min {
				acr.Min[i] *= s
				acr.Max[i] *= s
			}
			if s < 0 {
				acr.Min, acr.Max = acr.Max, acr.Min
			}
		}
	}

	for _, node := range doc.Nodes {
		node.Translation = scaleMat.ApplyTo(geom.NewVector3FromSlice(node.Translation[:])).ToArray()
	}
	for _, skin := range doc.Skins {
		if skin.InverseBindMatrices == nil {
			continue
		}
		mats, err := ReadFloats(doc, *skin.InverseBindMatrices)
		if err != nil {
			return err
		}
		// Only the translation column changes under uniform scale.
		for i := 0; i+16 <= len(mats); i += 16 {
			mats[i+12] *= s
			mats[i+13] *= s
			mats[i+14] *= s
		}
		if err := writeFloats(doc, *skin.InverseBindMatrices, mats); err != nil {
			return err
		}
	}
	return nil
}

// Summary returns entity counts of doc.
func Summary(doc *gltf.Document) string {
	var bytes int
	for _, b := range doc.Buffers {
		bytes += len(b.Data)
	}
	return fmt.Sprintf("nodes:%d meshes:%d materials:%d textures:%d skins:%d animations:%d accessors:%d bytes:%d",
		len(doc.Nodes), len(doc.Meshes), len(doc.Materials), len(doc.Textures),
		len(doc.Skins), len(doc.Animations), len(doc.Accessors), bytes)
}
