package converter

import (
	"fmt"

	"github.com/binzume/cocos2gltf/cocos"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

func (c *cocosToGltf) convertMesh(r *cocos.MeshRenderer) (uint32, error) {
	src := r.Mesh
	if len(r.SharedMaterials) != len(src.Struct.Primitives) {
		return 0, fmt.Errorf("%w: mesh %q has %d primitives and %d materials",
			ErrMaterialCount, src.Name, len(src.Struct.Primitives), len(r.SharedMaterials))
	}

	mesh := &gltf.Mesh{Name: src.Name}
	for pi, prim := range src.Struct.Primitives {
		p := &gltf.Primitive{Attributes: map[string]uint32{}}
		for _, bi := range prim.VertexBundleIndices {
			if bi < 0 || bi >= len(src.Struct.VertexBundles) {
				return 0, fmt.Errorf("mesh %q: vertex bundle %d out of range", src.Name, bi)
			}
			for _, attr := range src.Struct.VertexBundles[bi].Attributes {
				acc, sem, err := c.convertAttribute(src, pi, attr)
				if err != nil {
					return 0, fmt.Errorf("mesh %q: %w", src.Name, err)
				}
				p.Attributes[sem] = acc
			}
		}

		indices, err := src.ReadIndices(pi)
		if err != nil {
			return 0, err
		}
		if indices != nil {
			acc, err := c.buffer.add("indices", gltf.AccessorScalar, indices, gltf.TargetElementArrayBuffer)
			if err != nil {
				return 0, fmt.Errorf("mesh %q: %w", src.Name, err)
			}
			p.Indices = gltf.Index(acc)
		}

		if mat := r.SharedMaterials[pi]; mat != nil {
			m, err := c.findOrCreateMaterial(mat)
			if err != nil {
				return 0, err
			}
			p.Material = gltf.Index(m)
		} else {
			c.log.Warn("primitive without material", zap.String("mesh", src.Name), zap.Int("primitive", pi))
		}
		mesh.Primitives = append(mesh.Primitives, p)
	}

	c.Meshes = append(c.Meshes, mesh)
	c.log.Debug("mesh", zap.String("name", src.Name), zap.Int("primitives", len(mesh.Primitives)))
	return uint32(len(c.Meshes) - 1), nil
}

func (c *cocosToGltf) convertAttribute(src *cocos.Mesh, primitive int, attr *cocos.Attribute) (uint32, string, error) {
	sem, err := mapAttribute(attr.Name, attr.Format.Components())
	if err != nil {
		return 0, "", err
	}
	data, err := src.ReadAttribute(primitive, attr.Name)
	if err != nil {
		return 0, "", err
	}
	var acc uint32
	if f, ok := data.([]float32); ok && sem.name == "POSITION" {
		acc, err = c.buffer.addWithBounds(sem.name, sem.shape, f, gltf.TargetArrayBuffer)
	} else {
		acc, err = c.buffer.add(sem.name, sem.shape, data, gltf.TargetArrayBuffer)
	}
	if err != nil {
		return 0, "", err
	}
	c.Accessors[acc].Normalized = attr.IsNormalized
	return acc, sem.name, nil
}
