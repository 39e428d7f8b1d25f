package converter

import (
	"bytes"
	"testing"

	"github.com/binzume/cocos2gltf/cocos"
	"github.com/binzume/cocos2gltf/gltfutil"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var triangle = []float32{
	0, 0, 0,
	1, 0, 0,
	0, 2, -1,
}

func newTriangleMesh(t *testing.T, name string) *cocos.Mesh {
	mesh, err := cocos.BuildMesh(name, []*cocos.PrimitiveData{{
		Attributes: []*cocos.AttributeData{{Name: "a_position", Format: "RGB32F", Data: triangle}},
	}})
	require.NoError(t, err)
	return mesh
}

// newBodyPrefab returns root -> Body with a single non-indexed triangle.
func newBodyPrefab(t *testing.T) *cocos.Prefab {
	root := cocos.NewNode("root")
	body := cocos.NewNode("Body")
	body.Position = cocos.Vec3{X: 1, Y: 2, Z: 3}
	body.Rotation = cocos.Quat{X: 0, Y: 0.7071068, Z: 0, W: 0.7071068}
	body.Scale = cocos.Vec3{X: 2, Y: 2, Z: 2}
	body.AddComponent(&cocos.MeshRenderer{
		Mesh:            newTriangleMesh(t, "body"),
		SharedMaterials: []*cocos.Material{cocos.NewMaterial("skin")},
	})
	root.AddChild(body)
	return &cocos.Prefab{Name: "body", Data: root}
}

func newObservedConverter(opt *CocosToGLTFOption) (*cocosToGltf, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	if opt == nil {
		opt = &CocosToGLTFOption{}
	}
	opt.Logger = zap.New(core)
	return NewCocosToGLTFConverter(opt), logs
}

func TestConvertBody(t *testing.T) {
	doc, err := NewCocosToGLTFConverter(nil).Convert(newBodyPrefab(t))
	require.NoError(t, err)

	require.Len(t, doc.Nodes, 1)
	node := doc.Nodes[0]
	assert.Equal(t, "Body", node.Name)
	assert.Equal(t, [3]float32{1, 2, 3}, node.Translation)
	assert.Equal(t, [4]float32{0, 0.7071068, 0, 0.7071068}, node.Rotation)
	assert.Equal(t, [3]float32{2, 2, 2}, node.Scale)
	assert.Equal(t, []uint32{0}, doc.Scenes[0].Nodes)

	require.Len(t, doc.Meshes, 1)
	require.NotNil(t, node.Mesh)
	mesh := doc.Meshes[*node.Mesh]
	assert.Equal(t, "body", mesh.Name)
	require.Len(t, mesh.Primitives, 1)
	prim := mesh.Primitives[0]
	assert.Len(t, prim.Attributes, 1)
	assert.Nil(t, prim.Indices)
	require.NotNil(t, prim.Material)
	assert.Len(t, doc.Materials, 1)
	assert.Equal(t, "skin", doc.Materials[*prim.Material].Name)

	pos := doc.Accessors[prim.Attributes["POSITION"]]
	assert.Equal(t, gltf.AccessorVec3, pos.Type)
	assert.Equal(t, gltf.ComponentFloat, pos.ComponentType)
	assert.Equal(t, uint32(3), pos.Count)
	assert.Equal(t, []float32{0, 0, -1}, pos.Min)
	assert.Equal(t, []float32{1, 2, 0}, pos.Max)

	data, err := gltfutil.ReadFloats(doc, prim.Attributes["POSITION"])
	require.NoError(t, err)
	assert.Equal(t, triangle, data)

	assert.Equal(t, Generator, doc.Asset.Generator)
	assert.Equal(t, uint32(len(doc.Buffers[0].Data)), doc.Buffers[0].ByteLength)
	assert.Zero(t, len(doc.Buffers[0].Data)%4)
}

func TestConvertEmptyPrefab(t *testing.T) {
	_, err := NewCocosToGLTFConverter(nil).Convert(&cocos.Prefab{Name: "empty"})
	assert.Error(t, err)
}

func TestConvertIdempotent(t *testing.T) {
	build := func() *cocos.Prefab {
		p := newSkinnedPrefab(t)
		anim := &cocos.Animation{Clips: []*cocos.AnimationClip{newRotationClip()}}
		p.Data.AddComponent(anim)
		return p
	}
	doc1, err := NewCocosToGLTFConverter(nil).Convert(build())
	require.NoError(t, err)
	doc2, err := NewCocosToGLTFConverter(nil).Convert(build())
	require.NoError(t, err)

	assert.True(t, bytes.Equal(doc1.Buffers[0].Data, doc2.Buffers[0].Data))
	assert.Equal(t, len(doc1.Accessors), len(doc2.Accessors))
	for i := range doc1.Accessors {
		assert.Equal(t, doc1.Accessors[i].Name, doc2.Accessors[i].Name)
		assert.Equal(t, *doc1.Accessors[i].BufferView, *doc2.Accessors[i].BufferView)
	}
	assert.Equal(t, len(doc1.Animations), len(doc2.Animations))
}

func TestConvertPrefabAnimations(t *testing.T) {
	p := newSkinnedPrefab(t)
	p.Data.AddComponent(&cocos.Animation{DefaultClip: newRotationClip()})

	doc, err := NewCocosToGLTFConverter(nil).Convert(p, &cocos.AnimationClip{Name: "noexotic"})
	require.NoError(t, err)
	require.Len(t, doc.Animations, 1)
	assert.Equal(t, "turn", doc.Animations[0].Name)
}

func TestConvertStopsAtFirstError(t *testing.T) {
	p := newBodyPrefab(t)
	p.Data.Children[0].GetRenderer().GetMeshRenderer().SharedMaterials = nil

	_, err := NewCocosToGLTFConverter(nil).Convert(p, newRotationClip())
	assert.ErrorIs(t, err, ErrMaterialCount)
	assert.Contains(t, err.Error(), "Body")
}
