package cocos

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

const prefabYAML = `
name: cow
root:
  name: cow
  components:
    - {type: cc.Animation, clips: [walk, legacy], defaultClip: walk}
  children:
    - name: Root
      euler: [0, 90, 0]
      children:
        - name: Hip
          position: [0, 1, 0]
    - name: Body
      matrix: [2, 0, 0, 0,  0, 2, 0, 0,  0, 0, 2, 0,  1, 2, 3, 1]
      components:
        - type: cc.SkinnedMeshRenderer
          mesh: body
          materials: [skin]
          skeleton: skel
          skinningRoot: Root
    - name: Prop
      rotation: [0, 0, 0, 1]
      scale: [1, 2, 3]
      components:
        - type: cc.MeshRenderer
          mesh: quad
          materials: [skin, glass]
meshes:
  body:
    bin: body.bin
    struct:
      vertexBundles:
        - view: {offset: 0, length: 36, count: 3, stride: 12}
          attributes:
            - {name: a_position, format: RGB32F}
      primitives:
        - vertexBundelIndices: [0]
          indexView: {offset: 36, length: 6, count: 3, stride: 2}
  quad:
    primitives:
      - attributes:
          - {name: a_position, format: RGB32F, data: [0, 0, 0, 1, 0, 0, 0, 1, 0]}
          - {name: a_color, format: RGBA8, normalized: true, data: [255, 0, 0, 255, 0, 255, 0, 255, 0, 0, 255, 255]}
        indices: [0, 1, 2]
      - attributes:
          - {name: a_position, format: RGB32F, data: [0, 0, 0, 1, 0, 0, 0, 1, 0]}
        indices: [2, 1, 0]
        indexType: uint32
materials:
  skin:
    effect: builtin-standard
    colors: {mainColor: "#ff800080", emissive: [0, 0, 255]}
    floats: {metallic: 0.5, roughness: 0}
    textures: {mainTexture: albedo}
  glass:
    name: Glass
textures:
  albedo:
    uuid: 1234-5678
    image: tex/albedo.png
    wrapS: REPEAT
    wrapT: CLAMP_TO_EDGE
    minFilter: LINEAR
    magFilter: LINEAR
    mipFilter: NONE
skeletons:
  skel:
    joints: ["", Hip]
    bindPoses:
      - [1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1]
      - [1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, -1, 0, 1]
clips:
  walk:
    duration: 1
    exotic:
      nodes:
        - path: Root/Hip
          tracks:
            position: {times: [0, 1], values: [0, 1, 0, 0, 2, 0]}
            eulerAngles: {times: [0], values: [0, 0, 0]}
  legacy:
    duration: 2
`

func writeAssets(t *testing.T, yml string) string {
	dir := t.TempDir()
	mesh, err := BuildMesh("body", []*PrimitiveData{{
		Attributes: []*AttributeData{{Name: "a_position", Format: "RGB32F", Data: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}}},
		Indices:    []uint16{0, 1, 2},
	}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "body.bin"), mesh.Data, 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tex"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tex", "albedo.png"), []byte("\x89PNG\r\n\x1a\n"), 0644))
	path := filepath.Join(dir, "cow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))
	return path
}

func TestLoadPrefab(t *testing.T) {
	prefab, err := LoadPrefab(writeAssets(t, prefabYAML))
	require.NoError(t, err)
	assert.Equal(t, "cow", prefab.Name)

	root := prefab.Data
	require.Len(t, root.Children, 3)
	hip := FindNode(root, "Root/Hip")
	require.NotNil(t, hip)
	assert.Equal(t, Vec3{0, 1, 0}, hip.Position)
	assert.Same(t, root.Children[0], hip.Parent())

	rot := root.Children[0].Rotation
	assert.InDelta(t, 0.7071068, rot.Y, 1e-5)
	assert.InDelta(t, 0.7071068, rot.W, 1e-5)

	body := root.Children[1]
	assert.InDeltaSlice(t, []float32{1, 2, 3}, []float32{body.Position.X, body.Position.Y, body.Position.Z}, 1e-5)
	assert.InDeltaSlice(t, []float32{2, 2, 2}, []float32{body.Scale.X, body.Scale.Y, body.Scale.Z}, 1e-5)
	assert.InDelta(t, 1, body.Rotation.W, 1e-5)

	var sr *SkinnedMeshRenderer
	require.True(t, body.GetComponent(&sr))
	assert.Same(t, root.Children[0], sr.SkinningRoot)
	require.NotNil(t, sr.Skeleton)
	assert.Equal(t, []string{"", "Hip"}, sr.Skeleton.Joints)
	assert.Equal(t, float32(-1), sr.Skeleton.BindPoses[1][13])

	pos, err := sr.Mesh.ReadAttribute(0, "a_position")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, pos)
	idx, err := sr.Mesh.ReadIndices(0)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0, 1, 2}, idx)

	skin := sr.SharedMaterials[0]
	assert.Equal(t, "skin", skin.Name)
	assert.Equal(t, "builtin-standard", skin.Effect)
	c, ok := skin.GetColorProperty("mainColor")
	require.True(t, ok)
	assert.Equal(t, Color{R: 0xff, G: 0x80, B: 0, A: 0x80}, c)
	assert.Equal(t, uint32(0xff8000), c.Hex())
	c, _ = skin.GetColorProperty("emissive")
	assert.Equal(t, Color{B: 255, A: 255}, c)
	f, ok := skin.GetFloatProperty("roughness")
	assert.True(t, ok)
	assert.Equal(t, float32(0), f)
	_, ok = skin.GetFloatProperty("specular")
	assert.False(t, ok)

	tex, ok := skin.GetTextureProperty("mainTexture")
	require.True(t, ok)
	assert.Equal(t, "albedo", tex.Name)
	assert.Equal(t, "1234-5678", tex.UUID)
	assert.Equal(t, "CLAMP_TO_EDGE", tex.WrapT)
	assert.Equal(t, "png", tex.Image.Ext())
	assert.True(t, bytes.HasPrefix(tex.Image.Data, []byte("\x89PNG")))

	var mr *MeshRenderer
	prop := root.Children[2]
	require.True(t, prop.GetComponent(&mr))
	assert.Same(t, skin, mr.SharedMaterials[0])
	assert.Equal(t, "Glass", mr.SharedMaterials[1].Name)
	assert.Equal(t, Vec3{1, 2, 3}, prop.Scale)
	require.Len(t, mr.Mesh.Struct.Primitives, 2)
	col, err := mr.Mesh.ReadAttribute(0, "a_color")
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 0, 0, 255, 0, 255, 0, 255, 0, 0, 255, 255}, col)
	idx, err = mr.Mesh.ReadIndices(1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 1, 0}, idx)

	var anim *Animation
	require.True(t, root.GetComponent(&anim))
	require.Len(t, anim.Clips, 2)
	assert.Same(t, anim.Clips[0], anim.DefaultClip)
	walk := anim.Clips[0]
	require.NotNil(t, walk.Exotic)
	require.Len(t, walk.Exotic.NodeAnimations, 1)
	assert.Equal(t, "Root/Hip", walk.Exotic.NodeAnimations[0].Path)
	assert.Equal(t, []float32{0, 1, 0, 0, 2, 0}, walk.Exotic.NodeAnimations[0].Tracks["position"].Values)
	assert.Len(t, walk.Exotic.NodeAnimations[0].Tracks, 2)
	assert.Nil(t, anim.Clips[1].Exotic)
}

func TestLoadClips(t *testing.T) {
	clips, err := LoadClips(writeAssets(t, prefabYAML))
	require.NoError(t, err)
	require.Len(t, clips, 2)
	assert.Equal(t, "legacy", clips[0].Name)
	assert.Equal(t, "walk", clips[1].Name)
	assert.Equal(t, float32(2), clips[0].Duration)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
	}{
		{"mesh", "mesh: quad", "mesh: nothing"},
		{"material", "materials: [skin, glass]", "materials: [skin, nothing]"},
		{"texture", "mainTexture: albedo", "mainTexture: nothing"},
		{"skeleton", "skeleton: skel", "skeleton: nothing"},
		{"clip", "clips: [walk, legacy]", "clips: [walk, nothing]"},
		{"skinning root", "skinningRoot: Root", "skinningRoot: Tail"},
		{"component", "type: cc.MeshRenderer", "type: cc.Light"},
		{"format", "format: RGBA8", "format: RGB10A2"},
		{"matrix", "matrix: [2, 0, 0, 0,", "matrix: ["},
		{"image", "image: tex/albedo.png", "image: tex/missing.png"},
		{"bin", "bin: body.bin", "bin: missing.bin"},
		{"negative count", "count: 3, stride: 12", "count: -3, stride: 12"},
		{"negative offset", "indexView: {offset: 36", "indexView: {offset: -36"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yml := strings.Replace(prefabYAML, tt.from, tt.to, 1)
			require.NotEqual(t, prefabYAML, yml)
			_, err := LoadPrefab(writeAssets(t, yml))
			assert.Error(t, err)
		})
	}

	_, err := ParsePrefab(strings.NewReader("name: empty\n"), ".", nil)
	assert.Error(t, err)
}

func TestParseEncodings(t *testing.T) {
	src := "name: ウシ\nroot:\n  children:\n    - name: 体\n"

	p, err := ParsePrefab(strings.NewReader("\xef\xbb\xbf"+src), ".", nil)
	require.NoError(t, err)
	assert.Equal(t, "ウシ", p.Name)
	assert.Equal(t, "体", p.Data.Children[0].Name)

	sjis, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), src)
	require.NoError(t, err)
	p, err = ParsePrefab(strings.NewReader(sjis), ".", &ParseOption{ShiftJIS: true})
	require.NoError(t, err)
	assert.Equal(t, "ウシ", p.Name)
	assert.Equal(t, "体", p.Data.Children[0].Name)
}

func TestFindNode(t *testing.T) {
	root := NewNode("root")
	a := NewNode("a")
	b := NewNode("b")
	a.AddChild(b)
	root.AddChild(a)
	assert.Same(t, root, FindNode(root, ""))
	assert.Same(t, b, FindNode(root, "a/b"))
	assert.Nil(t, FindNode(root, "b"))
}
