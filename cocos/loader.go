package cocos

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/binzume/cocos2gltf/geom"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v2"
)

// Asset description files are YAML documents. Nodes refer to resources by key:
//
//	name: cow
//	root:
//	  children:
//	    - name: Body
//	      components:
//	        - {type: cc.MeshRenderer, mesh: body, materials: [skin]}
//	meshes:
//	  body: {bin: body.bin, struct: {...}}
//	materials:
//	  skin: {colors: {mainColor: "#ff8000"}, textures: {mainTexture: tex}}
//	textures:
//	  tex: {image: tex.png, wrapS: REPEAT}

type ParseOption struct {
	// ShiftJIS decodes description files written in Shift_JIS.
	ShiftJIS bool
}

type yamlPrefab struct {
	Name      string                   `yaml:"name"`
	Root      *yamlNode                `yaml:"root"`
	Meshes    map[string]*yamlMesh     `yaml:"meshes"`
	Materials map[string]*yamlMaterial `yaml:"materials"`
	Textures  map[string]*yamlTexture  `yaml:"textures"`
	Skeletons map[string]*yamlSkeleton `yaml:"skeletons"`
	Clips     map[string]*yamlClip     `yaml:"clips"`
}

type yamlNode struct {
	Name       string           `yaml:"name"`
	Position   []float32        `yaml:"position"`
	Rotation   []float32        `yaml:"rotation"`
	Euler      []float32        `yaml:"euler"`
	Scale      []float32        `yaml:"scale"`
	Matrix     []float32        `yaml:"matrix"`
	Components []*yamlComponent `yaml:"components"`
	Children   []*yamlNode      `yaml:"children"`
}

type yamlComponent struct {
	Type         string   `yaml:"type"`
	Mesh         string   `yaml:"mesh"`
	Materials    []string `yaml:"materials"`
	Skeleton     string   `yaml:"skeleton"`
	SkinningRoot *string  `yaml:"skinningRoot"`
	Clips        []string `yaml:"clips"`
	DefaultClip  string   `yaml:"defaultClip"`
}

type yamlBufferView struct {
	Offset int `yaml:"offset"`
	Length int `yaml:"length"`
	Count  int `yaml:"count"`
	Stride int `yaml:"stride"`
}

func (v *yamlBufferView) validate() error {
	if v.Offset < 0 || v.Length < 0 || v.Count < 0 || v.Stride < 0 {
		return fmt.Errorf("negative buffer view field: %+v", *v)
	}
	return nil
}

type yamlMesh struct {
	Name   string `yaml:"name"`
	Bin    string `yaml:"bin"`
	Struct struct {
		VertexBundles []struct {
			View       yamlBufferView `yaml:"view"`
			Attributes []struct {
				Name         string `yaml:"name"`
				Format       string `yaml:"format"`
				IsNormalized bool   `yaml:"isNormalized"`
			} `yaml:"attributes"`
		} `yaml:"vertexBundles"`
		Primitives []struct {
			VertexBundleIndices []int           `yaml:"vertexBundelIndices"`
			IndexView           *yamlBufferView `yaml:"indexView"`
		} `yaml:"primitives"`
	} `yaml:"struct"`
	Primitives []*struct {
		Attributes []struct {
			Name       string    `yaml:"name"`
			Format     string    `yaml:"format"`
			Normalized bool      `yaml:"normalized"`
			Data       []float64 `yaml:"data"`
		} `yaml:"attributes"`
		Indices   []uint32 `yaml:"indices"`
		IndexType string   `yaml:"indexType"`
	} `yaml:"primitives"`
}

type yamlColor Color

// UnmarshalYAML accepts "#RRGGBB", "#RRGGBBAA" or [r, g, b, a].
func (c *yamlColor) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		s = strings.TrimPrefix(s, "#")
		if len(s) == 6 {
			s += "ff"
		}
		v, err := strconv.ParseUint(s, 16, 32)
		if err != nil || len(s) != 8 {
			return fmt.Errorf("invalid color: %q", s)
		}
		*c = yamlColor{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
		return nil
	}
	var a []uint8
	if err := unmarshal(&a); err != nil {
		return err
	}
	if len(a) == 3 {
		a = append(a, 255)
	}
	if len(a) != 4 {
		return fmt.Errorf("invalid color: %v", a)
	}
	*c = yamlColor{R: a[0], G: a[1], B: a[2], A: a[3]}
	return nil
}

type yamlMaterial struct {
	Name     string               `yaml:"name"`
	Effect   string               `yaml:"effect"`
	Colors   map[string]yamlColor `yaml:"colors"`
	Floats   map[string]float32   `yaml:"floats"`
	Textures map[string]string    `yaml:"textures"`
}

type yamlTexture struct {
	Name      string `yaml:"name"`
	UUID      string `yaml:"uuid"`
	Image     string `yaml:"image"`
	WrapS     string `yaml:"wrapS"`
	WrapT     string `yaml:"wrapT"`
	MinFilter string `yaml:"minFilter"`
	MagFilter string `yaml:"magFilter"`
	MipFilter string `yaml:"mipFilter"`
}

type yamlSkeleton struct {
	Name      string      `yaml:"name"`
	Joints    []string    `yaml:"joints"`
	BindPoses [][]float32 `yaml:"bindPoses"`
}

type yamlTrack struct {
	Times  []float32 `yaml:"times"`
	Values []float32 `yaml:"values"`
}

type yamlClip struct {
	Name     string  `yaml:"name"`
	Duration float32 `yaml:"duration"`
	Exotic   *struct {
		Nodes []struct {
			Path   string                `yaml:"path"`
			Tracks map[string]*yamlTrack `yaml:"tracks"`
		} `yaml:"nodes"`
	} `yaml:"exotic"`
}

type loader struct {
	src     *yamlPrefab
	baseDir string

	meshes    map[string]*Mesh
	materials map[string]*Material
	textures  map[string]*Texture2D
	skeletons map[string]*Skeleton
	clips     map[string]*AnimationClip
}

// LoadPrefab loads a prefab description file. Relative resource paths are
// resolved against the directory of the file.
func LoadPrefab(path string) (*Prefab, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ParsePrefab(r, filepath.Dir(path), nil)
}

// LoadClips loads every clip declared in a description file.
func LoadClips(path string) ([]*AnimationClip, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	l, err := newLoader(r, filepath.Dir(path), nil)
	if err != nil {
		return nil, err
	}
	return l.allClips()
}

func ParsePrefab(r io.Reader, baseDir string, opt *ParseOption) (*Prefab, error) {
	l, err := newLoader(r, baseDir, opt)
	if err != nil {
		return nil, err
	}
	if l.src.Root == nil {
		return nil, fmt.Errorf("prefab %q has no root node", l.src.Name)
	}
	root, err := l.node(l.src.Root, nil)
	if err != nil {
		return nil, err
	}
	if err := l.components(l.src.Root, root, root); err != nil {
		return nil, err
	}
	return &Prefab{Name: l.src.Name, Data: root}, nil
}

func newLoader(r io.Reader, baseDir string, opt *ParseOption) (*loader, error) {
	if opt == nil {
		opt = &ParseOption{}
	}
	var fallback transform.Transformer = unicode.UTF8.NewDecoder()
	if opt.ShiftJIS {
		fallback = japanese.ShiftJIS.NewDecoder()
	}
	b, err := ioutil.ReadAll(transform.NewReader(r, unicode.BOMOverride(fallback)))
	if err != nil {
		return nil, err
	}
	var src yamlPrefab
	if err := yaml.Unmarshal(b, &src); err != nil {
		return nil, err
	}
	return &loader{
		src:       &src,
		baseDir:   baseDir,
		meshes:    map[string]*Mesh{},
		materials: map[string]*Material{},
		textures:  map[string]*Texture2D{},
		skeletons: map[string]*Skeleton{},
		clips:     map[string]*AnimationClip{},
	}, nil
}

// node builds the node tree. Components are attached in a second walk because
// skinning roots refer to other nodes by path.
func (l *loader) node(src *yamlNode, parent *Node) (*Node, error) {
	n := NewNode(src.Name)
	if parent != nil {
		parent.AddChild(n)
	}
	if err := setTransform(n, src); err != nil {
		return nil, err
	}
	for _, c := range src.Children {
		if _, err := l.node(c, n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func setTransform(n *Node, src *yamlNode) error {
	if len(src.Matrix) > 0 {
		if len(src.Matrix) != 16 {
			return fmt.Errorf("node %q: matrix must have 16 elements", src.Name)
		}
		pos, rot, scale := geom.NewMatrix4FromSlice(src.Matrix).Decompose()
		n.Position = Vec3{pos.X, pos.Y, pos.Z}
		n.Rotation = Quat{rot.X, rot.Y, rot.Z, rot.W}
		n.Scale = Vec3{scale.X, scale.Y, scale.Z}
		return nil
	}
	if v := src.Position; v != nil {
		if len(v) != 3 {
			return fmt.Errorf("node %q: position must have 3 elements", src.Name)
		}
		n.Position = Vec3{v[0], v[1], v[2]}
	}
	if v := src.Rotation; v != nil {
		if len(v) != 4 {
			return fmt.Errorf("node %q: rotation must have 4 elements", src.Name)
		}
		n.Rotation = Quat{v[0], v[1], v[2], v[3]}
	} else if v := src.Euler; v != nil {
		if len(v) != 3 {
			return fmt.Errorf("node %q: euler must have 3 elements", src.Name)
		}
		q := geom.NewEulerDegrees(v[0], v[1], v[2], geom.RotationOrderYZX).ToQuaternion()
		n.Rotation = Quat{q.X, q.Y, q.Z, q.W}
	}
	if v := src.Scale; v != nil {
		if len(v) != 3 {
			return fmt.Errorf("node %q: scale must have 3 elements", src.Name)
		}
		n.Scale = Vec3{v[0], v[1], v[2]}
	}
	return nil
}

func (l *loader) components(src *yamlNode, n *Node, root *Node) error {
	for _, c := range src.Components {
		comp, err := l.component(c, root)
		if err != nil {
			return fmt.Errorf("node %q: %w", n.Name, err)
		}
		n.AddComponent(comp)
	}
	for i, c := range src.Children {
		if err := l.components(c, n.Children[i], root); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) component(c *yamlComponent, root *Node) (Component, error) {
	switch c.Type {
	case "cc.MeshRenderer", "MeshRenderer":
		r := &MeshRenderer{}
		return r, l.meshRenderer(c, r)
	case "cc.SkinnedMeshRenderer", "SkinnedMeshRenderer":
		r := &SkinnedMeshRenderer{}
		if err := l.meshRenderer(c, &r.MeshRenderer); err != nil {
			return nil, err
		}
		if c.Skeleton != "" {
			skel, err := l.skeleton(c.Skeleton)
			if err != nil {
				return nil, err
			}
			r.Skeleton = skel
		}
		if c.SkinningRoot != nil {
			n := FindNode(root, *c.SkinningRoot)
			if n == nil {
				return nil, fmt.Errorf("skinning root not found: %q", *c.SkinningRoot)
			}
			r.SkinningRoot = n
		}
		return r, nil
	case "cc.Animation", "Animation":
		a := &Animation{}
		for _, key := range c.Clips {
			clip, err := l.clip(key)
			if err != nil {
				return nil, err
			}
			a.Clips = append(a.Clips, clip)
		}
		if c.DefaultClip != "" {
			clip, err := l.clip(c.DefaultClip)
			if err != nil {
				return nil, err
			}
			a.DefaultClip = clip
		}
		return a, nil
	}
	return nil, fmt.Errorf("unknown component type: %q", c.Type)
}

func (l *loader) meshRenderer(c *yamlComponent, r *MeshRenderer) error {
	if c.Mesh != "" {
		mesh, err := l.mesh(c.Mesh)
		if err != nil {
			return err
		}
		r.Mesh = mesh
	}
	for _, key := range c.Materials {
		mat, err := l.material(key)
		if err != nil {
			return err
		}
		r.SharedMaterials = append(r.SharedMaterials, mat)
	}
	return nil
}

// FindNode walks child names of a slash separated path from root. An empty
// path returns root.
func FindNode(root *Node, path string) *Node {
	if path == "" {
		return root
	}
	n := root
	for _, name := range strings.Split(path, "/") {
		var next *Node
		for _, c := range n.Children {
			if c.Name == name {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		n = next
	}
	return n
}

func (l *loader) mesh(key string) (*Mesh, error) {
	if m, ok := l.meshes[key]; ok {
		return m, nil
	}
	src, ok := l.src.Meshes[key]
	if !ok || src == nil {
		return nil, fmt.Errorf("mesh not found: %q", key)
	}
	name := src.Name
	if name == "" {
		name = key
	}

	var mesh *Mesh
	var err error
	if src.Bin != "" {
		mesh, err = l.binaryMesh(name, src)
	} else {
		mesh, err = inlineMesh(name, src)
	}
	if err != nil {
		return nil, err
	}
	l.meshes[key] = mesh
	return mesh, nil
}

func (l *loader) binaryMesh(name string, src *yamlMesh) (*Mesh, error) {
	data, err := ioutil.ReadFile(l.resolve(src.Bin))
	if err != nil {
		return nil, err
	}
	mesh := &Mesh{Name: name, Data: data}
	for i, b := range src.Struct.VertexBundles {
		if err := b.View.validate(); err != nil {
			return nil, fmt.Errorf("mesh %q: vertex bundle %d: %w", name, i, err)
		}
		bundle := &VertexBundle{View: BufferView(b.View)}
		for _, a := range b.Attributes {
			if Format(a.Format).Components() == 0 {
				return nil, fmt.Errorf("mesh %q: unsupported vertex format: %q", name, a.Format)
			}
			bundle.Attributes = append(bundle.Attributes, &Attribute{Name: a.Name, Format: Format(a.Format), IsNormalized: a.IsNormalized})
		}
		mesh.Struct.VertexBundles = append(mesh.Struct.VertexBundles, bundle)
	}
	for i, p := range src.Struct.Primitives {
		prim := &Primitive{VertexBundleIndices: p.VertexBundleIndices}
		if p.IndexView != nil {
			if err := p.IndexView.validate(); err != nil {
				return nil, fmt.Errorf("mesh %q: primitive %d: %w", name, i, err)
			}
			v := BufferView(*p.IndexView)
			prim.IndexView = &v
		}
		mesh.Struct.Primitives = append(mesh.Struct.Primitives, prim)
	}
	return mesh, nil
}

func inlineMesh(name string, src *yamlMesh) (*Mesh, error) {
	var prims []*PrimitiveData
	for _, p := range src.Primitives {
		pd := &PrimitiveData{}
		for _, a := range p.Attributes {
			format := Format(a.Format)
			if format.Components() == 0 {
				return nil, fmt.Errorf("mesh %q: unsupported vertex format: %q", name, a.Format)
			}
			pd.Attributes = append(pd.Attributes, &AttributeData{
				Name:       a.Name,
				Format:     format,
				Normalized: a.Normalized,
				Data:       convertNumbers(a.Data, format.Kind()),
			})
		}
		if p.Indices != nil {
			switch p.IndexType {
			case "uint8":
				pd.Indices = narrow(p.Indices, KindUint8)
			case "", "uint16":
				pd.Indices = narrow(p.Indices, KindUint16)
			case "uint32":
				pd.Indices = p.Indices
			default:
				return nil, fmt.Errorf("mesh %q: unknown index type %q", name, p.IndexType)
			}
		}
		prims = append(prims, pd)
	}
	return BuildMesh(name, prims)
}

func convertNumbers(v []float64, kind ComponentKind) interface{} {
	switch kind {
	case KindUint8:
		d := make([]uint8, len(v))
		for i, f := range v {
			d[i] = uint8(f)
		}
		return d
	case KindUint16:
		d := make([]uint16, len(v))
		for i, f := range v {
			d[i] = uint16(f)
		}
		return d
	case KindUint32:
		d := make([]uint32, len(v))
		for i, f := range v {
			d[i] = uint32(f)
		}
		return d
	}
	d := make([]float32, len(v))
	for i, f := range v {
		d[i] = float32(f)
	}
	return d
}

func narrow(v []uint32, kind ComponentKind) interface{} {
	f := make([]float64, len(v))
	for i, n := range v {
		f[i] = float64(n)
	}
	return convertNumbers(f, kind)
}

func (l *loader) material(key string) (*Material, error) {
	if m, ok := l.materials[key]; ok {
		return m, nil
	}
	src, ok := l.src.Materials[key]
	if !ok || src == nil {
		return nil, fmt.Errorf("material not found: %q", key)
	}
	name := src.Name
	if name == "" {
		name = key
	}
	mat := NewMaterial(name)
	mat.Effect = src.Effect
	for k, c := range src.Colors {
		mat.Colors[k] = Color(c)
	}
	for k, f := range src.Floats {
		mat.Floats[k] = f
	}
	for k, texKey := range src.Textures {
		tex, err := l.texture(texKey)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", name, err)
		}
		mat.Textures[k] = tex
	}
	l.materials[key] = mat
	return mat, nil
}

func (l *loader) texture(key string) (*Texture2D, error) {
	if t, ok := l.textures[key]; ok {
		return t, nil
	}
	src, ok := l.src.Textures[key]
	if !ok || src == nil {
		return nil, fmt.Errorf("texture not found: %q", key)
	}
	tex := &Texture2D{
		Name:      src.Name,
		UUID:      src.UUID,
		WrapS:     src.WrapS,
		WrapT:     src.WrapT,
		MinFilter: src.MinFilter,
		MagFilter: src.MagFilter,
		MipFilter: src.MipFilter,
	}
	if tex.Name == "" {
		tex.Name = key
	}
	if tex.UUID == "" {
		tex.UUID = key
	}
	if src.Image != "" {
		data, err := ioutil.ReadFile(l.resolve(src.Image))
		if err != nil {
			return nil, err
		}
		tex.Image = &ImageAsset{NativeURL: src.Image, Data: data}
	}
	l.textures[key] = tex
	return tex, nil
}

func (l *loader) skeleton(key string) (*Skeleton, error) {
	if s, ok := l.skeletons[key]; ok {
		return s, nil
	}
	src, ok := l.src.Skeletons[key]
	if !ok || src == nil {
		return nil, fmt.Errorf("skeleton not found: %q", key)
	}
	skel := &Skeleton{Name: src.Name, Joints: src.Joints}
	if skel.Name == "" {
		skel.Name = key
	}
	for i, m := range src.BindPoses {
		if len(m) != 16 {
			return nil, fmt.Errorf("skeleton %q: bind pose %d must have 16 elements", skel.Name, i)
		}
		var mat Mat4
		copy(mat[:], m)
		skel.BindPoses = append(skel.BindPoses, mat)
	}
	l.skeletons[key] = skel
	return skel, nil
}

func (l *loader) clip(key string) (*AnimationClip, error) {
	if c, ok := l.clips[key]; ok {
		return c, nil
	}
	src, ok := l.src.Clips[key]
	if !ok || src == nil {
		return nil, fmt.Errorf("clip not found: %q", key)
	}
	clip := &AnimationClip{Name: src.Name, Duration: src.Duration}
	if clip.Name == "" {
		clip.Name = key
	}
	if src.Exotic != nil {
		clip.Exotic = &ExoticAnimation{}
		for _, n := range src.Exotic.Nodes {
			na := NewExoticNodeAnimation(n.Path)
			for prop, t := range n.Tracks {
				if t == nil {
					continue
				}
				na.SetTrack(prop, &ExoticTrack{Times: t.Times, Values: t.Values})
			}
			clip.Exotic.NodeAnimations = append(clip.Exotic.NodeAnimations, na)
		}
	}
	l.clips[key] = clip
	return clip, nil
}

// allClips returns clips sorted by key so that repeated loads are stable.
func (l *loader) allClips() ([]*AnimationClip, error) {
	keys := make([]string, 0, len(l.src.Clips))
	for k := range l.src.Clips {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var clips []*AnimationClip
	for _, k := range keys {
		c, err := l.clip(k)
		if err != nil {
			return nil, err
		}
		clips = append(clips, c)
	}
	return clips, nil
}

func (l *loader) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.baseDir, filepath.FromSlash(p))
}
