package converter

import (
	"errors"
	"fmt"

	"github.com/binzume/cocos2gltf/cocos"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

const Generator = "cocos2gltf"

var (
	ErrMaterialCount    = errors.New("material count does not match primitive count")
	ErrNodeNotFound     = errors.New("node not found")
	ErrUnknownAttribute = errors.New("unknown vertex attribute")
	ErrInvalidAccessor  = errors.New("invalid accessor data")
	ErrSampleCount      = errors.New("sample count mismatch")
)

type CocosToGLTFOption struct {
	Logger *zap.Logger // Default: no-op

	// KeepZeroFactors copies metallic and roughness factors even when they are 0.
	KeepZeroFactors bool
	// SniffTextures decodes embedded image headers and warns when the content
	// does not match the file extension.
	SniffTextures       bool
	DropEmptyAnimations bool
	Interpolation       gltf.Interpolation // Default: LINEAR
}

type cocosToGltf struct {
	*CocosToGLTFOption
	*gltf.Document
	log *zap.Logger

	buffer   *accessorBuilder
	nodeMap  map[*cocos.Node]uint32
	textures *textureCache
	samplers map[samplerKey]uint32
}

func NewCocosToGLTFConverter(options *CocosToGLTFOption) *cocosToGltf {
	if options == nil {
		options = &CocosToGLTFOption{SniffTextures: true}
	}
	lg := options.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	doc := gltf.NewDocument()
	if len(doc.Buffers) == 0 {
		doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	}
	doc.Asset.Generator = Generator
	return &cocosToGltf{
		CocosToGLTFOption: options,
		Document:          doc,
		log:               lg,
		buffer:            &accessorBuilder{doc: doc},
		nodeMap:           map[*cocos.Node]uint32{},
		textures:          &textureCache{textures: map[string]*textureInfo{}},
		samplers:          map[samplerKey]uint32{},
	}
}

// ConvertPrefab mirrors the node tree of the prefab into the scene and then
// attaches meshes, materials and skins.
func (c *cocosToGltf) ConvertPrefab(prefab *cocos.Prefab) error {
	if prefab == nil || prefab.Data == nil {
		return fmt.Errorf("empty prefab")
	}
	c.log.Debug("convert prefab", zap.String("name", prefab.Name))
	roots, work := c.walkNodes(prefab.Data)
	c.Scenes[0].Nodes = append(c.Scenes[0].Nodes, roots...)

	for _, w := range work {
		mesh, err := c.convertMesh(w.renderer.GetMeshRenderer())
		if err != nil {
			return fmt.Errorf("node %q: %w", w.src.Name, err)
		}
		c.Nodes[w.node].Mesh = gltf.Index(mesh)

		if skinned, ok := w.renderer.(*cocos.SkinnedMeshRenderer); ok && skinned.Skeleton != nil {
			skin, err := c.convertSkin(skinned)
			if err != nil {
				return fmt.Errorf("node %q: %w", w.src.Name, err)
			}
			c.Nodes[w.node].Skin = gltf.Index(skin)
		}
	}
	return nil
}

// ConvertPrefabAnimations converts the clips of the Animation component on
// the prefab root.
func (c *cocosToGltf) ConvertPrefabAnimations(prefab *cocos.Prefab) error {
	if prefab == nil || prefab.Data == nil {
		return nil
	}
	var anim *cocos.Animation
	if !prefab.Data.GetComponent(&anim) {
		return nil
	}
	clips := anim.Clips
	if len(clips) == 0 && anim.DefaultClip != nil {
		clips = []*cocos.AnimationClip{anim.DefaultClip}
	}
	return c.ConvertAnimations(clips)
}

func (c *cocosToGltf) ConvertAnimations(clips []*cocos.AnimationClip) error {
	for _, clip := range clips {
		if clip == nil {
			continue
		}
		if err := c.convertAnimation(clip); err != nil {
			return fmt.Errorf("clip %q: %w", clip.Name, err)
		}
	}
	return nil
}

// Convert converts the prefab, its own clips and any extra clips, and returns
// the finished document. The converter must not be used afterwards.
func (c *cocosToGltf) Convert(prefab *cocos.Prefab, clips ...*cocos.AnimationClip) (*gltf.Document, error) {
	if err := c.ConvertPrefab(prefab); err != nil {
		return nil, err
	}
	if err := c.ConvertPrefabAnimations(prefab); err != nil {
		return nil, err
	}
	if err := c.ConvertAnimations(clips); err != nil {
		return nil, err
	}
	c.buffer.finish()
	c.log.Info("converted",
		zap.String("prefab", prefab.Name),
		zap.Int("nodes", len(c.Nodes)),
		zap.Int("meshes", len(c.Meshes)),
		zap.Int("materials", len(c.Materials)),
		zap.Int("skins", len(c.Skins)),
		zap.Int("animations", len(c.Animations)),
		zap.Int("bytes", len(c.Buffers[0].Data)))
	return c.Document, nil
}
