package converter

import (
	"bytes"
	"fmt"
	"image"
	"path"

	"github.com/binzume/cocos2gltf/cocos"
	blezektga "github.com/blezek/tga"
	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/oov/psd"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

type textureCache struct {
	textures map[string]*textureInfo
}

type textureInfo struct {
	name string
	id   *uint32
}

func (c *textureCache) get(tex *cocos.Texture2D) *textureInfo {
	key := tex.UUID
	if key == "" {
		key = tex.Name
	}
	if t, ok := c.textures[key]; ok {
		return t
	}
	t := &textureInfo{name: tex.Name}
	c.textures[key] = t
	return t
}

type samplerKey struct {
	mag   gltf.MagFilter
	min   gltf.MinFilter
	wrapS gltf.WrappingMode
	wrapT gltf.WrappingMode
}

var wrapModes = map[string]gltf.WrappingMode{
	"REPEAT":          gltf.WrapRepeat,
	"CLAMP_TO_EDGE":   gltf.WrapClampToEdge,
	"MIRRORED_REPEAT": gltf.WrapMirroredRepeat,
}

var magFilters = map[string]gltf.MagFilter{
	"LINEAR":  gltf.MagLinear,
	"NEAREST": gltf.MagNearest,
	"POINT":   gltf.MagNearest,
}

type minKey struct{ min, mip string }

var minFilters = map[minKey]gltf.MinFilter{
	{"LINEAR", ""}:         gltf.MinLinear,
	{"LINEAR", "NONE"}:     gltf.MinLinear,
	{"NEAREST", ""}:        gltf.MinNearest,
	{"NEAREST", "NONE"}:    gltf.MinNearest,
	{"POINT", ""}:          gltf.MinNearest,
	{"POINT", "NONE"}:      gltf.MinNearest,
	{"LINEAR", "LINEAR"}:   gltf.MinLinearMipMapLinear,
	{"LINEAR", "POINT"}:    gltf.MinLinearMipMapNearest,
	{"LINEAR", "NEAREST"}:  gltf.MinLinearMipMapNearest,
	{"POINT", "LINEAR"}:    gltf.MinNearestMipMapLinear,
	{"NEAREST", "LINEAR"}:  gltf.MinNearestMipMapLinear,
	{"POINT", "POINT"}:     gltf.MinNearestMipMapNearest,
	{"NEAREST", "NEAREST"}: gltf.MinNearestMipMapNearest,
}

// mimeType follows the engine's import rule: png stays png, everything else
// is treated as jpeg.
func mimeType(img *cocos.ImageAsset) string {
	if img.Ext() == "png" {
		return "image/png"
	}
	return "image/jpeg"
}

// addTexture embeds the image of tex once per texture and returns the texture
// index. A texture without image data is skipped and returns nil.
func (c *cocosToGltf) addTexture(tex *cocos.Texture2D) (*uint32, error) {
	t := c.textures.get(tex)
	if t.id != nil {
		return t.id, nil
	}
	img := tex.Image
	if img == nil || img.NativeURL == "" || len(img.Data) == 0 {
		c.log.Debug("texture without image", zap.String("texture", tex.Name))
		return nil, nil
	}

	mime := mimeType(img)
	if c.SniffTextures {
		if err := sniffImage(img, mime); err != nil {
			c.log.Warn("texture content", zap.String("texture", tex.Name), zap.Error(err))
		}
	}
	name := tex.Name
	if name == "" {
		name = path.Base(img.NativeURL)
	}
	source, err := modeler.WriteImage(c.Document, name, mime, bytes.NewReader(img.Data))
	if err != nil {
		return nil, err
	}
	c.Buffers[0].ByteLength = uint32(len(c.Buffers[0].Data)) // avoid AddImage bug

	c.Textures = append(c.Textures,
		&gltf.Texture{Sampler: gltf.Index(c.addSampler(tex)), Source: gltf.Index(source)})
	t.id = gltf.Index(uint32(len(c.Textures)) - 1)
	c.log.Debug("texture", zap.String("name", name), zap.String("mime", mime), zap.Int("bytes", len(img.Data)))
	return t.id, nil
}

// addSampler returns a shared sampler for the filter and wrap modes of tex.
// Mode names without a glTF equivalent leave that field at its default.
func (c *cocosToGltf) addSampler(tex *cocos.Texture2D) uint32 {
	var key samplerKey
	var ok bool
	if tex.WrapS != "" {
		if key.wrapS, ok = wrapModes[tex.WrapS]; !ok {
			c.log.Warn("unsupported wrap mode", zap.String("texture", tex.Name), zap.String("wrapS", tex.WrapS))
		}
	}
	if tex.WrapT != "" {
		if key.wrapT, ok = wrapModes[tex.WrapT]; !ok {
			c.log.Warn("unsupported wrap mode", zap.String("texture", tex.Name), zap.String("wrapT", tex.WrapT))
		}
	}
	if tex.MagFilter != "" {
		if key.mag, ok = magFilters[tex.MagFilter]; !ok {
			c.log.Warn("unsupported filter", zap.String("texture", tex.Name), zap.String("magFilter", tex.MagFilter))
		}
	}
	if tex.MinFilter != "" {
		if key.min, ok = minFilters[minKey{tex.MinFilter, tex.MipFilter}]; !ok {
			c.log.Warn("unsupported filter", zap.String("texture", tex.Name),
				zap.String("minFilter", tex.MinFilter), zap.String("mipFilter", tex.MipFilter))
		}
	}

	if id, ok := c.samplers[key]; ok {
		return id
	}
	c.Samplers = append(c.Samplers, &gltf.Sampler{
		MagFilter: key.mag,
		MinFilter: key.min,
		WrapS:     key.wrapS,
		WrapT:     key.wrapT,
	})
	id := uint32(len(c.Samplers) - 1)
	c.samplers[key] = id
	return id
}

// sniffImage checks that the image bytes can be decoded and match mime.
func sniffImage(img *cocos.ImageAsset, mime string) error {
	kind, _ := filetype.Match(img.Data)
	if kind.MIME.Value != "" && kind.MIME.Value != mime {
		return fmt.Errorf("%s: content is %s, exported as %s", img.NativeURL, kind.MIME.Value, mime)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil && img.Ext() == "tga" {
		// tga has no magic number, so it is never registered with image.
		format = "tga"
		if _, err = tga.DecodeConfig(bytes.NewReader(img.Data)); err != nil {
			_, err = blezektga.Decode(bytes.NewReader(img.Data))
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", img.NativeURL, err)
	}
	if "image/"+format != mime {
		return fmt.Errorf("%s: decoded as %s, exported as %s", img.NativeURL, format, mime)
	}
	return nil
}
