package cocos

import (
	"path"
	"strings"
)

type Color struct {
	R uint8
	G uint8
	B uint8
	A uint8
}

// Hex returns the color as 0xRRGGBB.
func (c Color) Hex() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func (c Color) Alpha() float32 {
	return float32(c.A) / 255
}

type Material struct {
	Name   string
	Effect string

	Colors   map[string]Color
	Floats   map[string]float32
	Textures map[string]*Texture2D
}

func NewMaterial(name string) *Material {
	return &Material{
		Name:     name,
		Colors:   map[string]Color{},
		Floats:   map[string]float32{},
		Textures: map[string]*Texture2D{},
	}
}

func (m *Material) GetColorProperty(name string) (Color, bool) {
	c, ok := m.Colors[name]
	return c, ok
}

func (m *Material) GetFloatProperty(name string) (float32, bool) {
	f, ok := m.Floats[name]
	return f, ok
}

func (m *Material) GetTextureProperty(name string) (*Texture2D, bool) {
	t, ok := m.Textures[name]
	return t, ok && t != nil
}

type ImageAsset struct {
	// NativeURL is the path of the imported image file. Only its extension is
	// meaningful to consumers.
	NativeURL string
	Data      []byte
}

// Ext returns the lower-cased extension of NativeURL without the dot.
func (img *ImageAsset) Ext() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(img.NativeURL), "."))
}

// Texture2D sampler fields hold engine enum names, e.g. "REPEAT" or "LINEAR".
type Texture2D struct {
	Name  string
	UUID  string
	Image *ImageAsset

	WrapS     string
	WrapT     string
	MinFilter string
	MagFilter string
	MipFilter string
}
