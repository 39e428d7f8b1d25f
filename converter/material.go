package converter

import (
	"github.com/binzume/cocos2gltf/cocos"
	"github.com/binzume/cocos2gltf/geom"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

// Material property names used by the builtin-standard effect.
const (
	propMainColor   = "mainColor"
	propMainTexture = "mainTexture"
	propMetallic    = "metallic"
	propRoughness   = "roughness"
	propNormalMap   = "normalMap"
	propEmissive    = "emissive"
)

// findOrCreateMaterial returns the existing material with the same name, so
// the first material seen with a name decides its properties.
func (c *cocosToGltf) findOrCreateMaterial(mat *cocos.Material) (uint32, error) {
	for i, m := range c.Materials {
		if m.Name == mat.Name {
			return uint32(i), nil
		}
	}
	c.Materials = append(c.Materials, c.convertMaterial(mat))
	c.log.Debug("material", zap.String("name", mat.Name))
	return uint32(len(c.Materials) - 1), nil
}

func linearColor(col cocos.Color) [3]float32 {
	hex := col.Hex()
	return [3]float32{
		geom.SRGBToLinear(float32(hex>>16&0xff) / 255),
		geom.SRGBToLinear(float32(hex>>8&0xff) / 255),
		geom.SRGBToLinear(float32(hex&0xff) / 255),
	}
}

func (c *cocosToGltf) convertMaterial(mat *cocos.Material) *gltf.Material {
	pbr := &gltf.PBRMetallicRoughness{}
	mm := &gltf.Material{
		Name:                 mat.Name,
		PBRMetallicRoughness: pbr,
	}

	if col, ok := mat.GetColorProperty(propMainColor); ok {
		rgb := linearColor(col)
		pbr.BaseColorFactor = &[4]float32{rgb[0], rgb[1], rgb[2], col.Alpha()}
	}
	if v, ok := mat.GetFloatProperty(propMetallic); ok && (v != 0 || c.KeepZeroFactors) {
		pbr.MetallicFactor = &v
	}
	if v, ok := mat.GetFloatProperty(propRoughness); ok && (v != 0 || c.KeepZeroFactors) {
		pbr.RoughnessFactor = &v
	}
	if col, ok := mat.GetColorProperty(propEmissive); ok {
		mm.EmissiveFactor = linearColor(col)
	}

	if tex, ok := mat.GetTextureProperty(propMainTexture); ok {
		if id, err := c.addTexture(tex); err != nil {
			c.log.Warn("texture error", zap.String("material", mat.Name), zap.String("texture", tex.Name), zap.Error(err))
		} else if id != nil {
			pbr.BaseColorTexture = &gltf.TextureInfo{Index: *id}
		}
	}
	if tex, ok := mat.GetTextureProperty(propNormalMap); ok {
		if id, err := c.addTexture(tex); err != nil {
			c.log.Warn("texture error", zap.String("material", mat.Name), zap.String("texture", tex.Name), zap.Error(err))
		} else if id != nil {
			mm.NormalTexture = &gltf.NormalTexture{Index: id}
		}
	}
	return mm
}
