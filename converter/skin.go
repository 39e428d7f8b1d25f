package converter

import (
	"fmt"

	"github.com/binzume/cocos2gltf/cocos"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

func (c *cocosToGltf) convertSkin(r *cocos.SkinnedMeshRenderer) (uint32, error) {
	skel := r.Skeleton
	if len(skel.BindPoses) != len(skel.Joints) {
		return 0, fmt.Errorf("%w: skeleton %q has %d joints and %d bind poses",
			ErrInvalidAccessor, skel.Name, len(skel.Joints), len(skel.BindPoses))
	}

	mats := make([]float32, 0, len(skel.BindPoses)*16)
	for _, m := range skel.BindPoses {
		mats = append(mats, m[:]...)
	}
	ibm, err := c.buffer.add("inverseBindMatrices", gltf.AccessorMat4, mats, gltf.TargetNone)
	if err != nil {
		return 0, err
	}

	skin := &gltf.Skin{Name: skel.Name, InverseBindMatrices: gltf.Index(ibm)}
	var root *uint32
	if r.SkinningRoot != nil {
		if idx, ok := c.nodeMap[r.SkinningRoot]; ok {
			root = gltf.Index(idx)
			skin.Skeleton = root
		}
	}
	for _, path := range skel.Joints {
		joint, err := c.resolvePath(root, path)
		if err != nil {
			return 0, fmt.Errorf("skeleton %q: %w", skel.Name, err)
		}
		skin.Joints = append(skin.Joints, joint)
	}

	c.Skins = append(c.Skins, skin)
	c.log.Debug("skin", zap.String("name", skel.Name), zap.Int("joints", len(skin.Joints)))
	return uint32(len(c.Skins) - 1), nil
}
