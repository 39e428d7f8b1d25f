package converter

import (
	"fmt"
	"sort"

	"github.com/binzume/cocos2gltf/cocos"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

func (c *cocosToGltf) convertAnimation(clip *cocos.AnimationClip) error {
	if clip.Exotic == nil {
		c.log.Warn("clip has no node animations", zap.String("clip", clip.Name))
		return nil
	}

	anim := &gltf.Animation{Name: clip.Name}
	for _, na := range clip.Exotic.NodeAnimations {
		for _, prop := range ignoredTracks(na) {
			c.log.Debug("ignored track", zap.String("clip", clip.Name), zap.String("path", na.Path), zap.String("property", prop))
		}
		for _, prop := range trackOrder {
			track, ok := na.Tracks[prop]
			if !ok || track == nil {
				continue
			}
			target, _ := mapTargetPath(prop)
			if err := c.addChannel(anim, na.Path, target, track); err != nil {
				return fmt.Errorf("%s %s: %w", na.Path, prop, err)
			}
		}
	}

	if len(anim.Channels) == 0 && c.DropEmptyAnimations {
		c.log.Debug("empty animation dropped", zap.String("clip", clip.Name))
		return nil
	}
	c.Animations = append(c.Animations, anim)
	c.log.Debug("animation", zap.String("name", clip.Name), zap.Int("channels", len(anim.Channels)))
	return nil
}

func (c *cocosToGltf) addChannel(anim *gltf.Animation, path string, target gltf.TRSProperty, track *cocos.ExoticTrack) error {
	shape := trackShape(target)
	arity := shapeArity[shape]
	if len(track.Values) != len(track.Times)*arity {
		return fmt.Errorf("%w: %d times, %d values of %d components",
			ErrSampleCount, len(track.Times), len(track.Values), arity)
	}
	node, err := c.resolvePath(nil, path)
	if err != nil {
		return err
	}
	input, err := c.buffer.addWithBounds("time", gltf.AccessorScalar, track.Times, gltf.TargetNone)
	if err != nil {
		return err
	}
	output, err := c.buffer.add(path, shape, track.Values, gltf.TargetNone)
	if err != nil {
		return err
	}

	anim.Samplers = append(anim.Samplers, &gltf.AnimationSampler{
		Input:         gltf.Index(input),
		Output:        gltf.Index(output),
		Interpolation: c.Interpolation,
	})
	anim.Channels = append(anim.Channels, &gltf.Channel{
		Sampler: gltf.Index(uint32(len(anim.Samplers) - 1)),
		Target: gltf.ChannelTarget{
			Node: gltf.Index(node),
			Path: target,
		},
	})
	return nil
}

func ignoredTracks(na *cocos.ExoticNodeAnimation) []string {
	var props []string
	for prop := range na.Tracks {
		if _, ok := mapTargetPath(prop); !ok {
			props = append(props, prop)
		}
	}
	sort.Strings(props)
	return props
}
