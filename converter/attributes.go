package converter

import (
	"fmt"

	"github.com/qmuntal/gltf"
)

type semantic struct {
	name  string
	shape gltf.AccessorType
}

var vertexAttributes = map[string]semantic{
	"a_position":  {"POSITION", gltf.AccessorVec3},
	"a_normal":    {"NORMAL", gltf.AccessorVec3},
	"a_tangent":   {"TANGENT", gltf.AccessorVec4},
	"a_texCoord":  {"TEXCOORD_0", gltf.AccessorVec2},
	"a_texCoord1": {"TEXCOORD_1", gltf.AccessorVec2},
	"a_texCoord2": {"TEXCOORD_2", gltf.AccessorVec2},
	"a_color":     {"COLOR_0", gltf.AccessorVec4},
	"a_joints":    {"JOINTS_0", gltf.AccessorVec4},
	"a_weights":   {"WEIGHTS_0", gltf.AccessorVec4},
}

// Animation tracks are keyed by the node property they drive.
var targetPaths = map[string]gltf.TRSProperty{
	"position": gltf.TRSTranslation,
	"rotation": gltf.TRSRotation,
	"scale":    gltf.TRSScale,
}

// trackOrder fixes the channel order within one node track.
var trackOrder = []string{"position", "rotation", "scale"}

var shapeArity = map[gltf.AccessorType]int{
	gltf.AccessorScalar: 1,
	gltf.AccessorVec2:   2,
	gltf.AccessorVec3:   3,
	gltf.AccessorVec4:   4,
	gltf.AccessorMat2:   4,
	gltf.AccessorMat3:   9,
	gltf.AccessorMat4:   16,
}

// mapAttribute returns the glTF semantic and element shape for an engine
// vertex attribute with the given component count.
func mapAttribute(name string, components int) (semantic, error) {
	s, ok := vertexAttributes[name]
	if !ok {
		return semantic{}, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	if s.name == "COLOR_0" && components == 3 {
		s.shape = gltf.AccessorVec3
	}
	if shapeArity[s.shape] != components {
		return semantic{}, fmt.Errorf("%w: %s expects %d components, got %d", ErrInvalidAccessor, s.name, shapeArity[s.shape], components)
	}
	return s, nil
}

func mapTargetPath(property string) (gltf.TRSProperty, bool) {
	p, ok := targetPaths[property]
	return p, ok
}

func trackShape(path gltf.TRSProperty) gltf.AccessorType {
	if path == gltf.TRSRotation {
		return gltf.AccessorVec4
	}
	return gltf.AccessorVec3
}
