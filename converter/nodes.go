package converter

import (
	"fmt"
	"strings"

	"github.com/binzume/cocos2gltf/cocos"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

type meshWork struct {
	src      *cocos.Node
	node     uint32
	renderer cocos.Renderer
}

// walkNodes mirrors the descendants of root. It returns the indices of the
// mirrored children of root and the renderers to convert, in preorder.
func (c *cocosToGltf) walkNodes(root *cocos.Node) ([]uint32, []*meshWork) {
	var work []*meshWork
	var roots []uint32
	for _, child := range root.Children {
		roots = append(roots, c.walkNode(child, &work))
	}
	return roots, work
}

func (c *cocosToGltf) walkNode(n *cocos.Node, work *[]*meshWork) uint32 {
	idx := uint32(len(c.Nodes))
	c.Nodes = append(c.Nodes, &gltf.Node{
		Name:        n.Name,
		Translation: [3]float32{n.Position.X, n.Position.Y, n.Position.Z},
		Rotation:    [4]float32{n.Rotation.X, n.Rotation.Y, n.Rotation.Z, n.Rotation.W},
		Scale:       [3]float32{n.Scale.X, n.Scale.Y, n.Scale.Z},
	})
	c.nodeMap[n] = idx
	c.log.Debug("node", zap.String("name", n.Name), zap.Uint32("index", idx))

	if r := n.GetRenderer(); r != nil && r.GetMeshRenderer().Mesh != nil {
		*work = append(*work, &meshWork{src: n, node: idx, renderer: r})
	}
	for _, child := range n.Children {
		ci := c.walkNode(child, work)
		c.Nodes[idx].Children = append(c.Nodes[idx].Children, ci)
	}
	return idx
}

// resolvePath finds the node reached by matching each slash separated name
// against the children of the previous level. A nil root starts from the
// top level nodes of the scene. The first child with a matching name wins.
func (c *cocosToGltf) resolvePath(root *uint32, path string) (uint32, error) {
	if path == "" {
		if root == nil {
			return 0, fmt.Errorf("%w: empty path", ErrNodeNotFound)
		}
		return *root, nil
	}
	var level []uint32
	if root == nil {
		level = c.Scenes[0].Nodes
	} else {
		level = c.Nodes[*root].Children
	}
	var cur uint32
	for _, name := range strings.Split(path, "/") {
		found := false
		for _, ci := range level {
			if c.Nodes[ci].Name == name {
				cur, found = ci, true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: %q in %q", ErrNodeNotFound, name, path)
		}
		level = c.Nodes[cur].Children
	}
	return cur, nil
}
