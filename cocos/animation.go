package cocos

type Skeleton struct {
	Name string
	// Joints are slash separated node paths relative to the skinning root.
	Joints    []string
	BindPoses []Mat4
}

type AnimationClip struct {
	Name     string
	Duration float32
	// Exotic is nil for clips that have no node-keyed exotic animation.
	Exotic *ExoticAnimation
}

type ExoticAnimation struct {
	NodeAnimations []*ExoticNodeAnimation
}

// ExoticNodeAnimation holds the tracks of one node keyed by property name
// ("position", "rotation", "scale", ...).
type ExoticNodeAnimation struct {
	Path   string
	Tracks map[string]*ExoticTrack
}

func NewExoticNodeAnimation(path string) *ExoticNodeAnimation {
	return &ExoticNodeAnimation{Path: path, Tracks: map[string]*ExoticTrack{}}
}

func (a *ExoticNodeAnimation) SetTrack(property string, track *ExoticTrack) *ExoticNodeAnimation {
	a.Tracks[property] = track
	return a
}

// ExoticTrack stores samples as parallel arrays; Values is flattened.
type ExoticTrack struct {
	Times  []float32
	Values []float32
}
