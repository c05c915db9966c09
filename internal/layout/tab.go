package layout

type TabID uint32

const (
	// Ratio bounds for interactive resizing. A pane can never be squeezed
	// below a fifth of the axis or grown past four fifths.
	MinRatio = 0.2
	MaxRatio = 0.8
)

// Tab holds one pane tree plus tab-level metadata. The tree starts as a
// single App leaf and grows through Split.
type Tab struct {
	ID     TabID      `json:"id"`
	Root   *Container `json:"root"`
	Pinned bool       `json:"pinned,omitempty"`

	nextID ContainerID
}

func NewTab(id TabID, name, title string) *Tab {
	return &Tab{
		ID:     id,
		Root:   NewApp(1, name, title),
		nextID: 2,
	}
}

// RestoreTab rebuilds a tab around a deserialized tree, resuming the id
// counter past the highest container id in it.
func RestoreTab(id TabID, root *Container) *Tab {
	if root == nil {
		root = NewEmpty(0)
	}
	return &Tab{ID: id, Root: root, nextID: maxContainerID(root) + 1}
}

func maxContainerID(c *Container) ContainerID {
	if c == nil {
		return 0
	}
	highest := c.ID
	for _, child := range c.Children {
		if id := maxContainerID(child); id > highest {
			highest = id
		}
	}
	return highest
}

// Title reports the title of the focused App leaf.
func (t *Tab) Title() string {
	if t == nil {
		return ""
	}
	if app := t.Root.FindFocusedApp(); app != nil {
		return app.Title
	}
	return ""
}

// FocusedName reports the app name of the focused App leaf.
func (t *Tab) FocusedName() string {
	if t == nil {
		return ""
	}
	if app := t.Root.FindFocusedApp(); app != nil {
		return app.Name
	}
	return ""
}

// Split converts the root into a two-child split: the previous tree stays
// as child 0 and the new app becomes child 1 with focus.
func (t *Tab) Split(dir Direction, name, title string) {
	if t == nil || t.Root == nil {
		return
	}
	old := t.Root
	t.Root = &Container{
		ID:        t.takeID(),
		Kind:      KindSplit,
		Direction: dir,
		Children:  []*Container{old, NewApp(t.takeID(), name, title)},
		Ratios:    []float64{0.5, 0.5},
		Focused:   1,
	}
}

// FocusPane toggles focus between the two panes, but only when the split
// runs along the requested axis. Any other shape is a no-op.
func (t *Tab) FocusPane(dir Direction) {
	if t == nil || t.Root == nil || t.Root.Kind != KindSplit {
		return
	}
	if t.Root.Direction != dir {
		return
	}
	if t.Root.Focused == 0 {
		t.Root.Focused = 1
	} else {
		t.Root.Focused = 0
	}
}

// ResizeSplit shifts the first child's share of the split axis by delta,
// clamped to [MinRatio, MaxRatio]. The second ratio is kept complementary.
func (t *Tab) ResizeSplit(delta float64) {
	if t == nil || t.Root == nil || t.Root.Kind != KindSplit || len(t.Root.Ratios) != 2 {
		return
	}
	r := t.Root.Ratios[0] + delta
	if r < MinRatio {
		r = MinRatio
	}
	if r > MaxRatio {
		r = MaxRatio
	}
	t.Root.Ratios[0] = r
	t.Root.Ratios[1] = 1 - r
}

// CloseFocusedPane collapses a split by promoting the unfocused sibling.
// Returns false when the root is a leaf, which has nothing to close into.
func (t *Tab) CloseFocusedPane() bool {
	if t == nil || t.Root == nil || t.Root.Kind != KindSplit || len(t.Root.Children) != 2 {
		return false
	}
	survivor := 0
	if t.Root.Focused == 0 {
		survivor = 1
	}
	t.Root = t.Root.Children[survivor]
	return true
}

func (t *Tab) takeID() ContainerID {
	id := t.nextID
	t.nextID++
	return id
}
