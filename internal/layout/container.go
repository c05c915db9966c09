package layout

import (
	"errors"
	"fmt"
)

type ContainerID uint32

// Direction is the axis of a split container.
type Direction string

const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

func (d Direction) Toggle() Direction {
	if d == Horizontal {
		return Vertical
	}
	return Horizontal
}

type Kind string

const (
	KindEmpty  Kind = "empty"
	KindApp    Kind = "app"
	KindSplit  Kind = "split"
	KindTabbed Kind = "tabbed"
)

var ErrNoChildren = errors.New("container requires at least one child")

// Container is a node in the pane layout tree. Leaf nodes are App or
// Empty; Split and Tabbed nodes own an ordered, never-empty child list.
type Container struct {
	ID        ContainerID  `json:"id"`
	Kind      Kind         `json:"kind"`
	Name      string       `json:"name,omitempty"`
	Title     string       `json:"title,omitempty"`
	Direction Direction    `json:"direction,omitempty"`
	Children  []*Container `json:"children,omitempty"`
	Ratios    []float64    `json:"ratios,omitempty"`
	Focused   int          `json:"focused,omitempty"`
	Active    int          `json:"active,omitempty"`
}

func NewEmpty(id ContainerID) *Container {
	return &Container{ID: id, Kind: KindEmpty}
}

func NewApp(id ContainerID, name, title string) *Container {
	return &Container{ID: id, Kind: KindApp, Name: name, Title: title}
}

// NewSplit builds a split with equal ratios and focus on the first child.
func NewSplit(id ContainerID, dir Direction, children []*Container) (*Container, error) {
	if len(children) == 0 {
		return nil, ErrNoChildren
	}
	ratios := make([]float64, len(children))
	for i := range ratios {
		ratios[i] = 1.0 / float64(len(children))
	}
	return &Container{
		ID:        id,
		Kind:      KindSplit,
		Direction: dir,
		Children:  children,
		Ratios:    ratios,
	}, nil
}

// NewTabbed builds a tabbed container with the first child active.
func NewTabbed(id ContainerID, children []*Container) (*Container, error) {
	if len(children) == 0 {
		return nil, ErrNoChildren
	}
	return &Container{ID: id, Kind: KindTabbed, Children: children}, nil
}

func (c *Container) IsEmpty() bool {
	return c == nil || c.Kind == KindEmpty
}

func (c *Container) IsLeaf() bool {
	return c != nil && (c.Kind == KindApp || c.Kind == KindEmpty)
}

func (c *Container) ChildCount() int {
	if c == nil {
		return 0
	}
	return len(c.Children)
}

// Validate checks the structural invariants: non-leaf nodes have children,
// focus indices are in range and ratios parallel the child list.
func (c *Container) Validate() error {
	if c == nil {
		return nil
	}
	switch c.Kind {
	case KindEmpty, KindApp:
		return nil
	case KindSplit:
		if len(c.Children) == 0 {
			return ErrNoChildren
		}
		if c.Focused < 0 || c.Focused >= len(c.Children) {
			return fmt.Errorf("split %d: focused index %d out of range", c.ID, c.Focused)
		}
		if len(c.Ratios) != len(c.Children) {
			return fmt.Errorf("split %d: %d ratios for %d children", c.ID, len(c.Ratios), len(c.Children))
		}
	case KindTabbed:
		if len(c.Children) == 0 {
			return ErrNoChildren
		}
		if c.Active < 0 || c.Active >= len(c.Children) {
			return fmt.Errorf("tabbed %d: active index %d out of range", c.ID, c.Active)
		}
	default:
		return fmt.Errorf("container %d: unknown kind %q", c.ID, c.Kind)
	}
	for _, child := range c.Children {
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// FindFocusedApp descends the Focused (split) or Active (tabbed) index
// until it reaches an App leaf. Returns nil if the subtree is Empty.
func (c *Container) FindFocusedApp() *Container {
	switch {
	case c == nil:
		return nil
	case c.Kind == KindApp:
		return c
	case c.Kind == KindEmpty:
		return nil
	case c.Kind == KindSplit:
		if c.Focused < 0 || c.Focused >= len(c.Children) {
			return nil
		}
		return c.Children[c.Focused].FindFocusedApp()
	case c.Kind == KindTabbed:
		if c.Active < 0 || c.Active >= len(c.Children) {
			return nil
		}
		return c.Children[c.Active].FindFocusedApp()
	}
	return nil
}

// AppNames collects the app names of every App leaf, depth first.
func (c *Container) AppNames() []string {
	if c == nil {
		return nil
	}
	if c.Kind == KindApp {
		return []string{c.Name}
	}
	var names []string
	for _, child := range c.Children {
		names = append(names, child.AppNames()...)
	}
	return names
}

// ContainsApp reports whether any App leaf carries the given name.
func (c *Container) ContainsApp(name string) bool {
	if c == nil {
		return false
	}
	if c.Kind == KindApp {
		return c.Name == name
	}
	for _, child := range c.Children {
		if child.ContainsApp(name) {
			return true
		}
	}
	return false
}

// RemoveApp prunes every App leaf with the given name from the subtree.
// Splits and tabbed groups left with a single child collapse into that
// child; a fully emptied subtree becomes nil.
func (c *Container) RemoveApp(name string) *Container {
	if c == nil {
		return nil
	}
	switch c.Kind {
	case KindApp:
		if c.Name == name {
			return nil
		}
		return c
	case KindEmpty:
		return c
	}

	kept := make([]*Container, 0, len(c.Children))
	keptIdx := make([]int, 0, len(c.Children))
	for i, child := range c.Children {
		if pruned := child.RemoveApp(name); pruned != nil {
			kept = append(kept, pruned)
			keptIdx = append(keptIdx, i)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}

	out := *c
	out.Children = kept
	if c.Kind == KindSplit {
		ratios := make([]float64, len(kept))
		total := 0.0
		for i, idx := range keptIdx {
			r := 1.0 / float64(len(c.Children))
			if idx < len(c.Ratios) {
				r = c.Ratios[idx]
			}
			ratios[i] = r
			total += r
		}
		for i := range ratios {
			ratios[i] /= total
		}
		out.Ratios = ratios
		out.Focused = clampIndex(c.Focused, len(kept))
	} else {
		out.Active = clampIndex(c.Active, len(kept))
	}
	return &out
}

func clampIndex(i, n int) int {
	if i >= n {
		return n - 1
	}
	if i < 0 {
		return 0
	}
	return i
}

// Clone returns a deep copy of the subtree.
func (c *Container) Clone() *Container {
	if c == nil {
		return nil
	}
	out := *c
	if len(c.Children) > 0 {
		out.Children = make([]*Container, len(c.Children))
		for i, child := range c.Children {
			out.Children[i] = child.Clone()
		}
	}
	if len(c.Ratios) > 0 {
		out.Ratios = append([]float64(nil), c.Ratios...)
	}
	return &out
}
