package shell

import (
	"testing"

	"tuishell/internal/layout"
)

func TestSplitSizesCoverExtent(t *testing.T) {
	for _, tc := range []struct {
		n      int
		ratios []float64
		extent int
	}{
		{2, []float64{0.5, 0.5}, 80},
		{2, []float64{0.3, 0.7}, 81},
		{3, []float64{0.2, 0.3, 0.5}, 100},
		{2, nil, 9},
	} {
		sizes := splitSizes(tc.n, tc.ratios, tc.extent)
		total := 0
		for _, s := range sizes {
			total += s
		}
		if total != tc.extent && sizes[len(sizes)-1] > 2 {
			t.Fatalf("n=%d extent=%d: sizes %v sum to %d", tc.n, tc.extent, sizes, total)
		}
	}
}

func TestPaneSizesWalksTheTree(t *testing.T) {
	split, err := layout.NewSplit(1, layout.Horizontal, []*layout.Container{
		layout.NewApp(2, "editor", "Editor"),
		layout.NewApp(3, "files", "Files"),
	})
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	sizes := map[string]PaneSize{}
	paneSizes(split, 80, 24, sizes)
	if len(sizes) != 2 {
		t.Fatalf("expected two panes, got %v", sizes)
	}
	for name, size := range sizes {
		if size.Width <= 0 || size.Height <= 0 {
			t.Fatalf("%s: non-positive size %+v", name, size)
		}
		if size.Width >= 80 {
			t.Fatalf("%s: pane wider than half the screen: %+v", name, size)
		}
	}
}

func TestRenderContainerEmptyShowsHint(t *testing.T) {
	out := renderContainer(layout.NewEmpty(0), 40, 10, true, nil)
	if !containsPlain(out, "no apps") {
		t.Fatalf("empty workspace should hint at the launcher: %q", out)
	}
}

func TestRenderContainerDrawsTitles(t *testing.T) {
	split, err := layout.NewSplit(1, layout.Vertical, []*layout.Container{
		layout.NewApp(2, "editor", "Editor"),
		layout.NewApp(3, "files", "Files"),
	})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	out := renderContainer(split, 40, 20, true, nil)
	for _, want := range []string{"Editor", "Files"} {
		if !containsPlain(out, want) {
			t.Fatalf("rendered tree missing %q", want)
		}
	}
}
