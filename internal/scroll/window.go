package scroll

// WindowConfig is the geometry for virtual-window computation over
// fixed-height rows.
type WindowConfig struct {
	ItemHeight      int // pixel height of one row, > 0
	ContainerHeight int // pixel height of the viewport
	Overscan        int // extra rows rendered on each side
}

// Window is a half-open index range [Start, End) of rows to render, plus
// the pixel offset of the first rendered row from the content top.
type Window struct {
	Start     int
	End       int
	OffsetTop int
}

// Visible computes the render window for a scroll position over total rows.
// The range is clamped to [0, total]; scrolling past either edge yields an
// edge-clamped window rather than out-of-range indices.
func (c WindowConfig) Visible(scrollTop, total int) Window {
	if c.ItemHeight <= 0 || total <= 0 {
		return Window{}
	}
	if scrollTop < 0 {
		scrollTop = 0
	}

	start := scrollTop/c.ItemHeight - c.Overscan
	if start < 0 {
		start = 0
	}

	bottom := scrollTop + c.ContainerHeight
	end := ceilDiv(bottom, c.ItemHeight) + c.Overscan
	if end > total {
		end = total
	}
	if start > end {
		start = end
	}

	return Window{
		Start:     start,
		End:       end,
		OffsetTop: start * c.ItemHeight,
	}
}

// ContentHeight returns the full pixel height of total rows.
func (c WindowConfig) ContentHeight(total int) int {
	if c.ItemHeight <= 0 || total < 0 {
		return 0
	}
	return total * c.ItemHeight
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
