package shared

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
)

// NewProgressModel returns a bar of width cells without its own percentage,
// since RenderProgress prints file counts instead.
func NewProgressModel(width int) progress.Model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = width
	bar.ShowPercentage = false

	if !colorsDisabled {
		bar.EmptyColor = colorDim
		bar.FullColor = colorAccent
	}

	return bar
}

// Fraction returns done/total clamped to [0, 1]. An empty batch counts as
// complete.
func Fraction(done, total int) float64 {
	if total <= 0 {
		return 1
	}

	return min(1, max(0, float64(done)/float64(total)))
}

// RenderASCIIProgress draws percent (0 to 1) as "[====>    ] 50%" with width
// cells between the brackets.
func RenderASCIIProgress(percent float64, width int) string {
	cells := []byte(strings.Repeat(" ", width))
	filled := int(percent * float64(width))

	switch {
	case filled >= width:
		cells = []byte(strings.Repeat("=", width))
	case percent > 0:
		// The arrow sits inside the filled part once there is room for it.
		head := max(0, filled-1)
		if filled >= 3 {
			head = filled - 2
		}

		copy(cells, strings.Repeat("=", head)+">")
	}

	return fmt.Sprintf("[%s] %d%%", cells, int(percent*100))
}

// RenderProgress shows done of total files on the bubbles bar, or on the
// ASCII bar when colors are off.
func RenderProgress(model progress.Model, done, total int) string {
	percent := Fraction(done, total)
	counts := fmt.Sprintf("%d/%d files", done, total)

	if colorsDisabled {
		return RenderASCIIProgress(percent, model.Width) + " " + counts
	}

	return model.ViewAs(percent) + " " + RenderDim(counts)
}
