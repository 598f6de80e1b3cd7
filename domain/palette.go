package domain

import "sync"

// Palette is the fixed set of participant colors, assigned in round-robin
// order across all rooms. Reuse is fair but colors are not unique per room.
var Palette = []string{
	"#FF6B6B", // red
	"#4ECDC4", // teal
	"#45B7D1", // cyan
	"#96CEB4", // green
	"#FFEAA7", // yellow
	"#DDA0DD", // lavender
	"#FF9F43", // orange
	"#54A0FF", // blue
	"#5F27CD", // purple
	"#FF9FF3", // pink
	"#00D2D3", // bright cyan
	"#55E6C1", // mint
	"#FFC312", // sunflower
	"#C4E538", // lime
	"#12CBC4", // aqua
}

// ColorCycle hands out palette colors in sequence. One instance is shared
// process-wide, owned by the presence registry, and resettable for tests.
type ColorCycle struct {
	mu    sync.Mutex
	index int
}

func NewColorCycle() *ColorCycle {
	return &ColorCycle{}
}

func (c *ColorCycle) Next() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	color := Palette[c.index]
	c.index = (c.index + 1) % len(Palette)
	return color
}

func (c *ColorCycle) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
}
