package timeline

import "math/rand"

// BarColors is the palette for task bars on the timeline.
var BarColors = []string{
	"#3B82F6", // blue
	"#10B981", // green
	"#F59E0B", // amber
	"#8B5CF6", // purple
	"#EF4444", // red
	"#06B6D4", // cyan
	"#84CC16", // lime
	"#F97316", // orange
	"#EC4899", // pink
	"#6366F1", // indigo
	"#14B8A6", // teal
	"#F43F5E", // rose
	"#0EA5E9", // sky
	"#22C55E", // emerald
}

// RandomBarColor picks a palette color for a new task.
func RandomBarColor() string {
	return BarColors[rand.Intn(len(BarColors))]
}
