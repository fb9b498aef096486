package soccer

import (
	"fmt"
	"math"
	"strings"

	"github.com/logrusorgru/aurora"
)

// Render draws a top-down view of the scene, one character per arena unit,
// with +x to the right and +z up. Colors are disabled when color is false.
func Render(s *Scene, w WorldConfig, color bool) string {
	au := aurora.NewAurora(color)
	cols := int(math.Round(2*w.HalfWidth)) + 1
	rows := int(math.Round(2*w.HalfDepth)) + 1

	cell := func(x, z float64) (int, int, bool) {
		c := int(math.Round(x + w.HalfWidth))
		r := int(math.Round(w.HalfDepth - z))
		return r, c, r >= 0 && r < rows && c >= 0 && c < cols
	}

	grid := make([][]string, rows)
	for r := range grid {
		grid[r] = make([]string, cols)
		for c := range grid[r] {
			grid[r][c] = au.White(".").String()
		}
	}
	// later bodies are drawn over earlier ones
	bodies := []struct {
		b   *Body
		sym aurora.Value
	}{
		{s.Target, au.Green("X")},
		{s.Ball, au.Yellow("o")},
		{s.Agent, au.Cyan(agentGlyph(s.Agent.Yaw()))},
	}
	for _, body := range bodies {
		if r, c, ok := cell(body.b.Position.X(), body.b.Position.Z()); ok {
			grid[r][c] = body.sym.String()
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(strings.Join(row, ""))
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "agent (%.2f, %.2f, %.2f) yaw %.0f  ball (%.2f, %.2f, %.2f)  target (%.2f, %.2f)\n",
		s.Agent.Position.X(), s.Agent.Position.Y(), s.Agent.Position.Z(), s.Agent.Yaw(),
		s.Ball.Position.X(), s.Ball.Position.Y(), s.Ball.Position.Z(),
		s.Target.Position.X(), s.Target.Position.Z(),
	)
	return sb.String()
}

// agentGlyph points toward the heading on screen
func agentGlyph(yaw float64) string {
	switch YawBucket(yaw+45, 4) {
	case 0:
		return "v"
	case 1:
		return "<"
	case 2:
		return "^"
	default:
		return ">"
	}
}
