package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// formatDuration formats a duration as MM:SS
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

func (g *Game) statusLine() string {
	p := g.engine.Snapshot()
	var b strings.Builder
	fmt.Fprintf(&b, "%s | %s/%s | %.0f fps", formatDuration(time.Duration(g.engine.Time()*float64(time.Second))),
		p.Source, p.Spectrum, ebiten.ActualFPS())
	if g.player != nil {
		if title := g.player.Title(); title != "" {
			b.WriteString(" | " + title)
		}
	}
	if err := g.err(); err != nil {
		b.WriteString(" | Error: " + err.Error())
	}
	return b.String()
}
