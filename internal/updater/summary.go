package updater

import (
	"fmt"

	"github.com/caedis/deltaplan/internal/plan"
	"github.com/dustin/go-humanize"
)

// Summary describes a plan in one line, e.g.
// "3 delta packages, 52 kB to download".
func Summary(p *plan.Plan) string {
	n := len(p.Steps())
	switch p.Strategy() {
	case plan.StrategyNone:
		return "nothing to apply"
	case plan.StrategyDelta:
		noun := "packages"
		if n == 1 {
			noun = "package"
		}
		return fmt.Sprintf("%d delta %s, %s to download", n, noun, humanize.Bytes(uint64(p.DownloadSize())))
	default:
		return fmt.Sprintf("full package %s, %s to download", p.Target().Filename, humanize.Bytes(uint64(p.DownloadSize())))
	}
}
