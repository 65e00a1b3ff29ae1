package clips

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/marrs-acoustics/reefscape/internal/inference"
	"github.com/marrs-acoustics/reefscape/internal/logger"
)

// Mode is a clip selection strategy
type Mode string

const (
	// Random samples rows with a seeded shuffle
	Random Mode = "random"
	// Ordered takes the lowest logits first
	Ordered Mode = "ordered"
)

// ParseMode returns the selection mode for s. Unknown modes are logged and
// fall back to Random.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Random, "":
		return Random
	case Ordered:
		return Ordered
	default:
		GetLogger().Error("Unknown clip selection mode, falling back to random",
			logger.String("mode", s))
		return Random
	}
}

// Select picks up to n rows. The input slice is not modified.
func Select(rows []inference.Row, mode Mode, n int, seed uint64) []inference.Row {
	out := slices.Clone(rows)
	switch mode {
	case Ordered:
		slices.SortStableFunc(out, func(a, b inference.Row) int { return cmp.Compare(a.Logit, b.Logit) })
	default:
		r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
