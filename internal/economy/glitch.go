package economy

const (
	GlitchTierSmall  = "small"
	GlitchTierMedium = "medium"
	GlitchTierLarge  = "large"
)

// GlitchRollsPerDay bounds the glitches a user can hit through awards in
// one calendar day.
const GlitchRollsPerDay = 1

type GlitchTier struct {
	Name   string
	Weight int
	Min    int64
	Max    int64
}

// GlitchTiers are drawn by weight; the order defines the cumulative ranges.
var GlitchTiers = []GlitchTier{
	{Name: GlitchTierSmall, Weight: 70, Min: 5, Max: 15},
	{Name: GlitchTierMedium, Weight: 25, Min: 20, Max: 50},
	{Name: GlitchTierLarge, Weight: 5, Min: 75, Max: 150},
}

// PickGlitchTier maps r in [0,1) onto the cumulative tier weights.
func PickGlitchTier(r float64) GlitchTier {
	total := 0
	for _, t := range GlitchTiers {
		total += t.Weight
	}
	target := r * float64(total)
	cumulative := 0.0
	for _, t := range GlitchTiers {
		cumulative += float64(t.Weight)
		if target < cumulative {
			return t
		}
	}
	return GlitchTiers[len(GlitchTiers)-1]
}
