package economy

// AllActivities in a multiplier condition list matches every activity.
const AllActivities = "ALL_ACTIVITIES"

const (
	MultiplierStreakFire      = "STREAK_FIRE"
	MultiplierReflectionBoost = "REFLECTION_BOOST"
	MultiplierByteMagnet      = "BYTE_MAGNET"
	MultiplierPerfectWeek     = "PERFECT_WEEK_BOOST"
)

type Multiplier struct {
	ID            string
	Name          string
	Factor        float64
	DurationHours int
	Conditions    []string
}

func (m Multiplier) AppliesTo(activity string) bool {
	for _, c := range m.Conditions {
		if c == AllActivities || c == activity {
			return true
		}
	}
	return false
}

var Multipliers = map[string]Multiplier{
	MultiplierStreakFire: {
		ID: MultiplierStreakFire, Name: "Streak Fire", Factor: 1.5, DurationHours: 72,
		Conditions: []string{AllActivities},
	},
	MultiplierReflectionBoost: {
		ID: MultiplierReflectionBoost, Name: "Reflection Boost", Factor: 2.0, DurationHours: 48,
		Conditions: []string{ActivityJournalEntry},
	},
	MultiplierByteMagnet: {
		ID: MultiplierByteMagnet, Name: "Byte Magnet", Factor: 1.25, DurationHours: 168,
		Conditions: []string{AllActivities},
	},
	MultiplierPerfectWeek: {
		ID: MultiplierPerfectWeek, Name: "Perfect Week Boost", Factor: 2.0, DurationHours: 24,
		Conditions: []string{ActivityDailyRitual1, ActivityDailyRitual2, ActivityDailyRitual3},
	},
}

func MultiplierByID(id string) (Multiplier, bool) {
	m, ok := Multipliers[id]
	return m, ok
}
