package economy

const (
	StreakLogin     = "login"
	StreakRitual    = "ritual"
	StreakNoContact = "no_contact"
	StreakJournal   = "journal"
)

var StreakTypes = []string{StreakLogin, StreakRitual, StreakNoContact, StreakJournal}

// StreakActivities lists the activities that keep each streak type alive.
var StreakActivities = map[string][]string{
	StreakLogin:     {ActivityDailyLogin},
	StreakRitual:    {ActivityDailyRitual1, ActivityDailyRitual2, ActivityDailyRitual3, ActivityAllDailyRituals},
	StreakNoContact: {ActivityNoContactDay},
	StreakJournal:   {ActivityJournalEntry},
}

type StreakBonus struct {
	Days  int
	Bytes int64
	Badge string
}

// StreakBonuses is keyed by the exact streak length that pays out.
var StreakBonuses = map[int]StreakBonus{
	3:   {Days: 3, Bytes: 25, Badge: "spark"},
	7:   {Days: 7, Bytes: 100, Badge: "week-warrior"},
	14:  {Days: 14, Bytes: 250, Badge: "fortnight-firewall"},
	30:  {Days: 30, Bytes: 500, Badge: "monthly-master"},
	60:  {Days: 60, Bytes: 1000, Badge: "system-reboot"},
	100: {Days: 100, Bytes: 2000, Badge: "century-survivor"},
	365: {Days: 365, Bytes: 10000, Badge: "full-reinstall"},
}

func StreakBonusFor(days int) (StreakBonus, bool) {
	b, ok := StreakBonuses[days]
	return b, ok
}

func IsStreakType(t string) bool {
	for _, s := range StreakTypes {
		if s == t {
			return true
		}
	}
	return false
}
