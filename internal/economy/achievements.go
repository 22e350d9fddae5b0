package economy

type RequirementKind string

const (
	RequirementCount       RequirementKind = "count"
	RequirementStreak      RequirementKind = "streak"
	RequirementTotal       RequirementKind = "total"
	RequirementCombination RequirementKind = "combination"
)

// ComboPerfectWeek is the only combination rule: distinct active days in
// the last seven calendar days.
const ComboPerfectWeek = "perfect_week"

type Requirement struct {
	Kind     RequirementKind
	Activity string // count: ledger activity key; combination: combo name
	Target   int64
}

type Achievement struct {
	ID          string
	Name        string
	Description string
	Category    string
	Badge       string
	Title       string
	Requirement Requirement
	RewardBytes int64
	Unlocks     []string
}

// Achievements is evaluated in order; grants happen in the same order.
var Achievements = []Achievement{
	{
		ID:          "FIRST_BOOT",
		Name:        "First Boot",
		Description: "Complete your first daily ritual",
		Category:    "rituals",
		Badge:       "first-boot",
		Requirement: Requirement{Kind: RequirementCount, Activity: ActivityDailyRitual1, Target: 1},
		RewardBytes: 25,
	},
	{
		ID:          "RITUAL_ROUTINE",
		Name:        "Ritual Routine",
		Description: "Complete the first daily ritual ten times",
		Category:    "rituals",
		Badge:       "ritual-routine",
		Requirement: Requirement{Kind: RequirementCount, Activity: ActivityDailyRitual1, Target: 10},
		RewardBytes: 100,
	},
	{
		ID:          "DEAR_DIARY",
		Name:        "Dear Diary",
		Description: "Write your first journal entry",
		Category:    "journal",
		Badge:       "dear-diary",
		Requirement: Requirement{Kind: RequirementCount, Activity: ActivityJournalEntry, Target: 1},
		RewardBytes: 25,
	},
	{
		ID:          "LOG_KEEPER",
		Name:        "Log Keeper",
		Description: "Write 25 journal entries",
		Category:    "journal",
		Badge:       "log-keeper",
		Title:       "Archivist",
		Requirement: Requirement{Kind: RequirementCount, Activity: ActivityJournalEntry, Target: 25},
		RewardBytes: 250,
		Unlocks:     []string{MultiplierReflectionBoost},
	},
	{
		ID:          "TALK_IT_OUT",
		Name:        "Talk It Out",
		Description: "Finish ten voice therapy sessions",
		Category:    "therapy",
		Badge:       "talk-it-out",
		Requirement: Requirement{Kind: RequirementCount, Activity: ActivityTherapySession, Target: 10},
		RewardBytes: 150,
	},
	{
		ID:          "WALL_SIGNAL",
		Name:        "Wall Signal",
		Description: "Share five posts on the wall",
		Category:    "community",
		Badge:       "wall-signal",
		Requirement: Requirement{Kind: RequirementCount, Activity: ActivityWallPost, Target: 5},
		RewardBytes: 75,
	},
	{
		ID:          "STREAK_STARTER",
		Name:        "Streak Starter",
		Description: "Stay active three days in a row",
		Category:    "streaks",
		Badge:       "streak-starter",
		Requirement: Requirement{Kind: RequirementStreak, Target: 3},
		RewardBytes: 50,
	},
	{
		ID:          "WEEK_WARRIOR",
		Name:        "Week Warrior",
		Description: "Stay active seven days in a row",
		Category:    "streaks",
		Badge:       "week-warrior",
		Requirement: Requirement{Kind: RequirementStreak, Target: 7},
		RewardBytes: 150,
		Unlocks:     []string{MultiplierStreakFire},
	},
	{
		ID:          "UNBREAKABLE",
		Name:        "Unbreakable",
		Description: "Stay active thirty days in a row",
		Category:    "streaks",
		Badge:       "unbreakable",
		Title:       "Unbreakable",
		Requirement: Requirement{Kind: RequirementStreak, Target: 30},
		RewardBytes: 750,
		Unlocks:     []string{MultiplierStreakFire},
	},
	{
		ID:          "BYTE_COLLECTOR",
		Name:        "Byte Collector",
		Description: "Earn 1,000 bytes in total",
		Category:    "economy",
		Badge:       "byte-collector",
		Requirement: Requirement{Kind: RequirementTotal, Target: 1000},
		RewardBytes: 100,
	},
	{
		ID:          "DATA_MAGNATE",
		Name:        "Data Magnate",
		Description: "Earn 10,000 bytes in total",
		Category:    "economy",
		Badge:       "data-magnate",
		Title:       "Magnate",
		Requirement: Requirement{Kind: RequirementTotal, Target: 10000},
		RewardBytes: 500,
		Unlocks:     []string{MultiplierByteMagnet},
	},
	{
		ID:          "PERFECT_WEEK",
		Name:        "Perfect Week",
		Description: "Be active on every day of the last week",
		Category:    "streaks",
		Badge:       "perfect-week",
		Requirement: Requirement{Kind: RequirementCombination, Activity: ComboPerfectWeek, Target: 7},
		RewardBytes: 300,
		Unlocks:     []string{MultiplierPerfectWeek},
	},
}

func AchievementByID(id string) (Achievement, bool) {
	for _, a := range Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}
