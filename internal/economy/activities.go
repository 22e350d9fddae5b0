// Package economy holds the static rule tables of the byte economy:
// earning activities, streak bonuses, glitch tiers, achievements and
// multipliers. The tables are read-only after package init.
package economy

const (
	ActivityDailyRitual1       = "DAILY_RITUAL_1"
	ActivityDailyRitual2       = "DAILY_RITUAL_2"
	ActivityDailyRitual3       = "DAILY_RITUAL_3"
	ActivityAllDailyRituals    = "ALL_DAILY_RITUALS_BONUS"
	ActivityDailyLogin         = "DAILY_LOGIN"
	ActivityJournalEntry       = "JOURNAL_ENTRY"
	ActivityTherapySession     = "AI_THERAPY_SESSION"
	ActivityWallPost           = "WALL_POST"
	ActivityWallReaction       = "WALL_REACTION_RECEIVED"
	ActivityNoContactDay       = "NO_CONTACT_DAY"
	ActivityChallengeCompleted = "CHALLENGE_COMPLETED"
	ActivityReferralSignup     = "REFERRAL_SIGNUP"
	ActivityMilestoneReached   = "MILESTONE_REACHED"
	ActivityProfileCompleted   = "PROFILE_COMPLETED"

	// Ledger activity keys for balance changes that do not come from the table.
	ActivityStreakBonus = "STREAK_BONUS"
	ActivityGlitchBonus = "GLITCH_BONUS"
	ActivityAchievement = "ACHIEVEMENT"
	ActivitySpend       = "SPEND"
)

// Activity is one earning rule. Caps are bytes earned for the activity
// inside the window; zero means uncapped. AdminOnly activities are granted
// by operators and never through the public API.
type Activity struct {
	Key         string
	Bytes       int64
	DailyCap    int64
	WeeklyCap   int64
	Description string
	AdminOnly   bool
}

var Activities = map[string]Activity{
	ActivityDailyRitual1:       {Key: ActivityDailyRitual1, Bytes: 50, DailyCap: 50, Description: "Completed first daily ritual"},
	ActivityDailyRitual2:       {Key: ActivityDailyRitual2, Bytes: 50, DailyCap: 50, Description: "Completed second daily ritual"},
	ActivityDailyRitual3:       {Key: ActivityDailyRitual3, Bytes: 50, DailyCap: 50, Description: "Completed third daily ritual"},
	ActivityAllDailyRituals:    {Key: ActivityAllDailyRituals, Bytes: 50, DailyCap: 50, Description: "Completed every ritual today"},
	ActivityDailyLogin:         {Key: ActivityDailyLogin, Bytes: 10, DailyCap: 10, Description: "Daily check-in"},
	ActivityJournalEntry:       {Key: ActivityJournalEntry, Bytes: 20, DailyCap: 60, Description: "Wrote a journal entry"},
	ActivityTherapySession:     {Key: ActivityTherapySession, Bytes: 15, DailyCap: 45, Description: "Finished a voice therapy session"},
	ActivityWallPost:           {Key: ActivityWallPost, Bytes: 10, DailyCap: 30, Description: "Posted on the wall"},
	ActivityWallReaction:       {Key: ActivityWallReaction, Bytes: 2, DailyCap: 40, Description: "Received a wall reaction"},
	ActivityNoContactDay:       {Key: ActivityNoContactDay, Bytes: 25, DailyCap: 25, Description: "Logged a no-contact day"},
	ActivityChallengeCompleted: {Key: ActivityChallengeCompleted, Bytes: 75, WeeklyCap: 300, Description: "Completed a challenge"},
	ActivityReferralSignup:     {Key: ActivityReferralSignup, Bytes: 200, WeeklyCap: 600, Description: "Referred a friend"},
	ActivityMilestoneReached:   {Key: ActivityMilestoneReached, Bytes: 100, Description: "Reached a recovery milestone", AdminOnly: true},
	ActivityProfileCompleted:   {Key: ActivityProfileCompleted, Bytes: 50, DailyCap: 50, Description: "Completed profile"},
}

func ActivityFor(key string) (Activity, bool) {
	a, ok := Activities[key]
	return a, ok
}
