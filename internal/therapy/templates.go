package therapy

import "strings"

// Templates use {emotion}, {Emotion} (sentence start) and {archetype}
// placeholders.
var templates = map[Voice]map[SessionType]string{
	VoiceSage: {
		SessionStandard:     "I hear {emotion} in what you shared. Breakups rewrite our routines before they rewrite our hearts. As a {archetype}, you already know how to sort what matters from what doesn't. Take one slow breath and name one thing you did for yourself today.",
		SessionCrisis:       "I hear {emotion}, and you are not alone right now. Let's slow everything down. Put both feet on the floor and breathe in for four counts. If you feel unsafe, please reach out to a crisis line or someone you trust right now.",
		SessionBreakthrough: "What you're describing is real progress. {Emotion} is loosening its grip. A {archetype} who notices this kind of shift is already rewriting the story. Write this moment down so you can return to it.",
		SessionCheckIn:      "Checking in on you. I'm noticing {emotion} today. How has your sleep been, and what is one small win from the last day?",
	},
	VoiceHype: {
		SessionStandard:     "Okay, listen up! Yes, there's {emotion}, AND you showed up anyway. That's what a {archetype} does. Pick one ritual and smash it in the next hour. You've got this!",
		SessionCrisis:       "Hey, I've got you. {Emotion} is loud right now, but you are louder. First move: breathe with me, four in, four out. If it feels unsafe, call a crisis line or someone you trust right now. You are worth protecting.",
		SessionBreakthrough: "LOOK AT YOU! {Emotion} tried to run the show and you took the mic back. This {archetype} is leveling up. Celebrate it, then lock in tomorrow's ritual!",
		SessionCheckIn:      "Quick check-in, champ! There's some {emotion} in the air. What's one thing you crushed today? Tell me, and then let's line up the next win.",
	},
	VoiceGlitch: {
		SessionStandard:     "Beep boop, scanning... detected {emotion}. Totally normal error for a human running a breakup update. Your {archetype} firmware has patches for this. Close one tab in your head that's still pointing at them.",
		SessionCrisis:       "Pausing all the jokes. I see {emotion}, and you matter more than any process. Breathe slowly with me. If you feel unsafe, please contact a crisis line or someone you trust right now.",
		SessionBreakthrough: "System message: {emotion} has been moved to the recycle bin. Your {archetype} build just passed a major test. Screenshot this feeling, you earned it.",
		SessionCheckIn:      "Running a quick diagnostic. Current status shows {emotion}. How are your core processes, sleep, food and people? Report back when you can.",
	},
	VoiceGuardian: {
		SessionStandard:     "I'm here with you. {Emotion} makes sense after what you've been through. As a {archetype}, your boundaries are a strength. Keep them steady today and let yourself rest when you need to.",
		SessionCrisis:       "You are safe to talk here. I hear {emotion}, and I want you to be okay. Breathe in slowly, hold, and let it out. If you are in danger or thinking of hurting yourself, contact a crisis line or emergency services right now.",
		SessionBreakthrough: "I'm proud of you. {Emotion} no longer gets to make your decisions. Your {archetype} instincts kept you safe through the hardest part. Protect this progress gently.",
		SessionCheckIn:      "Just making sure you're okay. I'm sensing {emotion}. Did you eat, drink water and get some rest today? Your wellbeing comes first.",
	},
	VoiceMirror: {
		SessionStandard:     "You're telling me there's {emotion}. If you step back and look at it, what is that feeling asking you for? A {archetype} often already knows the answer. Try saying it out loud to yourself.",
		SessionCrisis:       "What I hear is {emotion}, and it sounds overwhelming. You don't have to solve anything right now. Breathe with me. If you feel unsafe, please reach out to a crisis line or someone you trust right now.",
		SessionBreakthrough: "Listen to what you just said. {Emotion} is changing shape. You, the {archetype}, noticed it. What does the person who wrote that want to do next?",
		SessionCheckIn:      "Reflecting back what I notice: {emotion}. If you had to describe today in three words, which would you choose?",
	},
}

var emotionPhrases = map[string]string{
	"sadness":      "a lot of sadness",
	"anger":        "some real anger",
	"anxiety":      "anxiety",
	"loneliness":   "loneliness",
	"hope":         "hope",
	"confusion":    "confusion",
	EmotionNeutral: "a mix of feelings",
}

var archetypeSuffixes = map[string]string{
	ArchetypeDataHoarder:     " Remember: you don't need to keep every old message to keep the lessons.",
	ArchetypeFirewallBuilder: " Your walls protect you, and it's okay to open a window for the right people.",
	ArchetypeGhostRunner:     " You don't have to disappear to heal; let one person in today.",
	ArchetypeLoopDebugger:    " If your mind replays the same scene, label it as a loop and step out of it.",
	ArchetypeSecureResetter:  " Your reset is working; keep building the new defaults.",
}

// Render fills the (voice, session type) template and appends the
// archetype suffix.
func Render(voice Voice, sessionType SessionType, a EmotionAnalysis, archetype string) string {
	byType, ok := templates[voice]
	if !ok {
		byType = templates[VoiceSage]
	}
	tpl, ok := byType[sessionType]
	if !ok {
		tpl = byType[SessionStandard]
	}
	phrase, ok := emotionPhrases[a.Primary]
	if !ok {
		phrase = emotionPhrases[EmotionNeutral]
	}
	out := strings.NewReplacer(
		"{emotion}", phrase,
		"{Emotion}", strings.ToUpper(phrase[:1])+phrase[1:],
		"{archetype}", archetypeLabel(archetype),
	).Replace(tpl)
	return out + archetypeSuffixes[archetype]
}

var emotionInterventions = map[string][]string{
	"sadness":      {"self_compassion", "gratitude_list"},
	"anger":        {"physical_release", "unsent_letter"},
	"anxiety":      {"box_breathing", "grounding_5_4_3_2_1"},
	"loneliness":   {"reach_out", "community_wall"},
	"hope":         {"future_self_journal", "celebrate_win"},
	"confusion":    {"reflective_journaling", "closure_letter"},
	EmotionNeutral: {"reflective_journaling"},
}

// Interventions lists tags for every detected emotion, deduplicated and in
// detection order. Crisis sessions and high intensity add a safety or
// grounding step first.
func Interventions(a EmotionAnalysis, sessionType SessionType) []string {
	var out []string
	seen := map[string]bool{}
	add := func(tags ...string) {
		for _, t := range tags {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	if sessionType == SessionCrisis {
		add("safety_plan")
	}
	if a.Intensity == IntensityHigh {
		add("box_breathing")
	}
	if len(a.Emotions) == 0 {
		add(emotionInterventions[EmotionNeutral]...)
	}
	for _, e := range a.Emotions {
		add(emotionInterventions[e]...)
	}
	return out
}

// Effectiveness is 0.5, plus 0.1 per intervention up to three, plus 0.1
// for a response over 200 characters, plus 0.1 when it addresses "you".
// The result never exceeds 1.0.
func Effectiveness(response string, interventions []string) float64 {
	tenths := 5
	n := len(interventions)
	if n > 3 {
		n = 3
	}
	tenths += n
	if len(response) > 200 {
		tenths++
	}
	if strings.Contains(strings.ToLower(response), "you") {
		tenths++
	}
	if tenths > 10 {
		tenths = 10
	}
	return float64(tenths) / 10
}
