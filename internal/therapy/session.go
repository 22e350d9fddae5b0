package therapy

type SessionType string

const (
	SessionStandard     SessionType = "standard"
	SessionCrisis       SessionType = "crisis"
	SessionBreakthrough SessionType = "breakthrough"
	SessionCheckIn      SessionType = "check_in"
)

// ParseSessionType maps unknown or empty input to SessionStandard.
func ParseSessionType(s string) SessionType {
	switch SessionType(s) {
	case SessionCrisis, SessionBreakthrough, SessionCheckIn:
		return SessionType(s)
	default:
		return SessionStandard
	}
}

// Reply is the deterministic output of one therapy turn.
type Reply struct {
	Voice         Voice
	SessionType   SessionType
	Analysis      EmotionAnalysis
	Response      string
	Interventions []string
	Effectiveness float64
}

// Respond runs detection, template rendering, intervention lookup and
// scoring for one input.
func Respond(input string, voice Voice, sessionType SessionType, archetype string) Reply {
	analysis := DetectEmotion(input)
	response := Render(voice, sessionType, analysis, archetype)
	interventions := Interventions(analysis, sessionType)
	return Reply{
		Voice:         voice,
		SessionType:   sessionType,
		Analysis:      analysis,
		Response:      response,
		Interventions: interventions,
		Effectiveness: Effectiveness(response, interventions),
	}
}
