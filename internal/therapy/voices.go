// Package therapy selects canned, archetype-aware replies for voice therapy
// sessions. Everything here is a pure function of its inputs.
package therapy

import "strings"

type Voice string

const (
	VoiceSage     Voice = "sage"
	VoiceHype     Voice = "hype"
	VoiceGlitch   Voice = "glitch"
	VoiceGuardian Voice = "guardian"
	VoiceMirror   Voice = "mirror"
)

// Voices is the tie-break order for affinity scoring.
var Voices = []Voice{VoiceSage, VoiceHype, VoiceGlitch, VoiceGuardian, VoiceMirror}

type VoiceProfile struct {
	ID          Voice
	Name        string
	Tone        string
	Description string
}

var VoiceProfiles = map[Voice]VoiceProfile{
	VoiceSage:     {ID: VoiceSage, Name: "The Sage", Tone: "calm", Description: "Slow, reflective, big-picture perspective"},
	VoiceHype:     {ID: VoiceHype, Name: "The Hype Coach", Tone: "energetic", Description: "Loud encouragement and momentum"},
	VoiceGlitch:   {ID: VoiceGlitch, Name: "The Glitch", Tone: "playful", Description: "Irreverent humour with tech metaphors"},
	VoiceGuardian: {ID: VoiceGuardian, Name: "The Guardian", Tone: "protective", Description: "Steady, safety-first support"},
	VoiceMirror:   {ID: VoiceMirror, Name: "The Mirror", Tone: "reflective", Description: "Gives your own words back to you"},
}

func IsVoice(v string) bool {
	_, ok := VoiceProfiles[Voice(v)]
	return ok
}

const (
	ArchetypeDataHoarder     = "DATA_HOARDER"
	ArchetypeFirewallBuilder = "FIREWALL_BUILDER"
	ArchetypeGhostRunner     = "GHOST_RUNNER"
	ArchetypeLoopDebugger    = "LOOP_DEBUGGER"
	ArchetypeSecureResetter  = "SECURE_RESETTER"
)

var Archetypes = []string{
	ArchetypeDataHoarder,
	ArchetypeFirewallBuilder,
	ArchetypeGhostRunner,
	ArchetypeLoopDebugger,
	ArchetypeSecureResetter,
}

func IsArchetype(a string) bool {
	for _, x := range Archetypes {
		if x == a {
			return true
		}
	}
	return false
}

// archetypeLabel turns DATA_HOARDER into "Data Hoarder".
func archetypeLabel(a string) string {
	if a == "" {
		return "Explorer"
	}
	parts := strings.Split(strings.ToLower(a), "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

var affinity = map[string]map[Voice]int{
	ArchetypeDataHoarder:     {VoiceSage: 9, VoiceHype: 4, VoiceGlitch: 5, VoiceGuardian: 6, VoiceMirror: 8},
	ArchetypeFirewallBuilder: {VoiceSage: 7, VoiceHype: 5, VoiceGlitch: 4, VoiceGuardian: 9, VoiceMirror: 6},
	ArchetypeGhostRunner:     {VoiceSage: 6, VoiceHype: 5, VoiceGlitch: 7, VoiceGuardian: 6, VoiceMirror: 9},
	ArchetypeLoopDebugger:    {VoiceSage: 7, VoiceHype: 6, VoiceGlitch: 9, VoiceGuardian: 5, VoiceMirror: 7},
	ArchetypeSecureResetter:  {VoiceSage: 6, VoiceHype: 9, VoiceGlitch: 7, VoiceGuardian: 5, VoiceMirror: 6},
}

// Affinity returns how well voice suits archetype; unknown archetypes score 0.
func Affinity(archetype string, voice Voice) int {
	return affinity[archetype][voice]
}

// SelectVoice honours a known preferred voice, then the crisis and
// breakthrough overrides, then the highest affinity for the archetype.
func SelectVoice(preferred string, sessionType SessionType, archetype string) Voice {
	if IsVoice(preferred) {
		return Voice(preferred)
	}
	switch sessionType {
	case SessionCrisis:
		return VoiceGuardian
	case SessionBreakthrough:
		return VoiceHype
	}
	best, bestScore := Voices[0], -1
	for _, v := range Voices {
		if s := Affinity(archetype, v); s > bestScore {
			best, bestScore = v, s
		}
	}
	return best
}
