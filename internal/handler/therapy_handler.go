package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/ctrl-alt-block/internal/service"
)

const maxTherapyInput = 4000

type TherapyHandler struct {
	svc service.VoiceTherapyService
}

func NewTherapyHandler(svc service.VoiceTherapyService) *TherapyHandler {
	return &TherapyHandler{svc: svc}
}

type therapySessionRequest struct {
	Input          string `json:"input"`
	PreferredVoice string `json:"preferredVoice"`
	SessionType    string `json:"sessionType"`
}

type TherapySessionResponse struct {
	ID            string   `json:"id"`
	Voice         string   `json:"voice"`
	SessionType   string   `json:"sessionType"`
	Archetype     *string  `json:"archetype"`
	Emotion       string   `json:"emotion"`
	Emotions      []string `json:"emotions"`
	Intensity     string   `json:"intensity"`
	Themes        []string `json:"themes"`
	Response      string   `json:"response"`
	Interventions []string `json:"interventions"`
	Effectiveness float64  `json:"effectiveness"`
	StartedAt     string   `json:"startedAt"`
	CompletedAt   string   `json:"completedAt"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func toTherapySessionResponse(s *service.Session) TherapySessionResponse {
	return TherapySessionResponse{
		ID:            s.ID,
		Voice:         string(s.Voice),
		SessionType:   string(s.SessionType),
		Archetype:     strPtrOrNil(s.Archetype),
		Emotion:       s.Emotion.Primary,
		Emotions:      nonNil(s.Emotion.Emotions),
		Intensity:     string(s.Emotion.Intensity),
		Themes:        nonNil(s.Emotion.Themes),
		Response:      s.Response,
		Interventions: nonNil(s.Interventions),
		Effectiveness: s.Effectiveness,
		StartedAt:     s.StartedAt.UTC().Format(time.RFC3339),
		CompletedAt:   s.CompletedAt.UTC().Format(time.RFC3339),
	}
}

// StartSession answers 429 with Retry-After on a fair-use denial and 503
// when the session could not be evaluated.
func (h *TherapyHandler) StartSession(c echo.Context) error {
	uid, err := uidFrom(c)
	if uid == "" {
		return err
	}
	var req therapySessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	req.Input = strings.TrimSpace(req.Input)
	if req.Input == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "input is required"))
	}
	if len(req.Input) > maxTherapyInput {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "input is too long"))
	}

	res := h.svc.InitiateSession(c.Request().Context(), service.SessionRequest{
		UserID:         uid,
		Input:          req.Input,
		PreferredVoice: req.PreferredVoice,
		SessionType:    req.SessionType,
	})
	switch {
	case res.Unavailable:
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("unavailable", res.Reason))
	case !res.Allowed:
		if res.CooldownMinutes != nil {
			c.Response().Header().Set("Retry-After", strconv.Itoa(*res.CooldownMinutes*60))
		}
		return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
			"allowed":         false,
			"reason":          res.Reason,
			"cooldownMinutes": res.CooldownMinutes,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"allowed": true,
		"session": toTherapySessionResponse(res.Session),
	})
}
