package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/ctrl-alt-block/internal/service"
)

type AchievementHandler struct {
	svc service.AchievementService
}

func NewAchievementHandler(svc service.AchievementService) *AchievementHandler {
	return &AchievementHandler{svc: svc}
}

type UnlockedAchievementResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Badge       *string  `json:"badge"`
	Title       *string  `json:"title"`
	RewardBytes int64    `json:"rewardBytes"`
	Multipliers []string `json:"multipliers"`
}

func toUnlockedList(list []service.UnlockedAchievement) []UnlockedAchievementResponse {
	out := make([]UnlockedAchievementResponse, 0, len(list))
	for _, a := range list {
		mults := a.Multipliers
		if mults == nil {
			mults = []string{}
		}
		out = append(out, UnlockedAchievementResponse{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Badge:       strPtrOrNil(a.Badge),
			Title:       strPtrOrNil(a.Title),
			RewardBytes: a.RewardBytes,
			Multipliers: mults,
		})
	}
	return out
}

type AchievementStatusResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Badge       *string `json:"badge"`
	Title       *string `json:"title"`
	RewardBytes int64   `json:"rewardBytes"`
	Unlocked    bool    `json:"unlocked"`
	UnlockedAt  *string `json:"unlockedAt,omitempty"`
}

func (h *AchievementHandler) List(c echo.Context) error {
	uid, err := uidFrom(c)
	if uid == "" {
		return err
	}
	list, err := h.svc.ListAchievements(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]AchievementStatusResponse, 0, len(list))
	for _, a := range list {
		var unlockedAt *string
		if a.UnlockedAt != nil {
			val := a.UnlockedAt.UTC().Format(time.RFC3339)
			unlockedAt = &val
		}
		out = append(out, AchievementStatusResponse{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Category:    a.Category,
			Badge:       strPtrOrNil(a.Badge),
			Title:       strPtrOrNil(a.Title),
			RewardBytes: a.RewardBytes,
			Unlocked:    a.Unlocked,
			UnlockedAt:  unlockedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

type checkAchievementsRequest struct {
	Activity string                 `json:"activity"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (h *AchievementHandler) Check(c echo.Context) error {
	uid, err := uidFrom(c)
	if uid == "" {
		return err
	}
	var req checkAchievementsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	unlocked, err := h.svc.CheckAchievements(c.Request().Context(), uid, req.Activity, req.Metadata)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"unlocked": toUnlockedList(unlocked),
	})
}

type MultiplierResponse struct {
	ID          string  `json:"id"`
	Factor      float64 `json:"factor"`
	ActivatedAt string  `json:"activatedAt"`
	ExpiresAt   string  `json:"expiresAt"`
}

func (h *AchievementHandler) Multipliers(c echo.Context) error {
	uid, err := uidFrom(c)
	if uid == "" {
		return err
	}
	list, err := h.svc.GetActiveMultipliers(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]MultiplierResponse, 0, len(list))
	for _, m := range list {
		out = append(out, MultiplierResponse{
			ID:          m.MultiplierID,
			Factor:      m.Factor,
			ActivatedAt: m.ActivatedAt.UTC().Format(time.RFC3339),
			ExpiresAt:   m.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, out)
}
