package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/ctrl-alt-block/internal/economy"
	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"github.com/shinyyama/ctrl-alt-block/internal/service"
)

type ByteHandler struct {
	svc service.ByteService
}

func NewByteHandler(svc service.ByteService) *ByteHandler {
	return &ByteHandler{svc: svc}
}

type LedgerEntryResponse struct {
	ID            uint64                 `json:"id"`
	Type          string                 `json:"type"`
	Activity      string                 `json:"activity"`
	Amount        int64                  `json:"amount"`
	BalanceBefore int64                  `json:"balanceBefore"`
	BalanceAfter  int64                  `json:"balanceAfter"`
	Description   string                 `json:"description"`
	RelatedID     *string                `json:"relatedId,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     string                 `json:"createdAt"`
}

func toLedgerEntryResponse(e *model.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:            e.ID,
		Type:          string(e.Type),
		Activity:      e.Activity,
		Amount:        e.Amount,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		Description:   e.Description,
		RelatedID:     e.RelatedID,
		Metadata:      e.Metadata,
		CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toLedgerEntryList(entries []model.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, toLedgerEntryResponse(&entries[i]))
	}
	return out
}

type EarningStatsResponse struct {
	Today         int64 `json:"today"`
	ThisWeek      int64 `json:"thisWeek"`
	AllTime       int64 `json:"allTime"`
	CurrentStreak int   `json:"currentStreak"`
}

func toStatsResponse(s *service.EarningStats) EarningStatsResponse {
	return EarningStatsResponse{
		Today:         s.Today,
		ThisWeek:      s.ThisWeek,
		AllTime:       s.AllTime,
		CurrentStreak: s.CurrentStreak,
	}
}

func (h *ByteHandler) Info(c echo.Context) error {
	uid, err := uidFrom(c)
	if uid == "" {
		return err
	}
	info, err := h.svc.GetUserByteInfo(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"uid":                info.UserID,
		"balance":            info.Balance,
		"tier":               string(info.Tier),
		"archetype":          strPtrOrNil(info.Archetype),
		"recentTransactions": toLedgerEntryList(info.RecentTransactions),
		"stats":              toStatsResponse(&info.Stats),
	})
}

func (h *ByteHandler) Stats(c echo.Context) error {
	uid, err := uidFrom(c)
	if uid == "" {
		return err
	}
	stats, err := h.svc.GetEarningStats(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toStatsResponse(stats))
}

func (h *ByteHandler) Transactions(c echo.Context) error {
	uid, err := uidFrom(c)
	if uid == "" {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	page, err := h.svc.ListTransactions(c.Request().Context(), uid, limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":  toLedgerEntryList(page.Items),
		"total":  page.Total,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

type awardRequest struct {
	Activity string                 `json:"activity"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (h *ByteHandler) Award(c echo.Context) error {
	uid, err := uidFrom(c)
	if uid == "" {
		return err
	}
	var req awardRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if req.Activity == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "activity is required"))
	}
	if act, ok := economy.ActivityFor(req.Activity); ok && act.AdminOnly {
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "activity is granted by operators only"))
	}
	res, err := h.svc.AwardBytes(c.Request().Context(), uid, req.Activity, req.Metadata)
	if err != nil {
		return writeError(c, err)
	}
	resp := map[string]interface{}{
		"success":      res.Success,
		"message":      res.Message,
		"baseBytes":    res.BaseBytes,
		"bytesAwarded": res.BytesAwarded,
		"newBalance":   res.NewBalance,
		"limitReached": res.LimitReached,
		"achievements": toUnlockedList(res.Achievements),
	}
	if res.Entry != nil {
		resp["transaction"] = toLedgerEntryResponse(res.Entry)
	}
	if res.Glitch != nil {
		resp["glitch"] = toGlitchResponse(res.Glitch)
	}
	return c.JSON(http.StatusOK, resp)
}

func toGlitchResponse(g *service.GlitchBonusResult) map[string]interface{} {
	return map[string]interface{}{
		"message":      g.Message,
		"tier":         g.Tier,
		"bytesAwarded": g.BytesAwarded,
	}
}

type spendRequest struct {
	Amount      int64                  `json:"amount"`
	Description string                 `json:"description"`
	RelatedID   *string                `json:"relatedId"`
	Metadata    map[string]interface{} `json:"metadata"`
}

func (h *ByteHandler) Spend(c echo.Context) error {
	uid, err := uidFrom(c)
	if uid == "" {
		return err
	}
	var req spendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	res, err := h.svc.SpendBytes(c.Request().Context(), uid, req.Amount, req.Description, req.RelatedID, req.Metadata)
	if err != nil {
		return writeError(c, err)
	}
	resp := map[string]interface{}{
		"success":    res.Success,
		"message":    res.Message,
		"bytesSpent": res.BytesSpent,
		"newBalance": res.NewBalance,
	}
	if res.Entry != nil {
		resp["transaction"] = toLedgerEntryResponse(res.Entry)
	}
	return c.JSON(http.StatusOK, resp)
}

type streakBonusRequest struct {
	StreakType string `json:"streakType"`
	StreakDays int    `json:"streakDays"`
}

func (h *ByteHandler) StreakBonus(c echo.Context) error {
	uid, err := uidFrom(c)
	if uid == "" {
		return err
	}
	var req streakBonusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	res, err := h.svc.AwardStreakBonus(c.Request().Context(), uid, req.StreakType, req.StreakDays)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":        res.Success,
		"message":        res.Message,
		"alreadyAwarded": res.AlreadyAwarded,
		"streakType":     res.StreakType,
		"streakDays":     res.StreakDays,
		"currentStreak":  res.CurrentStreak,
		"bytesAwarded":   res.BytesAwarded,
		"badge":          strPtrOrNil(res.Badge),
		"newBalance":     res.NewBalance,
	})
}
