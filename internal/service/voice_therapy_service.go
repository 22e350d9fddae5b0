package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/ctrl-alt-block/internal/fup"
	"github.com/shinyyama/ctrl-alt-block/internal/metrics"
	"github.com/shinyyama/ctrl-alt-block/internal/repository"
	"github.com/shinyyama/ctrl-alt-block/internal/reqctx"
	"github.com/shinyyama/ctrl-alt-block/internal/therapy"
	"go.uber.org/zap"
)

const MsgTherapyUnavailable = "Voice therapy is temporarily unavailable"

type SessionRequest struct {
	UserID         string
	Input          string
	PreferredVoice string
	SessionType    string
}

type Session struct {
	ID            string
	UserID        string
	Voice         therapy.Voice
	SessionType   therapy.SessionType
	Archetype     string
	Emotion       therapy.EmotionAnalysis
	Response      string
	Interventions []string
	Effectiveness float64
	StartedAt     time.Time
	CompletedAt   time.Time
}

// SessionResult is either an allowed session or a denial. Unavailable marks
// denials caused by a fault rather than by the fair-use policy.
type SessionResult struct {
	Allowed         bool
	Reason          string
	CooldownMinutes *int
	Unavailable     bool
	Session         *Session
}

type VoiceTherapyService interface {
	InitiateSession(ctx context.Context, req SessionRequest) *SessionResult
}

type voiceTherapyService struct {
	users    repository.UserRepository
	enforcer fup.Enforcer
	opts     options
}

func NewVoiceTherapyService(users repository.UserRepository, enforcer fup.Enforcer, opts ...Option) VoiceTherapyService {
	return &voiceTherapyService{users: users, enforcer: enforcer, opts: buildOptions(opts)}
}

func unavailable() *SessionResult {
	return &SessionResult{Allowed: false, Reason: MsgTherapyUnavailable, Unavailable: true}
}

func (s *voiceTherapyService) InitiateSession(ctx context.Context, req SessionRequest) *SessionResult {
	log := s.opts.logger.With(reqctx.Fields(ctx)...).With(zap.String("user_id", req.UserID))
	started := s.opts.nowUTC()

	u, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		log.Error("therapy user lookup failed", zap.Error(err))
		return unavailable()
	}
	sessionType := therapy.ParseSessionType(req.SessionType)
	voice := therapy.SelectVoice(req.PreferredVoice, sessionType, u.Archetype)

	decision, err := s.enforcer.EnforceTherapy(ctx, u.ID, u.Tier)
	if err != nil {
		log.Error("therapy fair-use check failed", zap.Error(err))
		return unavailable()
	}
	if !decision.Allowed {
		metrics.FUPDenials.WithLabelValues(decision.Window).Inc()
		log.Info("therapy session denied",
			zap.String("window", decision.Window),
			zap.String("reason", decision.Reason))
		return &SessionResult{
			Allowed:         false,
			Reason:          decision.Reason,
			CooldownMinutes: decision.CooldownMinutes,
		}
	}

	reply := therapy.Respond(req.Input, voice, sessionType, u.Archetype)
	sess := &Session{
		ID:            uuid.NewString(),
		UserID:        u.ID,
		Voice:         reply.Voice,
		SessionType:   reply.SessionType,
		Archetype:     u.Archetype,
		Emotion:       reply.Analysis,
		Response:      reply.Response,
		Interventions: reply.Interventions,
		Effectiveness: reply.Effectiveness,
		StartedAt:     started,
		CompletedAt:   s.opts.nowUTC(),
	}
	metrics.TherapySessions.WithLabelValues(string(sess.Voice), string(sess.SessionType)).Inc()
	log.Info("therapy session",
		zap.String("session_id", sess.ID),
		zap.String("voice", string(sess.Voice)),
		zap.String("session_type", string(sess.SessionType)),
		zap.String("archetype", sess.Archetype),
		zap.String("emotion", sess.Emotion.Primary),
		zap.String("intensity", string(sess.Emotion.Intensity)),
		zap.Strings("themes", sess.Emotion.Themes),
		zap.Strings("interventions", sess.Interventions),
		zap.Float64("effectiveness", sess.Effectiveness))
	return &SessionResult{Allowed: true, Session: sess}
}
