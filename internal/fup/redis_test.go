package fup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC)

func TestRedisEnforcer_EnforceTherapy(t *testing.T) {
	const uid = "user-1"
	dayKey := "fup:therapy:user-1:d:20260302"
	hourKey := "fup:therapy:user-1:h:2026030210"
	toMidnight := 13*time.Hour + 45*time.Minute
	toHourEnd := 45 * time.Minute

	tests := []struct {
		name         string
		tier         model.UserTier
		setupMock    func(redismock.ClientMock)
		wantAllowed  bool
		wantWindow   string
		wantCooldown int
		wantErr      bool
	}{
		{
			name: "first session opens both windows",
			tier: model.UserTierFree,
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectIncr(dayKey).SetVal(1)
				mock.ExpectExpire(dayKey, toMidnight).SetVal(true)
				mock.ExpectIncr(hourKey).SetVal(1)
				mock.ExpectExpire(hourKey, toHourEnd).SetVal(true)
			},
			wantAllowed: true,
		},
		{
			name: "hourly limit exceeded",
			tier: model.UserTierFree,
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectIncr(dayKey).SetVal(3)
				mock.ExpectIncr(hourKey).SetVal(3)
				mock.ExpectTTL(hourKey).SetVal(30 * time.Minute)
			},
			wantWindow:   WindowHour,
			wantCooldown: 30,
		},
		{
			name: "daily limit exceeded skips the hourly counter",
			tier: model.UserTierFree,
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectIncr(dayKey).SetVal(6)
				mock.ExpectTTL(dayKey).SetVal(2 * time.Hour)
			},
			wantWindow:   WindowDay,
			wantCooldown: 120,
		},
		{
			name: "paid tier has a higher hourly limit",
			tier: model.UserTierPaid,
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectIncr(dayKey).SetVal(9)
				mock.ExpectIncr(hourKey).SetVal(9)
			},
			wantAllowed: true,
		},
		{
			name: "missing ttl falls back to the window end",
			tier: model.UserTierFree,
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectIncr(dayKey).SetVal(2)
				mock.ExpectIncr(hourKey).SetVal(4)
				mock.ExpectTTL(hourKey).SetVal(-1)
			},
			wantWindow:   WindowHour,
			wantCooldown: 45,
		},
		{
			name: "redis error",
			tier: model.UserTierFree,
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectIncr(dayKey).SetErr(errors.New("redis connection error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := redismock.NewClientMock()
			tt.setupMock(mock)

			e := NewRedisEnforcer(client, DefaultPolicy(), WithClock(func() time.Time { return fixedNow }))
			d, err := e.EnforceTherapy(context.Background(), uid, tt.tier)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantAllowed, d.Allowed)
				if !tt.wantAllowed {
					assert.Equal(t, tt.wantWindow, d.Window)
					require.NotNil(t, d.CooldownMinutes)
					assert.Equal(t, tt.wantCooldown, *d.CooldownMinutes)
					assert.NotEmpty(t, d.Reason)
				} else {
					assert.Nil(t, d.CooldownMinutes)
				}
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestKeysUseLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	hour, day := windows(fixedNow, tokyo)
	assert.Equal(t, "fup:therapy:u:h:2026030219", HourKey("u", hour))
	assert.Equal(t, "fup:therapy:u:d:20260302", DayKey("u", day))
}
