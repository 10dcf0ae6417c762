package rewardqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRewardProfileResolveFallsBackToDefault(t *testing.T) {
	assert.Equal(t, DefaultWindow, RewardProfile{}.Resolve())
}

func TestRewardProfileResolveHonorsOverride(t *testing.T) {
	p := RewardProfile{Name: "fast-quiz", Window: 90 * time.Second}
	assert.Equal(t, 90*time.Second, p.Resolve())
}

func TestNewDueTsAddsWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	got := NewDueTs(now, 5*time.Minute)
	assert.Equal(t, now.Add(5*time.Minute), got)
}
