package main

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/tutorescrow/internal/adapter/http/middleware"
	"github.com/iho/tutorescrow/internal/infrastructure/config"
	"github.com/iho/tutorescrow/internal/usecase"
)

func TestBookingPolicy_UsesConfiguredValues(t *testing.T) {
	cfg := &config.Config{
		DefaultCommissionRate: decimal.RequireFromString("0.25"),
		ApprovalTimeout:       6 * time.Hour,
		PaymentWindow:         12 * time.Hour,
		PaymentLeadTime:       time.Hour,
		ConfirmationWindow:    72 * time.Hour,
	}

	policy := bookingPolicy(cfg)

	assert.True(t, policy.DefaultCommissionRate.Equal(decimal.RequireFromString("0.25")))
	assert.Equal(t, 6*time.Hour, policy.ApprovalTimeout)
	assert.Equal(t, 12*time.Hour, policy.PaymentWindow)
	assert.Equal(t, time.Hour, policy.PaymentLeadTime)
	assert.Equal(t, 72*time.Hour, policy.ConfirmationWindow)
}

func TestBookingPolicy_FallsBackToDefaults(t *testing.T) {
	policy := bookingPolicy(&config.Config{})
	defaults := usecase.DefaultBookingPolicy()

	assert.True(t, policy.DefaultCommissionRate.Equal(defaults.DefaultCommissionRate))
	assert.Equal(t, defaults.ApprovalTimeout, policy.ApprovalTimeout)
	assert.Equal(t, defaults.PaymentWindow, policy.PaymentWindow)
	assert.Equal(t, defaults.PaymentLeadTime, policy.PaymentLeadTime)
	assert.Equal(t, defaults.ConfirmationWindow, policy.ConfirmationWindow)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{name: "header auth", cfg: config.Config{HTTPPort: "8080"}},
		{name: "jwt with secret", cfg: config.Config{HTTPPort: "8080", AuthEnabled: true, JWTSecret: "s3cret"}},
		{name: "jwt without secret", cfg: config.Config{HTTPPort: "8080", AuthEnabled: true}, wantErr: true},
		{name: "empty port", cfg: config.Config{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCleanupLimiters_StopsOnCancel(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		cleanupLimiters(ctx, rl, time.Millisecond, zerolog.Nop())
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "cleanup loop did not stop")
	}
}
