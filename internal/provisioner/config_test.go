package provisioner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDefaults(t *testing.T) {
	cfg, err := NewBuilder().Build()
	require.NoError(t, err)

	assert.Equal(t, "wifiprov", cfg.APName)
	assert.Equal(t, 10, cfg.MaxRetries)
	assert.Equal(t, uint32(3000), cfg.RetryDelayMS)
	assert.Equal(t, uint32(300_000), cfg.APTimeoutMS)
	assert.Equal(t, 10*time.Second, cfg.JoinTimeout)
	assert.True(t, cfg.AutoWipeOnMaxRetries)
	assert.False(t, cfg.HardwareResetEnabled)
	assert.False(t, cfg.HTTPResetEnabled)
	assert.False(t, cfg.LEDEnabled)
	assert.False(t, cfg.MDNSEnabled)
	assert.False(t, cfg.DoubleRebootEnabled)
	assert.Equal(t, ":80", cfg.HTTPAddr)
	assert.Equal(t, ":53", cfg.DNSAddr)
}

func TestBuilderChaining(t *testing.T) {
	cfg, err := NewBuilder().
		APName("sensor").
		APPassword("setup123").
		APTimeout(2 * time.Minute).
		MaxRetries(5).
		RetryDelay(time.Second).
		AutoWipeOnMaxRetries(false).
		JoinTimeout(15 * time.Second).
		EnableHardwareReset(3*time.Second, true).
		EnableAuthenticatedHTTPReset().
		EnableLED(true).
		EnableMDNS("sensor").
		MDNSPort(8080).
		EnableDoubleRebootDetect(8 * time.Second).
		LogLevel("debug").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "sensor", cfg.APName)
	assert.Equal(t, "setup123", cfg.APPassword)
	assert.Equal(t, uint32(120_000), cfg.APTimeoutMS)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, uint32(1000), cfg.RetryDelayMS)
	assert.False(t, cfg.AutoWipeOnMaxRetries)
	assert.Equal(t, 15*time.Second, cfg.JoinTimeout)
	assert.True(t, cfg.HardwareResetEnabled)
	assert.Equal(t, uint32(3000), cfg.ResetButtonHoldMS)
	assert.True(t, cfg.ResetButtonActiveLow)
	assert.True(t, cfg.HTTPResetEnabled)
	assert.True(t, cfg.HTTPResetAuthRequired)
	assert.True(t, cfg.LEDEnabled)
	assert.True(t, cfg.LEDActiveLow)
	assert.True(t, cfg.MDNSEnabled)
	assert.Equal(t, "sensor", cfg.MDNSName)
	assert.Equal(t, 8080, cfg.MDNSPort)
	assert.True(t, cfg.DoubleRebootEnabled)
	assert.Equal(t, uint32(8000), cfg.DoubleRebootWindowMS)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestBuilderUnauthenticatedReset(t *testing.T) {
	cfg, err := NewBuilder().EnableHTTPReset().Build()
	require.NoError(t, err)
	assert.True(t, cfg.HTTPResetEnabled)
	assert.False(t, cfg.HTTPResetAuthRequired)
}

func TestBuilderValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Builder)
	}{
		{"empty ap name", func(b *Builder) { b.APName("") }},
		{"zero max retries", func(b *Builder) { b.MaxRetries(0) }},
		{"zero retry delay", func(b *Builder) { b.RetryDelay(0) }},
		{"zero join timeout", func(b *Builder) { b.JoinTimeout(0) }},
		{"zero button hold", func(b *Builder) { b.EnableHardwareReset(0, true) }},
		{"zero reboot window", func(b *Builder) { b.EnableDoubleRebootDetect(0) }},
		{"empty mdns name", func(b *Builder) { b.EnableMDNS("") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBuilder()
			tc.mutate(b)
			_, err := b.Build()
			assert.Error(t, err)
		})
	}
}
