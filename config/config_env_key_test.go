package config

import "testing"

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"postgres": map[string]any{
			"sslMode": "disable",
			"master": map[string]any{
				"userName": "user",
			},
		},
		"pubsub": map[string]any{
			"topicId": "",
		},
		"scheduler": map[string]any{
			"morningTime":  "08:00",
			"versionToken": "",
		},
		"secretKey": map[string]any{
			"admin": "",
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_MASTER_USERNAME", want: "postgres.master.userName"},
		{envKey: "PUBSUB_TOPICID", want: "pubsub.topicId"},
		{envKey: "SCHEDULER_MORNINGTIME", want: "scheduler.morningTime"},
		{envKey: "SCHEDULER_VERSIONTOKEN", want: "scheduler.versionToken"},
		{envKey: "SECRETKEY_ADMIN", want: "secretKey.admin"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	if cfg.Scheduler.MorningTime != defaultMorningTime {
		t.Fatalf("morning time = %q, want %q", cfg.Scheduler.MorningTime, defaultMorningTime)
	}
	if cfg.Scheduler.RetryTime != defaultRetryTime {
		t.Fatalf("retry time = %q, want %q", cfg.Scheduler.RetryTime, defaultRetryTime)
	}
	if cfg.Scheduler.UserBatchSize != defaultUserBatchSize {
		t.Fatalf("user batch size = %d, want %d", cfg.Scheduler.UserBatchSize, defaultUserBatchSize)
	}
	if cfg.Scheduler.DispatchConcurrency != defaultDispatchConcurrency {
		t.Fatalf("dispatch concurrency = %d, want %d", cfg.Scheduler.DispatchConcurrency, defaultDispatchConcurrency)
	}
	if cfg.Dedupe.ClaimTTL != defaultClaimTTL {
		t.Fatalf("claim ttl = %s, want %s", cfg.Dedupe.ClaimTTL, defaultClaimTTL)
	}
	if cfg.Dedupe.FailMode != FailModeOpen {
		t.Fatalf("fail mode = %q, want %q", cfg.Dedupe.FailMode, FailModeOpen)
	}
}
