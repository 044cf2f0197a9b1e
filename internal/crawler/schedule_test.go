package crawler

import "testing"

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()

	if _, err := NewScheduler(nil, nil, "not a cron spec", nil); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := NewScheduler(nil, nil, "*/15 * * * *", nil); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}
}
