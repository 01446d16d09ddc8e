package database

import "testing"

// 同一ジョブ名は常に同一のロックキーに変換されること
func TestLockKey_Deterministic(t *testing.T) {
	k1 := lockKey("generate-health-insights")
	k2 := lockKey("generate-health-insights")

	if k1 != k2 {
		t.Errorf("lockKey が決定論的でない: %d != %d", k1, k2)
	}
}

// 異なるジョブ名は異なるロックキーになること
func TestLockKey_DiffersByJobName(t *testing.T) {
	jobs := []string{
		"check-medication-reminders",
		"check-appointment-reminders",
		"generate-health-insights",
		"update-health-predictions",
		"cleanup-derived-rows",
	}

	seen := make(map[int64]string)
	for _, job := range jobs {
		key := lockKey(job)
		if prev, ok := seen[key]; ok {
			t.Errorf("ロックキーが衝突: %q と %q", prev, job)
		}
		seen[key] = job
	}
}

func TestNewAdvisoryLocker_ReturnsNonNil(t *testing.T) {
	locker := NewAdvisoryLocker(nil)
	if locker == nil {
		t.Fatal("NewAdvisoryLocker は nil を返してはならない")
	}
}
