package version

import "testing"

func TestInfoPrefersLinkerValues(t *testing.T) {
	oc, od := commit, date
	t.Cleanup(func() { commit, date = oc, od })

	commit, date = "abc1234", "2026-10-18"
	bi := Info()
	if bi.Commit != "abc1234" || bi.Date != "2026-10-18" || bi.Service != "sitebuilder" {
		t.Fatalf("unexpected %+v", bi)
	}
}

func TestInfoNeverEmpty(t *testing.T) {
	bi := Info()
	if bi.Commit == "" || bi.Date == "" || bi.Version == "" {
		t.Fatalf("unexpected %+v", bi)
	}
}
