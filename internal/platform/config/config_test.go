package config

import (
	"testing"
	"time"

	kit "sitebuilder/internal/platform/testkit"
)

func TestPrefixKey(t *testing.T) {
	build := New().Prefix("CORE_").Prefix("BUILD_")
	if got := build.Key("WORKERS"); got != "CORE_BUILD_WORKERS" {
		t.Fatalf("Key = %q", got)
	}
}

func TestMustString(t *testing.T) {
	pg := New().Prefix("SERVICE_PGSQL_")
	t.Setenv("SERVICE_PGSQL_DBURL", "  postgres://localhost/sites ")
	if got := pg.MustString("DBURL"); got != "postgres://localhost/sites" {
		t.Fatalf("MustString = %q", got)
	}
	t.Setenv("SERVICE_PGSQL_BLANK", "   ")
	kit.MustPanic(t, func() { _ = pg.MustString("BLANK") })
	kit.MustPanic(t, func() { _ = pg.MustString("MISSING") })
}

func TestMayScalars(t *testing.T) {
	c := New().Prefix("T_")
	t.Setenv("T_WORKERS", " 6 ")
	t.Setenv("T_BAD_INT", "six")
	t.Setenv("T_MIGRATE", "true")
	t.Setenv("T_BUDGET", "90s")
	t.Setenv("T_BAD_DUR", "soon")
	t.Setenv("T_TEMP", "0.4")

	if got := c.MayInt("WORKERS", 1); got != 6 {
		t.Fatalf("MayInt = %d", got)
	}
	if got := c.MayInt("BAD_INT", 3); got != 3 {
		t.Fatalf("invalid int should fall back, got %d", got)
	}
	if got := c.MayInt("UNSET", 9); got != 9 {
		t.Fatalf("unset int = %d", got)
	}
	if !c.MayBool("MIGRATE", false) {
		t.Fatal("MayBool should read true")
	}
	if got := c.MayDuration("BUDGET", time.Minute); got != 90*time.Second {
		t.Fatalf("MayDuration = %v", got)
	}
	if got := c.MayDuration("BAD_DUR", time.Minute); got != time.Minute {
		t.Fatalf("invalid duration should fall back, got %v", got)
	}
	if got := c.MayFloat64("TEMP", 1); got != 0.4 {
		t.Fatalf("MayFloat64 = %v", got)
	}
	if got := c.MayString("UNSET", "dflt"); got != "dflt" {
		t.Fatalf("MayString = %q", got)
	}
}

func TestMayURL(t *testing.T) {
	c := New().Prefix("LLM_")
	t.Setenv("LLM_BASE_URL", "https://api.example.com/v1/")
	t.Setenv("LLM_BAD", "/relative")
	t.Setenv("LLM_FTP", "ftp://example.com")

	if got := c.MayURL("BASE_URL", "x"); got != "https://api.example.com/v1" {
		t.Fatalf("MayURL = %q", got)
	}
	if got := c.MayURL("BAD", "https://d"); got != "https://d" {
		t.Fatalf("relative url should fall back, got %q", got)
	}
	if got := c.MayURL("FTP", "https://d"); got != "https://d" {
		t.Fatalf("non http scheme should fall back, got %q", got)
	}
}

func TestMayCSV(t *testing.T) {
	c := New()
	t.Setenv("PAGES", " home, about ,,contact ")
	got := c.MayCSV("PAGES", nil)
	if len(got) != 3 || got[0] != "home" || got[2] != "contact" {
		t.Fatalf("MayCSV = %v", got)
	}
	t.Setenv("EMPTY", " , ")
	if got := c.MayCSV("EMPTY", []string{"d"}); len(got) != 1 || got[0] != "d" {
		t.Fatalf("blank list should fall back, got %v", got)
	}
}
