package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"sitebuilder/internal/platform/testkit"
)

func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	testkit.Swap(t, &sleep, func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	})
	return &waits
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	waits := noSleep(t)

	calls := 0
	got, err := Do(context.Background(), Default(), func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil || got != "ok" || calls != 1 || len(*waits) != 0 {
		t.Fatalf("got=%q err=%v calls=%d waits=%v", got, err, calls, *waits)
	}
}

func TestDo_RetriesOnceWithFlatDelay(t *testing.T) {
	waits := noSleep(t)

	calls := 0
	got, err := Do(context.Background(), Default(), func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("transient")
		}
		return 7, nil
	})
	if err != nil || got != 7 || calls != 2 {
		t.Fatalf("got=%d err=%v calls=%d", got, err, calls)
	}
	if len(*waits) != 1 || (*waits)[0] != DefaultDelay {
		t.Fatalf("waits = %v, want one %v", *waits, DefaultDelay)
	}
}

func TestDo_ReturnsLastError(t *testing.T) {
	waits := noSleep(t)

	calls := 0
	_, err := Do(context.Background(), Policy{MaxRetries: 2, Delay: time.Second}, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("fail " + string(rune('0'+calls)))
	})
	if err == nil || err.Error() != "fail 3" || calls != 3 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
	for _, w := range *waits {
		if w != time.Second {
			t.Fatalf("delay not flat: %v", *waits)
		}
	}
}

func TestDo_NonRetryableStops(t *testing.T) {
	noSleep(t)

	perm := errors.New("permanent")
	calls := 0
	_, err := Do(context.Background(), Policy{MaxRetries: 3, Retryable: func(e error) bool { return !errors.Is(e, perm) }},
		func(context.Context) (int, error) { calls++; return 0, perm })
	if !errors.Is(err, perm) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestDo_CanceledContextAbortsWait(t *testing.T) {
	noSleep(t)

	ctx, cancel := context.WithCancel(context.Background())
	boom := errors.New("boom")
	calls := 0
	_, err := Do(ctx, Default(), func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestDo_OnRetryHook(t *testing.T) {
	noSleep(t)

	var seen []int
	p := Default()
	p.OnRetry = func(attempt int, _ error) { seen = append(seen, attempt) }
	_, _ = Do(context.Background(), p, func(context.Context) (int, error) { return 0, errors.New("x") })
	if len(seen) != 1 || seen[0] != 1 {
		t.Fatalf("OnRetry attempts = %v", seen)
	}
}
