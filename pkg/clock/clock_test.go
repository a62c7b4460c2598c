package clock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRealSleep(t *testing.T) {
	var c Real
	start := c.Now()
	if err := c.Sleep(context.Background(), 2*time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if elapsed := c.Now().Sub(start); elapsed < 2*time.Millisecond {
		t.Errorf("slept %v, want >= 2ms", elapsed)
	}
}

func TestRealSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var c Real
	start := time.Now()
	err := c.Sleep(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep on cancelled ctx = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep did not return promptly on cancellation")
	}
}

func TestRealSleepNonPositive(t *testing.T) {
	var c Real
	if err := c.Sleep(context.Background(), -time.Second); err != nil {
		t.Errorf("Sleep(-1s) = %v, want nil", err)
	}
}

func TestFake(t *testing.T) {
	start := time.Unix(1000, 0)
	f := NewFake(start)
	f.Overshoot = 3 * time.Microsecond

	var slept []time.Duration
	f.OnSleep = func(d time.Duration) { slept = append(slept, d) }

	if err := f.Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	f.Advance(time.Second)

	want := start.Add(time.Millisecond + 3*time.Microsecond + time.Second)
	if !f.Now().Equal(want) {
		t.Errorf("Now() = %v, want %v", f.Now(), want)
	}
	if len(slept) != 1 || slept[0] != time.Millisecond {
		t.Errorf("OnSleep saw %v, want [1ms]", slept)
	}
}

func TestFakeSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFake(time.Unix(0, 0))
	if err := f.Sleep(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep = %v, want context.Canceled", err)
	}
	if !f.Now().Equal(time.Unix(0, 0)) {
		t.Error("cancelled Sleep advanced the clock")
	}
}
