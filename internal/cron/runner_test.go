package cronrunner

import (
	"context"
	"testing"
)

func TestRunner_SkipsOverlappingTicks(t *testing.T) {
	r := New(nil, context.Background())
	if !r.acquire("reconcile") {
		t.Fatalf("first acquire failed")
	}
	if r.acquire("reconcile") {
		t.Fatalf("overlapping acquire succeeded")
	}
	if !r.acquire("digest") {
		t.Fatalf("other job blocked")
	}
	r.release("reconcile")
	if !r.acquire("reconcile") {
		t.Fatalf("acquire after release failed")
	}
}

func TestRunner_AddRejectsBadSpec(t *testing.T) {
	r := New(nil, nil)
	if _, err := r.Add("bad", "not a spec", func(context.Context) {}); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := r.Add("ok", "@every 1m", func(context.Context) {}); err != nil {
		t.Fatalf("add: %v", err)
	}
}
