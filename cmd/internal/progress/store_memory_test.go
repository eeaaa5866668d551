package progress

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_AppendAndList(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, lesson := range []string{"control-flow", "functions"} {
		e, err := st.Append(ctx, AppendInput{AccountID: "user-1", LessonID: lesson, Status: StatusStarted, Now: now})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if e.Seq != int64(i+1) {
			t.Fatalf("seq=%d want %d", e.Seq, i+1)
		}
		if len(e.ID) != 26 {
			t.Fatalf("id=%q want ULID", e.ID)
		}
	}

	got, err := st.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].LessonID != "control-flow" || got[1].LessonID != "functions" {
		t.Fatalf("unexpected history: %+v", got)
	}
	if !got[0].RecordedAt.Equal(now) {
		t.Fatalf("recorded_at=%v want %v", got[0].RecordedAt, now)
	}
}

func TestMemoryStore_ListIsolatedPerAccount(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	if _, err := st.Append(ctx, AppendInput{AccountID: "user-1", LessonID: "functions"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := st.List(ctx, "user-2")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestMemoryStore_InvalidInput(t *testing.T) {
	st := NewMemoryStore()

	if _, err := st.Append(context.Background(), AppendInput{AccountID: "user-1"}); err == nil {
		t.Fatalf("expected error for missing lesson id")
	}
	if _, err := st.Append(context.Background(), AppendInput{LessonID: "functions"}); err == nil {
		t.Fatalf("expected error for missing account id")
	}
}

func TestMemoryStore_ListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	if _, err := st.Append(ctx, AppendInput{AccountID: "user-1", LessonID: "functions"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, _ := st.List(ctx, "user-1")
	got[0].XPEarned = 9999

	again, _ := st.List(ctx, "user-1")
	if again[0].XPEarned != 0 {
		t.Fatalf("store mutated through List result")
	}
}
