package identity

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"quest/cmd/security/password"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()

	st, err := NewMemoryStore(password.DefaultConfig())
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	return st
}

func TestCreate_DefaultsAndNormalization(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	acct, err := st.Create(ctx, CreateAccountInput{Email: "  Alex@Example.com ", Name: "Alex", Password: "pw123"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if acct.ID != "user-1" {
		t.Fatalf("id=%q want user-1", acct.ID)
	}
	if acct.Email != "alex@example.com" {
		t.Fatalf("email=%q want normalized", acct.Email)
	}
	if acct.Level != 1 || acct.XP != 0 || acct.Streak != 0 || acct.Gems != 500 {
		t.Fatalf("unexpected progression: %+v", acct.Progression)
	}
	if !strings.HasSuffix(acct.AvatarURL, "seed=Alex") {
		t.Fatalf("avatar=%q", acct.AvatarURL)
	}

	got, err := st.Lookup(ctx, "alex@example.com")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.ID != acct.ID {
		t.Fatalf("lookup returned %q want %q", got.ID, acct.ID)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	if _, err := st.Create(ctx, CreateAccountInput{Email: "a@example.com", Name: "A", Password: "pw"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := st.Create(ctx, CreateAccountInput{Email: "A@EXAMPLE.COM", Name: "B", Password: "pw2"})
	if !IsAlreadyExists(err) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	var ce ConflictError
	if !errors.As(err, &ce) || ce.Field != "email" {
		t.Fatalf("expected ConflictError on email, got %#v", err)
	}
	if st.Len() != 1 {
		t.Fatalf("store has %d accounts want 1", st.Len())
	}
}

func TestCreate_EmptyEmail(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Create(context.Background(), CreateAccountInput{Email: "   ", Password: "pw"})
	if !IsInvalidInput(err) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreate_ConcurrentSameEmail(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := st.Create(ctx, CreateAccountInput{Email: "race@example.com", Name: "R", Password: "pw"})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case IsAlreadyExists(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if succeeded != 1 || conflicts != workers-1 {
		t.Fatalf("succeeded=%d conflicts=%d", succeeded, conflicts)
	}
	if st.Len() != 1 {
		t.Fatalf("store has %d accounts want 1", st.Len())
	}
}

func TestCreate_SequentialIDs(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	a, _ := st.Create(ctx, CreateAccountInput{Email: "a@example.com", Password: "pw"})
	if err := st.Delete(ctx, "a@example.com"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	b, err := st.Create(ctx, CreateAccountInput{Email: "b@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// IDs are never reused, even after a removal.
	if a.ID == b.ID {
		t.Fatalf("id %q reused", a.ID)
	}
}

func TestLookup_NotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Lookup(context.Background(), "nobody@example.com")
	if !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVerifyCredential(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	if _, err := st.Create(ctx, CreateAccountInput{Email: "alex@example.com", Name: "Alex", Password: "pw123"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	acct, err := st.VerifyCredential(ctx, "ALEX@example.com", "pw123")
	if err != nil {
		t.Fatalf("VerifyCredential: %v", err)
	}
	if acct.Email != "alex@example.com" {
		t.Fatalf("email=%q", acct.Email)
	}

	_, errWrong := st.VerifyCredential(ctx, "alex@example.com", "wrong")
	_, errMissing := st.VerifyCredential(ctx, "missing@example.com", "pw123")

	if !IsInvalidCredentials(errWrong) || !IsInvalidCredentials(errMissing) {
		t.Fatalf("expected ErrInvalidCredentials, got %v / %v", errWrong, errMissing)
	}
	if errWrong.Error() != errMissing.Error() {
		t.Fatalf("failure causes must be indistinguishable: %q vs %q", errWrong, errMissing)
	}
}

func TestApplyProgress_KeepsIdentity(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	created, err := st.Create(ctx, CreateAccountInput{Email: "a@example.com", Name: "A", Password: "pw"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := st.ApplyProgress(ctx, "a@example.com", ProgressDelta{XP: 50, Gems: 10})
	if err != nil {
		t.Fatalf("ApplyProgress: %v", err)
	}
	if updated.XP != 50 || updated.Gems != 510 {
		t.Fatalf("unexpected progression: %+v", updated.Progression)
	}
	if updated.ID != created.ID || updated.Email != created.Email || updated.Name != created.Name {
		t.Fatalf("identity fields changed: %+v", updated)
	}

	// Credential still verifies after progression updates.
	if _, err := st.VerifyCredential(ctx, "a@example.com", "pw"); err != nil {
		t.Fatalf("VerifyCredential after progress: %v", err)
	}

	if _, err := st.ApplyProgress(ctx, "missing@example.com", ProgressDelta{XP: 1}); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyProgress_RejectsOutOfRange(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	if _, err := st.Create(ctx, CreateAccountInput{Email: "a@example.com", Name: "A", Password: "pw"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := st.ApplyProgress(ctx, "a@example.com", ProgressDelta{XP: math.MaxInt - 10}); err != nil {
		t.Fatalf("ApplyProgress: %v", err)
	}

	cases := []struct {
		name  string
		delta ProgressDelta
	}{
		{name: "xp overflow", delta: ProgressDelta{XP: 11}},
		{name: "gems overflow", delta: ProgressDelta{Gems: math.MaxInt}},
		{name: "gems below zero", delta: ProgressDelta{Gems: -501}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := st.ApplyProgress(ctx, "a@example.com", tc.delta); !IsInvalidInput(err) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	got, err := st.Lookup(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.XP != math.MaxInt-10 || got.Gems != DefaultGems {
		t.Fatalf("rejected deltas changed the account: %+v", got.Progression)
	}

	// Reversals that stay non-negative are allowed.
	updated, err := st.ApplyProgress(ctx, "a@example.com", ProgressDelta{XP: -(math.MaxInt - 10), Gems: -500})
	if err != nil {
		t.Fatalf("ApplyProgress reversal: %v", err)
	}
	if updated.XP != 0 || updated.Gems != 0 {
		t.Fatalf("unexpected progression after reversal: %+v", updated.Progression)
	}
}

type failingHasher struct {
	password.Config
	calls int
}

// Hash succeeds once so NewMemoryStore can build its dummy hash.
func (h *failingHasher) Hash(plain string) (string, error) {
	h.calls++
	if h.calls > 1 {
		return "", errors.New("entropy source unavailable")
	}
	return h.Config.Hash(plain)
}

func TestCreate_HashFailureIsNotInvalidInput(t *testing.T) {
	st, err := NewMemoryStore(&failingHasher{Config: password.DefaultConfig()})
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}

	_, err = st.Create(context.Background(), CreateAccountInput{Email: "a@example.com", Name: "A", Password: "pw"})
	if err == nil {
		t.Fatal("expected hash failure")
	}
	if IsInvalidInput(err) {
		t.Fatalf("hash failure must not be reported as invalid input: %v", err)
	}
	if exists, _ := st.Exists(context.Background(), "a@example.com"); exists {
		t.Fatal("account stored despite hash failure")
	}
}

func TestDefaultProgression_AvatarSeedIsQueryEscaped(t *testing.T) {
	got := DefaultProgression("Alex Doe").AvatarURL
	want := "https://api.dicebear.com/7.x/initials/svg?seed=Alex+Doe"
	if got != want {
		t.Fatalf("avatar=%q want %q", got, want)
	}
}

func TestExistsAndDelete(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	if _, err := st.Create(ctx, CreateAccountInput{Email: "a@example.com", Password: "pw"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ok, err := st.Exists(ctx, "A@example.com")
	if err != nil || !ok {
		t.Fatalf("Exists=%v err=%v", ok, err)
	}

	if err := st.Delete(ctx, "a@example.com"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := st.Delete(ctx, "a@example.com"); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	ok, _ = st.Exists(ctx, "a@example.com")
	if ok {
		t.Fatalf("account still present after delete")
	}
}

func TestCanceledContext(t *testing.T) {
	st := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := st.Create(ctx, CreateAccountInput{Email: "a@example.com", Password: "pw"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
