package user

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

/*
Fakes for ports
*/

type fakeDirectory struct {
	mu sync.Mutex

	byUsername map[string]domain.User

	// injected errors (if set, method returns error)
	findErr error
	saveErr error

	// record calls
	saved []domain.User
}

func newFakeDirectory(users ...domain.User) *fakeDirectory {
	f := &fakeDirectory{byUsername: map[string]domain.User{}}
	for _, u := range users {
		f.byUsername[u.Username] = u
	}
	return f
}

func (f *fakeDirectory) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return domain.User{}, f.findErr
	}
	u, ok := f.byUsername[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeDirectory) FindByResetKey(ctx context.Context, key string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return domain.User{}, f.findErr
	}
	for _, u := range f.byUsername {
		if u.ResetKey != "" && u.ResetKey == key {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound()
}

func (f *fakeDirectory) Save(ctx context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return domain.User{}, f.saveErr
	}
	f.byUsername[u.Username] = u
	f.saved = append(f.saved, u)
	return u, nil
}

func (f *fakeDirectory) get(username string) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byUsername[username]
}

// fakeEncoder mirrors the platform's test encoder: reversed password plus a marker.
type fakeEncoder struct {
	encodeErr error
	encoded   []string
}

func (e *fakeEncoder) Encode(raw string) (string, error) {
	if e.encodeErr != nil {
		return "", e.encodeErr
	}
	e.encoded = append(e.encoded, raw)
	return reverse(raw) + "!@#$", nil
}

func (e *fakeEncoder) Matches(encoded, raw string) bool {
	return encoded == reverse(raw)+"!@#$"
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

type fakeTokens struct {
	next []string
	err  error
}

func (t *fakeTokens) NewToken() (string, error) {
	if t.err != nil {
		return "", t.err
	}
	if len(t.next) == 0 {
		return "", errors.New("no more tokens")
	}
	tok := t.next[0]
	t.next = t.next[1:]
	return tok, nil
}

type fakeNotifier struct {
	err  error
	sent []Message
}

func (n *fakeNotifier) Send(ctx context.Context, msg Message) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

type outcomeEntry struct{ step, status string }

/*
Service factory for tests
*/

type testDeps struct {
	users    *fakeDirectory
	encoder  *fakeEncoder
	tokens   *fakeTokens
	notifier *fakeNotifier
	outcomes *[]outcomeEntry
}

func newSvcForTest(t *testing.T, users ...domain.User) (*Service, testDeps) {
	t.Helper()

	d := testDeps{
		users:    newFakeDirectory(users...),
		encoder:  &fakeEncoder{},
		tokens:   &fakeTokens{next: []string{"key123", "key456"}},
		notifier: &fakeNotifier{},
		outcomes: &[]outcomeEntry{},
	}
	svc := NewService(d.users, d.encoder, d.tokens, d.notifier, Config{
		PasswordResetBaseURL: "https://fe/reset-password?token=",
	}).WithOutcome(func(step, status string) {
		*d.outcomes = append(*d.outcomes, outcomeEntry{step, status})
	})
	return svc, d
}

/*
Small assertions
*/

func requireErrCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error code=%q, got nil", code)
	}
	if !domain.Is(err, code) {
		t.Fatalf("expected code=%q, got err=%v", code, err)
	}
}

func requireLastOutcome(t *testing.T, d testDeps, step, status string) {
	t.Helper()
	all := *d.outcomes
	if len(all) == 0 {
		t.Fatalf("expected outcome, got none")
	}
	got := all[len(all)-1]
	if got.step != step || got.status != status {
		t.Fatalf("expected outcome %s/%s, got %s/%s", step, status, got.step, got.status)
	}
}
