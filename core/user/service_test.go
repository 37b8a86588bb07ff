package user

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core"
)

// fakeRepo is a minimal in-memory Repository for service tests.
type fakeRepo struct {
	mu    sync.RWMutex
	users map[string]User
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]User)}
}

func (r *fakeRepo) CheckEmailUniqueness(email string, excludedUsers ...User) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, usr := range r.users {
		if usr.Email != email {
			continue
		}
		excluded := false
		for _, exclUsr := range excludedUsers {
			if exclUsr.ID == usr.ID {
				excluded = true
				break
			}
		}
		if !excluded {
			return ErrEmailExists
		}
	}
	return nil
}

func (r *fakeRepo) CreateUser(usr User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	r.users[usr.ID] = usr
	return usr, nil
}

func (r *fakeRepo) QueryAllUsers() ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]User, 0, len(r.users))
	for _, usr := range r.users {
		users = append(users, usr)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (r *fakeRepo) GetUserByID(id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if usr, ok := r.users[id]; ok {
		return usr, nil
	}
	return User{}, ErrNotFound
}

func (r *fakeRepo) GetUserByEmail(email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, usr := range r.users {
		if usr.Email == email {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *fakeRepo) FilterUsers(filter QueryFilter, orderings ...core.DBOrdering) ([]User, error) {
	return r.QueryAllUsers()
}

func (r *fakeRepo) UpdateUser(usr User, isActive *bool) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orig, ok := r.users[usr.ID]
	if !ok {
		return User{}, ErrNotFound
	}
	if usr.Name != "" {
		orig.Name = usr.Name
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.Role != "" {
		orig.Role = usr.Role
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	orig.UpdatedAt = usr.UpdatedAt
	r.users[orig.ID] = orig
	return orig, nil
}

func (r *fakeRepo) SetUserLoginState(usr User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orig, ok := r.users[usr.ID]
	if !ok {
		return User{}, ErrNotFound
	}
	orig.LastLogin = usr.LastLogin
	orig.FailedLogins = usr.FailedLogins
	orig.LockedUntil = usr.LockedUntil
	r.users[orig.ID] = orig
	return orig, nil
}

func (r *fakeRepo) DeleteUsersByID(ids ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.users, id)
	}
	return nil
}

// mailRecorder captures sent messages on a channel so tests can wait on
// mails sent from goroutines.
type mailRecorder struct {
	messages chan *core.EmailMessage
}

var _ core.EmailService = (*mailRecorder)(nil)

func newMailRecorder() *mailRecorder {
	return &mailRecorder{messages: make(chan *core.EmailMessage, 10)}
}

func (r *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		r.messages <- msg
	}
}

func (r *mailRecorder) wait(t *testing.T) *core.EmailMessage {
	t.Helper()
	select {
	case msg := <-r.messages:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for email")
		return nil
	}
}

func testConfig() *core.Config {
	return &core.Config{
		AppName:                   "LearnHub",
		TestMode:                  true,
		SecretKey:                 []byte("s3cr3t"),
		FrontendBaseURL:           "http://localhost:8080",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}
}

func setupSvc(t *testing.T) (Service, *fakeRepo, *mailRecorder) {
	t.Helper()
	repo := newFakeRepo()
	mailSvc := newMailRecorder()
	return NewService(repo, mailSvc, testConfig()), repo, mailSvc
}

func TestService_Create(t *testing.T) {
	svc, _, _ := setupSvc(t)

	usr, err := svc.Create(NewUser{Name: "Jane", Email: "jane@test.cd", Password: "LongSecret1"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if usr.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if usr.Role != RoleStudent {
		t.Errorf("Role = %v; want default %v", usr.Role, RoleStudent)
	}
	if !usr.IsActive {
		t.Error("new user should be active")
	}
	if err = usr.CheckPassword("LongSecret1"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
}

func TestService_Register_forcesStudentRole(t *testing.T) {
	svc, _, mailSvc := setupSvc(t)

	usr, err := svc.Register(NewUser{Name: "Sly", Email: "sly@test.cd", Password: "LongSecret1", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if usr.Role != RoleStudent {
		t.Errorf("Role = %v; want %v", usr.Role, RoleStudent)
	}

	msg := mailSvc.wait(t)
	if msg.TemplateName != "welcome" {
		t.Errorf("TemplateName = %v; want welcome", msg.TemplateName)
	}
	if len(msg.To) != 1 || msg.To[0].Address != "sly@test.cd" {
		t.Errorf("To = %v", msg.To)
	}
}

func TestService_CheckUniqueness(t *testing.T) {
	svc, _, _ := setupSvc(t)

	usr, err := svc.Create(NewUser{Name: "Jane", Email: "jane@test.cd", Password: "LongSecret1"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	err = svc.CheckUniqueness("jane@test.cd")
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("CheckUniqueness() = %v; want ValidationError", err)
	}

	// the user themselves can keep their email
	if err = svc.CheckUniqueness("jane@test.cd", usr); err != nil {
		t.Errorf("CheckUniqueness(excluded) = %v; want nil", err)
	}
}

func TestService_Authenticate(t *testing.T) {
	svc, _, _ := setupSvc(t)

	if _, err := svc.Create(NewUser{Name: "Jane", Email: "jane@test.cd", Password: "LongSecret1"}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	t.Run("unknown email", func(t *testing.T) {
		if _, err := svc.Authenticate("nope@test.cd", "LongSecret1"); errors.Cause(err) != ErrNotFound {
			t.Errorf("Authenticate() = %v; want %v", err, ErrNotFound)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := svc.Authenticate("jane@test.cd", "nope"); errors.Cause(err) != ErrInvalidCreds {
			t.Errorf("Authenticate() = %v; want %v", err, ErrInvalidCreds)
		}
	})

	t.Run("success resets failures and sets last login", func(t *testing.T) {
		got, err := svc.Authenticate("jane@test.cd", "LongSecret1")
		if err != nil {
			t.Fatalf("Authenticate() failed: %v", err)
		}
		if got.FailedLogins != 0 || got.LockedUntil != nil {
			t.Errorf("login state not reset: %+v", got)
		}
		if got.LastLogin.IsZero() {
			t.Error("LastLogin not set")
		}
	})

	t.Run("email is normalized", func(t *testing.T) {
		if _, err := svc.Authenticate("  JANE@test.cd ", "LongSecret1"); err != nil {
			t.Errorf("Authenticate() failed: %v", err)
		}
	})
}

func TestService_Authenticate_lockout(t *testing.T) {
	svc, repo, _ := setupSvc(t)

	usr, err := svc.Create(NewUser{Name: "Jane", Email: "jane@test.cd", Password: "LongSecret1"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	for i := 0; i < maxFailedLogins; i++ {
		if _, err = svc.Authenticate("jane@test.cd", "nope"); errors.Cause(err) != ErrInvalidCreds {
			t.Fatalf("attempt %d: Authenticate() = %v; want %v", i+1, err, ErrInvalidCreds)
		}
	}

	// locked now, even with the correct password
	if _, err = svc.Authenticate("jane@test.cd", "LongSecret1"); errors.Cause(err) != ErrAccountLocked {
		t.Fatalf("Authenticate() = %v; want %v", err, ErrAccountLocked)
	}

	// expire the lock; login succeeds and the state resets
	stored, _ := repo.GetUserByID(usr.ID)
	past := time.Now().UTC().Add(-time.Minute)
	stored.LockedUntil = &past
	if _, err = repo.SetUserLoginState(stored); err != nil {
		t.Fatalf("SetUserLoginState() failed: %v", err)
	}

	got, err := svc.Authenticate("jane@test.cd", "LongSecret1")
	if err != nil {
		t.Fatalf("Authenticate() after lock expiry failed: %v", err)
	}
	if got.FailedLogins != 0 || got.LockedUntil != nil {
		t.Errorf("login state not reset after expiry: %+v", got)
	}
}

func TestService_PasswordReset(t *testing.T) {
	svc, _, mailSvc := setupSvc(t)

	if _, err := svc.Create(NewUser{Name: "Jane", Email: "jane@test.cd", Password: "LongSecret1"}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if err := svc.RequestPasswordReset("jane@test.cd"); err != nil {
		t.Fatalf("RequestPasswordReset() failed: %v", err)
	}
	msg := mailSvc.wait(t)
	if msg.TemplateName != "password-reset" {
		t.Fatalf("TemplateName = %v; want password-reset", msg.TemplateName)
	}
	data, ok := msg.TemplateData.(struct{ Name, UID, Token string })
	if !ok {
		t.Fatalf("unexpected TemplateData: %+v", msg.TemplateData)
	}

	t.Run("invalid uid", func(t *testing.T) {
		err := svc.ResetPassword(ResetUserPassword{UID: "???", Token: data.Token, Password: "NewSecret1"})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("ResetPassword() = %v; want ValidationError", err)
		}
	})

	t.Run("tampered token", func(t *testing.T) {
		err := svc.ResetPassword(ResetUserPassword{UID: data.UID, Token: data.Token + "x", Password: "NewSecret1"})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("ResetPassword() = %v; want ValidationError", err)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		if err := svc.ResetPassword(ResetUserPassword{UID: data.UID, Token: data.Token, Password: "NewSecret1"}); err != nil {
			t.Fatalf("ResetPassword() failed: %v", err)
		}
		if _, err := svc.Authenticate("jane@test.cd", "NewSecret1"); err != nil {
			t.Errorf("Authenticate() with new password failed: %v", err)
		}
	})

	t.Run("token is single-use", func(t *testing.T) {
		err := svc.ResetPassword(ResetUserPassword{UID: data.UID, Token: data.Token, Password: "OtherSecret1"})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("ResetPassword() reused token = %v; want ValidationError", err)
		}
	})
}
