package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/userlocale/internal/apperror"
	"github.com/sakif/userlocale/internal/model"
)

// =========================================================================
// IN-MEMORY FAKES
// =========================================================================
//
// Each fake implements one repository interface with a map and exposes an
// error field to simulate a storage failure.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type attrKey struct{ userID, key string }

type fakeAttrs struct {
	mu     sync.Mutex
	values map[attrKey]string
	reads  int
	getErr error
	setErr error
}

func newFakeAttrs() *fakeAttrs {
	return &fakeAttrs{values: make(map[attrKey]string)}
}

func (f *fakeAttrs) GetUserAttribute(_ context.Context, userID, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.values[attrKey{userID, key}]
	return v, ok, nil
}

func (f *fakeAttrs) SetUserAttribute(_ context.Context, userID, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.values[attrKey{userID, key}] = value
	return nil
}

// put seeds a value directly, bypassing authorization.
func (f *fakeAttrs) put(userID, value string) {
	f.values[attrKey{userID, model.UserLocaleKey}] = value
}

func (f *fakeAttrs) get(userID string) (string, bool) {
	v, ok := f.values[attrKey{userID, model.UserLocaleKey}]
	return v, ok
}

// fakeAuthz grants edit rights on the pairs listed in edits and treats the
// IDs in admins as site administrators.
type fakeAuthz struct {
	edits  map[[2]string]bool
	admins map[string]bool
	err    error
}

func newFakeAuthz() *fakeAuthz {
	return &fakeAuthz{edits: map[[2]string]bool{}, admins: map[string]bool{}}
}

func (f *fakeAuthz) allow(actor, target string) *fakeAuthz {
	f.edits[[2]string{actor, target}] = true
	return f
}

func (f *fakeAuthz) CanEditUserProfile(_ context.Context, actorID, targetID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return actorID != "" && (actorID == targetID || f.admins[actorID] || f.edits[[2]string{actorID, targetID}]), nil
}

func (f *fakeAuthz) CanManageOptions(_ context.Context, actorID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.admins[actorID], nil
}

type fakeOptions struct {
	values map[string]string
	getErr error
	setErr error
}

func newFakeOptions() *fakeOptions {
	return &fakeOptions{values: map[string]string{}}
}

func (f *fakeOptions) GetOption(_ context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeOptions) SetOption(_ context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	return nil
}

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	users     map[string]*model.User
	nextID    int
	upsertErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) find(match func(*model.User) bool) *model.User {
	for _, u := range f.users {
		if match(u) {
			return u
		}
	}
	return nil
}

func (f *fakeUserRepo) Upsert(_ context.Context, user *model.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	var existing *model.User
	if user.GitHubID != 0 {
		existing = f.find(func(u *model.User) bool { return u.GitHubID == user.GitHubID })
	} else {
		existing = f.find(func(u *model.User) bool { return u.Login == user.Login })
	}
	if existing != nil {
		existing.Login = user.Login
		existing.Email = user.Email
		existing.AvatarURL = user.AvatarURL
		if user.Role != "" {
			existing.Role = user.Role
		}
		if user.PasswordHash != "" {
			existing.PasswordHash = user.PasswordHash
		}
		*user = *existing
		return nil
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Role == "" {
		user.Role = model.RoleSubscriber
	}
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByLogin(_ context.Context, login string) (*model.User, error) {
	u := f.find(func(u *model.User) bool { return u.Login == login })
	if u == nil {
		return nil, apperror.NotFound("user", login)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) DeleteUser(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) SetRole(_ context.Context, id, role string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.Role = role
	return nil
}
