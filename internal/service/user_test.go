package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/social-ledger/internal/apperror"
	"github.com/sakif/social-ledger/internal/repository"
)

// =========================================================================
// REGISTER
// =========================================================================

func TestRegister_HashesPassword(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "ann")

	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "secret", u.HashedPassword)
	assert.True(t, f.password.Verify("secret", u.HashedPassword))
	assert.True(t, u.Created.Equal(u.LoggedIn))
	assert.True(t, u.Created.Equal(u.LastActivity))
}

func TestRegister_Validation(t *testing.T) {
	cases := map[string]struct {
		in    UserInput
		field string
	}{
		"password mismatch": {UserInput{"Ann", "ann@example.com", "secret", "other"}, "password2"},
		"missing name":      {UserInput{"  ", "ann@example.com", "secret", "secret"}, "name"},
		"missing email":     {UserInput{"Ann", "", "secret", "secret"}, "email"},
		"malformed email":   {UserInput{"Ann", "ann.example.com", "secret", "secret"}, "email"},
		"empty password":    {UserInput{"Ann", "ann@example.com", "", ""}, "password"},
		"password too long": {UserInput{"Ann", "ann@example.com", strings.Repeat("x", 73), strings.Repeat("x", 73)}, "password"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.userSvc.Register(context.Background(), tc.in)
			require.ErrorIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tc.field, appErr.Field)
			assert.Empty(t, f.users.users, "nothing may be stored")
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ann")

	_, err := f.userSvc.Register(context.Background(), UserInput{
		Name: "Other", Email: "ann@example.com", Password: "pw", Password2: "pw",
	})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

// =========================================================================
// LIST
// =========================================================================

func TestListActivity_TouchesCaller(t *testing.T) {
	f := newFixture(t)
	ann := f.register(t, "ann")
	f.register(t, "bob")

	users, err := f.userSvc.ListActivity(context.Background(), ann, repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, []string{ann.ID}, f.users.touches)

	// The listing already reflects the touch.
	assert.True(t, users[0].LastActivity.After(ann.LastActivity))
}

func TestList_Paging(t *testing.T) {
	f := newFixture(t)
	for _, n := range []string{"ann", "bob", "cid"} {
		f.register(t, n)
	}

	users, err := f.userSvc.List(context.Background(), repository.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Name)
	assert.Empty(t, f.users.touches, "public listing never touches")
}

// =========================================================================
// UPDATE / DELETE
// =========================================================================

func TestUpdate_OwnAccount(t *testing.T) {
	f := newFixture(t)
	ann := f.register(t, "ann")

	got, err := f.userSvc.Update(context.Background(), ann, ann.ID, UserInput{
		Name: "Annie", Email: "annie@example.com", Password: "new-secret", Password2: "new-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "Annie", got.Name)
	assert.Equal(t, "annie@example.com", got.Email)
	assert.True(t, got.Created.Equal(ann.Created))
	assert.True(t, got.LoggedIn.Equal(ann.LoggedIn))

	stored := f.stored(t, ann.ID)
	assert.True(t, f.password.Verify("new-secret", stored.HashedPassword))
	assert.True(t, stored.LastActivity.After(ann.LastActivity))
}

func TestUpdate_OtherAccountLooksMissing(t *testing.T) {
	f := newFixture(t)
	ann := f.register(t, "ann")
	bob := f.register(t, "bob")
	in := UserInput{Name: "x", Email: "x@example.com", Password: "pw", Password2: "pw"}

	_, err := f.userSvc.Update(context.Background(), ann, bob.ID, in)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.userSvc.Update(context.Background(), ann, "ghost", in)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Equal(t, "bob", f.stored(t, bob.ID).Name)
}

func TestUpdate_EmailTaken(t *testing.T) {
	f := newFixture(t)
	ann := f.register(t, "ann")
	f.register(t, "bob")

	_, err := f.userSvc.Update(context.Background(), ann, ann.ID, UserInput{
		Name: "Ann", Email: "bob@example.com", Password: "pw", Password2: "pw",
	})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ann := f.register(t, "ann")
	bob := f.register(t, "bob")
	ctx := context.Background()

	assert.ErrorIs(t, f.userSvc.Delete(ctx, ann, "ghost"), apperror.ErrNotFound)
	assert.ErrorIs(t, f.userSvc.Delete(ctx, ann, bob.ID), apperror.ErrForbidden)

	require.NoError(t, f.userSvc.Delete(ctx, ann, ann.ID))
	_, err := f.users.GetByID(ctx, ann.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
