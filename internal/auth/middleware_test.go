package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/social-ledger/internal/model"
)

type stubResolver struct {
	user *model.User
	err  error
	got  string
}

func (s *stubResolver) ResolveCaller(_ context.Context, token string) (*model.User, error) {
	s.got = token
	return s.user, s.err
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", false},
		{"bearer abc", "abc", false},
		{"  Bearer   abc  ", "abc", false},
		{"", "", true},
		{"Bearer", "", true},
		{"Bearer ", "", true},
		{"Basic dXNlcjpwYXNz", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.header, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			got, err := BearerToken(r)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrMissingBearer)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRequireCaller_StoresUser(t *testing.T) {
	res := &stubResolver{user: &model.User{ID: "u1", Email: "ann@example.com"}}

	var seen *model.User
	h := RequireCaller(res, func(w http.ResponseWriter, err error) {
		t.Fatalf("unexpected error: %v", err)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = CallerFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer tok")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "tok", res.got)
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.ID)
}

func TestRequireCaller_StopsChainOnError(t *testing.T) {
	boom := errors.New("boom")
	res := &stubResolver{err: boom}

	var gotErr error
	called := false
	h := RequireCaller(res, func(w http.ResponseWriter, err error) {
		gotErr = err
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	// No header at all.
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, gotErr, ErrMissingBearer)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Header present, resolver fails.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer tok")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.ErrorIs(t, gotErr, boom)

	assert.False(t, called)
}

func TestCallerFromContext_Anonymous(t *testing.T) {
	_, ok := CallerFromContext(context.Background())
	assert.False(t, ok)
}
