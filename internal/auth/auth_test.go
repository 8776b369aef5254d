package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"procurement/internal/apperr"
	"procurement/internal/auth"
	"procurement/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const key = "test-signing-key"

type members map[string]models.Member

func (m members) GetMember(ctx context.Context, orgID, userID string) (*models.Member, error) {
	member, ok := m[orgID+"/"+userID]
	if !ok {
		return nil, apperr.NotFound("member", userID)
	}
	return &member, nil
}

func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	w.WriteHeader(apperr.HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"message": apperr.PublicMessage(err), "kind": string(apperr.KindOf(err))})
}

func newAuth() *auth.Authenticator {
	return auth.NewAuthenticator(key, members{
		"org-1/u1": {UserID: "u1", OrganizationID: "org-1", Role: models.RoleApprover, Email: "u1@acme.test"},
	}, writeErr)
}

func serve(a *auth.Authenticator, token string) (*httptest.ResponseRecorder, models.Actor) {
	var got models.Actor
	h := a.Authenticate(a.RequireMember(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.ActorFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})))
	req := httptest.NewRequest(http.MethodGet, "/api/rfq/org/org-1", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w, got
}

func TestAuthenticateBuildsActorFromMembership(t *testing.T) {
	token, err := auth.IssueToken(key, models.Identity{UserID: "u1", OrgID: "org-1", Email: "U1@acme.test"}, time.Hour)
	require.NoError(t, err)

	w, actor := serve(newAuth(), token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.Actor{UserID: "u1", OrgID: "org-1", Role: models.RoleApprover, Email: "u1@acme.test"}, actor)
}

func TestAuthenticateRejects(t *testing.T) {
	otherKey, err := auth.IssueToken("other-key", models.Identity{UserID: "u1", OrgID: "org-1"}, time.Hour)
	require.NoError(t, err)
	expired, err := auth.IssueToken(key, models.Identity{UserID: "u1", OrgID: "org-1"}, -time.Hour)
	require.NoError(t, err)
	noOrg, err := auth.IssueToken(key, models.Identity{UserID: "u1"}, time.Hour)
	require.NoError(t, err)
	stranger, err := auth.IssueToken(key, models.Identity{UserID: "u2", OrgID: "org-1"}, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1", "org": "org-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "abc.def", http.StatusUnauthorized},
		{"wrong key", otherKey, http.StatusUnauthorized},
		{"expired", expired, http.StatusUnauthorized},
		{"alg none", none, http.StatusUnauthorized},
		{"no org claim", noOrg, http.StatusUnauthorized},
		{"not a member", stranger, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := serve(newAuth(), tc.token)
			require.Equal(t, tc.status, w.Code)
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := auth.WithIdentity(context.Background(), models.Identity{UserID: "u1"})
	who, ok := auth.IdentityFrom(ctx)
	require.True(t, ok)
	require.Equal(t, "u1", who.UserID)

	_, ok = auth.ActorFrom(ctx)
	require.False(t, ok)
}
