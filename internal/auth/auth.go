// Package auth проверяет bearer-токены и собирает Actor из членства в организации.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"procurement/internal/apperr"
	"procurement/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims: sub = id пользователя, org = активная организация
type Claims struct {
	OrgID string `json:"org"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// MemberGetter: источник ролей участников
type MemberGetter interface {
	GetMember(ctx context.Context, orgID, userID string) (*models.Member, error)
}

// ErrorWriter пишет ошибку в формате API
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

type Authenticator struct {
	key     []byte
	members MemberGetter
	fail    ErrorWriter
}

func NewAuthenticator(signingKey string, members MemberGetter, fail ErrorWriter) *Authenticator {
	return &Authenticator{key: []byte(signingKey), members: members, fail: fail}
}

// IssueToken подписывает токен HS256; ttl == 0: без срока действия
func IssueToken(signingKey string, who models.Identity, ttl time.Duration) (string, error) {
	claims := Claims{
		OrgID: who.OrgID,
		Email: who.Email,
		Name:  who.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  who.UserID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
}

// Parse проверяет подпись и обязательные claims
func (a *Authenticator) Parse(raw string) (models.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return a.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Identity{}, apperr.New(apperr.KindUnauthorized, "invalid token")
	}
	if claims.Subject == "" || claims.OrgID == "" {
		return models.Identity{}, apperr.New(apperr.KindUnauthorized, "token lacks sub or org claim")
	}
	return models.Identity{
		UserID: claims.Subject,
		OrgID:  claims.OrgID,
		Email:  strings.ToLower(claims.Email),
		Name:   claims.Name,
	}, nil
}

// Authenticate требует валидный токен Authorization: Bearer
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			a.fail(w, r, apperr.New(apperr.KindUnauthorized, "missing bearer token"))
			return
		}
		who, err := a.Parse(strings.TrimSpace(raw))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), who)))
	})
}

// RequireMember подставляет Actor с ролью, сохраненной в базе
func (a *Authenticator) RequireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who, ok := IdentityFrom(r.Context())
		if !ok {
			a.fail(w, r, apperr.New(apperr.KindUnauthorized, "missing bearer token"))
			return
		}
		member, err := a.members.GetMember(r.Context(), who.OrgID, who.UserID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				err = apperr.Forbidden("user %s is not a member of organization %s", who.UserID, who.OrgID)
			}
			a.fail(w, r, err)
			return
		}
		email := member.Email
		if email == "" {
			email = who.Email
		}
		actor := models.Actor{UserID: member.UserID, OrgID: member.OrganizationID, Role: member.Role, Email: email}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

type ctxKey int

const (
	identityKey ctxKey = iota
	actorKey
)

func WithIdentity(ctx context.Context, who models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, who)
}

func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	who, ok := ctx.Value(identityKey).(models.Identity)
	return who, ok
}

func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFrom(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(models.Actor)
	return actor, ok
}
