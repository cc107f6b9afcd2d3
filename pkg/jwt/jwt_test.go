package jwt_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datumlabs/totpgate/pkg/jwt"
)

var fixedNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func clock(t time.Time) jwt.Option {
	return jwt.WithClock(func() time.Time { return t })
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := jwt.New(nil)
	assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)

	svc, err := jwt.NewFromConfig(jwt.Config{Secret: "secret"})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestIssueParse_RoundTrip(t *testing.T) {
	t.Parallel()

	svc, err := jwt.New([]byte("secret"), clock(fixedNow), jwt.WithIssuer("datum-auth"))
	require.NoError(t, err)

	token, err := svc.Issue(jwt.Identity{ID: "u1", Email: "u1@example.com", SessionID: "s1"}, time.Hour)
	require.NoError(t, err)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, jwt.Identity{ID: "u1", Email: "u1@example.com", SessionID: "s1"}, claims.Identity())
	assert.Equal(t, "datum-auth", claims.Issuer)
}

func TestClaims_SessionFallsBackToJTI(t *testing.T) {
	t.Parallel()

	c := jwt.Claims{Subject: "u1", ID: "token-1"}
	assert.Equal(t, "token-1", c.Identity().SessionID)
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	svc, err := jwt.New([]byte("secret"), clock(fixedNow))
	require.NoError(t, err)
	other, err := jwt.New([]byte("other-secret"), clock(fixedNow))
	require.NoError(t, err)
	strict, err := jwt.New([]byte("secret"), clock(fixedNow), jwt.WithIssuer("expected"))
	require.NoError(t, err)

	valid, err := svc.Generate(jwt.Claims{Subject: "u1", ExpiresAt: fixedNow.Add(time.Minute).Unix()})
	require.NoError(t, err)
	expired, err := svc.Generate(jwt.Claims{Subject: "u1", ExpiresAt: fixedNow.Add(-time.Second).Unix()})
	require.NoError(t, err)
	notYet, err := svc.Generate(jwt.Claims{Subject: "u1", NotBefore: fixedNow.Add(time.Minute).Unix()})
	require.NoError(t, err)
	foreign, err := other.Generate(jwt.Claims{Subject: "u1"})
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	noneAlg := "eyJ0eXAiOiJKV1QiLCJhbGciOiJub25lIn0." + parts[1] + "." + parts[2]

	tests := []struct {
		name  string
		svc   *jwt.Service
		token string
		want  error
	}{
		{"garbage", svc, "not-a-token", jwt.ErrInvalidToken},
		{"expired", svc, expired, jwt.ErrExpiredToken},
		{"not yet valid", svc, notYet, jwt.ErrInvalidToken},
		{"wrong key", svc, foreign, jwt.ErrInvalidSignature},
		{"tampered header", svc, noneAlg, jwt.ErrInvalidSignature},
		{"issuer mismatch", strict, valid, jwt.ErrInvalidIssuer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.svc.Parse(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGenerate_RequiresSubject(t *testing.T) {
	t.Parallel()

	svc, err := jwt.New([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.Generate(jwt.Claims{Email: "x@example.com"})
	assert.ErrorIs(t, err, jwt.ErrMissingSubject)
}
