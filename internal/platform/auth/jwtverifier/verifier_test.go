package jwtverifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/platform/config"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func testConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:    "test-secret",
		Issuer:    "test-iss",
		Audience:  "test-aud",
		ClockSkew: 0,
	}
}

func TestVerify_ValidToken(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	cfg := testConfig()
	tok, err := Sign(cfg, "sub-1", now, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	v := NewWithOptions(cfg, fixedClock{t: now.Add(time.Minute)})
	sub, err := v.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sub != "sub-1" {
		t.Fatalf("sub=%q", sub)
	}
}

func TestVerify_Rejects(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	cfg := testConfig()

	expired, _ := Sign(cfg, "sub-1", now.Add(-2*time.Hour), time.Hour)

	wrongAud := cfg
	wrongAud.Audience = "other"
	badAud, _ := Sign(wrongAud, "sub-1", now, time.Hour)

	wrongSecret := cfg
	wrongSecret.Secret = "nope"
	badSig, _ := Sign(wrongSecret, "sub-1", now, time.Hour)

	noSub, _ := Sign(cfg, "", now, time.Hour)

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:   cfg.Issuer,
		Subject:  "sub-1",
		Audience: jwt.ClaimStrings{cfg.Audience},
	}).SignedString([]byte(cfg.Secret))

	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		Subject:   "sub-1",
		Audience:  jwt.ClaimStrings{cfg.Audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte(cfg.Secret))

	v := NewWithOptions(cfg, fixedClock{t: now})
	cases := map[string]string{
		"expired":     expired,
		"audience":    badAud,
		"signature":   badSig,
		"missing sub": noSub,
		"missing exp": noExp,
		"wrong alg":   hs512,
		"garbage":     "not-a-jwt",
	}
	for name, tok := range cases {
		if _, err := v.Verify(context.Background(), tok); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("%s: err=%v, want ErrUnauthorized", name, err)
		}
	}
}

func TestVerify_EmptySecretRejectsEverything(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	cfg := testConfig()
	tok, _ := Sign(cfg, "sub-1", now, time.Hour)

	cfg.Secret = ""
	v := NewWithOptions(cfg, fixedClock{t: now})
	if _, err := v.Verify(context.Background(), tok); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err=%v", err)
	}
}
