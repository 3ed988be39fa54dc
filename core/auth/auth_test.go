package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestEnabled(t *testing.T) {
	Configure("")
	if Enabled() {
		t.Error("Enabled() = true with no secret")
	}
	Configure("s3cret")
	if !Enabled() {
		t.Error("Enabled() = false with a secret configured")
	}
}

func TestGenerateToken_RoundTrip(t *testing.T) {
	Configure("s3cret")

	token, err := GenerateToken(42, "casey")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "casey" {
		t.Errorf("claims = %d/%q, want 42/casey", claims.UserID, claims.Username)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 6*24*time.Hour || ttl > 8*24*time.Hour {
		t.Errorf("token ttl = %v, want about 7 days", ttl)
	}
}

func TestGenerateToken_NoSecret(t *testing.T) {
	Configure("")

	if _, err := GenerateToken(1, "x"); !errors.Is(err, ErrNoSecret) {
		t.Errorf("err = %v, want ErrNoSecret", err)
	}
}

func TestParseToken_NoSecret(t *testing.T) {
	Configure("s3cret")
	token, err := GenerateToken(1, "x")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	Configure("")
	if _, err := ParseToken(token); !errors.Is(err, ErrNoSecret) {
		t.Errorf("err = %v, want ErrNoSecret", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	Configure("first")
	token, err := GenerateToken(1, "x")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	Configure("second")
	if _, err := ParseToken(token); err == nil {
		t.Error("ParseToken accepted a token signed under another secret")
	}
}

func TestParseToken_Garbage(t *testing.T) {
	Configure("s3cret")

	if _, err := ParseToken("not.a.token"); err == nil {
		t.Error("ParseToken accepted garbage")
	}
}

func TestParseToken_Expired(t *testing.T) {
	Configure("s3cret")

	claims := &Claims{
		UserID:   1,
		Username: "x",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-48 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-24 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseToken(token); err == nil {
		t.Error("ParseToken accepted an expired token")
	}
}

func TestParseToken_RejectsUnsignedAlg(t *testing.T) {
	Configure("s3cret")

	claims := &Claims{
		UserID:   1,
		Username: "x",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseToken(token); err == nil {
		t.Error("ParseToken accepted an alg=none token")
	}
}
