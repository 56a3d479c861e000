package auth

import (
	"crypto/rsa"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
)

// SessionCookie is the cookie the identity provider's browser SDK stores the
// session token in.
const SessionCookie = "__session"

// JWTResolver verifies identity provider tokens and uses the subject claim as
// the caller identity. Tokens are read from the Authorization bearer header,
// falling back to the session cookie.
type JWTResolver struct {
	secret    []byte
	publicKey *rsa.PublicKey
	issuer    string
	log       *zap.Logger
}

// NewHS256Resolver verifies tokens signed with a shared secret.
func NewHS256Resolver(secret, issuer string, log *zap.Logger) *JWTResolver {
	return &JWTResolver{secret: []byte(secret), issuer: issuer, log: log}
}

// NewRS256Resolver verifies tokens signed by the provider's RSA key, given as PEM.
func NewRS256Resolver(publicKeyPEM, issuer string, log *zap.Logger) (*JWTResolver, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse identity provider public key: %w", err)
	}
	return &JWTResolver{publicKey: key, issuer: issuer, log: log}, nil
}

func (j *JWTResolver) ResolveCaller(r *http.Request) (CallerID, bool) {
	raw := bearerToken(r)
	if raw == "" {
		return "", false
	}

	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, j.keyFunc)
	if err != nil || !token.Valid {
		j.log.Debug("rejected identity token", zap.Error(err))
		return "", false
	}
	if j.issuer != "" && !claims.VerifyIssuer(j.issuer, true) {
		j.log.Debug("rejected identity token", zap.String("issuer", claims.Issuer))
		return "", false
	}
	if claims.Subject == "" {
		return "", false
	}
	return CallerID(claims.Subject), true
}

func (j *JWTResolver) keyFunc(token *jwt.Token) (interface{}, error) {
	if j.publicKey != nil {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return j.publicKey, nil
	}
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return j.secret, nil
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
