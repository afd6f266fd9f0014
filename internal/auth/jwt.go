package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jaevor/go-nanoid"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour

	tokenIssuer = "vidoptimize"
	jtiLength   = 21
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
)

func (k TokenKind) String() string {
	if k == RefreshToken {
		return "refresh"
	}
	return "access"
}

type AppClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenIssuer signs access and refresh tokens with separate HS256 secrets.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	newID         func() string
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string) (*TokenIssuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	generateID, err := nanoid.Standard(jtiLength)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}

	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		newID:         generateID,
		now:           time.Now,
	}, nil
}

func (i *TokenIssuer) IssueAccessToken(userID, email string) (string, error) {
	return i.sign(userID, email, AccessToken)
}

func (i *TokenIssuer) IssueRefreshToken(userID, email string) (string, error) {
	return i.sign(userID, email, RefreshToken)
}

func (i *TokenIssuer) IssuePair(userID, email string) (TokenPair, error) {
	access, err := i.IssueAccessToken(userID, email)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.IssueRefreshToken(userID, email)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify parses a token of the given kind. Expired tokens yield ErrTokenExpired,
// everything else that fails validation yields ErrTokenInvalid.
func (i *TokenIssuer) Verify(tokenString string, kind TokenKind) (*AppClaims, error) {
	secret := i.secretFor(kind)

	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*AppClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

func (i *TokenIssuer) sign(userID, email string, kind TokenKind) (string, error) {
	now := i.now()
	ttl := AccessTokenTTL
	if kind == RefreshToken {
		ttl = RefreshTokenTTL
	}

	claims := &AppClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        i.newID(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(i.secretFor(kind))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return tokenString, nil
}

func (i *TokenIssuer) secretFor(kind TokenKind) []byte {
	if kind == RefreshToken {
		return i.refreshSecret
	}
	return i.accessSecret
}
