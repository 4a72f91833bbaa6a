package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims 是身分提供者簽發的 token 內容
// 使用者 ID 優先取 id，沒有時使用 sub
type Claims struct {
	UserID string `json:"id,omitempty"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Identity 是通過驗證的呼叫者
type Identity struct {
	UserID uuid.UUID
	Name   string
	Email  string
}

// Verifier 驗證以 HS256 簽名的 token
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret cannot be empty")
	}
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	const op = "Verifier.Verify"
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("[%s] Token is empty, err=%w", op, ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to parse token, err=%w", op, errors.Join(ErrInvalidToken, err))
	}
	if !token.Valid {
		return nil, fmt.Errorf("[%s] Token is not valid, err=%w", op, ErrInvalidToken)
	}

	rawID := claims.UserID
	if rawID == "" {
		rawID = claims.Subject
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("[%s] Token subject is not a valid user id, err=%w", op, errors.Join(ErrInvalidToken, err))
	}
	return &Identity{
		UserID: userID,
		Name:   claims.Name,
		Email:  claims.Email,
	}, nil
}

// Sign 簽發 token，提供開發環境與測試使用
func (v *Verifier) Sign(identity Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:  identity.Name,
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
