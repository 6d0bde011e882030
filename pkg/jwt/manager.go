package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

const issuer = "chatwarden"

// ServiceClaims - 채팅 트랜스포트(봇 프로세스)용 서비스 토큰 페이로드
// 사용자 인증이 아니라 호출하는 프로세스를 식별한다
type ServiceClaims struct {
	jwt.RegisteredClaims
	Transport string `json:"transport"`
}

// Manager 서비스 토큰 발급/검증
type Manager struct {
	secretKey []byte
	now       func() time.Time
}

// NewManager creates a Manager signing with HS256
func NewManager(secret string) *Manager {
	return &Manager{secretKey: []byte(secret), now: time.Now}
}

// Issue 서비스 토큰 발급 (ttl 0 이면 만료 없음)
func (m *Manager) Issue(subject, transport string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := ServiceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Transport: transport,
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
}

// Verify 서비스 토큰 검증
func (m *Manager) Verify(tokenString string) (*ServiceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ServiceClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*ServiceClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
