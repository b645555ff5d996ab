// Package token は署名付きセッショントークンの発行と検証を提供する。
package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/equipman/internal/model"
)

// Service はHMAC署名付きJWTのセッショントークンを発行・検証する。
// トークンはサーバー側に保存されない。失効は有効期限のみで行う。
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService はトークンサービスを生成する。
// secretが空の場合はプロセス限りのランダム秘密鍵を生成して警告を出す。
// その場合、プロセス再起動で既存トークンはすべて無効になる。
func NewService(secret string, ttl time.Duration) *Service {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			// crypto/randが失敗する環境では安全なトークンを発行できない
			panic(fmt.Sprintf("failed to generate token secret: %v", err))
		}
		slog.Warn("SECRET_KEY is not set; generated a random per-process secret",
			slog.String("consequence", "all tokens become invalid on process restart"),
		)
	}
	return &Service{
		secret: key,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue は指定ユーザーIDをsubjectとするトークンを発行する。
// 有効期限は発行時刻からTTL（デフォルト7日）の絶対時刻。
func (s *Service) Issue(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate はトークンを検証し、埋め込まれたユーザーIDを返す。
// 期限切れはTokenExpired、署名不一致・構造不正はTokenMalformedを返す。
func (s *Service) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", model.NewTokenExpiredError()
		}
		return "", model.NewTokenMalformedError()
	}
	if !tok.Valid || claims.Subject == "" {
		return "", model.NewTokenMalformedError()
	}
	return claims.Subject, nil
}
