package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const resetPurpose = "password_reset"

func GenerateToken(userID, secret string, expiry time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(tokenStr, secret string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["user_id"] == nil {
		return "", errors.New("invalid claims")
	}

	return claims["user_id"].(string), nil
}

// PasswordFingerprint сворачивает текущий хеш пароля в короткий отпечаток.
// Отпечаток вшивается в токен сброса: после смены пароля хеш меняется,
// и выданный ранее токен перестает подходить.
func PasswordFingerprint(hashedPassword string) string {
	sum := sha256.Sum256([]byte(hashedPassword))
	return hex.EncodeToString(sum[:8])
}

// GenerateResetToken выдает короткоживущий одноразовый токен для сброса
// пароля, привязанный к текущему хешу пароля пользователя
func GenerateResetToken(userID, secret, hashedPassword string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"purpose": resetPurpose,
		"pwd_fp":  PasswordFingerprint(hashedPassword),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseResetToken возвращает идентификатор пользователя и отпечаток пароля,
// с которым был выдан токен. Вызывающая сторона обязана сверить отпечаток
// с PasswordFingerprint от актуального хеша.
func ParseResetToken(tokenStr, secret string) (userID, fingerprint string, err error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["user_id"] == nil {
		return "", "", errors.New("invalid claims")
	}
	if purpose, _ := claims["purpose"].(string); purpose != resetPurpose {
		return "", "", errors.New("invalid claims")
	}
	fingerprint, _ = claims["pwd_fp"].(string)
	if fingerprint == "" {
		return "", "", errors.New("invalid claims")
	}

	return claims["user_id"].(string), fingerprint, nil
}
