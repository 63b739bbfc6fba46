package auth

import (
	"crypto/subtle"
	"fmt"

	"github.com/hitoshi/floodwatch/internal/config"
	"github.com/hitoshi/floodwatch/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier はパスワードの保存形式と照合方法を抽象化する。
type CredentialVerifier interface {
	// Prepare は保存用のパスワード値を返す。
	Prepare(plain string) (string, error)
	// Verify は保存値と入力値が一致するかを返す。
	// OAuthセンチネルまたは空のパスワードが保存されたアカウントは常に不一致とする。
	Verify(stored, submitted string) bool
}

// unverifiable は照合を行わずに拒否すべき組み合わせかを返す。
// パスワード未設定で登録されたアカウントは空入力でもログインできない。
func unverifiable(stored, submitted string) bool {
	return stored == "" || submitted == "" || model.IsSentinelPassword(stored)
}

// PlaintextVerifier は平文のまま保存し、完全一致で照合する。
// 大文字小文字の区別や正規化は行わない。
type PlaintextVerifier struct{}

// Prepare は入力値をそのまま返す。
func (PlaintextVerifier) Prepare(plain string) (string, error) {
	return plain, nil
}

// Verify は保存値と入力値のバイト列が完全一致する場合にtrueを返す。
func (PlaintextVerifier) Verify(stored, submitted string) bool {
	if unverifiable(stored, submitted) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

// BcryptVerifier はbcryptハッシュで保存・照合する。
type BcryptVerifier struct {
	Cost int
}

// Prepare はbcryptハッシュを生成する。
func (v BcryptVerifier) Prepare(plain string) (string, error) {
	cost := v.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify はbcryptハッシュと入力値を照合する。
func (BcryptVerifier) Verify(stored, submitted string) bool {
	if unverifiable(stored, submitted) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(submitted)) == nil
}

// NewCredentialVerifier はPASSWORD_SCHEMEに対応するVerifierを返す。
func NewCredentialVerifier(scheme string) (CredentialVerifier, error) {
	switch scheme {
	case "", config.PasswordSchemePlaintext:
		return PlaintextVerifier{}, nil
	case config.PasswordSchemeBcrypt:
		return BcryptVerifier{}, nil
	default:
		return nil, fmt.Errorf("unsupported password scheme: %s", scheme)
	}
}

var (
	_ CredentialVerifier = PlaintextVerifier{}
	_ CredentialVerifier = BcryptVerifier{}
)
