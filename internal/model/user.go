// Package model はドメインモデルを定義する。
package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// Role はユーザーの権限種別を表す。
type Role string

const (
	// RoleUser はセルフサービス登録で付与される一般ユーザー権限。
	RoleUser Role = "user"
	// RoleAdmin は起動時シードでのみ付与される管理者権限。
	RoleAdmin Role = "admin"
)

// User はサービス利用ユーザーを表す。
// emailが外部から見た唯一の識別キーだが、一意性はストア側で保証しない。
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`

	// CreatedAt は同一emailが複数存在する場合の選択順序にのみ使う。
	CreatedAt time.Time `json:"-"`
}

// sentinelPrefix はOAuth専用アカウントのパスワード値の接頭辞。
// NULバイトを含むため、ログインフォームからの入力として現れることはない。
const sentinelPrefix = "\x00oauth:"

// SentinelPassword はOAuthで作成されたアカウントに設定するパスワード値を生成する。
// 値は推測不能な乱数を含み、IsSentinelPasswordで判別できる。
func SentinelPassword(provider string) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// 乱数が取れなくてもセンチネル判定は接頭辞で行うため、ログインは常に拒否される
		return sentinelPrefix + provider + ":"
	}
	return sentinelPrefix + provider + ":" + hex.EncodeToString(b)
}

// IsSentinelPassword はパスワード値がOAuth専用アカウントのセンチネルかどうかを返す。
func IsSentinelPassword(password string) bool {
	return strings.HasPrefix(password, sentinelPrefix)
}
