package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultGoogleUserInfoURL はGoogleのユーザー情報エンドポイント。
const DefaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// userInfoの応答サイズ上限。
const maxUserInfoBytes = 1 << 20

// Profile は外部IdPが返すユーザー情報のうち、アカウント作成に使う項目。
type Profile struct {
	Email string
	Name  string
}

// IdentityResolver はクライアントから受け取ったトークンをユーザー情報に解決する。
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*Profile, error)
}

// googleUserInfo はGoogleのユーザー情報エンドポイントのレスポンス。
type googleUserInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GoogleIdentityResolver はアクセストークンでGoogleのuserinfoを取得する。
type GoogleIdentityResolver struct {
	userInfoURL string
	client      *http.Client
}

// NewGoogleIdentityResolver はGoogleIdentityResolverを生成する。
// userInfoURLが空の場合はDefaultGoogleUserInfoURLを使う。
func NewGoogleIdentityResolver(userInfoURL string, timeout time.Duration) *GoogleIdentityResolver {
	if userInfoURL == "" {
		userInfoURL = DefaultGoogleUserInfoURL
	}
	return &GoogleIdentityResolver{
		userInfoURL: userInfoURL,
		client:      &http.Client{Timeout: timeout},
	}
}

// Resolve はBearerトークンでuserinfoを取得し、メールアドレスと名前を返す。
// ステータス200以外、JSON不正、email欠落はいずれもエラーとする。
func (r *GoogleIdentityResolver) Resolve(ctx context.Context, token string) (*Profile, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info fetch failed with status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse user info response: %w", err)
	}

	if info.Email == "" {
		return nil, errors.New("empty email in user info response")
	}

	return &Profile{Email: info.Email, Name: info.Name}, nil
}

// compile-time interface check
var _ IdentityResolver = (*GoogleIdentityResolver)(nil)
