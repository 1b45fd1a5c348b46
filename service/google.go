package service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// GoogleProfile is what the userinfo endpoint tells us about a user.
// Sub is the provider's stable subject identifier, everything else is
// display data.
type GoogleProfile struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleAuthURL builds the provider authorization URL the frontend
// redirects to.
func GoogleAuthURL() string {
	return fmt.Sprintf("%v?response_type=code&client_id=%v&redirect_uri=%v&scope=email+profile",
		viper.GetString("google.auth_url"),
		url.QueryEscape(viper.GetString("google.client_id")),
		url.QueryEscape(viper.GetString("google.redirect_uri")),
	)
}

// ExchangeGoogleCode trades an authorization code for an access token
// and fetches the profile behind it. Returns nil on any failure, the
// caller answers 403 without distinguishing why.
func ExchangeGoogleCode(code string) *GoogleProfile {
	form := url.Values{
		"code":          {code},
		"client_id":     {viper.GetString("google.client_id")},
		"client_secret": {viper.GetString("google.client_secret")},
		"redirect_uri":  {viper.GetString("google.redirect_uri")},
		"grant_type":    {"authorization_code"},
	}

	resp, err := http.Post(viper.GetString("google.token_url"), "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		zap.L().Error("Token exchange request failed", zap.Error(err))
		return nil
	}

	tokenBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		zap.L().Warn("Token endpoint rejected authorization code", zap.Int("status", resp.StatusCode))
		return nil
	}

	var tokenInfo struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(tokenBody, &tokenInfo); err != nil || tokenInfo.AccessToken == "" {
		zap.L().Error("Failed to decode token endpoint response", zap.Error(err))
		return nil
	}

	req, err := http.NewRequest(http.MethodGet, viper.GetString("google.user_info_url"), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+tokenInfo.AccessToken)

	userResp, err := http.DefaultClient.Do(req)
	if err != nil {
		zap.L().Error("Userinfo request failed", zap.Error(err))
		return nil
	}

	userBody, _ := io.ReadAll(userResp.Body)
	userResp.Body.Close()

	if userResp.StatusCode != http.StatusOK {
		zap.L().Warn("Userinfo endpoint rejected access token", zap.Int("status", userResp.StatusCode))
		return nil
	}

	var profile GoogleProfile
	if err := json.Unmarshal(userBody, &profile); err != nil {
		zap.L().Error("Failed to decode userinfo response", zap.Error(err))
		return nil
	}

	return &profile
}
