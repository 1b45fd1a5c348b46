package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
	"xendpal/file-api/model"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDemoEmail    = "demouser@email.com"
	testDemoPassword = "10660460994372209672$"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()

	gin.SetMode(gin.TestMode)

	viper.Set("app.log_level", "error")
	viper.Set("database.driver", "sqlite")
	viper.Set("database.path", filepath.Join(t.TempDir(), "test.db"))
	viper.Set("storage.type", "local")
	viper.Set("storage.root", t.TempDir())
	viper.Set("storage.max_space", int64(1<<20))
	viper.Set("upload.max_size", int64(10<<20))
	viper.Set("jwt.secret", "test-secret")
	viper.Set("jwt.algorithm", "HS256")
	viper.Set("jwt.access_expire_minutes", 30)
	viper.Set("jwt.refresh_expire_days", 7)
	viper.Set("mail.host", "")

	a, err := NewRouter()
	require.NoError(t, err)
	t.Cleanup(a.Tasks.Close)

	// No SMTP in tests
	a.Shares.Notify = func(recipient, sharerEmail string, upload *model.Upload, description string) error {
		return nil
	}

	return a
}

func doJSON(a *API, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func demoLogin(t *testing.T, a *API) (access string, refresh string) {
	t.Helper()

	w := doJSON(a, http.MethodPost, "/user/login/demo", "", gin.H{
		"email":    testDemoEmail,
		"password": testDemoPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)

	return resp.AccessToken, resp.RefreshToken
}

func uploadZip(t *testing.T, a *API, token, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/file/upload?file_type=file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func zipPayload(n int) []byte {
	b := make([]byte, n)
	copy(b, []byte{'P', 'K', 0x03, 0x04})
	return b
}

func TestHeartbeat(t *testing.T) {
	a := newTestAPI(t)

	req := httptest.NewRequest(http.MethodHead, "/heartbeat", nil)
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDemoLoginAndUserInfo(t *testing.T) {
	a := newTestAPI(t)
	access, _ := demoLogin(t, a)

	w := doJSON(a, http.MethodGet, "/user/info", access, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var info struct {
		Name     string `json:"name"`
		Space    int64  `json:"space"`
		MaxSpace int64  `json:"max_space"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "Demo User", info.Name)
	assert.Zero(t, info.Space)
	assert.Equal(t, int64(1<<20), info.MaxSpace)
}

func TestDemoLoginWrongCredentials(t *testing.T) {
	a := newTestAPI(t)

	w := doJSON(a, http.MethodPost, "/user/login/demo", "", gin.H{
		"email":    "nobody@example.com",
		"password": "nope",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestWithoutTokenRejected(t *testing.T) {
	a := newTestAPI(t)

	w := doJSON(a, http.MethodGet, "/user/info", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(a, http.MethodGet, "/user/info", "garbage.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshToken(t *testing.T) {
	a := newTestAPI(t)
	_, refresh := demoLogin(t, a)

	w := doJSON(a, http.MethodPost, "/user/refresh-token", "", gin.H{
		"refresh_token": refresh,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)

	// The new access token actually works
	w = doJSON(a, http.MethodGet, "/user/info", resp.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(a, http.MethodPost, "/user/refresh-token", "", gin.H{
		"refresh_token": "not.a.token",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadListShareDeleteFlow(t *testing.T) {
	a := newTestAPI(t)
	access, _ := demoLogin(t, a)

	// Not a zip
	w := uploadZip(t, a, access, "readme.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A proper archive
	w = uploadZip(t, a, access, "backup.zip", zipPayload(128))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var up model.Upload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &up))
	assert.Equal(t, "backup.zip", up.Name)
	assert.Equal(t, int64(128), up.Size)

	// It shows up in the listing
	w = doJSON(a, http.MethodGet, "/file/user_items", access, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listing struct {
		Files []model.Upload `json:"files"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Files, 1)

	// Share it
	w = doJSON(a, http.MethodPost, "/file/share-upload", access, gin.H{
		"upload_id":       up.ID,
		"recipient_email": "friend@example.com",
		"description":     "the backup",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var shareCount int64
	require.NoError(t, a.DB.Model(model.SharedRecipient{}).Where("upload_id = ?", up.ID).Count(&shareCount).Error)
	assert.Equal(t, int64(1), shareCount)

	// Sharing a nonexistent upload answers 404
	w = doJSON(a, http.MethodPost, "/file/share-upload", access, gin.H{
		"upload_id":       "no-such-id",
		"recipient_email": "friend@example.com",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// History entry lands eventually, it rides the task queue
	assert.Eventually(t, func() bool {
		w := doJSON(a, http.MethodGet, "/user/history", access, nil)
		if w.Code != http.StatusOK {
			return false
		}

		var entries []model.History
		if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
			return false
		}
		return len(entries) == 1
	}, 2*time.Second, 20*time.Millisecond)

	// Delete it
	w = doJSON(a, http.MethodDelete, "/file/delete_upload/"+up.ID, access, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(a, http.MethodDelete, "/file/delete_upload/"+up.ID, access, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Space went back to zero
	w = doJSON(a, http.MethodGet, "/user/info", access, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var info struct {
		Space int64 `json:"space"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Zero(t, info.Space)
}

func TestYearlyUsageEndpoint(t *testing.T) {
	a := newTestAPI(t)
	access, _ := demoLogin(t, a)

	w := uploadZip(t, a, access, "usage.zip", zipPayload(64))
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(a, http.MethodGet, "/user/get-yearly-usage", access, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Month []string `json:"month"`
		Usage []int64  `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Month, 1)
	require.Len(t, resp.Usage, 1)
	assert.Equal(t, int64(64), resp.Usage[0])
}

func TestGoogleRedirect(t *testing.T) {
	a := newTestAPI(t)

	viper.Set("google.client_id", "client-123")
	viper.Set("google.redirect_uri", "http://localhost/cb")
	viper.Set("google.auth_url", "https://accounts.google.com/o/oauth2/v2/auth")

	req := httptest.NewRequest(http.MethodGet, "/user/google_redirect", nil)
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "client-123")
}
