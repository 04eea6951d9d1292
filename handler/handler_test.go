package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speech-grader/auth"
	"speech-grader/dto"
	"speech-grader/handler"
	"speech-grader/pipeline"
	"speech-grader/repository"
	"speech-grader/service"
	"speech-grader/storage"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo, err := repository.NewRepo(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, repo.Init(context.Background()))

	blobs := storage.NewLocal(t.TempDir())
	pred := pipeline.New(
		&pipeline.FixtureTranscriber{Text: "hello from the test", Confidence: 0.9},
		&pipeline.FixtureGrader{Raw: `{"pronunciation":0.9,"fluency":0.8,"coherence":0.7,"grammar":0.6,"vocabulary":0.5,"explanation":"ok"}`},
		time.Second, "",
	)
	authManager := auth.NewManager("test-secret", time.Hour)
	h := handler.New(service.New(repo, blobs, pred), repo, authManager)

	r := gin.New()
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	recordings := r.Group("/recordings", auth.RequireAuth(authManager))
	{
		recordings.POST("", h.SubmitRecording)
		recordings.GET("", h.ListRecordings)
		recordings.GET("/:filename", h.GetRecordingAudio)
		recordings.DELETE("/:id", h.DeleteRecording)
	}
	return r
}

func doJSON(r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signupAndLogin(t *testing.T, r *gin.Engine, username, password string) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/signup", dto.SignupRequest{Username: username, Password: password}, "")
	require.Equal(t, http.StatusOK, w.Code)

	form := fmt.Sprintf("username=%s&password=%s", username, password)
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	lw := httptest.NewRecorder()
	r.ServeHTTP(lw, req)
	require.Equal(t, http.StatusOK, lw.Code)

	var token dto.TokenResponse
	require.NoError(t, json.Unmarshal(lw.Body.Bytes(), &token))
	require.Equal(t, "bearer", token.TokenType)
	require.NotEmpty(t, token.AccessToken)
	return token.AccessToken
}

func submitAudio(t *testing.T, r *gin.Engine, token string, audio []byte) dto.PredictionResult {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", "clip.wav")
	require.NoError(t, err)
	_, err = part.Write(audio)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/recordings", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var result dto.PredictionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

func TestSignupConflict(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/signup", dto.SignupRequest{Username: "bob", Password: "pw1"}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/signup", dto.SignupRequest{Username: "bob", Password: "pw2"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r := newTestRouter(t)
	_ = signupAndLogin(t, r, "alice", "secret")

	form := "username=alice&password=wrong"
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecordingsRequireAuth(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/recordings", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/recordings", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecordingLifecycleOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	token := signupAndLogin(t, r, "alice", "secret")
	audio := []byte("raw wav bytes")

	result := submitAudio(t, r, token, audio)
	assert.True(t, result.IsSuccess())
	assert.Equal(t, "hello from the test", result.Transcription)

	w := doJSON(r, http.MethodGet, "/recordings", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var views []dto.RecordingView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.InDelta(t, 0.9, views[0].PronunciationGrade, 1e-9)

	w = doJSON(r, http.MethodGet, "/recordings/"+views[0].Filename, nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/wav", w.Header().Get("Content-Type"))
	assert.Equal(t, audio, w.Body.Bytes())

	w = doJSON(r, http.MethodDelete, fmt.Sprintf("/recordings/%d", views[0].ID), nil, token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodDelete, fmt.Sprintf("/recordings/%d", views[0].ID), nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/recordings", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	views = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	assert.Empty(t, views)
}

func TestListingIsScopedToCaller(t *testing.T) {
	r := newTestRouter(t)
	aliceToken := signupAndLogin(t, r, "alice", "secret")
	bobToken := signupAndLogin(t, r, "bob", "hunter2")

	_ = submitAudio(t, r, aliceToken, []byte("alice audio"))

	w := doJSON(r, http.MethodGet, "/recordings", nil, bobToken)
	require.Equal(t, http.StatusOK, w.Code)
	var views []dto.RecordingView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	assert.Empty(t, views)
}
