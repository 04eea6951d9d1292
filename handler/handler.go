package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"speech-grader/auth"
	"speech-grader/dto"
	"speech-grader/repository"
	"speech-grader/service"
)

// Handler exposes the recording lifecycle and account endpoints.
type Handler struct {
	Recordings service.Service
	Repo       repository.Repository
	Auth       *auth.Manager
}

func New(recordings service.Service, repo repository.Repository, authManager *auth.Manager) *Handler {
	return &Handler{Recordings: recordings, Repo: repo, Auth: authManager}
}

func (h *Handler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}
	if !h.Repo.CreateUser(c.Request.Context(), req.Username, req.Password) {
		c.JSON(http.StatusConflict, dto.ErrorResponse{Status: "error", Error: "username already exists"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "created"})
}

func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}
	if !h.Repo.VerifyUser(c.Request.Context(), req.Username, req.Password) {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Status: "error", Error: "invalid credentials"})
		return
	}
	token, err := h.Auth.Issue(req.Username)
	if err != nil {
		internalError(c, err, "failed to issue token")
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) SubmitRecording(c *gin.Context) {
	file, err := c.FormFile("audio")
	if err != nil {
		badRequest(c, "multipart field 'audio' is required")
		return
	}
	src, err := file.Open()
	if err != nil {
		badRequest(c, "audio payload could not be read")
		return
	}
	defer src.Close()
	audio, err := io.ReadAll(src)
	if err != nil || len(audio) == 0 {
		badRequest(c, "audio payload could not be read")
		return
	}

	result, err := h.Recordings.Submit(c.Request.Context(), auth.Username(c), audio)
	if err != nil {
		internalError(c, err, "submission failed")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) ListRecordings(c *gin.Context) {
	views, err := h.Recordings.List(c.Request.Context(), auth.Username(c))
	if err != nil {
		internalError(c, err, "listing failed")
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) GetRecordingAudio(c *gin.Context) {
	filename := c.Param("filename")
	data, err := h.Recordings.FetchAudio(c.Request.Context(), auth.Username(c), filename)
	if errors.Is(err, service.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		internalError(c, err, "audio fetch failed")
		return
	}
	c.Data(http.StatusOK, "audio/wav", data)
}

func (h *Handler) DeleteRecording(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		notFound(c)
		return
	}
	err = h.Recordings.Remove(c.Request.Context(), auth.Username(c), uint(id))
	switch {
	case errors.Is(err, service.ErrNotFound):
		notFound(c)
	case errors.Is(err, service.ErrInconsistent):
		internalError(c, err, "internal inconsistency")
	case err != nil:
		internalError(c, err, "deletion failed")
	default:
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Status: "error", Error: msg})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, dto.ErrorResponse{Status: "error", Error: "not found"})
}

// internalError logs the cause and returns a stable message; provider error
// strings never reach the client.
func internalError(c *gin.Context, err error, msg string) {
	zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg(msg)
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Status: "error", Error: msg})
}
