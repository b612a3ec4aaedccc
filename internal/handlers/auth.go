package handlers

import (
	"errors"
	"net/http"

	"taskmanager/internal/auth"
	dom "taskmanager/internal/domain"
	"taskmanager/internal/dto"
	"taskmanager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles login, register and logout.
type AuthHandler struct {
	tokens   *auth.TokenManager
	sessions *auth.Store
	userSvc  *service.UserService
	log      logrus.FieldLogger
	secure   bool
}

// NewAuthHandler returns a new AuthHandler. sessions may be nil, in which case
// only bearer tokens are issued. secure marks the session cookie Secure.
func NewAuthHandler(tokens *auth.TokenManager, sessions *auth.Store, userSvc *service.UserService, log logrus.FieldLogger, secure bool) *AuthHandler {
	return &AuthHandler{tokens: tokens, sessions: sessions, userSvc: userSvc, log: log, secure: secure}
}

// Login godoc
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "Credentials"
// @Success      200   {object}  dto.Envelope{data=dto.AuthData}
// @Failure      400   {object}  dto.Envelope
// @Failure      401   {object}  dto.Envelope
// @Failure      500   {object}  dto.Envelope
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.Auth.Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, log, bindingErrors(err), "Login failed")
		return
	}
	user, err := h.userSvc.ValidateCredentials(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, dto.Fail("Invalid username or password"))
			return
		}
		log.WithError(err).Error("login failed")
		c.JSON(http.StatusInternalServerError, dto.Fail("Login failed"))
		return
	}
	h.signIn(c, log, http.StatusOK, user)
}

// Register godoc
// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "Credentials"
// @Success      201   {object}  dto.Envelope{data=dto.AuthData}
// @Failure      400   {object}  dto.Envelope
// @Failure      409   {object}  dto.Envelope
// @Failure      500   {object}  dto.Envelope
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.Auth.Register")

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, log, bindingErrors(err), "Registration failed")
		return
	}
	user, err := h.userSvc.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, dto.Fail("Validation error", dom.FieldError{Field: "username", Message: "username and password required"}))
		case errors.Is(err, service.ErrUsernameTaken):
			c.JSON(http.StatusConflict, dto.Fail("Username already taken"))
		default:
			log.WithError(err).Error("registration failed")
			c.JSON(http.StatusInternalServerError, dto.Fail("Registration failed"))
		}
		return
	}
	h.signIn(c, log, http.StatusCreated, user)
}

// Logout godoc
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, err := c.Cookie(auth.SessionCookieName)
	if err == nil && sessionID != "" && h.sessions != nil {
		if err := h.sessions.Delete(c.Request.Context(), sessionID); err != nil {
			h.log.WithError(err).Warn("session delete failed")
		}
	}
	c.SetCookie(auth.SessionCookieName, "", -1, "/", "", h.secure, true)
	c.JSON(http.StatusOK, dto.OKMessage("Logged out", nil))
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Security     CookieAuth
// @Success      200  {object}  dto.Envelope{data=dto.UserResponse}
// @Failure      401  {object}  dto.Envelope
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.userSvc.Get(c.Request.Context(), auth.UserIDFromContext(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, dto.Fail("authorization required"))
			return
		}
		h.log.WithError(err).Error("load current user failed")
		c.JSON(http.StatusInternalServerError, dto.Fail("Error fetching user"))
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.NewUserResponse(user)))
}

func (h *AuthHandler) signIn(c *gin.Context, log logrus.FieldLogger, status int, user dom.User) {
	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		log.WithError(err).Error("failed to issue token")
		c.JSON(http.StatusInternalServerError, dto.Fail("Failed to create session"))
		return
	}
	if h.sessions != nil {
		sessionID, err := h.sessions.Create(c.Request.Context(), user.ID)
		if err != nil {
			log.WithError(err).Error("failed to create session")
			c.JSON(http.StatusInternalServerError, dto.Fail("Failed to create session"))
			return
		}
		c.SetCookie(auth.SessionCookieName, sessionID, int(h.sessions.TTL().Seconds()), "/", "", h.secure, true)
	}
	c.JSON(status, dto.OK(dto.AuthData{Token: token, User: dto.NewUserResponse(user)}))
}
