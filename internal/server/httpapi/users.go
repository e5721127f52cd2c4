package httpapi

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/taskline/internal/common"
	"github.com/dmitrijs2005/taskline/internal/server/auth"
	"github.com/dmitrijs2005/taskline/internal/server/models"
)

// UserService is the identity surface the HTTP layer needs.
type UserService interface {
	Register(ctx context.Context, in models.UserCreate) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	GetUser(ctx context.Context, actor *models.User, id string) (*models.User, error)
	UpdateMe(ctx context.Context, actor *models.User, in models.UserUpdate) (*models.User, error)
}

// Authenticator resolves a bearer token to the acting user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type UserHandler struct {
	Service UserService
}

func NewUserHandler(s UserService) *UserHandler {
	return &UserHandler{Service: s}
}

func (h *UserHandler) HandleSignup(w http.ResponseWriter, r *http.Request) error {
	var req UserRegister
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	user, err := h.Service.Register(r.Context(), models.UserCreate{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return ErrConflictWrap("The user with this email already exists in the system", err)
		}
		return fmt.Errorf("signup: %w", err)
	}

	RespondWithJSON(w, http.StatusOK, newUserPublic(user))
	return nil
}

// HandleLogin accepts the OAuth2 password form (username, password) and, as
// a convenience, the same fields as JSON.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) error {
	email, password, err := loginCredentials(w, r)
	if err != nil {
		return err
	}

	token, err := h.Service.Login(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorUnauthorized):
			return ErrUnauthorizedWrap("Incorrect email or password", err)
		case errors.Is(err, common.ErrorForbidden):
			return ErrForbiddenWrap("Inactive user", err)
		}
		return fmt.Errorf("login: %w", err)
	}

	RespondWithJSON(w, http.StatusOK, Token{AccessToken: token, TokenType: auth.TokenType})
	return nil
}

func loginCredentials(w http.ResponseWriter, r *http.Request) (string, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get(HeaderContentType))
	if mediaType == "application/json" {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			return "", "", err
		}
		email := req.Username
		if email == "" {
			email = req.Email
		}
		if email == "" || req.Password == "" {
			return "", "", ErrUnprocessableEntity("username and password are required")
		}
		return email, req.Password, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return "", "", ErrUnprocessableEntityWrap("Invalid form payload", err)
	}
	email := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if email == "" || password == "" {
		return "", "", ErrUnprocessableEntity("username and password are required")
	}
	return email, password, nil
}

func (h *UserHandler) HandleReadMe(w http.ResponseWriter, r *http.Request) error {
	actor, ok := CurrentUser(r.Context())
	if !ok {
		return ErrUnauthorized("")
	}
	RespondWithJSON(w, http.StatusOK, newUserPublic(actor))
	return nil
}

func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) error {
	actor, ok := CurrentUser(r.Context())
	if !ok {
		return ErrUnauthorized("")
	}

	var req models.UserUpdate
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	user, err := h.Service.UpdateMe(r.Context(), actor, req)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return ErrConflictWrap("User with this email already exists", err)
		}
		return fmt.Errorf("update me: %w", err)
	}

	RespondWithJSON(w, http.StatusOK, newUserPublic(user))
	return nil
}

func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) error {
	actor, ok := CurrentUser(r.Context())
	if !ok {
		return ErrUnauthorized("")
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}

	user, err := h.Service.GetUser(r.Context(), actor, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ErrNotFoundWrap("User not found", err)
		}
		return fmt.Errorf("get user: %w", err)
	}

	RespondWithJSON(w, http.StatusOK, newUserPublic(user))
	return nil
}
