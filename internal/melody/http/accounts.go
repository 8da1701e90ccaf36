package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/service"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/store"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/httpx"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/slogx"
)

// maxPictureBytes caps profile picture uploads.
const maxPictureBytes = 5 << 20

type AccountsHandler struct {
	AccountService *service.AccountService
}

// HandleRegister creates a new account.
//
//	@Summary		Register a new account
//	@Description	Creates an account and returns it together with a signed credential pair. The pair is also set as cookies.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CredentialsRequest	true	"Account credentials"
//	@Success		201		{object}	AuthResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid username or password"
//	@Failure		409		{object}	httpx.ErrorResponse	"Username already taken"
//	@Router			/v1/accounts [post].
func (h *AccountsHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, pair, err := h.AccountService.Register(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAccount):
			httpx.WriteError(w, http.StatusBadRequest, "invalid username or password")
		case errors.Is(err, service.ErrUsernameTaken):
			httpx.WriteError(w, http.StatusConflict, "username already taken")
		default:
			slogx.FromContext(ctx).Error("register failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	setPairCookies(w, pair)
	httpx.WriteJSON(w, http.StatusCreated, AuthResponse{
		ID:           u.ID,
		Username:     u.Username,
		Token:        pair.Token,
		RefreshToken: pair.RefreshToken,
	})
}

// HandleLogin authenticates an account.
//
//	@Summary		Log in
//	@Description	Verifies the credentials and returns a fresh credential pair, also set as cookies.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CredentialsRequest	true	"Account credentials"
//	@Success		200		{object}	AuthResponse
//	@Failure		401		{object}	httpx.ErrorResponse	"Unknown account or wrong password"
//	@Router			/v1/accounts/login [post].
func (h *AccountsHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, pair, err := h.AccountService.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		slogx.FromContext(ctx).Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	setPairCookies(w, pair)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, AuthResponse{
		ID:             u.ID,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
		Token:          pair.Token,
		RefreshToken:   pair.RefreshToken,
	})
}

// HandleUpdateProfile replaces the caller's profile picture.
//
//	@Summary		Update profile picture
//	@Description	Stores the raw image body (jpeg, png or webp) as the caller's profile picture.
//	@Tags			Accounts
//	@Security		SessionAuth
//	@Accept			octet-stream
//	@Produce		json
//	@Success		200	{object}	ProfilePictureResponse
//	@Failure		400	{object}	httpx.ErrorResponse	"Unsupported image type"
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Router			/v1/accounts/profile [patch].
func (h *AccountsHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxPictureBytes)

	contentType, reader, err := pictureFromRequest(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid upload")
		return
	}

	key, err := h.AccountService.UpdateProfilePicture(ctx, userID, contentType, reader)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAccount) {
			httpx.WriteError(w, http.StatusBadRequest, "unsupported image type")
			return
		}
		slogx.FromContext(ctx).Error("profile picture update failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := ProfilePictureResponse{ProfilePicture: key}
	resp.applyRenewal(ctx)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleProfilePicture streams the caller's current profile picture.
//
//	@Summary		Get profile picture
//	@Tags			Accounts
//	@Security		SessionAuth
//	@Produce		octet-stream
//	@Success		200	{file}		binary
//	@Failure		404	{object}	httpx.ErrorResponse	"No picture set"
//	@Router			/v1/accounts/profile/picture [get].
func (h *AccountsHandler) HandleProfilePicture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	rc, contentType, err := h.AccountService.ProfilePicture(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrNoPicture) || errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "no profile picture")
			return
		}
		slogx.FromContext(ctx).Error("profile picture fetch failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	_, _ = io.Copy(w, rc)
}

// pictureFromRequest accepts either a multipart form with a
// "profilePicture" part or a raw body with a Content-Type header.
func pictureFromRequest(r *http.Request) (string, io.Reader, error) {
	ct := r.Header.Get("Content-Type")
	if !isMultipart(ct) {
		return ct, r.Body, nil
	}

	if err := r.ParseMultipartForm(maxPictureBytes); err != nil {
		return "", nil, err
	}
	file, header, err := r.FormFile("profilePicture")
	if err != nil {
		return "", nil, err
	}
	return header.Header.Get("Content-Type"), file, nil
}
