package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"tasklist/models"
	"tasklist/store"
	"tasklist/utils"

	"github.com/gin-gonic/gin"
)

// RegisterUserHandler godoc
// @Summary      Create a user
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        body  body      RegisterUserRequest  true  "User"
// @Success      200   {object}  UserView
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /user [post]
func (h *Handler) RegisterUserHandler(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid user: "+err.Error())
		return
	}
	if err := utils.ValidateUserName(req.Name); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid user: "+err.Error())
		return
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid email address.")
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid user: "+err.Error())
		return
	}

	// Hash before the transaction so bcrypt does not hold a connection.
	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		h.log(c).Error("error hashing password", "err", err)
		writeError(c, http.StatusBadRequest, "Could not save this user.")
		return
	}

	var created models.User
	err = h.store.WithTx(c.Request.Context(), func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.UserByEmail(ctx, req.Email); err == nil {
			return fmt.Errorf("user %q: %w", req.Email, store.ErrConflict)
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		var err error
		created, err = tx.CreateUser(ctx, models.User{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: passwordHash,
		})
		return err
	})

	switch {
	case errors.Is(err, store.ErrConflict):
		msg := fmt.Sprintf("User with email '%s' already exists.", req.Email)
		h.log(c).Warn(msg)
		writeError(c, http.StatusConflict, msg)
		return
	case err != nil:
		h.log(c).Warn("error creating user", "email", req.Email, "err", err)
		writeError(c, http.StatusBadRequest, "Could not save this user.")
		return
	}

	if err := h.mailer.SendWelcome(c.Request.Context(), created); err != nil {
		h.log(c).Warn("welcome email not sent", "user_id", created.ID, "err", err)
	}

	h.log(c).Debug("user added", "id", created.ID)
	c.JSON(http.StatusOK, presentUser(created))
}

// LoginHandler godoc
// @Summary      Check a user's credentials
// @Description  Stateless: no session or token is issued.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        body  body      LoginRequest  true  "Credentials"
// @Success      200   {object}  LoginResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /user/login [post]
func (h *Handler) LoginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Missing credentials.")
		return
	}

	var user models.User
	err := h.store.WithTx(c.Request.Context(), func(ctx context.Context, tx store.Tx) error {
		var err error
		user, err = tx.UserByEmail(ctx, req.Email)
		return err
	})

	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.BurnPasswordCheck(req.Password)
		h.log(c).Debug("login failed, unknown email")
		writeError(c, http.StatusNotFound, "Invalid email or password.")
		return
	case err != nil:
		h.log(c).Error("login error", "err", err)
		writeError(c, http.StatusInternalServerError, "Internal server error.")
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		h.log(c).Debug("login failed, password mismatch", "user_id", user.ID)
		writeError(c, http.StatusNotFound, "Invalid email or password.")
		return
	}

	h.log(c).Debug("login succeeded", "user_id", user.ID)
	c.JSON(http.StatusOK, LoginResponse{User: presentUser(user)})
}
