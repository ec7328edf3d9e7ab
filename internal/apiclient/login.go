package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/kce-spotlight/console/internal/model"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the token and user issued by the backend.
type LoginResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

var errNoToken = errors.New("login response carried no token")

// Login exchanges credentials for a backend token. Bad credentials come
// back as an *Error.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var res LoginResult
	err := c.SendJSON(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &res)
	if err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, errNoToken
	}
	return &res, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.SendJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}
