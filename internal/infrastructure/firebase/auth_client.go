package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"

	"sohbet/pkg/errors"
)

const identityToolkitURL = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

type FirebaseAuthClient struct {
	client     *auth.Client
	apiKey     string
	httpClient *http.Client
}

func NewFirebaseAuthClient(client *auth.Client, apiKey string) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (f *FirebaseAuthClient) CreateUser(ctx context.Context, email, password string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password)

	user, err := f.client.CreateUser(ctx, params)
	if err != nil {
		return "", mapAuthError(err)
	}

	return user.UID, nil
}

func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}

	return result.UID, nil
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken string `json:"idToken"`
	LocalID string `json:"localId"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignInWithEmailPassword exchanges credentials for an ID token through
// the Identity Toolkit REST API. The Admin SDK has no password sign-in,
// so this is the only server-side path.
func (f *FirebaseAuthClient) SignInWithEmailPassword(ctx context.Context, email, password string) (string, string, error) {
	body, err := json.Marshal(signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return "", "", errors.Internal("Failed to encode sign-in request", err)
	}

	url := fmt.Sprintf("%s?key=%s", identityToolkitURL, f.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", "", errors.Internal("Failed to build sign-in request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", "", errors.Internal("Network error. Check your connection and try again", err)
	}
	defer resp.Body.Close()

	var result signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", errors.Internal("Failed to decode sign-in response", err)
	}

	if result.Error != nil {
		return "", "", mapSignInError(result.Error.Message)
	}
	if result.IDToken == "" {
		return "", "", errors.Internal("Sign-in returned no token", nil)
	}

	return result.IDToken, result.LocalID, nil
}

// mapSignInError translates Identity Toolkit error codes into messages
// suitable for end users.
func mapSignInError(code string) error {
	switch {
	case strings.Contains(code, "INVALID_LOGIN_CREDENTIALS"),
		strings.Contains(code, "INVALID_PASSWORD"),
		strings.Contains(code, "EMAIL_NOT_FOUND"):
		return errors.Unauthorized("Incorrect email or password", nil)
	case strings.Contains(code, "INVALID_EMAIL"):
		return errors.BadRequest("Please enter a valid email address", nil)
	case strings.Contains(code, "USER_DISABLED"):
		return errors.Forbidden("This account has been disabled", nil)
	case strings.Contains(code, "TOO_MANY_ATTEMPTS"):
		return errors.Unauthorized("Too many attempts. Try again later", nil)
	default:
		return errors.Internal("Sign-in failed: "+code, nil)
	}
}

func mapAuthError(err error) error {
	if auth.IsEmailAlreadyExists(err) {
		return errors.Conflict("This email is already registered", err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "INVALID_EMAIL"), strings.Contains(msg, "malformed"):
		return errors.BadRequest("Please enter a valid email address", err)
	case strings.Contains(msg, "WEAK_PASSWORD"), strings.Contains(msg, "at least six"):
		return errors.BadRequest("Password must be at least 6 characters", err)
	default:
		return errors.Internal("Failed to create account", err)
	}
}
