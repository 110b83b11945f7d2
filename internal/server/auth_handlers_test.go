package server

import (
	"testing"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		name           string
		requestBody    map[string]string
		expectedStatus int
		expectedError  bool
	}{
		{
			name: "Valid registration",
			requestBody: map[string]string{
				"username":         "newauthor",
				"email":            "newauthor@example.com",
				"password":         "sturdy-pass1",
				"password_confirm": "sturdy-pass1",
			},
			expectedStatus: fiber.StatusCreated,
		},
		{
			name: "Mismatched passwords",
			requestBody: map[string]string{
				"username":         "other",
				"email":            "other@example.com",
				"password":         "sturdy-pass1",
				"password_confirm": "different-pass1",
			},
			expectedStatus: fiber.StatusBadRequest,
			expectedError:  true,
		},
		{
			name: "Entirely numeric password",
			requestBody: map[string]string{
				"username":         "numeric",
				"email":            "numeric@example.com",
				"password":         "1234567890",
				"password_confirm": "1234567890",
			},
			expectedStatus: fiber.StatusBadRequest,
			expectedError:  true,
		},
		{
			name: "Invalid email",
			requestBody: map[string]string{
				"username":         "bademail",
				"email":            "not-an-email",
				"password":         "sturdy-pass1",
				"password_confirm": "sturdy-pass1",
			},
			expectedStatus: fiber.StatusBadRequest,
			expectedError:  true,
		},
		{
			name: "Duplicate username",
			requestBody: map[string]string{
				"username":         "newauthor",
				"email":            "second@example.com",
				"password":         "sturdy-pass1",
				"password_confirm": "sturdy-pass1",
			},
			expectedStatus: fiber.StatusConflict,
			expectedError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, "POST", "/register", tt.requestBody, "")
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			body := decodeBody(t, resp)
			if tt.expectedError {
				assert.NotNil(t, body["error"])
			} else {
				assert.NotEmpty(t, body["token"], "registration should establish a session")
				assert.NotNil(t, body["user"])
			}
		})
	}
}

// A duplicate that slips past the handler's existence check, as under two
// concurrent registrations, must surface as a conflict rather than a
// storage failure.
func TestUserCreateDuplicateIsConflict(t *testing.T) {
	_, srv := newTestApp(t)
	createUser(t, srv, "taken")

	err := srv.userRepo.Create(t.Context(), &models.User{
		Username: "taken",
		Email:    "elsewhere@example.com",
		Password: "irrelevant",
	})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestLogin(t *testing.T) {
	app, srv := newTestApp(t)
	createUser(t, srv, "reader")

	tests := []struct {
		name           string
		requestBody    map[string]string
		expectedStatus int
	}{
		{
			name:           "Valid credentials",
			requestBody:    map[string]string{"username": "reader", "password": "sturdy-pass1"},
			expectedStatus: fiber.StatusOK,
		},
		{
			name:           "Wrong password",
			requestBody:    map[string]string{"username": "reader", "password": "wrong-pass1"},
			expectedStatus: fiber.StatusUnauthorized,
		},
		{
			name:           "Unknown user",
			requestBody:    map[string]string{"username": "ghost", "password": "sturdy-pass1"},
			expectedStatus: fiber.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, "POST", "/login", tt.requestBody, "")
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	app, srv := newTestApp(t)

	mr := miniredis.RunT(t)
	cache.InitRedis(mr.Addr())
	require.NotNil(t, cache.Client)
	t.Cleanup(func() { cache.Client = nil })

	_, token := createUser(t, srv, "departing")

	// Session works before logout
	resp := doJSON(t, app, "GET", "/dashboard", nil, token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/logout", nil, token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Logged out successfully", body["message"])

	// The revoked token is no longer a session
	resp = doJSON(t, app, "GET", "/dashboard", nil, token)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	app, _ := newTestApp(t)

	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/dashboard"},
		{"POST", "/post/new"},
		{"POST", "/category/new"},
		{"POST", "/post/some-slug/comment"},
		{"POST", "/post/some-slug/like"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			resp := doJSON(t, app, p.method, p.path, nil, "")
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}
