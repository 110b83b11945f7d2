package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

// newTestApp builds a Server around an in-memory database and registers the
// full route table on a fresh Fiber app.
func newTestApp(t *testing.T) (*fiber.App, *Server) {
	t.Helper()

	t.Setenv("APP_ENV", "test")
	cache.Client = nil

	cfg := &config.Config{
		JWTSecret: "test-secret-key",
		UploadDir: t.TempDir(),
	}
	srv := New(cfg, setupTestDB(t), nil)

	app := fiber.New()
	srv.SetupRoutes(app)
	return app, srv
}

// createUser inserts a user directly and returns it with a valid token.
func createUser(t *testing.T, srv *Server, username string) (*models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("sturdy-pass1"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
	}
	require.NoError(t, srv.db.Create(user).Error)

	token, err := srv.generateToken(user.ID)
	require.NoError(t, err)
	return user, token
}

// doJSON performs a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, app *fiber.App, method, path string, body any, token string) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// createPost inserts a post through the repository so slug derivation and
// published_at stamping behave exactly as in production.
func createPost(t *testing.T, srv *Server, userID uint, title string, status models.PostStatus, categoryID *uint, tags ...string) *models.Post {
	t.Helper()

	post := &models.Post{
		Title:      title,
		Content:    "Content for " + title,
		Status:     status,
		CategoryID: categoryID,
		UserID:     userID,
	}
	require.NoError(t, srv.postRepo.Create(t.Context(), post, tags))
	return post
}

func createCategory(t *testing.T, srv *Server, userID uint, name string) *models.Category {
	t.Helper()

	category := &models.Category{Name: name, UserID: userID}
	require.NoError(t, srv.categoryRepo.Create(t.Context(), category))
	return category
}
