package server

import (
	"fmt"
	"testing"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostDerivesUniqueSlug(t *testing.T) {
	app, srv := newTestApp(t)
	_, token := createUser(t, srv, "author")

	body := map[string]any{
		"title":   "Hello World",
		"content": "First post content",
		"status":  "published",
		"tags":    "go, web",
	}

	resp := doJSON(t, app, "POST", "/post/new", body, token)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	first := decodeBody(t, resp)
	post := first["post"].(map[string]any)
	assert.Equal(t, "hello-world", post["slug"])
	assert.Equal(t, "Post created successfully", first["message"])

	// Same title must not collide on the slug
	resp = doJSON(t, app, "POST", "/post/new", body, token)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	second := decodeBody(t, resp)
	assert.Equal(t, "hello-world-1", second["post"].(map[string]any)["slug"])
}

func TestCreatePostValidation(t *testing.T) {
	app, srv := newTestApp(t)
	_, token := createUser(t, srv, "author")

	tests := []struct {
		name        string
		requestBody map[string]any
	}{
		{
			name:        "Missing title",
			requestBody: map[string]any{"content": "Content without title"},
		},
		{
			name:        "Missing content",
			requestBody: map[string]any{"title": "Title without content"},
		},
		{
			name:        "Bad status",
			requestBody: map[string]any{"title": "T", "content": "C", "status": "archived"},
		},
		{
			name:        "Unknown category",
			requestBody: map[string]any{"title": "T", "content": "C", "category_id": 999},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, "POST", "/post/new", tt.requestBody, token)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.NotNil(t, body["error"])
		})
	}
}

func TestPostDetailVisibility(t *testing.T) {
	app, srv := newTestApp(t)
	author, authorToken := createUser(t, srv, "author")
	_, otherToken := createUser(t, srv, "bystander")

	draft := createPost(t, srv, author.ID, "Secret Draft", models.StatusDraft, nil)
	published := createPost(t, srv, author.ID, "Public Post", models.StatusPublished, nil)

	tests := []struct {
		name           string
		slug           string
		token          string
		expectedStatus int
	}{
		{"Published visible anonymously", published.Slug, "", fiber.StatusOK},
		{"Draft hidden from anonymous viewer", draft.Slug, "", fiber.StatusNotFound},
		{"Draft hidden from other authenticated user", draft.Slug, otherToken, fiber.StatusNotFound},
		{"Draft visible to its author", draft.Slug, authorToken, fiber.StatusOK},
		{"Unknown slug", "no-such-post", "", fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, "GET", "/post/"+tt.slug, nil, tt.token)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestPostDetailIncludesInteractions(t *testing.T) {
	app, srv := newTestApp(t)
	author, _ := createUser(t, srv, "author")
	fan, fanToken := createUser(t, srv, "fan")

	post := createPost(t, srv, author.ID, "Liked Post", models.StatusPublished, nil)

	_, err := srv.likeRepo.Toggle(t.Context(), post.ID, fan.ID)
	require.NoError(t, err)
	require.NoError(t, srv.commentRepo.Create(t.Context(), &models.Comment{
		Content: "Nice one",
		UserID:  fan.ID,
		PostID:  post.ID,
	}))

	resp := doJSON(t, app, "GET", "/post/"+post.Slug, nil, fanToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["like_count"])
	assert.Equal(t, true, body["user_has_liked"])
	assert.Len(t, body["comments"], 1)

	// Anonymous viewer sees the count but no liked flag
	resp = doJSON(t, app, "GET", "/post/"+post.Slug, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, false, body["user_has_liked"])
}

func TestListPosts(t *testing.T) {
	app, srv := newTestApp(t)
	author, _ := createUser(t, srv, "author")
	tech := createCategory(t, srv, author.ID, "Tech")

	createPost(t, srv, author.ID, "Go Programming", models.StatusPublished, &tech.ID)
	createPost(t, srv, author.ID, "Hidden Draft About Go", models.StatusDraft, &tech.ID)
	for i := 0; i < 6; i++ {
		createPost(t, srv, author.ID, fmt.Sprintf("Filler Post %d", i), models.StatusPublished, nil)
	}

	t.Run("Published only with page size 5", func(t *testing.T) {
		resp := doJSON(t, app, "GET", "/", nil, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Len(t, body["posts"], 5)

		pagination := body["pagination"].(map[string]any)
		assert.Equal(t, float64(7), pagination["total"], "draft must not appear in the feed")
		assert.Equal(t, float64(2), pagination["total_pages"])
	})

	t.Run("Second page", func(t *testing.T) {
		resp := doJSON(t, app, "GET", "/?page=2", nil, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Len(t, body["posts"], 2)
	})

	t.Run("Search is case-insensitive and excludes drafts", func(t *testing.T) {
		resp := doJSON(t, app, "GET", "/?q=gO", nil, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		posts := body["posts"].([]any)
		require.Len(t, posts, 1)
		assert.Equal(t, "Go Programming", posts[0].(map[string]any)["title"])
		assert.Equal(t, "gO", body["search_query"])
	})

	t.Run("Title and content double match yields one row", func(t *testing.T) {
		createPost(t, srv, author.ID, "Ferrets Everywhere", models.StatusPublished, nil)
		// Title and content both contain "ferrets"
		resp := doJSON(t, app, "GET", "/?q=ferrets", nil, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Len(t, body["posts"], 1)
	})

	t.Run("Category filter composes with search", func(t *testing.T) {
		resp := doJSON(t, app, "GET", "/?q=go&category="+tech.Slug, nil, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Len(t, body["posts"], 1)
		assert.Equal(t, tech.Slug, body["selected_category"])
	})

	t.Run("Out-of-range page clamps to the last page", func(t *testing.T) {
		// 8 published posts at this point, so 99 clamps to page 2 of 2
		resp := doJSON(t, app, "GET", "/?page=99", nil, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Len(t, body["posts"], 3)

		pagination := body["pagination"].(map[string]any)
		assert.Equal(t, float64(2), pagination["page"])
		assert.Equal(t, float64(2), pagination["total_pages"])
	})

	t.Run("Unknown category slug yields 404", func(t *testing.T) {
		resp := doJSON(t, app, "GET", "/?category=no-such-category", nil, "")
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestUpdatePostOwnership(t *testing.T) {
	app, srv := newTestApp(t)
	author, authorToken := createUser(t, srv, "author")
	_, otherToken := createUser(t, srv, "intruder")

	post := createPost(t, srv, author.ID, "Original Title", models.StatusDraft, nil)

	update := map[string]any{
		"title":   "Updated Title",
		"content": "Updated content",
		"status":  "published",
	}

	t.Run("Non-author is denied", func(t *testing.T) {
		resp := doJSON(t, app, "POST", "/post/"+post.Slug+"/update", update, otherToken)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("Non-author cannot load the edit form", func(t *testing.T) {
		resp := doJSON(t, app, "GET", "/post/"+post.Slug+"/update", nil, otherToken)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("Author updates; slug stays stable", func(t *testing.T) {
		resp := doJSON(t, app, "POST", "/post/"+post.Slug+"/update", update, authorToken)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Post updated successfully", body["message"])

		updated := body["post"].(map[string]any)
		assert.Equal(t, "Updated Title", updated["title"])
		assert.Equal(t, post.Slug, updated["slug"], "slug must not change on update")
		assert.NotNil(t, updated["published_at"], "publishing stamps published_at")
	})
}

func TestDeletePost(t *testing.T) {
	app, srv := newTestApp(t)
	author, authorToken := createUser(t, srv, "author")
	_, otherToken := createUser(t, srv, "intruder")

	post := createPost(t, srv, author.ID, "Doomed Post", models.StatusPublished, nil)

	t.Run("Non-author is denied", func(t *testing.T) {
		resp := doJSON(t, app, "POST", "/post/"+post.Slug+"/delete", nil, otherToken)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("Confirmation step", func(t *testing.T) {
		resp := doJSON(t, app, "GET", "/post/"+post.Slug+"/delete", nil, authorToken)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Contains(t, body["message"], "Doomed Post")
	})

	t.Run("Author deletes", func(t *testing.T) {
		resp := doJSON(t, app, "POST", "/post/"+post.Slug+"/delete", nil, authorToken)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Post deleted successfully", body["message"])
		assert.Equal(t, "/dashboard", body["redirect"])

		resp = doJSON(t, app, "GET", "/post/"+post.Slug, nil, "")
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestTagBrowsing(t *testing.T) {
	app, srv := newTestApp(t)
	author, _ := createUser(t, srv, "author")

	createPost(t, srv, author.ID, "Tagged One", models.StatusPublished, nil, "golang")
	createPost(t, srv, author.ID, "Tagged Two", models.StatusPublished, nil, "golang", "web")
	createPost(t, srv, author.ID, "Tagged Draft", models.StatusDraft, nil, "golang")
	createPost(t, srv, author.ID, "Untagged", models.StatusPublished, nil)

	t.Run("Published posts with tag", func(t *testing.T) {
		resp := doJSON(t, app, "GET", "/tag/golang", nil, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Len(t, body["posts"], 2, "draft must not appear under its tag")

		pagination := body["pagination"].(map[string]any)
		assert.Equal(t, float64(4), pagination["page_size"])
	})

	t.Run("Unknown tag yields 404", func(t *testing.T) {
		resp := doJSON(t, app, "GET", "/tag/no-such-tag", nil, "")
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}
