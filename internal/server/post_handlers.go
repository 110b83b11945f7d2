package server

import (
	"os"
	"path/filepath"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// postRequest is the typed form for post create/update. Nothing is applied
// to an entity until the whole request validates.
type postRequest struct {
	Title      string `json:"title" form:"title"`
	Content    string `json:"content" form:"content"`
	Tags       string `json:"tags" form:"tags"` // comma-separated labels
	CategoryID *uint  `json:"category_id" form:"category_id"`
	Status     string `json:"status" form:"status"`
}

func (s *Server) parsePostRequest(c *fiber.Ctx) (*postRequest, error) {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, models.NewValidationError("Invalid request body")
	}
	if req.Title == "" || req.Content == "" {
		return nil, models.NewValidationError("Title and content are required")
	}
	if req.Status == "" {
		req.Status = string(models.StatusDraft)
	}
	if !models.ValidStatus(models.PostStatus(req.Status)) {
		return nil, models.NewValidationError("Status must be draft or published")
	}
	if req.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(c.UserContext(), *req.CategoryID); err != nil {
			return nil, models.NewValidationError("Unknown category")
		}
	}
	return &req, nil
}

// parseTags splits a comma-separated tag field into trimmed labels.
func parseTags(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// saveFeatureImage stores an uploaded feature image under the upload dir
// with a random filename. Returns "" when no file was sent.
func (s *Server) saveFeatureImage(c *fiber.Ctx) (string, error) {
	file, err := c.FormFile("feature_image")
	if err != nil {
		return "", nil // field absent; the image is optional
	}

	dir := s.config.UploadDir
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", models.NewInternalError(err)
	}

	name := uuid.New().String() + filepath.Ext(file.Filename)
	path := filepath.Join(dir, name)
	if err := c.SaveFile(file, path); err != nil {
		return "", models.NewInternalError(err)
	}
	return path, nil
}

// visiblePost fetches a post by slug and applies the visibility rule:
// drafts are visible to their author only, everyone else gets a 404.
func (s *Server) visiblePost(c *fiber.Ctx, slug string) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(c.UserContext(), slug)
	if err != nil {
		return nil, err
	}
	if post.Status != models.StatusPublished {
		viewer, ok := s.optionalUserID(c)
		if !ok || viewer != post.UserID {
			return nil, models.NewNotFoundError("Post", slug)
		}
	}
	return post, nil
}

// ownPost fetches a post by slug and requires the acting user to be its
// author. A non-author is denied outright, never redirected.
func (s *Server) ownPost(c *fiber.Ctx, slug string) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(c.UserContext(), slug)
	if err != nil {
		return nil, err
	}
	userID := c.Locals("userID").(uint)
	if post.UserID != userID {
		return nil, models.NewForbiddenError("You can only modify your own posts")
	}
	return post, nil
}

// ListPosts handles GET /?q=...&category=...&page=N — the public feed of
// published posts.
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	query := c.Query("q")
	categorySlug := c.Query("category")

	filter := repository.PostFilter{Query: query}
	if categorySlug != "" {
		category, err := s.categoryRepo.GetBySlug(c.UserContext(), categorySlug)
		if err != nil {
			return respondError(c, err)
		}
		filter.CategoryID = &category.ID
	}

	posts, total, err := s.postRepo.ListPublished(c.UserContext(), filter, page, feedPageSize)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"posts":             posts,
		"pagination":        models.NewPageMeta(page, feedPageSize, total),
		"search_query":      query,
		"selected_category": categorySlug,
	})
}

// PostDetail handles GET /post/:slug
func (s *Server) PostDetail(c *fiber.Ctx) error {
	post, err := s.visiblePost(c, c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}

	comments, err := s.commentRepo.ListByPost(c.UserContext(), post.ID)
	if err != nil {
		return respondError(c, err)
	}

	likeCount, err := s.likeRepo.CountByPost(c.UserContext(), post.ID)
	if err != nil {
		return respondError(c, err)
	}
	post.LikeCount = likeCount

	userHasLiked := false
	if viewer, ok := s.optionalUserID(c); ok {
		userHasLiked, err = s.likeRepo.Exists(c.UserContext(), post.ID, viewer)
		if err != nil {
			return respondError(c, err)
		}
	}
	post.Liked = userHasLiked

	return c.JSON(fiber.Map{
		"post":           post,
		"comments":       comments,
		"like_count":     likeCount,
		"user_has_liked": userHasLiked,
	})
}

// NewPostForm handles GET /post/new — the form context for creating a post.
func (s *Server) NewPostForm(c *fiber.Ctx) error {
	categories, err := s.categoryRepo.ListWithPublishedCounts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"categories": categories,
		"statuses":   []models.PostStatus{models.StatusDraft, models.StatusPublished},
	})
}

// CreatePost handles POST /post/new
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	req, err := s.parsePostRequest(c)
	if err != nil {
		return respondError(c, err)
	}

	imagePath, err := s.saveFeatureImage(c)
	if err != nil {
		return respondError(c, err)
	}

	post := &models.Post{
		Title:      req.Title,
		Content:    req.Content,
		ImagePath:  imagePath,
		Status:     models.PostStatus(req.Status),
		CategoryID: req.CategoryID,
		UserID:     userID,
	}

	if err := s.postRepo.Create(c.UserContext(), post, parseTags(req.Tags)); err != nil {
		return respondError(c, err)
	}

	// A new published post moves its category's count
	cache.Invalidate(c.UserContext(), categoryCountsKey)

	created, err := s.postRepo.GetBySlug(c.UserContext(), post.Slug)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Post created successfully",
		"post":    created,
	})
}

// EditPostForm handles GET /post/:slug/update — returns the post for
// editing, author only.
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	post, err := s.ownPost(c, c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}

	categories, err := s.categoryRepo.ListWithPublishedCounts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"post":       post,
		"categories": categories,
		"statuses":   []models.PostStatus{models.StatusDraft, models.StatusPublished},
	})
}

// UpdatePost handles POST /post/:slug/update
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	post, err := s.ownPost(c, c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}

	req, err := s.parsePostRequest(c)
	if err != nil {
		return respondError(c, err)
	}

	imagePath, err := s.saveFeatureImage(c)
	if err != nil {
		return respondError(c, err)
	}

	post.Title = req.Title
	post.Content = req.Content
	post.Status = models.PostStatus(req.Status)
	post.CategoryID = req.CategoryID
	post.Category = nil // reloaded lazily; the old preload may no longer match
	if imagePath != "" {
		post.ImagePath = imagePath
	}

	if err := s.postRepo.Update(c.UserContext(), post, parseTags(req.Tags)); err != nil {
		return respondError(c, err)
	}

	// Status or category changes move the published counts
	cache.Invalidate(c.UserContext(), categoryCountsKey)

	return c.JSON(fiber.Map{
		"message": "Post updated successfully",
		"post":    post,
	})
}

// ConfirmDeletePost handles GET /post/:slug/delete — the confirmation step.
func (s *Server) ConfirmDeletePost(c *fiber.Ctx) error {
	post, err := s.ownPost(c, c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Confirm deletion of post \"" + post.Title + "\"",
		"post":    post,
	})
}

// DeletePost handles POST /post/:slug/delete
func (s *Server) DeletePost(c *fiber.Ctx) error {
	post, err := s.ownPost(c, c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}

	if err := s.postRepo.Delete(c.UserContext(), post.ID); err != nil {
		return respondError(c, err)
	}

	cache.Invalidate(c.UserContext(), categoryCountsKey)

	return c.JSON(fiber.Map{
		"message":  "Post deleted successfully",
		"redirect": "/dashboard",
	})
}
