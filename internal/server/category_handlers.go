package server

import (
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/gofiber/fiber/v2"
)

const categoryCountsKey = "categories:published_counts"

// ListCategories handles GET /categories — every category with its
// published post count, alphabetical. Served cache-aside with a short TTL
// and invalidated by category mutations.
func (s *Server) ListCategories(c *fiber.Ctx) error {
	var categories []models.CategoryCount
	err := cache.CacheAside(c.UserContext(), categoryCountsKey, &categories, 60*time.Second, func() error {
		var ferr error
		categories, ferr = s.categoryRepo.ListWithPublishedCounts(c.UserContext())
		return ferr
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"categories": categories,
	})
}

// CategoryPosts handles GET /category/:slug — published posts in one
// category, page size 4.
func (s *Server) CategoryPosts(c *fiber.Ctx) error {
	category, err := s.categoryRepo.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}

	page := c.QueryInt("page", 1)
	filter := repository.PostFilter{CategoryID: &category.ID}
	posts, total, err := s.postRepo.ListPublished(c.UserContext(), filter, page, browsePageSize)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"category":   category,
		"posts":      posts,
		"pagination": models.NewPageMeta(page, browsePageSize, total),
	})
}

// NewCategoryForm handles GET /category/new
func (s *Server) NewCategoryForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"title": "Create Category",
	})
}

// CreateCategory handles POST /category/new. Any authenticated user may
// create categories; authorship is recorded for attribution only.
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	name, err := parseCategoryName(c)
	if err != nil {
		return respondError(c, err)
	}

	category := &models.Category{
		Name:   name,
		UserID: userID,
	}
	if err := s.categoryRepo.Create(c.UserContext(), category); err != nil {
		return respondError(c, err)
	}

	cache.Invalidate(c.UserContext(), categoryCountsKey)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Category \"" + category.Name + "\" created successfully!",
		"category": category,
	})
}

// EditCategoryForm handles GET /category/:id/update
func (s *Server) EditCategoryForm(c *fiber.Ctx) error {
	category, err := s.categoryByIDParam(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"title":    "Update Category",
		"category": category,
	})
}

// UpdateCategory handles POST /category/:id/update. The slug stays stable;
// only the display name changes.
func (s *Server) UpdateCategory(c *fiber.Ctx) error {
	category, err := s.categoryByIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	name, err := parseCategoryName(c)
	if err != nil {
		return respondError(c, err)
	}

	category.Name = name
	if err := s.categoryRepo.Update(c.UserContext(), category); err != nil {
		return respondError(c, err)
	}

	cache.Invalidate(c.UserContext(), categoryCountsKey)

	return c.JSON(fiber.Map{
		"message":  "Category \"" + category.Name + "\" updated successfully!",
		"category": category,
	})
}

// ConfirmDeleteCategory handles GET /category/:id/delete — the confirmation
// step before the POST performs the deletion.
func (s *Server) ConfirmDeleteCategory(c *fiber.Ctx) error {
	category, err := s.categoryByIDParam(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  "Confirm deletion of category \"" + category.Name + "\"",
		"category": category,
	})
}

// DeleteCategory handles POST /category/:id/delete
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	category, err := s.categoryByIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := s.categoryRepo.Delete(c.UserContext(), category.ID); err != nil {
		return respondError(c, err)
	}

	cache.Invalidate(c.UserContext(), categoryCountsKey)

	return c.JSON(fiber.Map{
		"message": "Category \"" + category.Name + "\" deleted successfully!",
	})
}

// TagPosts handles GET /tag/:slug — published posts carrying the tag, page
// size 4, 404 on unknown slug.
func (s *Server) TagPosts(c *fiber.Ctx) error {
	tag, err := s.tagRepo.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}

	page := c.QueryInt("page", 1)
	posts, total, err := s.postRepo.ListPublishedByTag(c.UserContext(), tag.ID, page, browsePageSize)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"tag":        tag,
		"posts":      posts,
		"pagination": models.NewPageMeta(page, browsePageSize, total),
	})
}

func (s *Server) categoryByIDParam(c *fiber.Ctx) (*models.Category, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return nil, models.NewNotFoundError("Category", c.Params("id"))
	}
	return s.categoryRepo.GetByID(c.UserContext(), uint(id))
}

func parseCategoryName(c *fiber.Ctx) (string, error) {
	var req struct {
		Name string `json:"name" form:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return "", models.NewValidationError("Invalid request body")
	}
	if req.Name == "" {
		return "", models.NewValidationError("Name is required")
	}
	return req.Name, nil
}
