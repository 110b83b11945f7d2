package server

import (
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Dashboard handles GET /dashboard — aggregate counts plus a paginated,
// reverse-chronological list scoped strictly to the acting user's posts.
func (s *Server) Dashboard(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	stats, err := s.postRepo.AuthorStats(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	page := c.QueryInt("page", 1)
	posts, total, err := s.postRepo.ListByAuthor(c.UserContext(), userID, page, browsePageSize)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"total_posts":               stats.TotalPosts,
		"published_count":           stats.PublishedCount,
		"draft_count":               stats.DraftCount,
		"distinct_categories_count": stats.DistinctCategories,
		"posts":                     posts,
		"pagination":                models.NewPageMeta(page, browsePageSize, total),
	})
}
