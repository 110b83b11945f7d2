package server

import (
	"github.com/gofiber/fiber/v2"
)

// ToggleLike handles POST /post/:slug/like. The like state for
// (post, acting user) flips on every call: absent creates a row, present
// deletes it. The storage-level unique index keeps concurrent toggles from
// producing duplicate rows.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	post, err := s.visiblePost(c, c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}

	liked, err := s.likeRepo.Toggle(c.UserContext(), post.ID, userID)
	if err != nil {
		return respondError(c, err)
	}

	likeCount, err := s.likeRepo.CountByPost(c.UserContext(), post.ID)
	if err != nil {
		return respondError(c, err)
	}

	message := "Post unliked"
	if liked {
		message = "Post liked"
	}

	return c.JSON(fiber.Map{
		"message":    message,
		"liked":      liked,
		"like_count": likeCount,
		"redirect":   "/post/" + post.Slug,
	})
}
