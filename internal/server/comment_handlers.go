package server

import (
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// RedirectToPost sends the caller back to the post detail view. Used for
// GET requests against the comment and like endpoints, which have no
// standalone form of their own.
func (s *Server) RedirectToPost(c *fiber.Ctx) error {
	return c.Redirect("/post/"+c.Params("slug"), fiber.StatusSeeOther)
}

// CreateComment handles POST /post/:slug/comment. The post and author are
// attached server-side; the client supplies only the content. An invalid
// submission is bounced back to the detail view without inline errors.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	post, err := s.visiblePost(c, c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Content string `json:"content" form:"content"`
	}
	if err := c.BodyParser(&req); err != nil || req.Content == "" {
		return c.Redirect("/post/"+post.Slug, fiber.StatusSeeOther)
	}

	comment := &models.Comment{
		Content: req.Content,
		UserID:  userID,
		PostID:  post.ID,
	}
	if err := s.commentRepo.Create(c.UserContext(), comment); err != nil {
		return respondError(c, err)
	}

	created, err := s.commentRepo.GetByID(c.UserContext(), comment.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Comment added successfully",
		"comment":  created,
		"redirect": "/post/" + post.Slug,
	})
}
