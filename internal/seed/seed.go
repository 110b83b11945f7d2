// Package seed populates a development database with fake blog content.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var categoryNames = []string{
	"Programming", "Travel", "Food", "Photography", "Productivity",
}

var tagPool = []string{
	"go", "web", "tutorial", "opinion", "review", "howto", "news",
}

// Run seeds users, categories, posts, comments, and likes. Idempotent-ish:
// it skips entirely when any user already exists.
func Run(db *gorm.DB, userCount, postsPerUser int) error {
	var existing int64
	if err := db.Model(&models.User{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		log.Println("Database already seeded; skipping")
		return nil
	}

	ctx := context.Background()
	posts := repository.NewPostRepository(db)
	categories := repository.NewCategoryRepository(db)
	likes := repository.NewLikeRepository(db)

	hash, err := bcrypt.GenerateFromPassword([]byte("inkwell-dev1"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var users []models.User
	for i := 0; i < userCount; i++ {
		user := models.User{
			Username: fmt.Sprintf("%s%d", gofakeit.Username(), i),
			Email:    gofakeit.Email(),
			Password: string(hash),
		}
		if err := db.Create(&user).Error; err != nil {
			return err
		}
		users = append(users, user)
	}

	var cats []models.Category
	for _, name := range categoryNames {
		cat := models.Category{Name: name, UserID: users[rand.Intn(len(users))].ID}
		if err := categories.Create(ctx, &cat); err != nil {
			return err
		}
		cats = append(cats, cat)
	}

	var created []models.Post
	for _, user := range users {
		for i := 0; i < postsPerUser; i++ {
			status := models.StatusPublished
			if rand.Intn(4) == 0 {
				status = models.StatusDraft
			}

			var categoryID *uint
			if rand.Intn(5) > 0 {
				categoryID = &cats[rand.Intn(len(cats))].ID
			}

			post := models.Post{
				Title:      gofakeit.Sentence(5),
				Content:    gofakeit.Paragraph(3, 4, 12, "\n\n"),
				Status:     status,
				CategoryID: categoryID,
				UserID:     user.ID,
			}

			tagNames := pickTags(1 + rand.Intn(3))
			if err := posts.Create(ctx, &post, tagNames); err != nil {
				return err
			}
			created = append(created, post)
		}
	}

	for _, post := range created {
		if post.Status != models.StatusPublished {
			continue
		}
		for _, user := range users {
			if rand.Intn(3) == 0 {
				if _, err := likes.Toggle(ctx, post.ID, user.ID); err != nil {
					return err
				}
			}
			if rand.Intn(4) == 0 {
				comment := models.Comment{
					Content: gofakeit.Sentence(10),
					UserID:  user.ID,
					PostID:  post.ID,
				}
				if err := db.Create(&comment).Error; err != nil {
					return err
				}
			}
		}
	}

	log.Printf("Seeded %d users, %d categories, %d posts", len(users), len(cats), len(created))
	return nil
}

func pickTags(n int) []string {
	names := make([]string, 0, n)
	perm := rand.Perm(len(tagPool))
	for i := 0; i < n && i < len(perm); i++ {
		names = append(names, tagPool[perm[i]])
	}
	return names
}
