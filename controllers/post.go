package controllers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"klord-backend/config"
	"klord-backend/models"
	"klord-backend/services"
	"klord-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const uploadsDir = "uploads"

// ListPosts returns the public feed, newest first, with signed image URLs.
func ListPosts(c *gin.Context) {
	var posts []models.Post
	if err := config.DB.Order("created_at desc").Find(&posts).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve posts")
		return
	}

	for i := range posts {
		posts[i].ImageURL = services.Blobs.SignIfOwned(c.Request.Context(), posts[i].ImageURL)
	}
	c.JSON(http.StatusOK, posts)
}

// ListAdminPosts is the protected variant of the feed listing.
func ListAdminPosts(c *gin.Context) {
	ListPosts(c)
}

// CreatePost stores an uploaded image (S3 when configured, local disk
// otherwise) and creates the feed item.
func CreatePost(c *gin.Context) {
	caption := strings.TrimSpace(c.PostForm("caption"))
	if caption == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "caption is required")
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "image file is required")
		return
	}

	src, err := file.Open()
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to read image")
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to read image")
		return
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	name := fmt.Sprintf("%d-%d%s", time.Now().UnixMilli(), rand.Intn(1_000_000_000), ext)

	var imageURL string
	if services.Blobs.Enabled() {
		contentType := file.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		imageURL, err = services.Blobs.Upload(c.Request.Context(), "posts/"+name, data, contentType)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to upload image")
			return
		}
	} else {
		if err := os.MkdirAll(uploadsDir, 0755); err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to store image")
			return
		}
		if err := os.WriteFile(filepath.Join(uploadsDir, name), data, 0644); err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to store image")
			return
		}
		imageURL = "/uploads/" + name
	}

	authorID, err := uuid.Parse(c.GetString("userId"))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid admin ID format")
		return
	}

	post := models.Post{
		AuthorID: authorID,
		Caption:  caption,
		ImageURL: imageURL,
	}
	if err := config.DB.Create(&post).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create post")
		return
	}

	post.ImageURL = services.Blobs.SignIfOwned(c.Request.Context(), post.ImageURL)
	c.JSON(http.StatusCreated, post)
}

// DeletePost removes the post and best-effort deletes its image blob.
func DeletePost(c *gin.Context) {
	var post models.Post
	if err := config.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Post not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if key, ok := services.Blobs.KeyFromURL(post.ImageURL); ok {
		if err := services.Blobs.Delete(c.Request.Context(), key); err != nil {
			log.Printf("[posts] failed to remove S3 object %s: %v", key, err)
		}
	} else if strings.HasPrefix(post.ImageURL, "/uploads/") {
		localPath := filepath.Join(uploadsDir, filepath.Base(post.ImageURL))
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			log.Printf("[posts] failed to remove local image file %s: %v", localPath, err)
		}
	}

	if err := config.DB.Delete(&post).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// LikePost increments the like counter. The route carries no auth.
func LikePost(c *gin.Context) {
	result := config.DB.Model(&models.Post{}).Where("id = ?", c.Param("id")).
		UpdateColumn("likes", gorm.Expr("likes + 1"))
	if result.Error != nil || result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Failed to like post")
		return
	}

	var post models.Post
	if err := config.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	c.JSON(http.StatusOK, post)
}
