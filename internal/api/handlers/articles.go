package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nkashima/vgc-scout/backend/internal/database"
	"github.com/nkashima/vgc-scout/backend/internal/models"
	"github.com/nkashima/vgc-scout/backend/internal/services"
)

const (
	defaultArticlePageSize = 20
	maxArticlePageSize     = 100
)

type ArticleHandler struct {
	teams *services.TeamService
}

func NewArticleHandler(teams *services.TeamService) *ArticleHandler {
	return &ArticleHandler{teams: teams}
}

// ListArticles lists stored articles, newest first
// GET /api/articles?q=&status=&source=&regulation=&limit=&offset=
func (h *ArticleHandler) ListArticles(c *gin.Context) {
	limit := defaultArticlePageSize
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxArticlePageSize {
		limit = maxArticlePageSize
	}
	offset := 0
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}

	db := database.GetDB()
	query := db.Model(&models.Article{})

	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("title LIKE ? OR title_en LIKE ? OR author LIKE ?", like, like, like)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if source := c.Query("source"); source != "" {
		query = query.Where("source = ?", source)
	}
	if reg := c.Query("regulation"); reg != "" {
		query = query.Where("regulation = ?", strings.ToUpper(strings.TrimSpace(reg)))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count articles"})
		return
	}

	var articles []models.Article
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&articles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list articles"})
		return
	}

	c.JSON(http.StatusOK, models.ArticleSearchResult{
		Articles:   articles,
		TotalCount: int(total),
		HasMore:    offset+len(articles) < int(total),
	})
}

// GetArticle returns one article with the teams extracted from it
// GET /api/articles/:id
func (h *ArticleHandler) GetArticle(c *gin.Context) {
	articleID := c.Param("id")
	if articleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article id is required"})
		return
	}

	db := database.GetDB()
	var article models.Article
	if err := db.First(&article, "id = ?", articleID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}

	teams, err := h.teams.TeamsByArticle(article.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load teams"})
		return
	}
	article.Teams = teams

	c.JSON(http.StatusOK, article)
}
