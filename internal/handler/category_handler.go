package handler

import (
	"net/http"
	"strconv"

	"quizduel/backend/internal/database"
	"quizduel/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// CategoryInput defines the structure for creating or updating a category.
type CategoryInput struct {
	Name        string `json:"name" binding:"required" example:"History"`
	Description string `json:"description" example:"From antiquity to the space age"`
	Active      *bool  `json:"active"`
}

// CategoryResponse defines the structure for a category with its question count.
type CategoryResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Active        bool   `json:"active"`
	QuestionCount int64  `json:"question_count"`
}

// endregion

// GetCategories godoc
// @Summary      List quiz categories
// @Description  Gets all active categories with their approved question counts.
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} CategoryResponse
// @Router       /categories [get]
func GetCategories(c *gin.Context) {
	var categories []models.Category
	if err := database.DB.Where("active = ?", true).Order("name").Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	response := make([]CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		var count int64
		database.DB.Model(&models.Question{}).
			Where("category_id = ? AND active = ? AND approved = ?", cat.ID, true, true).
			Count(&count)
		response = append(response, CategoryResponse{
			ID:            cat.ID,
			Name:          cat.Name,
			Description:   cat.Description,
			Active:        cat.Active,
			QuestionCount: count,
		})
	}

	c.JSON(http.StatusOK, response)
}

// CreateCategory godoc
// @Summary      Create a category (Admin only)
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CategoryInput true "Category Info"
// @Success      201  {object}  CategoryResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /admin/categories [post]
func CreateCategory(c *gin.Context) {
	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Category
	if err := database.DB.Where("name = ?", input.Name).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Category already exists"})
		return
	}

	category := models.Category{
		Name:        input.Name,
		Description: input.Description,
		Active:      true,
	}
	if input.Active != nil {
		category.Active = *input.Active
	}
	if err := database.DB.Create(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		Active:      category.Active,
	})
}

// UpdateCategory godoc
// @Summary      Update a category (Admin only)
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int           true "Category ID"
// @Param        input body CategoryInput true "New Category Info"
// @Success      200  {object}  CategoryResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/categories/{id} [put]
func UpdateCategory(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))

	var category models.Category
	if err := database.DB.First(&category, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category.Name = input.Name
	category.Description = input.Description
	if input.Active != nil {
		category.Active = *input.Active
	}
	database.DB.Save(&category)

	c.JSON(http.StatusOK, CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		Active:      category.Active,
	})
}

// DeleteCategory godoc
// @Summary      Delete a category (Admin only)
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Category ID"
// @Success      200 {object} map[string]string "{"message": "Category deleted"}"
// @Failure      404 {object} ErrorResponse
// @Router       /admin/categories/{id} [delete]
func DeleteCategory(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))

	var category models.Category
	if err := database.DB.First(&category, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	database.DB.Delete(&category)
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}
