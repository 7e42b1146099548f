package handler

import (
	"net/http"
	"strconv"

	"quizduel/backend/internal/database"
	"quizduel/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// QuestionInput defines the structure for creating or updating a question.
type QuestionInput struct {
	CategoryID      uint             `json:"category_id" binding:"required"`
	Text            string           `json:"text" binding:"required"`
	Options         []models.Option  `json:"options" binding:"required,min=2,max=6"`
	CorrectOptionID string           `json:"correct_option_id" binding:"required"`
	Difficulty      string           `json:"difficulty" example:"medium"`
}

// QuestionResponse defines the structure for a question as seen by admins.
type QuestionResponse struct {
	ID              uint            `json:"id"`
	CategoryID      uint            `json:"category_id"`
	Text            string          `json:"text"`
	Options         []models.Option `json:"options"`
	CorrectOptionID string          `json:"correct_option_id"`
	Difficulty      string          `json:"difficulty"`
	Active          bool            `json:"active"`
	Approved        bool            `json:"approved"`
}

func newQuestionResponse(q models.Question) QuestionResponse {
	opts, _ := q.OptionList()
	return QuestionResponse{
		ID:              q.ID,
		CategoryID:      q.CategoryID,
		Text:            q.Text,
		Options:         opts,
		CorrectOptionID: q.CorrectOptionID,
		Difficulty:      q.Difficulty,
		Active:          q.Active,
		Approved:        q.Approved,
	}
}

// validOption reports whether id is one of the supplied option ids.
func validOption(options []models.Option, id string) bool {
	for _, o := range options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// endregion

// GetQuestions godoc
// @Summary      List questions (Admin only)
// @Description  Gets a paginated list of questions, optionally filtered by category.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        category_id query int false "Filter by Category ID"
// @Param        page        query int false "Page number" default(1)
// @Param        limit       query int false "Items per page" default(20)
// @Success      200 {object} PaginatedResponse[QuestionResponse]
// @Router       /admin/questions [get]
func GetQuestions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	categoryID := c.Query("category_id")

	query := database.DB.Model(&models.Question{}).Order("id")
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}

	result, err := Paginate[models.Question](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	response := make([]QuestionResponse, 0, len(result.Data))
	for _, q := range result.Data {
		response = append(response, newQuestionResponse(q))
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(response, result.Meta.TotalItems, page, limit))
}

// CreateQuestion godoc
// @Summary      Create a question (Admin only)
// @Description  New questions start unapproved and must be approved before they can be sampled into matches.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body QuestionInput true "Question Info"
// @Success      201  {object}  QuestionResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/questions [post]
func CreateQuestion(c *gin.Context) {
	var input QuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validOption(input.Options, input.CorrectOptionID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "correct_option_id must match one of the options"})
		return
	}

	var category models.Category
	if err := database.DB.First(&category, input.CategoryID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	question := models.Question{
		CategoryID:      input.CategoryID,
		Text:            input.Text,
		CorrectOptionID: input.CorrectOptionID,
		Difficulty:      input.Difficulty,
		Active:          true,
		Approved:        false,
	}
	if question.Difficulty == "" {
		question.Difficulty = "medium"
	}
	if err := question.SetOptions(input.Options); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid options"})
		return
	}
	if err := database.DB.Create(&question).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create question"})
		return
	}

	c.JSON(http.StatusCreated, newQuestionResponse(question))
}

// UpdateQuestion godoc
// @Summary      Update a question (Admin only)
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int           true "Question ID"
// @Param        input body QuestionInput true "New Question Info"
// @Success      200  {object}  QuestionResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/questions/{id} [put]
func UpdateQuestion(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))

	var question models.Question
	if err := database.DB.First(&question, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	var input QuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validOption(input.Options, input.CorrectOptionID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "correct_option_id must match one of the options"})
		return
	}

	question.CategoryID = input.CategoryID
	question.Text = input.Text
	question.CorrectOptionID = input.CorrectOptionID
	if input.Difficulty != "" {
		question.Difficulty = input.Difficulty
	}
	if err := question.SetOptions(input.Options); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid options"})
		return
	}
	database.DB.Save(&question)

	c.JSON(http.StatusOK, newQuestionResponse(question))
}

// ApproveQuestion godoc
// @Summary      Approve a question (Admin only)
// @Description  Approved questions become eligible for match sampling.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Question ID"
// @Success      200 {object} QuestionResponse
// @Failure      404 {object} ErrorResponse
// @Router       /admin/questions/{id}/approve [post]
func ApproveQuestion(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))

	var question models.Question
	if err := database.DB.First(&question, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	question.Approved = true
	database.DB.Save(&question)
	c.JSON(http.StatusOK, newQuestionResponse(question))
}

// DeleteQuestion godoc
// @Summary      Delete a question (Admin only)
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Question ID"
// @Success      200 {object} map[string]string "{"message": "Question deleted"}"
// @Failure      404 {object} ErrorResponse
// @Router       /admin/questions/{id} [delete]
func DeleteQuestion(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))

	var question models.Question
	if err := database.DB.First(&question, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	database.DB.Delete(&question)
	c.JSON(http.StatusOK, gin.H{"message": "Question deleted"})
}
