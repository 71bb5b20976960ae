package controller

import (
	"campus_exam_backend/internal/service"
	"campus_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ResultController struct {
	ResultService *service.ResultService
}

func NewResultController(resultService *service.ResultService) *ResultController {
	return &ResultController{ResultService: resultService}
}

// GetAttemptResult godoc
// @Summary Get the result of a submitted attempt
// @Description Returns the attempt with answers; grading detail is visible to course staff, and to the student once results are published
// @Tags results
// @Produce  json
// @Param   id path string true "attempt id"
// @Success 200 {object} util.Response{data=service.AttemptResultView}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/attempts/{id}/result [get]
// @Security BearerAuth
func (c *ResultController) GetAttemptResult(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	attemptID := ctx.Param("id")

	view, err := c.ResultService.GetAttemptResult(attemptID, user.UserID, user.Role)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, view)
}
