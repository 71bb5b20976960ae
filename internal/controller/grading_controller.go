package controller

import (
	"campus_exam_backend/internal/service"
	"campus_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GradingController struct {
	GradingService *service.GradingService
}

func NewGradingController(gradingService *service.GradingService) *GradingController {
	return &GradingController{GradingService: gradingService}
}

// ListPendingGrading godoc
// @Summary List attempts awaiting manual grading
// @Description Returns submitted attempts of an exam that still have ungraded subjective answers
// @Tags grading
// @Produce  json
// @Param   id path int true "exam id"
// @Success 200 {object} util.Response{data=[]model.ExamAttempt}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/staff/exams/{id}/attempts/pending-grading [get]
// @Security BearerAuth
func (c *GradingController) ListPendingGrading(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	examID := util.MustParseUint(ctx.Param("id"))
	if examID == 0 {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	attempts, err := c.GradingService.ListPendingManual(examID, user.UserID, user.Role)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, attempts)
}

type GradeAttemptRequest struct {
	Marks []service.ManualMark `json:"marks" binding:"required,dive"`
}

// GradeAttempt godoc
// @Summary Enter manual marks for an attempt
// @Description Records marks for subjective answers and recomputes the attempt score
// @Tags grading
// @Accept  json
// @Produce  json
// @Param   id path string true "attempt id"
// @Param   body body GradeAttemptRequest true "marks per question"
// @Success 200 {object} util.Response{data=service.SubmissionResult}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/staff/attempts/{id}/grade [post]
// @Security BearerAuth
func (c *GradingController) GradeAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	attemptID := ctx.Param("id")

	var req GradeAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.GradingService.GradeAttempt(user.UserID, user.Role, attemptID, req.Marks)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}
