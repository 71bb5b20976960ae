package controller

import (
	"campus_exam_backend/internal/service"
	"campus_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
	StorageService *service.StorageService
}

func NewAttemptController(attemptService *service.AttemptService, storageService *service.StorageService) *AttemptController {
	return &AttemptController{
		AttemptService: attemptService,
		StorageService: storageService,
	}
}

type StartAttemptRequest struct {
	AccessPassword string `json:"accessPassword"`
}

// StartAttempt godoc
// @Summary Start an exam attempt
// @Description Validates eligibility for the session, draws the question sample and opens an attempt
// @Tags attempts
// @Accept  json
// @Produce  json
// @Param   id path int true "exam session id"
// @Param   body body StartAttemptRequest false "session access password, if the session requires one"
// @Success 201 {object} util.Response{data=service.StartAttemptResult}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/sessions/{id}/attempts [post]
// @Security BearerAuth
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	sessionID := util.MustParseUint(ctx.Param("id"))
	if sessionID == 0 {
		util.BadRequest(ctx, "invalid session id")
		return
	}

	var req StartAttemptRequest
	ctx.ShouldBindJSON(&req)

	result, err := c.AttemptService.StartAttempt(ctx.Request.Context(), user.UserID, sessionID,
		req.AccessPassword, ctx.ClientIP(), ctx.Request.UserAgent())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, result)
}

// SaveAnswer godoc
// @Summary Save an answer
// @Description Records the answer for one presented question; objective answers are graded immediately
// @Tags attempts
// @Accept  json
// @Produce  json
// @Param   id path string true "attempt id"
// @Param   body body service.SaveAnswerRequest true "answer payload"
// @Success 200 {object} util.Response{data=service.AnswerView}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/attempts/{id}/answers [put]
// @Security BearerAuth
func (c *AttemptController) SaveAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	attemptID := ctx.Param("id")

	var req service.SaveAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.AttemptService.SaveAnswer(ctx.Request.Context(), attemptID, user.UserID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// UploadAnswerAttachment godoc
// @Summary Attach a file to an essay answer
// @Description Stores an attachment and records its URL on the already-saved answer
// @Tags attempts
// @Accept  multipart/form-data
// @Produce  json
// @Param   id path string true "attempt id"
// @Param   questionId formData int true "question id"
// @Param   file formData file true "attachment"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/attempts/{id}/answers/attachment [post]
// @Security BearerAuth
func (c *AttemptController) UploadAnswerAttachment(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	attemptID := ctx.Param("id")
	questionID := util.MustParseUint(ctx.PostForm("questionId"))
	if questionID == 0 {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	defer file.Close()

	url, err := c.StorageService.SaveAnswerAttachment(ctx.Request.Context(), attemptID, questionID,
		fileHeader.Filename, file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	if err := c.AttemptService.AttachAnswerFile(attemptID, user.UserID, questionID, url); err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"attachmentUrl": url})
}

type SubmitAttemptRequest struct {
	AutoSubmit bool `json:"autoSubmit"`
}

// SubmitAttempt godoc
// @Summary Submit an attempt
// @Description Closes the attempt and runs scoring; a second submit is rejected
// @Tags attempts
// @Accept  json
// @Produce  json
// @Param   id path string true "attempt id"
// @Param   body body SubmitAttemptRequest false "set autoSubmit when the client timer expired"
// @Success 200 {object} util.Response{data=service.SubmissionResult}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/attempts/{id}/submit [post]
// @Security BearerAuth
func (c *AttemptController) SubmitAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	attemptID := ctx.Param("id")

	var req SubmitAttemptRequest
	ctx.ShouldBindJSON(&req)

	result, err := c.AttemptService.SubmitAttempt(ctx.Request.Context(), attemptID, user.UserID, req.AutoSubmit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// ListMyAttempts godoc
// @Summary List the caller's attempts
// @Description Returns the caller's attempt history; scores appear only after results are published
// @Tags attempts
// @Produce  json
// @Success 200 {object} util.Response{data=[]service.AttemptSummary}
// @Router /api/attempts/mine [get]
// @Security BearerAuth
func (c *AttemptController) ListMyAttempts(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)

	summaries, err := c.AttemptService.ListStudentAttempts(user.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, summaries)
}
