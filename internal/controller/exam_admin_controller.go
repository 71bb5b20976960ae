package controller

import (
	"campus_exam_backend/internal/model"
	"campus_exam_backend/internal/service"
	"campus_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamAdminController struct {
	AdminService *service.ExamAdminService
}

func NewExamAdminController(adminService *service.ExamAdminService) *ExamAdminController {
	return &ExamAdminController{AdminService: adminService}
}

// CreateCourse godoc
// @Summary Create a course
// @Tags exam-admin
// @Accept  json
// @Produce  json
// @Param   body body service.CourseCreateRequest true "course details"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 409 {object} util.Response
// @Router /api/staff/courses [post]
// @Security BearerAuth
func (c *ExamAdminController) CreateCourse(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)

	var req service.CourseCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.AdminService.CreateCourse(user.UserID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, course)
}

type AssignLecturerRequest struct {
	StaffID uint `json:"staffId" binding:"required"`
}

// AssignLecturer godoc
// @Summary Assign a lecturer to a course
// @Tags exam-admin
// @Accept  json
// @Produce  json
// @Param   id path int true "course id"
// @Param   body body AssignLecturerRequest true "lecturer to assign"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/staff/courses/{id}/lecturers [post]
// @Security BearerAuth
func (c *ExamAdminController) AssignLecturer(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("id"))
	if courseID == 0 {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	var req AssignLecturerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AdminService.AssignLecturer(courseID, req.StaffID); err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// CreateExam godoc
// @Summary Create an exam
// @Tags exam-admin
// @Accept  json
// @Produce  json
// @Param   body body service.ExamCreateRequest true "exam details"
// @Success 201 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response
// @Router /api/staff/exams [post]
// @Security BearerAuth
func (c *ExamAdminController) CreateExam(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)

	var req service.ExamCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	exam, err := c.AdminService.CreateExam(user.UserID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, exam)
}

// ListExams godoc
// @Summary List exams
// @Tags exam-admin
// @Produce  json
// @Param   courseId query int false "filter by course"
// @Param   page query int false "page number"
// @Param   limit query int false "page size"
// @Success 200 {object} util.Response{data=object}
// @Router /api/staff/exams [get]
// @Security BearerAuth
func (c *ExamAdminController) ListExams(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Query("courseId"))
	page := int(util.MustParseUint(ctx.DefaultQuery("page", "1")))
	limit := int(util.MustParseUint(ctx.DefaultQuery("limit", "20")))

	exams, total, err := c.AdminService.ListExams(courseID, page, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"exams": exams, "total": total})
}

// UpdateExam godoc
// @Summary Edit a draft exam
// @Tags exam-admin
// @Accept  json
// @Produce  json
// @Param   id path int true "exam id"
// @Param   body body service.ExamUpdateRequest true "exam details"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/staff/exams/{id} [put]
// @Security BearerAuth
func (c *ExamAdminController) UpdateExam(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))
	if examID == 0 {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	var req service.ExamUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	exam, err := c.AdminService.UpdateExam(examID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, exam)
}

type ExamStatusRequest struct {
	Status model.ExamStatus `json:"status" binding:"required"`
}

// UpdateExamStatus godoc
// @Summary Move an exam through its lifecycle
// @Description Valid transitions: draft→active, active→grading, active→results_published, grading→results_published, results_published→archived
// @Tags exam-admin
// @Accept  json
// @Produce  json
// @Param   id path int true "exam id"
// @Param   body body ExamStatusRequest true "target status"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/staff/exams/{id}/status [put]
// @Security BearerAuth
func (c *ExamAdminController) UpdateExamStatus(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))
	if examID == 0 {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	var req ExamStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	exam, err := c.AdminService.UpdateExamStatus(examID, req.Status)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, exam)
}

// CreateSession godoc
// @Summary Schedule an exam session
// @Tags exam-admin
// @Accept  json
// @Produce  json
// @Param   body body service.SessionCreateRequest true "session details"
// @Success 201 {object} util.Response{data=model.ExamSession}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/staff/sessions [post]
// @Security BearerAuth
func (c *ExamAdminController) CreateSession(ctx *gin.Context) {
	var req service.SessionCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.AdminService.CreateSession(req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, session)
}

// ListSessions godoc
// @Summary List sessions of an exam
// @Tags exam-admin
// @Produce  json
// @Param   id path int true "exam id"
// @Success 200 {object} util.Response{data=[]model.ExamSession}
// @Failure 404 {object} util.Response
// @Router /api/staff/exams/{id}/sessions [get]
// @Security BearerAuth
func (c *ExamAdminController) ListSessions(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))
	if examID == 0 {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	sessions, err := c.AdminService.ListSessions(examID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, sessions)
}

// CloseSession godoc
// @Summary Close a session to new attempts
// @Tags exam-admin
// @Produce  json
// @Param   id path int true "session id"
// @Success 200 {object} util.Response{data=model.ExamSession}
// @Failure 404 {object} util.Response
// @Router /api/staff/sessions/{id}/close [post]
// @Security BearerAuth
func (c *ExamAdminController) CloseSession(ctx *gin.Context) {
	sessionID := util.MustParseUint(ctx.Param("id"))
	if sessionID == 0 {
		util.BadRequest(ctx, "invalid session id")
		return
	}

	session, err := c.AdminService.CloseSession(sessionID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

type AssignStudentRequest struct {
	StudentID uint `json:"studentId" binding:"required"`
}

// AssignStudent godoc
// @Summary Assign a student to a session
// @Tags exam-admin
// @Accept  json
// @Produce  json
// @Param   id path int true "session id"
// @Param   body body AssignStudentRequest true "student to assign"
// @Success 201 {object} util.Response{data=model.SessionAssignment}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/staff/sessions/{id}/assignments [post]
// @Security BearerAuth
func (c *ExamAdminController) AssignStudent(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	sessionID := util.MustParseUint(ctx.Param("id"))
	if sessionID == 0 {
		util.BadRequest(ctx, "invalid session id")
		return
	}

	var req AssignStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	assignment, err := c.AdminService.AssignStudent(sessionID, req.StudentID, user.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, assignment)
}

// AddQuestion godoc
// @Summary Add a bank question to an exam
// @Tags exam-admin
// @Accept  json
// @Produce  json
// @Param   id path int true "exam id"
// @Param   body body service.QuestionRequest true "question details"
// @Success 201 {object} util.Response{data=model.BankQuestion}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/staff/exams/{id}/questions [post]
// @Security BearerAuth
func (c *ExamAdminController) AddQuestion(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))
	if examID == 0 {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.AdminService.AddQuestion(ctx.Request.Context(), examID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, question)
}

// UpdateQuestion godoc
// @Summary Update a bank question
// @Tags exam-admin
// @Accept  json
// @Produce  json
// @Param   id path int true "exam id"
// @Param   qid path int true "question id"
// @Param   body body service.QuestionRequest true "question details"
// @Success 200 {object} util.Response{data=model.BankQuestion}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/staff/exams/{id}/questions/{qid} [put]
// @Security BearerAuth
func (c *ExamAdminController) UpdateQuestion(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))
	questionID := util.MustParseUint(ctx.Param("qid"))
	if examID == 0 || questionID == 0 {
		util.BadRequest(ctx, "invalid exam or question id")
		return
	}

	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.AdminService.UpdateQuestion(ctx.Request.Context(), examID, questionID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, question)
}

// DeleteQuestion godoc
// @Summary Remove a bank question
// @Tags exam-admin
// @Produce  json
// @Param   id path int true "exam id"
// @Param   qid path int true "question id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/staff/exams/{id}/questions/{qid} [delete]
// @Security BearerAuth
func (c *ExamAdminController) DeleteQuestion(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))
	questionID := util.MustParseUint(ctx.Param("qid"))
	if examID == 0 || questionID == 0 {
		util.BadRequest(ctx, "invalid exam or question id")
		return
	}

	if err := c.AdminService.DeleteQuestion(ctx.Request.Context(), examID, questionID); err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}
