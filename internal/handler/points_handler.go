package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/teacherlink/teacherlink-api/internal/models"
	"github.com/teacherlink/teacherlink-api/internal/service"
	appErrors "github.com/teacherlink/teacherlink-api/pkg/errors"
	"github.com/teacherlink/teacherlink-api/pkg/response"
)

// PointsHandler exposes the behavior-points ledger endpoints.
type PointsHandler struct {
	service *service.PointsService
	feed    *service.FeedService
}

// NewPointsHandler constructs a points handler. The feed is optional; when
// nil the stream endpoint reports the feature as disabled.
func NewPointsHandler(svc *service.PointsService, feed *service.FeedService) *PointsHandler {
	return &PointsHandler{service: svc, feed: feed}
}

// Award godoc
// @Summary Award points to students
// @Description Create one point record per student for a catalog behavior. Partial failures are reported per student.
// @Tags Points
// @Accept json
// @Produce json
// @Param payload body service.AwardRequest true "Award payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /points/awards [post]
func (h *PointsHandler) Award(c *gin.Context) {
	var req service.AwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid award payload"))
		return
	}

	actor := service.Actor{}
	if claims := claimsFromContext(c); claims != nil {
		actor.ID = claims.UserID
		actor.Name = claims.FullName
	}

	result, err := h.service.Award(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusCreated
	if len(result.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	response.JSON(c, status, result, nil)
}

// Reset godoc
// @Summary Reset a student's points
// @Description Delete every point record for the student within the classroom
// @Tags Points
// @Produce json
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students/{studentId}/points [delete]
func (h *PointsHandler) Reset(c *gin.Context) {
	actor := service.Actor{}
	if claims := claimsFromContext(c); claims != nil {
		actor.ID = claims.UserID
		actor.Name = claims.FullName
	}

	summary, err := h.service.Reset(c.Request.Context(), c.Param("studentId"), c.Param("classId"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// StudentSummary godoc
// @Summary Student points summary
// @Tags Points
// @Produce json
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students/{studentId}/points/summary [get]
func (h *PointsHandler) StudentSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), c.Param("studentId"), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ClassSummary godoc
// @Summary Class points summary
// @Description One summary per rostered student, zero summaries included
// @Tags Points
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/points/summary [get]
func (h *PointsHandler) ClassSummary(c *gin.Context) {
	summaries, err := h.service.ClassSummary(c.Request.Context(), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}

// History godoc
// @Summary List point records
// @Tags Points
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param class_id query string false "Filter by class"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /points/records [get]
func (h *PointsHandler) History(c *gin.Context) {
	var filter models.PointRecordFilter
	filter.StudentID = c.Query("student_id")
	filter.ClassID = c.Query("class_id")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	records, pagination, err := h.service.History(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Stream godoc
// @Summary Stream classroom point events
// @Description Server-sent events feed of ledger changes for one classroom
// @Tags Points
// @Produce text/event-stream
// @Param classId path string true "Class ID"
// @Success 200 {string} string "event stream"
// @Router /classes/{classId}/points/stream [get]
func (h *PointsHandler) Stream(c *gin.Context) {
	if h.feed == nil || !h.feed.Enabled() {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "points feed is disabled"))
		return
	}

	events, cancel, err := h.feed.Subscribe(c.Request.Context(), c.Param("classId"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open points feed"))
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(event.Type), event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
