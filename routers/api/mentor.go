package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"MagicMentor-server/logger"
	"MagicMentor-server/models"
	"MagicMentor-server/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// StepProcessor 处理一次迭代，由 service.MentorService 实现
type StepProcessor interface {
	ProcessStep(ctx context.Context, req service.StepRequest) (*service.StepResponse, error)
}

// SeriesReader 只读查询，由 models.SeriesRepo 实现
type SeriesReader interface {
	GetSeries(ctx context.Context, id string) (*models.CreativeSeries, error)
	GetUserActiveSeries(ctx context.Context, userID string) (*models.CreativeSeries, error)
	GetUserCreativeHistory(ctx context.Context, userID string) ([]models.CreativeSeries, error)
}

type MentorAPI struct {
	Mentor        StepProcessor
	Series        SeriesReader
	ImageMaxBytes int64
	PollInterval  time.Duration
	Log           *logger.Logger
}

func NewMentorAPI(mentor StepProcessor, series SeriesReader, imageMaxBytes int64, log *logger.Logger) *MentorAPI {
	return &MentorAPI{
		Mentor:        mentor,
		Series:        series,
		ImageMaxBytes: imageMaxBytes,
		PollInterval:  time.Second,
		Log:           log.With("component", "MentorAPI"),
	}
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "message": msg})
}

// 前端在没有 seriesId 时会把 undefined 原样拼进表单
func normalizeSeriesID(id string) string {
	id = strings.TrimSpace(id)
	if id == "undefined" || id == "null" {
		return ""
	}
	return id
}

// 提交一次迭代：POST /v1/api/mentor/step (multipart: userId, step, seriesId?, image)
func (a *MentorAPI) Step(c *gin.Context) {
	userID := strings.TrimSpace(c.PostForm("userId"))
	stepStr := strings.TrimSpace(c.PostForm("step"))
	if userID == "" || stepStr == "" {
		fail(c, http.StatusBadRequest, "Missing required fields: userId, step")
		return
	}
	step, err := strconv.Atoi(stepStr)
	if err != nil || step < 1 {
		fail(c, http.StatusBadRequest, "step must be a positive integer")
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		fail(c, http.StatusBadRequest, "Missing image file")
		return
	}
	if a.ImageMaxBytes > 0 && fh.Size > a.ImageMaxBytes {
		fail(c, http.StatusRequestEntityTooLarge, "image exceeds size limit")
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "读取图片失败: "+err.Error())
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		fail(c, http.StatusBadRequest, "读取图片失败: "+err.Error())
		return
	}
	mime := fh.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}

	resp, err := a.Mentor.ProcessStep(c.Request.Context(), service.StepRequest{
		UserID:   userID,
		Step:     step,
		SeriesID: normalizeSeriesID(c.PostForm("seriesId")),
		Image:    service.ImageInput{Bytes: data, MimeType: mime},
	})
	if err != nil {
		a.Log.Warn("process step failed", "userId", userID, "step", step, "error", err)
		fail(c, stepErrorStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, resp)
}

func stepErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidStep):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSeriesForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrStepOutOfOrder),
		errors.Is(err, service.ErrSeriesCompleted),
		errors.Is(err, service.ErrSeriesConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// 查询进行中的系列：GET /v1/api/mentor/active/:user_id，没有时 series 为 null
func (a *MentorAPI) Active(c *gin.Context) {
	series, err := a.Series.GetUserActiveSeries(c.Request.Context(), c.Param("user_id"))
	if errors.Is(err, models.ErrSeriesNotFound) {
		c.JSON(http.StatusOK, gin.H{"success": true, "series": nil})
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "series": series})
}

// 创作历史：GET /v1/api/mentor/history/:user_id
func (a *MentorAPI) History(c *gin.Context) {
	history, err := a.Series.GetUserCreativeHistory(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if history == nil {
		history = []models.CreativeSeries{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "history": history})
}

// 单个系列详情：GET /v1/api/mentor/series/:series_id
func (a *MentorAPI) GetSeries(c *gin.Context) {
	series, err := a.Series.GetSeries(c.Request.Context(), c.Param("series_id"))
	if errors.Is(err, models.ErrSeriesNotFound) {
		fail(c, http.StatusNotFound, "series not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "series": series})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 系列进度 WebSocket 推送：先推一次当前状态，之后轮询 DB，currentStep/status 变化时推送，完成后关闭
func (a *MentorAPI) SeriesProgressWebSocket(c *gin.Context) {
	seriesID := c.Param("series_id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.Log.Warn("websocket upgrade failed", "seriesId", seriesID, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	// 客户端断开时结束轮询
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s, err := a.Series.GetSeries(ctx, seriesID)
	if err != nil {
		_ = conn.WriteJSON(gin.H{"error": "series not found: " + err.Error()})
		return
	}
	if err := conn.WriteJSON(s); err != nil || s.IsCompleted() {
		return
	}

	interval := a.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prevStep, prevStatus := s.CurrentStep, s.Status
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cur, err := a.Series.GetSeries(ctx, seriesID)
		if err != nil {
			continue
		}
		if cur.CurrentStep == prevStep && cur.Status == prevStatus {
			continue
		}
		if err := conn.WriteJSON(cur); err != nil {
			return
		}
		prevStep, prevStatus = cur.CurrentStep, cur.Status
		if cur.IsCompleted() {
			return
		}
	}
}
