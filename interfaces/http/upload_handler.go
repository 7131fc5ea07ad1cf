package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"youtube-uploader/domain/dto"
	"youtube-uploader/domain/model"
	"youtube-uploader/infrastructure/logger"
	"youtube-uploader/usecase"
)

const healthText = "YouTube Uploader is live!"

// IUploadHandler defines the HTTP surface of the uploader
type IUploadHandler interface {
	UploadToYouTube(ctx *gin.Context)
	StatusCheck(ctx *gin.Context)
	UploadEvents(ctx *gin.Context)
	Health(ctx *gin.Context)
}

// ProgressStreamer streams live progress events of one job to a client.
type ProgressStreamer interface {
	Subscribe(jobID string) (<-chan model.ProgressEvent, func())
	Stream(c *gin.Context, events <-chan model.ProgressEvent)
}

type UploadHandler struct {
	uploadUsecase usecase.IUploadUsecase
	progress      ProgressStreamer
}

// NewUploadHandler creates the upload handler. progress may be nil, in which
// case /upload-events only reports finished jobs.
func NewUploadHandler(uploadUsecase usecase.IUploadUsecase, progress ProgressStreamer) IUploadHandler {
	return &UploadHandler{
		uploadUsecase: uploadUsecase,
		progress:      progress,
	}
}

// UploadToYouTube handles POST /upload-to-youtube
func (h *UploadHandler) UploadToYouTube(ctx *gin.Context) {
	var req dto.UploadVideoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, &model.ValidationError{Message: "request body must be a JSON object: " + err.Error()}, "")
		return
	}

	job, err := h.uploadUsecase.UploadVideo(ctx.Request.Context(), &req)
	if err != nil {
		jobID := ""
		if job != nil {
			jobID = job.ID
		}
		respondError(ctx, err, jobID)
		return
	}

	ctx.JSON(http.StatusOK, dto.UploadVideoResponse{
		Success:      true,
		JobID:        job.ID,
		VideoID:      job.VideoID,
		YouTubeURL:   job.YouTubeURL,
		Privacy:      job.Privacy,
		PublishAt:    job.PublishAt,
		ThumbnailSet: job.ThumbnailSet,
	})
}

// StatusCheck handles GET /status-check?job_id=
func (h *UploadHandler) StatusCheck(ctx *gin.Context) {
	job, err := h.uploadUsecase.GetJob(ctx.Request.Context(), ctx.Query("job_id"))
	if err != nil {
		respondError(ctx, err, ctx.Query("job_id"))
		return
	}
	ctx.JSON(http.StatusOK, job)
}

// UploadEvents handles GET /upload-events/:jobId
func (h *UploadHandler) UploadEvents(ctx *gin.Context) {
	jobID := ctx.Param("jobId")

	// Subscribe before reading the job so a finish in between is not lost.
	var events <-chan model.ProgressEvent
	if h.progress != nil {
		var cancel func()
		events, cancel = h.progress.Subscribe(jobID)
		defer cancel()
	}

	job, err := h.uploadUsecase.GetJob(ctx.Request.Context(), jobID)
	if err != nil {
		respondError(ctx, err, jobID)
		return
	}

	if job.State != model.JobStateProcessing || events == nil {
		ctx.Header("Cache-Control", "no-cache")
		ctx.SSEvent("upload_progress", model.ProgressEvent{
			Type:    "upload_progress",
			JobID:   job.ID,
			Stage:   model.StageDone,
			Percent: 100,
			State:   job.State,
			VideoID: job.VideoID,
			Error:   job.Error,
		})
		return
	}
	h.progress.Stream(ctx, events)
}

// Health handles GET /
func (h *UploadHandler) Health(ctx *gin.Context) {
	ctx.String(http.StatusOK, healthText)
}

// respondError writes the JSON error body for err with the status of its kind.
func respondError(ctx *gin.Context, err error, jobID string) {
	res := dto.ErrorResponse{
		Success: false,
		Error:   string(model.KindOf(err)),
		Message: err.Error(),
		JobID:   jobID,
	}
	status := http.StatusInternalServerError

	var (
		ve *model.ValidationError
		fe *model.FetchError
		ue *model.UpstreamError
	)
	switch {
	case errors.Is(err, model.ErrJobNotFound):
		status = http.StatusNotFound
		res.Error = "not_found"
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		res.Field = ve.Field
	case errors.As(err, &fe):
		status = http.StatusBadGateway
		if fe.ClientFault() {
			status = http.StatusUnprocessableEntity
		}
	case errors.As(err, &ue):
		status = http.StatusBadGateway
		res.UpstreamStatus = ue.Status
	}

	log := logger.FromContext(ctx.Request.Context()).WithField("status", status).WithField("error", err)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed")
	} else {
		log.Warn("Request rejected")
	}
	ctx.JSON(status, res)
}
