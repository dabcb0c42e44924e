package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nvr-ai/hardhat/inference"
	"github.com/nvr-ai/hardhat/service"
)

// Response bodies.
const (
	StatusRunning     = "Hard Hat Detection API is running."
	MsgModelNotLoaded = "Model is not loaded."
	MsgNoFile         = "No file uploaded."
	MsgTooLarge       = "File is too large."
)

// PredictResponse is the body of a successful /predict call.
type PredictResponse struct {
	AnnotatedImage string                `json:"annotated_image"`
	Detections     []inference.Detection `json:"detections"`
	Counts         map[string]int        `json:"counts"`
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": StatusRunning})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"model_loaded": s.predictor.ModelLoaded(),
	})
}

func (s *Server) metrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.predictor.Profiler().Snapshot())
}

func (s *Server) predict(c *gin.Context) {
	if !s.predictor.ModelLoaded() {
		errorJSON(c, http.StatusServiceUnavailable, MsgModelNotLoaded)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorJSON(c, http.StatusRequestEntityTooLarge, MsgTooLarge)
			return
		}
		errorJSON(c, http.StatusBadRequest, MsgNoFile)
		return
	}

	f, err := header.Open()
	if err != nil {
		_ = c.Error(err)
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		_ = c.Error(err)
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	pred, err := s.predictor.Predict(c.Request.Context(), data)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrModelNotLoaded):
		errorJSON(c, http.StatusServiceUnavailable, MsgModelNotLoaded)
		return
	case errors.Is(err, service.ErrInvalidImage):
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	default:
		_ = c.Error(err)
		s.logger.Error("prediction failed", zap.String("file", header.Filename), zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, PredictResponse{
		AnnotatedImage: pred.AnnotatedImage,
		Detections:     pred.Detections,
		Counts:         pred.Counts,
	})
}
