package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chaos-io/cutout/config"
	"github.com/chaos-io/cutout/filter"
	"github.com/chaos-io/cutout/models"
	"github.com/chaos-io/cutout/rembg"
	"github.com/chaos-io/cutout/util"
)

// Messages returned to the client. Provider and transform errors are logged,
// never sent.
const (
	MsgNoImageData      = "No image data provided"
	MsgInvalidBody      = "Invalid request body"
	MsgTooLarge         = "Image too large"
	MsgProcessFailed    = "Failed to process image. Please try again."
	MsgMethodNotAllowed = "Method not allowed"
	MsgNotFound         = "Not found"
)

type RemovalHandler struct {
	cfg         *config.Config
	remover     rembg.Remover
	transformer filter.Transformer
	logger      *slog.Logger
}

type Option func(*RemovalHandler)

// WithRemover replaces the remove.bg client. It is only used when an API
// key is configured.
func WithRemover(r rembg.Remover) Option {
	return func(h *RemovalHandler) {
		h.remover = r
	}
}

func WithTransformer(t filter.Transformer) Option {
	return func(h *RemovalHandler) {
		h.transformer = t
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *RemovalHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewRemovalHandler(cfg *config.Config, opts ...Option) *RemovalHandler {
	h := &RemovalHandler{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.transformer == nil {
		h.transformer = filter.NewModulate(cfg.FallbackMaxSize, cfg.FallbackMaxPixels)
	}
	if h.remover == nil && cfg.HasAPIKey() {
		h.remover = rembg.NewRemoveBG(cfg.APIKey,
			rembg.WithBaseURL(cfg.APIURL),
			rembg.WithTimeout(cfg.ProviderTimeout),
		)
	}
	return h
}

func (h *RemovalHandler) Handle(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodOptions:
		c.Status(http.StatusOK)
		return
	case http.MethodPost:
	default:
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: MsgMethodNotAllowed})
		return
	}

	logger := h.logger.With("request_id", RequestIDFrom(c))

	var req models.RemovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			logger.Warn("request body too large", "limit", maxErr.Limit)
			c.JSON(http.StatusRequestEntityTooLarge, models.Failed(MsgTooLarge))
		case errors.Is(err, io.EOF):
			c.JSON(http.StatusBadRequest, models.Failed(MsgNoImageData))
		default:
			logger.Warn("invalid request body", "error", err)
			c.JSON(http.StatusBadRequest, models.Failed(MsgInvalidBody))
		}
		return
	}

	imageData := util.StripDataURIPrefix(strings.TrimSpace(req.ImageData))
	if imageData == "" {
		c.JSON(http.StatusBadRequest, models.Failed(MsgNoImageData))
		return
	}

	ctx := c.Request.Context()
	if !h.cfg.HasAPIKey() {
		c.JSON(http.StatusOK, h.fallback(ctx, logger, imageData))
		return
	}

	result, err := h.remove(ctx, imageData)
	if err != nil {
		logger.Error("background removal failed", "error", err)
		c.JSON(http.StatusInternalServerError, models.Failed(MsgProcessFailed))
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RemovalHandler) remove(ctx context.Context, imageData string) (models.RemovalResult, error) {
	data, err := util.DecodeBase64(imageData)
	if err != nil {
		return models.RemovalResult{}, err
	}
	out, err := h.remover.Remove(ctx, data)
	if err != nil {
		return models.RemovalResult{}, err
	}
	return models.Processed(util.PNGDataURI(out)), nil
}

// fallback runs the local transform. It always succeeds: input the
// transform cannot handle is echoed back and flagged as degraded.
func (h *RemovalHandler) fallback(ctx context.Context, logger *slog.Logger, imageData string) models.RemovalResult {
	logger.Info("no API key configured, using local transform")

	out, err := h.transformLocal(ctx, imageData)
	if err != nil {
		logger.Warn("local transform failed, echoing original image", "error", err)
		wait(ctx, h.cfg.EchoDelay)
		return models.RemovalResult{
			Success:           true,
			ProcessedImageURL: util.DataURI(util.PNGMimeType, imageData),
			Degraded:          true,
		}
	}

	wait(ctx, h.cfg.FallbackDelay)
	return models.Processed(util.PNGDataURI(out))
}

func (h *RemovalHandler) transformLocal(ctx context.Context, imageData string) (out []byte, err error) {
	// decoders may panic on hostile input; the fallback must still answer
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("local transform panic: %v", r)
		}
	}()

	data, err := util.DecodeBase64(imageData)
	if err != nil {
		return nil, err
	}
	return h.transformer.Transform(ctx, data)
}

// wait pauses for d, returning early if ctx is done.
func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
