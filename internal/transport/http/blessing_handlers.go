package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwy87/kaoyan/internal/blessing"
)

// BlessingHandlers serves the community blessing wall.
type BlessingHandlers struct {
	svc *blessing.Service
	log *zerolog.Logger
}

// NewBlessingHandlers creates blessing handlers.
func NewBlessingHandlers(svc *blessing.Service, logger *zerolog.Logger) *BlessingHandlers {
	return &BlessingHandlers{
		svc: svc,
		log: logger,
	}
}

// CreateBlessingRequest represents the blessing submission body.
type CreateBlessingRequest struct {
	Content *string `json:"content"`
}

// MessageResponse is a plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// List returns the newest distinct blessings.
// GET /api/blessings
func (h *BlessingHandlers) List(c *gin.Context) {
	contents, err := h.svc.ListRecent(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list blessings")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, contents)
}

// Create stores a new blessing.
// POST /api/blessings
func (h *BlessingHandlers) Create(c *gin.Context) {
	var req CreateBlessingRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == nil {
		h.log.Debug().Err(err).Msg("invalid blessing request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid content"})
		return
	}

	saved, err := h.svc.Add(c.Request.Context(), *req.Content)
	if err != nil {
		if errors.Is(err, blessing.ErrInvalidContent) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid content"})
			return
		}
		h.log.Error().Err(err).Msg("failed to save blessing")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}

	if !saved {
		h.log.Debug().Msg("no database configured, blessing not persisted")
	}
	c.JSON(http.StatusCreated, MessageResponse{Message: "Blessing saved"})
}
