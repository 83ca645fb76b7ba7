package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwy87/kaoyan/internal/generation"
)

// GenerateHandlers proxies blessing generation.
type GenerateHandlers struct {
	gen *generation.Proxy
	log *zerolog.Logger
}

// NewGenerateHandlers creates generation handlers.
func NewGenerateHandlers(gen *generation.Proxy, logger *zerolog.Logger) *GenerateHandlers {
	return &GenerateHandlers{
		gen: gen,
		log: logger,
	}
}

// GenerateRequest represents the generation request body. Fields of
// userInfo that are not strings are ignored.
type GenerateRequest struct {
	UserInfo any `json:"userInfo"`
}

// Generate returns a personalised blessing, or a fallback one.
// POST /api/generateBlessing
func (h *GenerateHandlers) Generate(c *gin.Context) {
	if !h.gen.Enabled() {
		c.JSON(http.StatusOK, h.gen.Generate(c.Request.Context(), "", ""))
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	var req GenerateRequest
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			h.log.Debug().Err(err).Msg("invalid generate request")
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
			return
		}
	}

	name, school := userInfoFields(req.UserInfo)
	c.JSON(http.StatusOK, h.gen.Generate(c.Request.Context(), name, school))
}

func userInfoFields(info any) (name, school string) {
	fields, ok := info.(map[string]any)
	if !ok {
		return "", ""
	}
	name, _ = fields["name"].(string)
	school, _ = fields["school"].(string)
	return name, school
}
