package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teacherlink/teacherlink-api/internal/models"
	appErrors "github.com/teacherlink/teacherlink-api/pkg/errors"
	"github.com/teacherlink/teacherlink-api/pkg/response"
)

// BehaviorHandler serves the behavior catalog.
type BehaviorHandler struct {
	catalog models.Catalog
}

// NewBehaviorHandler creates a new handler.
func NewBehaviorHandler(catalog models.Catalog) *BehaviorHandler {
	return &BehaviorHandler{catalog: catalog}
}

// List godoc
// @Summary List behavior catalog
// @Description List the behaviors available for awarding, optionally filtered by polarity
// @Tags Behaviors
// @Produce json
// @Param polarity query string false "positive or negative"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /behaviors [get]
func (h *BehaviorHandler) List(c *gin.Context) {
	switch c.Query("polarity") {
	case "":
		response.JSON(c, http.StatusOK, gin.H{
			"positive": h.catalog.ListPositive(),
			"negative": h.catalog.ListNegative(),
		}, nil)
	case "positive":
		response.JSON(c, http.StatusOK, gin.H{"positive": h.catalog.ListPositive()}, nil)
	case "negative":
		response.JSON(c, http.StatusOK, gin.H{"negative": h.catalog.ListNegative()}, nil)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "polarity must be positive or negative"))
	}
}
