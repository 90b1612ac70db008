package seatmap

import (
	"errors"
	"net/http"

	"cinebook/internal/catalog"
	"cinebook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// GetSeatMap handles GET /shows/:id/seatmap, the storefront's poll
// target while a seat selector is open.
func (ctrl *Controller) GetSeatMap(c *gin.Context) {
	seatMap, err := ctrl.service.GetSeatMap(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrShowNotFound) {
			response.RespondJSON(c, "error", http.StatusNotFound, "Show not found", nil, nil)
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to build seat map", nil, err.Error())
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Seat map fetched successfully", seatMap, nil)
}

// SetupRoutes registers the seat map route on the public group.
func SetupRoutes(rg *gin.RouterGroup, ctrl *Controller) {
	rg.GET("/shows/:id/seatmap", ctrl.GetSeatMap)
}
