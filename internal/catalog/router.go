package catalog

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes registers public browse routes and admin write routes.
// The admin group is expected to carry auth middleware from the caller.
func SetupRoutes(public *gin.RouterGroup, admin *gin.RouterGroup, ctrl *Controller) {
	movies := public.Group("/movies")
	{
		movies.GET("", ctrl.ListMovies)
		movies.GET("/:id", ctrl.GetMovie)
		movies.GET("/:id/shows", ctrl.ListShowsByMovie)
	}

	public.GET("/theatres", ctrl.ListTheatres)
	public.GET("/shows/:id", ctrl.GetShow)

	admin.POST("/movies", ctrl.CreateMovie)
	admin.POST("/theatres", ctrl.CreateTheatre)
	admin.POST("/halls", ctrl.CreateHall)
	admin.POST("/shows", ctrl.CreateShow)
}
