package catalog

import (
	"errors"
	"net/http"

	"cinebook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (ctrl *Controller) ListMovies(c *gin.Context) {
	movies, err := ctrl.service.ListMovies(c.Request.Context())
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch movies", nil, err.Error())
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Movies fetched successfully", movies, nil)
}

func (ctrl *Controller) GetMovie(c *gin.Context) {
	movie, err := ctrl.service.GetMovie(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			response.RespondJSON(c, "error", http.StatusNotFound, "Movie not found", nil, nil)
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch movie", nil, err.Error())
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Movie fetched successfully", movie, nil)
}

func (ctrl *Controller) CreateMovie(c *gin.Context) {
	var movie Movie
	if err := c.ShouldBindJSON(&movie); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := ctrl.service.CreateMovie(c.Request.Context(), &movie); err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to create movie", nil, err.Error())
		return
	}
	response.RespondJSON(c, "success", http.StatusCreated, "Movie created successfully", movie, nil)
}

func (ctrl *Controller) ListTheatres(c *gin.Context) {
	theatres, err := ctrl.service.ListTheatres(c.Request.Context(), c.Query("city"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch theatres", nil, err.Error())
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Theatres fetched successfully", theatres, nil)
}

func (ctrl *Controller) CreateTheatre(c *gin.Context) {
	var theatre Theatre
	if err := c.ShouldBindJSON(&theatre); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := ctrl.service.CreateTheatre(c.Request.Context(), &theatre); err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to create theatre", nil, err.Error())
		return
	}
	response.RespondJSON(c, "success", http.StatusCreated, "Theatre created successfully", theatre, nil)
}

func (ctrl *Controller) CreateHall(c *gin.Context) {
	var req CreateHallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	hall, err := ctrl.service.CreateHall(c.Request.Context(), req)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to create hall", nil, err.Error())
		return
	}
	response.RespondJSON(c, "success", http.StatusCreated, "Hall created successfully", hall, nil)
}

func (ctrl *Controller) GetShow(c *gin.Context) {
	show, err := ctrl.service.GetShow(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrShowNotFound) {
			response.RespondJSON(c, "error", http.StatusNotFound, "Show not found", nil, nil)
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch show", nil, err.Error())
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Show fetched successfully", show, nil)
}

func (ctrl *Controller) ListShowsByMovie(c *gin.Context) {
	shows, err := ctrl.service.ListShowsByMovie(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			response.RespondJSON(c, "error", http.StatusNotFound, "Movie not found", nil, nil)
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch shows", nil, err.Error())
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Shows fetched successfully", shows, nil)
}

func (ctrl *Controller) CreateShow(c *gin.Context) {
	var req CreateShowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	show, err := ctrl.service.CreateShow(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrMovieNotFound) || errors.Is(err, ErrHallNotFound) {
			response.RespondJSON(c, "error", http.StatusNotFound, err.Error(), nil, nil)
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to create show", nil, err.Error())
		return
	}
	response.RespondJSON(c, "success", http.StatusCreated, "Show created successfully", show, nil)
}
