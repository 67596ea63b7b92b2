package dashboard

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/flightbag/internal/efb"
)

// eventRequest is the body of POST /api/flights/:id/events.
type eventRequest struct {
	Type string `json:"type" binding:"required"`
	Note string `json:"note"`
}

// rosterResponse is returned by the roster endpoints.
type rosterResponse struct {
	Flights  any    `json:"flights"`
	Selected string `json:"selected,omitempty"`
	Source   string `json:"source,omitempty"`
}

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, svc *efb.Service, hub *hub) {
	api := router.Group("/api")

	api.GET("/roster", handleRoster(svc))
	api.POST("/roster/refresh", handleRosterRefresh(svc))

	api.GET("/flights/:id", handleFlight(svc))
	api.POST("/flights/:id/events", handleRecordEvent(svc))
	api.POST("/flights/:id/select", handleSelect(svc))

	api.GET("/sim", handleSimStatus(svc))
	api.POST("/sim/:id/start", handleSimStart(svc))
	api.POST("/sim/stop", handleSimStop(svc))

	api.GET("/stream", hub.handleStream)
}

func handleRoster(svc *efb.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, rosterResponse{
			Flights:  svc.GetRoster(),
			Selected: svc.Session().SelectedFlight(),
		})
	}
}

func handleRosterRefresh(svc *efb.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		flights, res := svc.RefreshRoster(c.Request.Context())
		source := "proxy"
		if !res.OK {
			source = "sample"
		}
		c.JSON(http.StatusOK, rosterResponse{
			Flights:  flights,
			Selected: svc.Session().SelectedFlight(),
			Source:   source,
		})
	}
}

func handleFlight(svc *efb.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.Flight(c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func handleRecordEvent(svc *efb.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req eventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "body must be JSON with a type"})
			return
		}
		ev, err := svc.RecordEvent(c.Request.Context(), c.Param("id"), req.Type, req.Note)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ev)
	}
}

func handleSelect(svc *efb.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := svc.SelectFlight(c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}

func handleSimStatus(svc *efb.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.SimulationStatus())
	}
}

func handleSimStart(svc *efb.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.StartSimulation(c.Param("id")); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, svc.SimulationStatus())
	}
}

func handleSimStop(svc *efb.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"stopped": svc.StopSimulation()})
	}
}

// abortWithError maps service errors onto HTTP statuses.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, efb.ErrUnknownFlight):
		status = http.StatusNotFound
	case errors.Is(err, efb.ErrNoFlightSelected), errors.Is(err, efb.ErrNoEventType):
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
