package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Controller struct {
	Handler *Handler
	Hub     *Hub
	router  *gin.Engine
}

func NewController(handler *Handler, hub *Hub) *Controller {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/fleet", handler.GetFleet)
	router.GET("/alerts", handler.GetAlerts)
	router.DELETE("/alerts", handler.ClearAlerts)
	router.GET("/distance", handler.GetDistance)
	router.GET("/track", handler.GetTrack)
	router.GET("/speed-limit", handler.GetSpeedLimit)
	router.PUT("/speed-limit", handler.SetSpeedLimit)
	router.GET("/ws", handler.HandleWebSocket(hub))

	router.GET("/healthz", func(c *gin.Context) {
		c.String(200, "ok")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Controller{Handler: handler, Hub: hub, router: router}
}

func (c *Controller) Run(port int32) error {
	return c.router.Run(fmt.Sprintf(":%d", port))
}
