package routers

import (
	"MagicMentor-server/routers/api"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func InitRouter(mentor *api.MentorAPI) *gin.Engine {
	r := gin.Default()
	v1 := r.Group("/v1/api/mentor")
	{
		v1.POST("/step", mentor.Step)
		v1.GET("/active/:user_id", mentor.Active)
		v1.GET("/history/:user_id", mentor.History)
		v1.GET("/series/:series_id", mentor.GetSeries)
		v1.GET("/series/:series_id/wss", mentor.SeriesProgressWebSocket)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
