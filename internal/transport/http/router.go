package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/auth"
)

// RouterConfig carries the transport settings of the service.
type RouterConfig struct {
	// PublicURL is the base of the player page encoded in join QR codes.
	PublicURL      string
	AllowedOrigins []string
}

// NewRouter wires the REST, QR and websocket surfaces onto one gin engine.
func NewRouter(service *app.QuizService, verifier *auth.Verifier, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Quiz-Persistence-Warning"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	wsHandler := NewWSHandler(service, verifier)
	router.GET("/ws", gin.WrapF(wsHandler.ServeWS))

	rooms := NewRoomHandler(service)
	qr := NewQRHandler(service, cfg.PublicURL)

	api := router.Group("/api", auth.Middleware(verifier))
	{
		api.POST("/rooms", auth.RequireUser(), rooms.OpenRoom)

		room := api.Group("/rooms/:code")
		room.GET("", rooms.GetRoom)
		room.GET("/qr.png", qr.ServeQR)
		room.POST("/participants", rooms.Join)
		room.DELETE("/participants/:participantId", rooms.Leave)
		room.POST("/answers", rooms.SubmitAnswer)

		host := room.Group("", auth.RequireUser())
		host.POST("/questions/:index", rooms.BroadcastQuestion)
		host.POST("/reveal", rooms.Reveal)
		host.POST("/leaderboard", rooms.ShowLeaderboard)
		host.POST("/end", rooms.EndSession)
		host.GET("/leaderboard", rooms.Leaderboard)
	}
	return router
}
