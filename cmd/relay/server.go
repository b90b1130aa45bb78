package main

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/Dsabo2007/UNO/internal/database"
	"github.com/Dsabo2007/UNO/internal/relay"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// History lists past games for GET /history.
type History interface {
	Recent(ctx context.Context, limit int) ([]database.GameRecord, error)
}

// CreateServer builds the router. history may be nil, in which case
// /history is not mounted.
func CreateServer(hub *relay.Hub, allowedOrigins []string, history History) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })

	// Browsers always send Origin; other clients are let through and the
	// websocket handshake does its own origin check.
	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
		MaxAge: 12 * time.Hour,
	}))

	r.GET("/ws", func(ctx *gin.Context) { hub.ServeWS(ctx.Writer, ctx.Request) })
	r.GET("/rooms", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, relay.RoomsData{Rooms: hub.Rooms()})
	})

	if history != nil {
		r.GET("/history", func(ctx *gin.Context) {
			limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
			if err != nil || limit <= 0 {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = min(limit, maxHistoryLimit)
			games, err := history.Recent(ctx.Request.Context(), limit)
			if err != nil {
				logrus.WithError(err).Error("Loading game history failed.")
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"games": games})
		})
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		logrus.WithFields(logrus.Fields{
			"method":  ctx.Request.Method,
			"path":    ctx.Request.URL.Path,
			"status":  ctx.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Debug("HTTP request.")
	}
}
