package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qrattend/internal/apperr"
	"qrattend/internal/attendance"
	"qrattend/internal/auth"
	"qrattend/internal/config"
	"qrattend/internal/httpmiddleware"
	"qrattend/internal/identity"
	"qrattend/internal/metrics"
	"qrattend/internal/queue"
	"qrattend/internal/session"
	"qrattend/internal/store"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.ApplyMigrations(); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "qrattend:marks")
	}

	users := identity.NewService(identity.NewRepository(db.Client))
	sessions := session.NewService(session.NewRepository(db.Client), redisClient, cfg.SessionTTL)
	marks := attendance.NewService(attendance.NewRepository(db.Client), sessions, cfg.QRWindow)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.CORS())
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.RequestID())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.GET("/api/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "API working"})
	})

	r.POST("/api/register", func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if err := users.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.Role); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "message": "registration successful"})
	})

	r.POST("/api/login", func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		user, err := users.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			fail(c, err)
			return
		}
		token, _, err := auth.Issue(user.ID, user.Username, user.Role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.TokenTTL)
		if err != nil {
			fail(c, err)
			return
		}
		metrics.LoginsTotal.Inc()
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "login successful",
			"token":   token,
			"user": gin.H{
				"id":       user.ID,
				"username": user.Username,
				"role":     user.Role,
			},
		})
	})

	// Every route past this point requires the bearer token issued at login;
	// handlers additionally bind the claim to the client-supplied identifier.
	authed := r.Group("/api", auth.RequireUser(cfg.JWTSigningKey, cfg.JWTIssuer))

	authed.POST("/generate-qr", func(c *gin.Context) {
		var req struct {
			FacultyID   int64  `json:"faculty_id"`
			SessionName string `json:"session_name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if !callerIs(c, req.FacultyID) {
			return
		}
		res, err := sessions.Create(c.Request.Context(), req.FacultyID, req.SessionName)
		if err != nil {
			fail(c, err)
			return
		}
		metrics.SessionsCreatedTotal.Inc()
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"session_id":   res.SessionID,
			"session_name": res.Name,
			"qr_image":     res.QRImage,
			"qr_data":      res.QRData,
			"expires_at":   res.ExpiresAt.Format(time.RFC3339),
		})
	})

	authed.POST("/my-sessions", func(c *gin.Context) {
		var req struct {
			FacultyID int64 `json:"faculty_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if !callerIs(c, req.FacultyID) {
			return
		}
		list, err := sessions.List(c.Request.Context(), req.FacultyID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "sessions": list})
	})

	authed.POST("/mark-attendance", func(c *gin.Context) {
		var req struct {
			QRData    string `json:"qr_data"`
			StudentID int64  `json:"student_id"`
			Photo     string `json:"photo"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if !callerIs(c, req.StudentID) {
			return
		}
		res, err := marks.Mark(c.Request.Context(), req.QRData, req.StudentID, req.Photo, c.ClientIP())
		if err != nil {
			fail(c, err)
			return
		}
		metrics.AttendanceMarkedTotal.Inc()

		body, _ := json.Marshal(gin.H{
			"record_id":  res.RecordID,
			"session_id": res.SessionID,
			"student_id": req.StudentID,
		})
		if err := q.Publish(c.Request.Context(), queue.Message{Type: "attendance.marked", Body: body}); err != nil {
			log.Printf("queue publish failed: %v", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"message":      "attendance marked for " + res.SessionName,
			"session_name": res.SessionName,
			"student_name": res.StudentName,
			"marked_at":    res.MarkedAt.Format(time.RFC3339),
		})
	})

	authed.GET("/attendance/:session_id", func(c *gin.Context) {
		sessionID, err := strconv.ParseInt(c.Param("session_id"), 10, 64)
		if err != nil {
			badRequest(c, err)
			return
		}
		records, err := marks.List(c.Request.Context(), sessionID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "records": records})
	})

	r.StaticFile("/", "web/index.html")
	r.StaticFile("/student", "web/student.html")
	r.StaticFile("/faculty", "web/faculty.html")
	r.Static("/static", "web/static")

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// badRequest reports a JSON binding or path-parameter failure.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, apperr.Response{Code: "VALIDATION_ERROR", Message: err.Error()})
}

// fail maps a service error to its transport shape, logging internals.
func fail(c *gin.Context, err error) {
	he := apperr.MapToHTTP(err)
	if he.StatusCode == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(he.StatusCode, he.ToResponse())
}

// callerIs verifies the bearer claim matches the client-supplied id, writing
// the failure response itself when it does not.
func callerIs(c *gin.Context, userID int64) bool {
	claims, ok := auth.FromContext(c)
	if !ok || claims.UserID != userID {
		c.JSON(http.StatusForbidden, apperr.Response{Code: "FORBIDDEN", Message: "token does not match supplied user id"})
		return false
	}
	return true
}
