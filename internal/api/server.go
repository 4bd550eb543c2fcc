package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"task-planner/internal/repository"
	"task-planner/internal/service"
)

// Server is the planner HTTP API.
type Server struct {
	users  *repository.UserRepository
	tasks  *service.TaskService
	search *service.SearchService
	router *gin.Engine
	now    func() time.Time
}

// NewServer wires the routes.
func NewServer(users *repository.UserRepository, tasks *service.TaskService, search *service.SearchService) *Server {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	s := &Server{
		users:  users,
		tasks:  tasks,
		search: search,
		router: router,
		now:    time.Now,
	}

	api := router.Group("/api")
	{
		api.POST("/patterns/preview", s.handlePreviewPattern)

		user := api.Group("/users/:user")
		user.GET("/tasks", s.handleListTasks)
		user.POST("/tasks", s.handleCreateTask)
		user.GET("/tasks/:id", s.handleGetTask)
		user.POST("/tasks/:id/complete", s.handleCompleteTask)
		user.DELETE("/tasks/:id", s.handleDeleteTask)
		user.GET("/search", s.handleSearch)
		user.GET("/calendar.ics", s.handleCalendar)
	}

	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logInfo("api listening on %s", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}
