package http

import (
	"github.com/gin-gonic/gin"

	appsvc "user-service/internal/app"
	"user-service/internal/bootstrap"
	"user-service/internal/transport/http/handler"
	"user-service/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(app.Log), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userHandler := handler.NewUserHandler(NewUserService(app), app.Log)
	userHandler.RegisterRoutes(router)

	return router
}

// NewUserService wires the optional cache and publisher only when they exist,
// so the service never sees a typed nil.
func NewUserService(app *bootstrap.App) *appsvc.UserService {
	opts := []appsvc.UserServiceOption{appsvc.WithLogger(app.Log)}
	if app.UserCache != nil {
		opts = append(opts, appsvc.WithUserCache(app.UserCache))
	}
	if app.EventPublisher != nil {
		opts = append(opts, appsvc.WithEventPublisher(app.EventPublisher))
	}
	return appsvc.NewUserService(app.Users, opts...)
}
