package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"clubevents/cmd/middleware"
	"clubevents/internal/metrics"
	"clubevents/internal/service"
)

type Routers struct {
	Events        *service.EventService
	Registrations *service.RegistrationService
	Users         *service.UserService
	Settings      *service.SettingsService
	Books         *service.BookService
	AdminToken    string
	Log           *zerolog.Logger
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())

	app.GET("/metrics", gin.WrapH(metrics.Handler()))

	apiGroup := app.Group("/api")

	apiGroup.GET("/events", r.ListEvents)
	apiGroup.GET("/events/:id", r.GetEvent)
	apiGroup.GET("/events/:id/tickets", r.ListTickets)
	apiGroup.GET("/books", r.ListBooks)
	apiGroup.POST("/register-event", r.RegisterForEvent)
	apiGroup.POST("/register", r.SignUp)
	apiGroup.POST("/login", r.Login)

	admin := apiGroup.Group("/admin", middleware.AdminOnly(r.AdminToken))

	admin.GET("/stats", r.Stats)

	admin.GET("/events", r.ListAdminEvents)
	admin.POST("/events", r.CreateEvent)
	admin.PUT("/events/:id", r.UpdateEvent)
	admin.DELETE("/events/:id", r.DeleteEvent)
	admin.PATCH("/events/:id/status", r.SetEventStatus)
	admin.PUT("/events/:id/tickets", r.ReplaceTickets)
	admin.GET("/events/:id/registrations", r.ListRegistrations)
	admin.GET("/registrations/:id", r.GetRegistration)
	admin.DELETE("/registrations/:id", r.DeleteRegistration)

	admin.GET("/users", r.ListUsers)
	admin.POST("/users", r.CreateUser)
	admin.PUT("/users/:id", r.UpdateUser)
	admin.DELETE("/users/:id", r.DeleteUser)

	admin.GET("/books", r.ListBooks)
	admin.POST("/books", r.CreateBook)
	admin.PUT("/books/:id", r.UpdateBook)
	admin.DELETE("/books/:id", r.DeleteBook)

	admin.GET("/settings", r.GetSettings)
	admin.POST("/settings", r.UpdateSettings)

	return app
}
