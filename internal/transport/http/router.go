package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/nurbakyt/phone_app/internal/handlers"
	mwauth "github.com/nurbakyt/phone_app/internal/middleware/auth"
)

type Deps struct {
	AuthHandler   *handlers.AuthHandler
	PhoneHandler  *handlers.PhoneHandler
	UserHandler   *handlers.UserHandler
	SearchHandler *handlers.SearchHandler
	Guard         *mwauth.Guard
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.POST("/refresh", d.AuthHandler.Refresh)

	phone := e.Group("/phone")
	phone.GET("", d.PhoneHandler.GetPhones)
	phone.GET("/:id", d.PhoneHandler.GetPhone)
	phone.POST("/predict", d.PhoneHandler.PredictPrice)
	if d.SearchHandler != nil {
		phone.GET("/search", d.SearchHandler.Search)
	}

	phoneAuthed := phone.Group("", d.Guard.RequireLogin)
	phoneAuthed.POST("", d.PhoneHandler.CreatePhone)
	phoneAuthed.PUT("/:id", d.PhoneHandler.UpdatePhone)
	phoneAuthed.DELETE("/:id", d.PhoneHandler.DeletePhone)

	user := e.Group("/user", d.Guard.RequireLogin)
	user.GET("", d.UserHandler.ListUsers)
	user.GET("/:id", d.UserHandler.GetUser)
	user.PUT("/:id", d.UserHandler.UpdateUser)
	user.DELETE("/:id", d.UserHandler.DeleteUser)
}
