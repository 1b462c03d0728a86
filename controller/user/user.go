package user

import (
	"net/http"

	"taskboard/controller"
	"taskboard/middleware"
	"taskboard/model"
	"taskboard/services"

	"github.com/gin-gonic/gin"
)

func UserController(router *gin.RouterGroup, directory *services.UserDirectory, jwtService *services.JWTService) {
	routes := router.Group("/users", middleware.AccessTokenMiddleware(jwtService))
	{
		routes.GET("", middleware.RequirePermission(model.PermUserReadAll), func(c *gin.Context) {
			ListUsers(c, directory)
		})
		routes.GET("/me", func(c *gin.Context) {
			CurrentUser(c, directory)
		})
	}
}

func ListUsers(c *gin.Context, directory *services.UserDirectory) {
	users, err := directory.List(c.Request.Context())
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	c.JSON(http.StatusOK, users)
}

func CurrentUser(c *gin.Context, directory *services.UserDirectory) {
	userID := c.GetString(middleware.KeyUserID)
	user, err := directory.Get(c.Request.Context(), userID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
