package auth

import (
	"net/http"

	"taskboard/controller"
	"taskboard/dto"
	"taskboard/services"

	"github.com/gin-gonic/gin"
)

func SignUpController(router *gin.RouterGroup, authService *services.AuthService) {
	router.POST("/auth/register", func(c *gin.Context) {
		Signup(c, authService)
	})
}

func Signup(c *gin.Context, authService *services.AuthService) {
	var request dto.RegisterRequest
	if !controller.BindJSON(c, &request) {
		return
	}

	resp, err := authService.Register(c.Request.Context(), request)
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
