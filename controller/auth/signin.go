package auth

import (
	"log/slog"
	"net/http"

	"taskboard/controller"
	"taskboard/dto"
	"taskboard/middleware"
	"taskboard/services"

	"github.com/gin-gonic/gin"
)

func SignInController(router *gin.RouterGroup, authService *services.AuthService, jwtService *services.JWTService) {
	router.POST("/auth/login", func(c *gin.Context) {
		Signin(c, authService)
	})
	router.POST("/auth/refresh", middleware.RefreshTokenMiddleware(jwtService), func(c *gin.Context) {
		Refresh(c, authService)
	})
}

func Signin(c *gin.Context, authService *services.AuthService) {
	var request dto.LoginRequest
	if !controller.BindJSON(c, &request) {
		return
	}

	resp, err := authService.Login(c.Request.Context(), request)
	if err != nil {
		slog.Info("login failed", "username", request.Username, "error", err)
		controller.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func Refresh(c *gin.Context, authService *services.AuthService) {
	refreshToken := c.GetString(middleware.KeyRefreshToken)
	resp, err := authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
