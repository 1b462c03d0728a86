package task

import (
	"net/http"
	"strconv"

	"taskboard/controller"
	"taskboard/dto"
	"taskboard/middleware"
	"taskboard/model"
	"taskboard/repository"
	"taskboard/services"

	"github.com/gin-gonic/gin"
)

// TaskController registers the /tasks routes. Every route requires an
// access token; finer role checks happen in the task service.
func TaskController(router *gin.RouterGroup, taskService *services.TaskService, jwtService *services.JWTService) {
	tasks := router.Group("/tasks", middleware.AccessTokenMiddleware(jwtService))

	tasks.GET("", func(c *gin.Context) { ListTasks(c, taskService) })
	tasks.POST("", func(c *gin.Context) { CreateTask(c, taskService) })
	tasks.GET("/my-tasks", func(c *gin.Context) { MyTasks(c, taskService) })
	tasks.GET("/created-by-me", func(c *gin.Context) { CreatedByMe(c, taskService) })
	tasks.GET("/status/:status", func(c *gin.Context) { TasksByStatus(c, taskService) })
	tasks.GET("/:id", func(c *gin.Context) { GetTask(c, taskService) })
	tasks.PUT("/:id", func(c *gin.Context) { UpdateTask(c, taskService) })
	tasks.DELETE("/:id", middleware.RequirePermission(model.PermTaskDeleteAll), func(c *gin.Context) {
		DeleteTask(c, taskService)
	})
	tasks.POST("/:id/assign", middleware.RequirePermission(model.PermTaskAssign), func(c *gin.Context) {
		AssignTask(c, taskService)
	})
	tasks.PUT("/:id/status", func(c *gin.Context) { UpdateTaskStatus(c, taskService) })
}

func ListTasks(c *gin.Context, taskService *services.TaskService) {
	var status model.Status
	if v := c.Query("status"); v != "" {
		parsed, err := model.ParseStatus(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}
		status = parsed
	}
	page, ok := intQuery(c, "page")
	if !ok {
		return
	}
	size, ok := intQuery(c, "size")
	if !ok {
		return
	}
	page, size = repository.NormalizePage(page, size)

	result, err := taskService.List(c.Request.Context(), middleware.Principal(c), status, c.Query("assignee"), page, size)
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	content := result.Tasks
	if content == nil {
		content = []model.Task{}
	}
	totalPages := int((result.Total + int64(size) - 1) / int64(size))
	c.JSON(http.StatusOK, dto.TaskListResponse{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: result.Total,
		TotalPages:    totalPages,
	})
}

func GetTask(c *gin.Context, taskService *services.TaskService) {
	task, err := taskService.Get(c.Request.Context(), middleware.Principal(c), c.Param("id"))
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func CreateTask(c *gin.Context, taskService *services.TaskService) {
	var taskReq dto.CreateTaskRequest
	if !controller.BindJSON(c, &taskReq) {
		return
	}

	task, err := taskService.Create(c.Request.Context(), middleware.Principal(c), taskReq)
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func UpdateTask(c *gin.Context, taskService *services.TaskService) {
	var taskReq dto.UpdateTaskRequest
	if !controller.BindJSON(c, &taskReq) {
		return
	}

	task, err := taskService.Update(c.Request.Context(), middleware.Principal(c), c.Param("id"), taskReq)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func DeleteTask(c *gin.Context, taskService *services.TaskService) {
	if err := taskService.Delete(c.Request.Context(), middleware.Principal(c), c.Param("id")); err != nil {
		controller.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func AssignTask(c *gin.Context, taskService *services.TaskService) {
	assigneeID := c.Query("assigneeId")
	if assigneeID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:  "Invalid input",
			Fields: map[string]string{"assigneeId": "assigneeId is required"},
		})
		return
	}
	task, err := taskService.Assign(c.Request.Context(), middleware.Principal(c), c.Param("id"), assigneeID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func UpdateTaskStatus(c *gin.Context, taskService *services.TaskService) {
	status, err := model.ParseStatus(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	task, err := taskService.UpdateStatus(c.Request.Context(), middleware.Principal(c), c.Param("id"), status)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func MyTasks(c *gin.Context, taskService *services.TaskService) {
	tasks, err := taskService.MyTasks(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func CreatedByMe(c *gin.Context, taskService *services.TaskService) {
	tasks, err := taskService.CreatedByMe(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func TasksByStatus(c *gin.Context, taskService *services.TaskService) {
	status, err := model.ParseStatus(c.Param("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	tasks, err := taskService.ByStatus(c.Request.Context(), middleware.Principal(c), status)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func intQuery(c *gin.Context, key string) (int, bool) {
	v := c.Query(key)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:  "Invalid input",
			Fields: map[string]string{key: key + " must be a number"},
		})
		return 0, false
	}
	return n, true
}
