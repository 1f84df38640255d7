package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// NewRouter builds the HTTP surface around h.
func NewRouter(h *Handler, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(h.logger), Recovery(h.logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  corsOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Type", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	h.Routes(r)
	return r
}

// Routes registers all endpoints on r.
func (h *Handler) Routes(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/index.html") })
	r.GET("/swagger-doc.json", swaggerDocHandler)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))
	r.GET("/health", h.HealthHandler)

	r.GET("/tasks", h.TasksHandler)
	r.GET("/tasks/status", h.TaskStatusHandler)
	r.POST("/task", h.AddTaskHandler)
	r.PUT("/task", h.MoveTaskHandler)
	r.DELETE("/task", h.DeleteTaskHandler)

	r.POST("/user", h.RegisterUserHandler)
	r.POST("/user/login", h.LoginHandler)
}

// swaggerDocHandler serves the registered OpenAPI document. The docs package
// must be linked into the binary for it to exist.
func swaggerDocHandler(c *gin.Context) {
	doc, err := swag.ReadDoc(swag.Name)
	if err != nil {
		writeError(c, http.StatusNotFound, "API documentation is not available.")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}
