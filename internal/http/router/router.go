package router

import (
	"github.com/gin-gonic/gin"

	"mnemos.app/archive/internal/http/handler"
	"mnemos.app/archive/internal/service"
)

func SetupRoutes(router *gin.Engine, services *service.Services) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		memoryHandler := handler.NewMemoryHandler(services.Retrieval())
		MemoryRouter(v1.Group("/memory"), memoryHandler)

		noteHandler := handler.NewNoteHandler(services.Notes())
		NoteRouter(v1.Group("/notes"), noteHandler)
	}
}
