package router

import (
	"github.com/gin-gonic/gin"

	"mnemos.app/archive/internal/http/handler"
)

func NoteRouter(router *gin.RouterGroup, handler *handler.NoteHandler) {
	router.POST("", handler.Create)
	router.GET("", handler.List)
}
