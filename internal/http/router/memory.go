package router

import (
	"github.com/gin-gonic/gin"

	"mnemos.app/archive/internal/http/handler"
)

func MemoryRouter(router *gin.RouterGroup, handler *handler.MemoryHandler) {
	router.GET("/continuation/latest", handler.LatestContinuation)
	router.GET("/messages/before", handler.MessagesBefore)
	router.GET("/messages/since/:id", handler.MessagesSince)
	router.GET("/messages/search", handler.Search)
	router.GET("/messages/recent", handler.Recent)
	router.GET("/eras", handler.ListEras)
	router.GET("/eras/:selector/summary", handler.EraSummary)
	router.GET("/heaps/:id", handler.HeapDetail)
}
