package middleware

import (
	"github.com/eventhub/eventhub/internal/services"
	"github.com/gin-gonic/gin"
)

const servicesKey = "services"

func ServicesMiddleware(container *services.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(servicesKey, container)
		c.Next()
	}
}

func GetServices(c *gin.Context) *services.Container {
	container, exists := c.Get(servicesKey)
	if !exists {
		return nil
	}
	return container.(*services.Container)
}
