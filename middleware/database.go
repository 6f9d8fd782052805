package middleware

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const dbKey = "db"

// DatabaseMiddleware makes the shared connection pool available to handlers.
func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			c.Set(dbKey, db)
		}
		c.Next()
	}
}

// GetDB returns the pool set by DatabaseMiddleware, or nil when none is available.
func GetDB(c *gin.Context) *gorm.DB {
	v, ok := c.Get(dbKey)
	if !ok {
		return nil
	}
	db, _ := v.(*gorm.DB)
	return db
}
