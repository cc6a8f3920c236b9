package common

import "github.com/gin-gonic/gin"

// Uniform response envelope. code=0 means success; non-zero codes are
// business codes (1xxxx client errors, 2xxxx internal, 40xxx not found).
func OK(c *gin.Context, data any) {
	c.JSON(200, gin.H{
		"code":    0,
		"message": "ok",
		"data":    data,
	})
}

func Fail(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
		"data":    nil,
	})
}
