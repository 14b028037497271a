package server

import "github.com/gin-gonic/gin"

// APIResponse is the envelope of every API response.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func respondSuccess(c *gin.Context, status int, data any, message string) {
	if message == "" {
		message = "ok"
	}
	c.JSON(status, APIResponse{Success: true, Data: data, Message: message, Code: status})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{Success: false, Data: gin.H{}, Message: message, Code: status})
}
