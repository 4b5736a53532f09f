package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform response wrapper every endpoint returns.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Title      string      `json:"title"`
	Data       interface{} `json:"data"`
	Errors     interface{} `json:"errors"`
	Message    string      `json:"message"`
}

func Respond(ctx *gin.Context, status int, title string, data interface{}, message string) {
	if data == nil {
		data = gin.H{}
	}

	ctx.JSON(status, Envelope{
		StatusCode: status,
		Title:      title,
		Data:       data,
		Errors:     nil,
		Message:    message,
	})
}

func RespondError(ctx *gin.Context, status int, title string, errs interface{}, message string) {
	if errs == nil {
		errs = gin.H{}
	}

	ctx.JSON(status, Envelope{
		StatusCode: status,
		Title:      title,
		Data:       gin.H{},
		Errors:     errs,
		Message:    message,
	})
}

func RespondOK(ctx *gin.Context, data interface{}, message string) {
	Respond(ctx, http.StatusOK, "Success", data, message)
}

func RespondCreated(ctx *gin.Context, data interface{}, message string) {
	Respond(ctx, http.StatusCreated, "Created", data, message)
}

func RespondBadRequest(ctx *gin.Context, errs interface{}, message string) {
	RespondError(ctx, http.StatusBadRequest, "Bad Request", errs, message)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, "Unauthorized", gin.H{"error": "Invalid credentials"}, message)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "Not Found", gin.H{"error": message}, message)
}

// RespondInternal never echoes the underlying error; raw detail stays
// in the server logs.
func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "Internal Server Error", gin.H{"error": "internal error"}, message)
}
