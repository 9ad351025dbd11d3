// Package handlers provides HTTP request handlers for the API.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
)

// BaseHandler provides shared helpers for all handlers.
type BaseHandler struct{}

// BindJSON binds the request body, wrapping bind failures as validation errors.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		appErr := apperror.NewValidation("invalid request body").
			WithDetail("error", err.Error())
		_ = c.Error(appErr)
		return appErr
	}
	return nil
}

// ParseIDParam parses a path parameter as an ID.
func (h *BaseHandler) ParseIDParam(c *gin.Context, name string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(name))
	if err != nil {
		_ = c.Error(apperror.NewValidation("invalid id").
			WithDetail("param", name).
			WithDetail("value", c.Param(name)))
		return id.Nil(), false
	}
	return parsed, true
}

// QueryInt reads an integer query parameter with a default.
func (h *BaseHandler) QueryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// QueryBool reads a boolean query parameter.
func (h *BaseHandler) QueryBool(c *gin.Context, name string) bool {
	return c.Query(name) == "true" || c.Query(name) == "1"
}

// Error reports an error for the error middleware to render.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
}

// OK writes a 200 response.
func (h *BaseHandler) OK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// Created writes a 201 response.
func (h *BaseHandler) Created(c *gin.Context, body any) {
	c.JSON(http.StatusCreated, body)
}

// NoContent writes a 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
