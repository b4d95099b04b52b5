// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/middleware"
)

func badRequest(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeBadRequest, message),
	))
}

func bindError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
}

// paramID parses a positive int64 path parameter, answering 400 when it is not one
func paramID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id < 1 {
		badRequest(ctx, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// queryForm parses the optional "form" query parameter. Missing means 0.
func queryForm(ctx *gin.Context, maxForm int) (int, bool) {
	raw := ctx.Query("form")
	if raw == "" {
		return 0, true
	}
	form, err := strconv.Atoi(raw)
	if err != nil || form < 1 || form > maxForm {
		badRequest(ctx, "form must be between 1 and "+strconv.Itoa(maxForm))
		return 0, false
	}
	return form, true
}

// caller returns the authenticated identity as T. Routes are gated by role,
// so a miss means the handler was mounted on the wrong group.
func caller[T models.Identity](ctx *gin.Context) (T, bool) {
	id, ok := middleware.IdentityAs[T](ctx)
	if !ok {
		ctx.JSON(http.StatusForbidden, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied"),
		))
	}
	return id, ok
}
