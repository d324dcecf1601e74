// Package handler holds helpers shared by the HTTP handlers.
package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// BindJSON decodes the request body into obj. Field rules are enforced by the
// services, so only malformed JSON fails here.
func BindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.BadRequest("request body is required", err)
		}
		return apperrors.BadRequest("malformed JSON body", err)
	}
	return nil
}

// BindQuery decodes query parameters into obj.
func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		return apperrors.BadRequest("malformed query", err)
	}
	return nil
}

// ParamUUID parses the named path parameter.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.Field(name, "must be a valid UUID")
	}
	return id, nil
}

// QueryUUID parses an optional query parameter; nil when absent.
func QueryUUID(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.Field(name, "must be a valid UUID")
	}
	return &id, nil
}

// QueryDate parses an optional YYYY-MM-DD query parameter.
func QueryDate(c *gin.Context, name string) (*model.Date, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return nil, apperrors.Field(name, "must be a date in YYYY-MM-DD format")
	}
	return &d, nil
}

// Pagination reads page and page_size.
func Pagination(c *gin.Context) (model.Pagination, error) {
	var p model.Pagination
	if raw := c.Query("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return p, apperrors.Field("page", "must be a positive integer")
		}
		p.Page = v
	}
	if raw := c.Query("page_size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return p, apperrors.Field("page_size", "must be a positive integer")
		}
		p.PageSize = v
	}
	return p, nil
}
