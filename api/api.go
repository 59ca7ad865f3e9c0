/*
Copyright 2025 Mosolo Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mosolohq/mosolo"
	"github.com/mosolohq/mosolo/api/middleware"
	"github.com/mosolohq/mosolo/config"
	"github.com/mosolohq/mosolo/internal/apierror"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Api struct {
	core   *mosolo.Mosolo
	router *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware())

	v1.POST("/transfers", a.SendMoney)
	v1.GET("/transfers/:id", a.GetTransfer)

	v1.GET("/accounts/:id", a.GetAccount)
	v1.GET("/accounts/:id/entries", a.ListEntries)
	v1.GET("/accounts/:id/notifications", a.ListNotifications)

	v1.POST("/money-requests", a.CreateMoneyRequest)
	v1.GET("/money-requests", a.ListMoneyRequests)
	v1.GET("/money-requests/:id", a.GetMoneyRequest)
	v1.POST("/money-requests/:id/respond", a.RespondMoneyRequest)

	v1.PUT("/notifications/:id/read", a.MarkNotificationRead)

	return a.router
}

func NewAPI(core *mosolo.Mosolo) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(otelgin.Middleware("mosolo"))
	r.Use(middleware.RateLimitMiddleware(conf))

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{core: core, router: r}
}

// respondError maps a typed service error onto an HTTP status and body.
func respondError(c *gin.Context, err error) {
	status := apierror.MapErrorToHTTPStatus(err)
	var apiErr apierror.APIError
	if errors.As(err, &apiErr) {
		c.JSON(status, gin.H{"error": apiErr.Message, "code": apiErr.Code})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// caller returns the authenticated account id or writes a 401.
func caller(c *gin.Context) (string, bool) {
	id := middleware.CallerID(c)
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return "", false
	}
	return id, true
}

// pagination reads limit/offset query params with zero-value fallbacks.
func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
