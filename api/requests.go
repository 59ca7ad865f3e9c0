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
	"net/http"

	"github.com/gin-gonic/gin"
	model2 "github.com/mosolohq/mosolo/api/model"
)

// CreateMoneyRequest handles POST /v1/money-requests.
func (a Api) CreateMoneyRequest(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}

	var body model2.CreateMoneyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := body.ValidateCreateMoneyRequest(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	amount, err := body.MinorAmount()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	request, err := a.core.RequestMoney(c.Request.Context(), callerID, body.ToAccountID, amount, body.Currency, body.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// RespondMoneyRequest handles POST /v1/money-requests/:id/respond.
func (a Api) RespondMoneyRequest(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	var body model2.RespondMoneyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := body.ValidateRespondMoneyRequest(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	request, err := a.core.RespondToRequest(c.Request.Context(), callerID, id, *body.Accept, body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// GetMoneyRequest handles GET /v1/money-requests/:id.
func (a Api) GetMoneyRequest(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	request, err := a.core.GetMoneyRequest(c.Request.Context(), callerID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// ListMoneyRequests handles GET /v1/money-requests?direction=sent|received.
func (a Api) ListMoneyRequests(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)

	requests, err := a.core.ListMoneyRequests(c.Request.Context(), callerID, c.Query("direction"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"money_requests": requests})
}
