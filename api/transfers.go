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

// SendMoney handles POST /v1/transfers. The sender is always the
// authenticated caller; the body names only the recipient side.
func (a Api) SendMoney(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}

	var body model2.SendMoney
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := body.ValidateSendMoney(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	input, err := body.ToTransfer(callerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	receipt, err := a.core.SendMoney(c.Request.Context(), callerID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// GetTransfer handles GET /v1/transfers/:id, returning the caller's own side.
func (a Api) GetTransfer(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	entry, err := a.core.GetTransfer(c.Request.Context(), callerID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}
