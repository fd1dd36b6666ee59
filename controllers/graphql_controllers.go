package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/yeremiapane/school-journal/graph"
	"github.com/yeremiapane/school-journal/middlewares"
	"github.com/yeremiapane/school-journal/utils"
)

type GraphQLController struct {
	Schema graphql.Schema
}

func NewGraphQLController(schema graphql.Schema) *GraphQLController {
	return &GraphQLController{Schema: schema}
}

// Query executes a standard {query, variables, operationName} body. The
// response is the plain GraphQL result, not the REST envelope.
func (gc *GraphQLController) Query(c *gin.Context) {
	var req struct {
		Query         string                 `json:"query" binding:"required"`
		Variables     map[string]interface{} `json:"variables"`
		OperationName string                 `json:"operationName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	caller, _ := middlewares.CallerFrom(c)

	result := graph.Execute(c.Request.Context(), gc.Schema, caller, req.Query, req.Variables, req.OperationName)
	if result.HasErrors() {
		utils.InfoLogger.Debugf("GraphQL errors: %v", result.Errors)
	}
	c.JSON(http.StatusOK, result)
}
