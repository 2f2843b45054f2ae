package http

import (
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tair/batch-allocation/internal/inventory/docs"
)

// RegisterSwaggerDocs serves the Swagger UI and the registered inventory spec
func RegisterSwaggerDocs(router *mux.Router) {
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.InstanceName(docs.SwaggerInfo.InstanceName()),
		httpSwagger.URL("/swagger/doc.json"),
	))
}
