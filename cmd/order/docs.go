package main

// @title Order Service API
// @version 1.0
// @description Order orchestration over the inventory service

// @host localhost:8083
// @BasePath /

// @tag.name Orders
// @tag.description Order placement and lookup

// @tag.name Health
// @tag.description Health check endpoints
