package main

// @title Inventory Service API
// @version 1.0
// @description Batch inventory with FIFO-by-expiry depletion

// @host localhost:8082
// @BasePath /

// @tag.name Inventory
// @tag.description Batch listing, depletion and restock

// @tag.name Health
// @tag.description Health check endpoints
