package service_mocks

//go:generate mockgen -source=../interfaces.go -destination=service_mocks.go -package=service_mocks

// Mocks for the service interfaces, used by handler and middleware tests.
// To regenerate: go generate ./internal/services/service_mocks
