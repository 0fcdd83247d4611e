// Package connectors holds the clients for external APIs the application
// depends on. The google sub-package builds authenticated Sheets and Drive
// services, maps Google API errors to domain errors and rate-limits calls
// per service.
package connectors
