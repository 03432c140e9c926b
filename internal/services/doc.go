// Package services holds the application services behind the HTTP
// transport: the reconciliation service that turns three uploaded EDI
// reports into a missing-945 workbook, and the health service.
package services
