// Package http contains the chi HTTP handlers: the multipart reconcile
// endpoint that accepts the three EDI reports and streams back the
// missing-945 workbook, and the health endpoint. Errors render as
// RFC 7807 problem documents.
package http
