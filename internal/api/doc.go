// Package api exposes the sale workflow over JSON/HTTP. Handlers decode and
// validate requests, pass the authenticated principal to the sale service
// and translate its errors into status codes and stable error codes.
package api
