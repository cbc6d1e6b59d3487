// Package http provides the admin REST API of the ability runtime.
//
// Endpoints:
//   - GET  /, /health
//   - GET  /configuration, POST /configuration (system, sa or application level)
//   - POST /context/{color-mode,language,font,font-size-scale} (application requests)
//   - GET  /stages, POST|DELETE /stages/:module/abilities/:ability
//   - POST /lifecycle/{foreground,background}
//
// All handlers validate input and return JSON. Precedence rejections are not
// errors: the response reports applied=false with the filtered delta.
package http
