package server

import (
	"github.com/labstack/echo/v4"
)

// MountEcho attaches the router's handlers under an echo instance, for
// embedders that already run echo instead of mounting the gin handler.
func (r *Router) MountEcho(e *echo.Echo) {
	h := r.Handler()
	path := r.basePath + "/*"
	if r.basePath == "" {
		path = "/*"
	}
	e.Any(path, echo.WrapHandler(h))
}
