package identitystub

import "github.com/labstack/echo/v4"

// securityHeaders adds the response headers the real portal backend
// sends, so clients are exercised against the same surface.
func securityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
			return next(c)
		}
	}
}
