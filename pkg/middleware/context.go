package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rajeevhemai/unify-mdm/pkg/context"
)

// HeaderUserID identifies the reviewer making the request. Authentication is
// handled upstream; the id is trusted here for attribution only.
const HeaderUserID = "X-User-ID"

func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			userID := req.Header.Get(HeaderUserID)

			ctx := req.Context()
			ctx = context.SetRequestID(ctx, requestID)
			ctx = context.SetMethod(ctx, req.Method)
			ctx = context.SetRoute(ctx, req.URL.Path)
			ctx = context.SetRemoteIP(ctx, c.RealIP())
			ctx = context.SetReferer(ctx, req.Referer())
			ctx = context.SetUserID(ctx, userID)

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
