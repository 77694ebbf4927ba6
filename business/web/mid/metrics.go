package mid

import (
	"context"
	"net/http"

	"github.com/ardanlabs/ledger/business/sys/metrics"
	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/web"
)

// Metrics counts every request by the status class it completed with.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)

			// Errors has not converted the error yet at this point.
			status := http.StatusOK
			if v, verr := web.GetValues(ctx); verr == nil && v.StatusCode != 0 {
				status = v.StatusCode
			}
			if err != nil {
				_, status = errs.FromError(err)
			}
			metrics.ObserveRequest(status)

			return err
		}

		return h
	}

	return m
}
