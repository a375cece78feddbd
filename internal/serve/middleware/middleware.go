package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	set "github.com/deckarep/golang-set/v2"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/suimigrate/migrate-backend/internal/apptracker"
	"github.com/suimigrate/migrate-backend/internal/serve/httperror"
)

// AdminAddressHeader carries the Sui address of the connected admin wallet.
const AdminAddressHeader = "X-Wallet-Address"

// RecoverHandler turns a panic in a handler into a 500 response and reports it.
func RecoverHandler(appTracker apptracker.AppTracker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				//nolint:errorlint
				if r == http.ErrAbortHandler {
					panic(r)
				}

				var err error
				if rErr, ok := r.(error); ok {
					err = fmt.Errorf("panic: %w", rErr)
				} else {
					err = fmt.Errorf("panic: %v", r)
				}

				ctx := req.Context()
				log.Ctx(ctx).Errorf("%v\n%s", err, debug.Stack())
				httperror.InternalServerError(ctx, "", err, nil, appTracker).Render(rw)
			}()

			next.ServeHTTP(rw, req)
		})
	}
}

// AdminGuard only lets through requests whose AdminAddressHeader is one of adminAddresses. Addresses are compared
// lowercased. An empty set disables the guard.
func AdminGuard(adminAddresses set.Set[string]) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if adminAddresses == nil || adminAddresses.Cardinality() == 0 {
			return next
		}

		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			address := strings.ToLower(strings.TrimSpace(req.Header.Get(AdminAddressHeader)))
			if address == "" {
				httperror.Unauthorized("", nil).Render(rw)
				return
			}

			if !adminAddresses.Contains(address) {
				log.Ctx(req.Context()).WithField("address", address).Warn("Rejected request from a non-admin address")
				httperror.Forbidden("Only admin wallets can perform this action.", nil).Render(rw)
				return
			}

			next.ServeHTTP(rw, req)
		})
	}
}
