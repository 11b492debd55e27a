package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/unihaven/unihaven/backend/compat"
)

// DataLoaderContextKey is the key used to store dataloaders in context
type DataLoaderContextKey string

const dataLoaderKey DataLoaderContextKey = "dataloader"

// DataLoaders holds the per-request loaders.
type DataLoaders struct {
	ProfileLoader *dataloader.Loader[int, compat.Profile]
}

// NewDataLoaders creates new dataloaders with the database connection
func NewDataLoaders(db *sql.DB) *DataLoaders {
	return &DataLoaders{
		ProfileLoader: dataloader.NewBatchedLoader(
			profileBatchFn(db),
			dataloader.WithWait[int, compat.Profile](16*time.Millisecond),
			dataloader.WithBatchCapacity[int, compat.Profile](maxMatchLimit),
		),
	}
}

// GetDataLoadersFromContext retrieves dataloaders from context
func GetDataLoadersFromContext(ctx context.Context) *DataLoaders {
	if dl, ok := ctx.Value(dataLoaderKey).(*DataLoaders); ok {
		return dl
	}
	return nil
}

// WithDataLoaders adds dataloaders to context
func WithDataLoaders(ctx context.Context, dl *DataLoaders) context.Context {
	return context.WithValue(ctx, dataLoaderKey, dl)
}

// DataLoaderMiddleware gives every request fresh loaders so nothing is cached across requests.
func DataLoaderMiddleware(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithDataLoaders(r.Context(), NewDataLoaders(db))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// profileBatchFn loads active profiles in one query. Missing or inactive
// users resolve to errProfileNotFound.
func profileBatchFn(db *sql.DB) dataloader.BatchFunc[int, compat.Profile] {
	return func(ctx context.Context, keys []int) []*dataloader.Result[compat.Profile] {
		results := make([]*dataloader.Result[compat.Profile], len(keys))
		if len(keys) == 0 {
			return results
		}

		found, err := loadProfilesByIDs(ctx, db, keys)
		for i, key := range keys {
			switch p, ok := found[key]; {
			case err != nil:
				results[i] = &dataloader.Result[compat.Profile]{Error: err}
			case !ok:
				results[i] = &dataloader.Result[compat.Profile]{Error: errProfileNotFound}
			default:
				results[i] = &dataloader.Result[compat.Profile]{Data: p}
			}
		}
		return results
	}
}

// loadersFor returns the request's loaders, creating them when the
// middleware is not installed (as in handler tests).
func loadersFor(r *http.Request, db *sql.DB) *DataLoaders {
	if dl := GetDataLoadersFromContext(r.Context()); dl != nil {
		return dl
	}
	return NewDataLoaders(db)
}
