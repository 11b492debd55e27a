package graph

import (
	"context"

	"github.com/unihaven/unihaven/backend/graph/model"
)

// ResolverRoot is implemented by the backend and bound to the schema with
// NewExecutableSchema.
type ResolverRoot interface {
	Mutation() MutationResolver
	Query() QueryResolver
	Subscription() SubscriptionResolver
}

type QueryResolver interface {
	RoommateProfile(ctx context.Context, userID *string) (*model.RoommateProfile, error)
	Matches(ctx context.Context, limit *int) ([]*model.RoommateMatch, error)
	Compatibility(ctx context.Context, id string) (*model.Compatibility, error)
}

type MutationResolver interface {
	SaveRoommateProfile(ctx context.Context, input model.RoommateProfileInput) (*model.RoommateProfile, error)
	DismissRoommate(ctx context.Context, id string) (bool, error)
}

// SubscriptionResolver streams end when the channel is closed or the
// subscription context is cancelled.
type SubscriptionResolver interface {
	MatchAlerts(ctx context.Context) (<-chan *model.RoommateMatch, error)
}

type Config struct {
	Resolvers ResolverRoot
}
