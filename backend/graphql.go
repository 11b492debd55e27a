package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/rs/zerolog"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/unihaven/unihaven/backend/compat"
	"github.com/unihaven/unihaven/backend/graph"
	"github.com/unihaven/unihaven/backend/graph/model"
)

// graphqlHandler serves /graphql over POST, GET and graphql-ws. Middleware
// chain: DataLoader -> Auth -> GraphQL.
func graphqlHandler(db *sql.DB, hub *matchHub, defaultLimit int) http.Handler {
	srv := handler.New(graph.NewExecutableSchema(graph.Config{
		Resolvers: &graphResolver{db: db, hub: hub, defaultLimit: defaultLimit},
	}))
	srv.AddTransport(transport.Websocket{
		Upgrader:              upgrader,
		KeepAlivePingInterval: alertPingPeriod,
	})
	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})

	return DataLoaderMiddleware(db)(graphqlAuth(srv))
}

// graphqlAuth puts the caller in the context when a token is present.
// Anonymous requests go through; resolvers reject them.
func graphqlAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, ok := getUserIDFromRequest(r); ok {
			r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
		}
		next.ServeHTTP(w, r)
	})
}

// gqlError carries the same snake_case codes as the REST API in
// extensions.code.
func gqlError(code string) *gqlerror.Error {
	return &gqlerror.Error{Message: code, Extensions: map[string]any{"code": code}}
}

type graphResolver struct {
	db           *sql.DB
	hub          *matchHub
	defaultLimit int
}

func (r *graphResolver) Query() graph.QueryResolver               { return &queryResolver{r} }
func (r *graphResolver) Mutation() graph.MutationResolver         { return &mutationResolver{r} }
func (r *graphResolver) Subscription() graph.SubscriptionResolver { return &subscriptionResolver{r} }

type queryResolver struct{ *graphResolver }
type mutationResolver struct{ *graphResolver }
type subscriptionResolver struct{ *graphResolver }

func callerID(ctx context.Context) (int, error) {
	if id, ok := ctx.Value(userIDKey).(int); ok && id > 0 {
		return id, nil
	}
	return 0, gqlError("unauthorized")
}

func (r *graphResolver) internal(ctx context.Context, err error, msg string) error {
	ev := zerolog.Ctx(ctx).Error().Err(err)
	if id, ok := ctx.Value(userIDKey).(int); ok {
		ev = ev.Int("user_id", id)
	}
	ev.Msg(msg)
	return gqlError("internal_error")
}

// viewer loads the caller's own profile, which every scoring field needs.
func (r *graphResolver) viewer(ctx context.Context) (compat.Profile, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return compat.Profile{}, err
	}
	p, err := loadProfile(ctx, r.db, userID)
	if errors.Is(err, errProfileNotFound) {
		return compat.Profile{}, gqlError("no_roommate_profile")
	} else if err != nil {
		return compat.Profile{}, r.internal(ctx, err, "load viewer profile")
	}
	return p, nil
}

// targetID parses an ID argument naming another user.
func targetID(ctx context.Context, id string) (int, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return 0, err
	}
	target, err := strconv.Atoi(id)
	if err != nil || target <= 0 || target == userID {
		return 0, gqlError("not_found")
	}
	return target, nil
}

// RoommateProfile is the resolver for the roommateProfile field.
func (r *queryResolver) RoommateProfile(ctx context.Context, userID *string) (*model.RoommateProfile, error) {
	me, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	id := me
	if userID != nil {
		if id, err = strconv.Atoi(*userID); err != nil {
			return nil, nil
		}
	}
	p, err := loadProfile(ctx, r.db, id)
	if errors.Is(err, errProfileNotFound) || (err == nil && !p.Active && id != me) {
		return nil, nil
	} else if err != nil {
		return nil, r.internal(ctx, err, "load roommate profile")
	}
	return toGraphProfile(p), nil
}

// Matches is the resolver for the matches field.
func (r *queryResolver) Matches(ctx context.Context, limit *int) ([]*model.RoommateMatch, error) {
	n := r.defaultLimit
	if limit != nil {
		if *limit <= 0 {
			return nil, gqlError("invalid_limit")
		}
		n = min(*limit, maxMatchLimit)
	}
	viewer, err := r.viewer(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := findMatches(ctx, r.db, viewer, n)
	if err != nil {
		return nil, r.internal(ctx, err, "load candidates")
	}
	out := make([]*model.RoommateMatch, len(entries))
	for i, e := range entries {
		out[i] = toGraphMatch(e)
	}
	return out, nil
}

// Compatibility is the resolver for the compatibility field. Targets go
// through the request's ProfileLoader, which only returns active profiles.
func (r *queryResolver) Compatibility(ctx context.Context, id string) (*model.Compatibility, error) {
	target, err := targetID(ctx, id)
	if err != nil {
		return nil, err
	}
	viewer, err := r.viewer(ctx)
	if err != nil {
		return nil, err
	}

	loaders := GetDataLoadersFromContext(ctx)
	if loaders == nil {
		loaders = NewDataLoaders(r.db)
	}
	p, err := loaders.ProfileLoader.Load(ctx, target)()
	if errors.Is(err, errProfileNotFound) {
		return nil, gqlError("not_found")
	} else if err != nil {
		return nil, r.internal(ctx, err, "load target profile")
	}

	b := compat.Explain(viewer, p)
	res := b.Result()
	matchStats.observe(res)
	return &model.Compatibility{
		UserID: strconv.Itoa(target),
		Score:  res.Score,
		Label:  string(res.Label),
		Breakdown: &model.Breakdown{
			Budget:          b.Budget,
			University:      b.University,
			Faculty:         b.Faculty,
			Department:      b.Department,
			Lifestyle:       b.Lifestyle,
			SharedInterests: b.SharedInterests,
			Interests:       b.Interests,
			Total:           b.Total(),
		},
	}, nil
}

// SaveRoommateProfile is the resolver for the saveRoommateProfile field.
func (r *mutationResolver) SaveRoommateProfile(ctx context.Context, input model.RoommateProfileInput) (*model.RoommateProfile, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	p := profileRequestFromInput(input).toProfile(userID)
	if err := p.Validate(); err != nil {
		return nil, gqlError(validationCode(err))
	}
	p, err = saveProfile(ctx, r.db, p)
	if err != nil {
		return nil, r.internal(ctx, err, "save profile")
	}
	r.hub.profileSaved(p)
	return toGraphProfile(p), nil
}

// DismissRoommate is the resolver for the dismissRoommate field.
func (r *mutationResolver) DismissRoommate(ctx context.Context, id string) (bool, error) {
	target, err := targetID(ctx, id)
	if err != nil {
		return false, err
	}
	p, err := loadProfile(ctx, r.db, target)
	if errors.Is(err, errProfileNotFound) || (err == nil && !p.Active) {
		return false, gqlError("not_found")
	} else if err != nil {
		return false, r.internal(ctx, err, "load dismissed profile")
	}
	userID, _ := callerID(ctx)
	if err := dismissRoommate(ctx, r.db, userID, target); err != nil {
		return false, r.internal(ctx, err, "dismiss roommate")
	}
	return true, nil
}

// MatchAlerts is the resolver for the matchAlerts field. It shares the hub
// with /ws/matches, so both feeds see the same alerts.
func (r *subscriptionResolver) MatchAlerts(ctx context.Context) (<-chan *model.RoommateMatch, error) {
	viewer, err := r.viewer(ctx)
	if err != nil {
		return nil, err
	}

	events, cancel := r.hub.subscribe(viewer)
	out := make(chan *model.RoommateMatch, 1)

	// Handle context cancellation to cleanup subscription
	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				m, isMatch := evt.Data.(matchEntry)
				if evt.Type != "match" || !isMatch {
					continue
				}
				select {
				case out <- toGraphMatch(m):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func profileRequestFromInput(in model.RoommateProfileInput) profileRequest {
	req := profileRequest{
		DisplayName: in.DisplayName,
		BudgetMin:   in.BudgetMin,
		BudgetMax:   in.BudgetMax,
		University:  in.University,
		Faculty:     deref(in.Faculty),
		Department:  deref(in.Department),
		Interests:   in.Interests,
		Bio:         deref(in.Bio),
	}
	if l := in.Lifestyle; l != nil {
		req.Lifestyle = compat.Lifestyle{
			Cleanliness:   deref(l.Cleanliness),
			StudyHabits:   deref(l.StudyHabits),
			SleepSchedule: deref(l.SleepSchedule),
			NoiseLevel:    deref(l.NoiseLevel),
			Smoking:       deref(l.Smoking),
			Guests:        deref(l.Guests),
			Pets:          deref(l.Pets),
			Cooking:       deref(l.Cooking),
		}
	}
	return req
}

func toGraphProfile(p compat.Profile) *model.RoommateProfile {
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	l := p.Lifestyle
	return &model.RoommateProfile{
		UserID:      strconv.Itoa(p.UserID),
		DisplayName: p.DisplayName,
		BudgetMin:   p.BudgetMin,
		BudgetMax:   p.BudgetMax,
		University:  p.University,
		Faculty:     optional(p.Faculty),
		Department:  optional(p.Department),
		Interests:   interests,
		Lifestyle: &model.Lifestyle{
			Cleanliness:   optional(l.Cleanliness),
			StudyHabits:   optional(l.StudyHabits),
			SleepSchedule: optional(l.SleepSchedule),
			NoiseLevel:    optional(l.NoiseLevel),
			Smoking:       optional(l.Smoking),
			Guests:        optional(l.Guests),
			Pets:          optional(l.Pets),
			Cooking:       optional(l.Cooking),
		},
		Bio:      optional(p.Bio),
		IsActive: p.Active,
	}
}

func toGraphMatch(m matchEntry) *model.RoommateMatch {
	return &model.RoommateMatch{
		UserID:      strconv.Itoa(m.UserID),
		DisplayName: m.DisplayName,
		University:  m.University,
		Score:       m.Score,
		Label:       string(m.Label),
		IsOnline:    m.IsOnline,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
