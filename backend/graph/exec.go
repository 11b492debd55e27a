package graph

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"strconv"

	"github.com/99designs/gqlgen/graphql"
	"github.com/go-viper/mapstructure/v2"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/unihaven/unihaven/backend/graph/model"
)

//go:embed schema.graphqls
var sourceData string

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: sourceData})

// NewExecutableSchema binds the resolvers to schema.graphqls for use with
// gqlgen's handler package. Queries are parsed and validated by the handler
// before they reach Exec.
func NewExecutableSchema(cfg Config) graphql.ExecutableSchema {
	return &executableSchema{resolvers: cfg.Resolvers, schema: parsedSchema}
}

type executableSchema struct {
	resolvers ResolverRoot
	schema    *ast.Schema
}

func (e *executableSchema) Schema() *ast.Schema {
	return e.schema
}

// Complexity reports no custom costs, so complexity limits count one per field.
func (e *executableSchema) Complexity(typeName, field string, childComplexity int, rawArgs map[string]any) (int, bool) {
	return 0, false
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)
	ec := &executionContext{op: opCtx, es: e}

	switch opCtx.Operation.Operation {
	case ast.Query, ast.Mutation:
		first := true
		return func(ctx context.Context) *graphql.Response {
			if !first {
				return nil
			}
			first = false

			var data graphql.Marshaler
			if opCtx.Operation.Operation == ast.Query {
				data = ec._Query(ctx, opCtx.Operation.SelectionSet)
			} else {
				data = ec._Mutation(ctx, opCtx.Operation.SelectionSet)
			}
			var buf bytes.Buffer
			data.MarshalGQL(&buf)
			return &graphql.Response{Data: buf.Bytes()}
		}

	case ast.Subscription:
		next := ec._Subscription(ctx, opCtx.Operation.SelectionSet)
		if next == nil {
			// The error is already recorded on ctx and returned by the executor.
			return graphql.OneShot(&graphql.Response{})
		}
		return func(ctx context.Context) *graphql.Response {
			data := next(ctx)
			if data == nil {
				return nil
			}
			var buf bytes.Buffer
			data.MarshalGQL(&buf)
			return &graphql.Response{Data: buf.Bytes()}
		}

	default:
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported GraphQL operation"))
	}
}

type executionContext struct {
	op *graphql.OperationContext
	es *executableSchema
}

func (ec *executionContext) fail(ctx context.Context, err error) graphql.Marshaler {
	graphql.AddError(ctx, err)
	return graphql.Null
}

func (ec *executionContext) args(field graphql.CollectedField) map[string]any {
	return field.ArgumentMap(ec.op.Variables)
}

// nonNull reports whether a null value in field must null its parent.
func nonNull(field graphql.CollectedField) bool {
	return field.Definition != nil && field.Definition.Type.NonNull
}

func unknownField(object string, field graphql.CollectedField) {
	panic(fmt.Sprintf("unknown field %s.%s", object, strconv.Quote(field.Name)))
}

// ---------------------------------------------------------------------------
// Root types
// ---------------------------------------------------------------------------

var queryImplementors = []string{"Query"}

func (ec *executionContext) _Query(ctx context.Context, sel ast.SelectionSet) graphql.Marshaler {
	fields := graphql.CollectFields(ec.op, sel, queryImplementors)
	out := graphql.NewFieldSet(fields)
	for i, field := range fields {
		ctx := graphql.WithFieldContext(ctx, &graphql.FieldContext{Object: "Query", Field: field, IsResolver: true})
		switch field.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("Query")
		case "__schema", "__type":
			out.Values[i] = ec.fail(ctx, fmt.Errorf("introspection is not supported"))
		case "roommateProfile":
			out.Values[i] = ec._Query_roommateProfile(ctx, field)
		case "matches":
			out.Values[i] = ec._Query_matches(ctx, field)
		case "compatibility":
			out.Values[i] = ec._Query_compatibility(ctx, field)
		default:
			unknownField("Query", field)
		}
		if out.Values[i] == graphql.Null && nonNull(field) {
			out.Invalids++
		}
	}
	if out.Invalids > 0 {
		return graphql.Null
	}
	return out
}

func (ec *executionContext) _Query_roommateProfile(ctx context.Context, field graphql.CollectedField) graphql.Marshaler {
	var userID *string
	if v, ok := ec.args(field)["userId"]; ok && v != nil {
		id, err := graphql.UnmarshalID(v)
		if err != nil {
			return ec.fail(ctx, err)
		}
		userID = &id
	}
	res, err := ec.es.resolvers.Query().RoommateProfile(ctx, userID)
	if err != nil {
		return ec.fail(ctx, err)
	}
	return ec._RoommateProfile(ctx, field.Selections, res)
}

func (ec *executionContext) _Query_matches(ctx context.Context, field graphql.CollectedField) graphql.Marshaler {
	var limit *int
	if v, ok := ec.args(field)["limit"]; ok && v != nil {
		n, err := graphql.UnmarshalInt(v)
		if err != nil {
			return ec.fail(ctx, err)
		}
		limit = &n
	}
	res, err := ec.es.resolvers.Query().Matches(ctx, limit)
	if err != nil {
		return ec.fail(ctx, err)
	}
	list := make(graphql.Array, len(res))
	for i, m := range res {
		list[i] = ec._RoommateMatch(ctx, field.Selections, m)
	}
	return list
}

func (ec *executionContext) _Query_compatibility(ctx context.Context, field graphql.CollectedField) graphql.Marshaler {
	id, err := graphql.UnmarshalID(ec.args(field)["id"])
	if err != nil {
		return ec.fail(ctx, err)
	}
	res, err := ec.es.resolvers.Query().Compatibility(ctx, id)
	if err != nil {
		return ec.fail(ctx, err)
	}
	return ec._Compatibility(ctx, field.Selections, res)
}

var mutationImplementors = []string{"Mutation"}

// _Mutation runs the selected fields one after another, in document order.
func (ec *executionContext) _Mutation(ctx context.Context, sel ast.SelectionSet) graphql.Marshaler {
	fields := graphql.CollectFields(ec.op, sel, mutationImplementors)
	out := graphql.NewFieldSet(fields)
	for i, field := range fields {
		ctx := graphql.WithFieldContext(ctx, &graphql.FieldContext{Object: "Mutation", Field: field, IsResolver: true})
		switch field.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("Mutation")
		case "saveRoommateProfile":
			out.Values[i] = ec._Mutation_saveRoommateProfile(ctx, field)
		case "dismissRoommate":
			out.Values[i] = ec._Mutation_dismissRoommate(ctx, field)
		default:
			unknownField("Mutation", field)
		}
		if out.Values[i] == graphql.Null && nonNull(field) {
			out.Invalids++
		}
	}
	if out.Invalids > 0 {
		return graphql.Null
	}
	return out
}

func (ec *executionContext) _Mutation_saveRoommateProfile(ctx context.Context, field graphql.CollectedField) graphql.Marshaler {
	input, err := unmarshalRoommateProfileInput(ec.args(field)["input"])
	if err != nil {
		return ec.fail(ctx, err)
	}
	res, err := ec.es.resolvers.Mutation().SaveRoommateProfile(ctx, input)
	if err != nil {
		return ec.fail(ctx, err)
	}
	return ec._RoommateProfile(ctx, field.Selections, res)
}

func (ec *executionContext) _Mutation_dismissRoommate(ctx context.Context, field graphql.CollectedField) graphql.Marshaler {
	id, err := graphql.UnmarshalID(ec.args(field)["id"])
	if err != nil {
		return ec.fail(ctx, err)
	}
	res, err := ec.es.resolvers.Mutation().DismissRoommate(ctx, id)
	if err != nil {
		return ec.fail(ctx, err)
	}
	return graphql.MarshalBoolean(res)
}

var subscriptionImplementors = []string{"Subscription"}

func (ec *executionContext) _Subscription(ctx context.Context, sel ast.SelectionSet) func(ctx context.Context) graphql.Marshaler {
	fields := graphql.CollectFields(ec.op, sel, subscriptionImplementors)
	if len(fields) != 1 {
		graphql.AddErrorf(ctx, "must subscribe to exactly one stream")
		return nil
	}
	field := fields[0]
	ctx = graphql.WithFieldContext(ctx, &graphql.FieldContext{Object: "Subscription", Field: field, IsResolver: true})
	switch field.Name {
	case "matchAlerts":
		return ec._Subscription_matchAlerts(ctx, field)
	default:
		unknownField("Subscription", field)
		return nil
	}
}

func (ec *executionContext) _Subscription_matchAlerts(ctx context.Context, field graphql.CollectedField) func(ctx context.Context) graphql.Marshaler {
	ch, err := ec.es.resolvers.Subscription().MatchAlerts(ctx)
	if err != nil {
		graphql.AddError(ctx, err)
		return nil
	}
	return func(ctx context.Context) graphql.Marshaler {
		select {
		case res, ok := <-ch:
			if !ok {
				return nil
			}
			return graphql.WriterFunc(func(w io.Writer) {
				w.Write([]byte{'{'})
				graphql.MarshalString(field.Alias).MarshalGQL(w)
				w.Write([]byte{':'})
				ec._RoommateMatch(ctx, field.Selections, res).MarshalGQL(w)
				w.Write([]byte{'}'})
			})
		case <-ctx.Done():
			return nil
		}
	}
}

// ---------------------------------------------------------------------------
// Object types
// ---------------------------------------------------------------------------

var roommateProfileImplementors = []string{"RoommateProfile"}

func (ec *executionContext) _RoommateProfile(ctx context.Context, sel ast.SelectionSet, obj *model.RoommateProfile) graphql.Marshaler {
	if obj == nil {
		return graphql.Null
	}
	fields := graphql.CollectFields(ec.op, sel, roommateProfileImplementors)
	out := graphql.NewFieldSet(fields)
	for i, field := range fields {
		switch field.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("RoommateProfile")
		case "userId":
			out.Values[i] = graphql.MarshalID(obj.UserID)
		case "displayName":
			out.Values[i] = graphql.MarshalString(obj.DisplayName)
		case "budgetMin":
			out.Values[i] = graphql.MarshalInt(obj.BudgetMin)
		case "budgetMax":
			out.Values[i] = graphql.MarshalInt(obj.BudgetMax)
		case "university":
			out.Values[i] = graphql.MarshalString(obj.University)
		case "faculty":
			out.Values[i] = marshalOptionalString(obj.Faculty)
		case "department":
			out.Values[i] = marshalOptionalString(obj.Department)
		case "interests":
			out.Values[i] = marshalStrings(obj.Interests)
		case "lifestyle":
			out.Values[i] = ec._Lifestyle(ctx, field.Selections, obj.Lifestyle)
		case "bio":
			out.Values[i] = marshalOptionalString(obj.Bio)
		case "isActive":
			out.Values[i] = graphql.MarshalBoolean(obj.IsActive)
		default:
			unknownField("RoommateProfile", field)
		}
	}
	return out
}

var lifestyleImplementors = []string{"Lifestyle"}

func (ec *executionContext) _Lifestyle(ctx context.Context, sel ast.SelectionSet, obj *model.Lifestyle) graphql.Marshaler {
	if obj == nil {
		obj = &model.Lifestyle{}
	}
	fields := graphql.CollectFields(ec.op, sel, lifestyleImplementors)
	out := graphql.NewFieldSet(fields)
	for i, field := range fields {
		switch field.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("Lifestyle")
		case "cleanliness":
			out.Values[i] = marshalOptionalString(obj.Cleanliness)
		case "studyHabits":
			out.Values[i] = marshalOptionalString(obj.StudyHabits)
		case "sleepSchedule":
			out.Values[i] = marshalOptionalString(obj.SleepSchedule)
		case "noiseLevel":
			out.Values[i] = marshalOptionalString(obj.NoiseLevel)
		case "smoking":
			out.Values[i] = marshalOptionalString(obj.Smoking)
		case "guests":
			out.Values[i] = marshalOptionalString(obj.Guests)
		case "pets":
			out.Values[i] = marshalOptionalString(obj.Pets)
		case "cooking":
			out.Values[i] = marshalOptionalString(obj.Cooking)
		default:
			unknownField("Lifestyle", field)
		}
	}
	return out
}

var roommateMatchImplementors = []string{"RoommateMatch"}

func (ec *executionContext) _RoommateMatch(ctx context.Context, sel ast.SelectionSet, obj *model.RoommateMatch) graphql.Marshaler {
	if obj == nil {
		return graphql.Null
	}
	fields := graphql.CollectFields(ec.op, sel, roommateMatchImplementors)
	out := graphql.NewFieldSet(fields)
	for i, field := range fields {
		switch field.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("RoommateMatch")
		case "userId":
			out.Values[i] = graphql.MarshalID(obj.UserID)
		case "displayName":
			out.Values[i] = graphql.MarshalString(obj.DisplayName)
		case "university":
			out.Values[i] = graphql.MarshalString(obj.University)
		case "score":
			out.Values[i] = graphql.MarshalInt(obj.Score)
		case "label":
			out.Values[i] = graphql.MarshalString(obj.Label)
		case "isOnline":
			out.Values[i] = graphql.MarshalBoolean(obj.IsOnline)
		default:
			unknownField("RoommateMatch", field)
		}
	}
	return out
}

var compatibilityImplementors = []string{"Compatibility"}

func (ec *executionContext) _Compatibility(ctx context.Context, sel ast.SelectionSet, obj *model.Compatibility) graphql.Marshaler {
	if obj == nil {
		return graphql.Null
	}
	fields := graphql.CollectFields(ec.op, sel, compatibilityImplementors)
	out := graphql.NewFieldSet(fields)
	for i, field := range fields {
		switch field.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("Compatibility")
		case "userId":
			out.Values[i] = graphql.MarshalID(obj.UserID)
		case "score":
			out.Values[i] = graphql.MarshalInt(obj.Score)
		case "label":
			out.Values[i] = graphql.MarshalString(obj.Label)
		case "breakdown":
			out.Values[i] = ec._Breakdown(ctx, field.Selections, obj.Breakdown)
		default:
			unknownField("Compatibility", field)
		}
	}
	return out
}

var breakdownImplementors = []string{"Breakdown"}

func (ec *executionContext) _Breakdown(ctx context.Context, sel ast.SelectionSet, obj *model.Breakdown) graphql.Marshaler {
	if obj == nil {
		obj = &model.Breakdown{}
	}
	fields := graphql.CollectFields(ec.op, sel, breakdownImplementors)
	out := graphql.NewFieldSet(fields)
	for i, field := range fields {
		switch field.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("Breakdown")
		case "budget":
			out.Values[i] = graphql.MarshalInt(obj.Budget)
		case "university":
			out.Values[i] = graphql.MarshalInt(obj.University)
		case "faculty":
			out.Values[i] = graphql.MarshalInt(obj.Faculty)
		case "department":
			out.Values[i] = graphql.MarshalInt(obj.Department)
		case "lifestyle":
			out.Values[i] = graphql.MarshalInt(obj.Lifestyle)
		case "sharedInterests":
			out.Values[i] = graphql.MarshalInt(obj.SharedInterests)
		case "interests":
			out.Values[i] = graphql.MarshalInt(obj.Interests)
		case "total":
			out.Values[i] = graphql.MarshalInt(obj.Total)
		default:
			unknownField("Breakdown", field)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Scalars and inputs
// ---------------------------------------------------------------------------

func marshalOptionalString(s *string) graphql.Marshaler {
	if s == nil {
		return graphql.Null
	}
	return graphql.MarshalString(*s)
}

func marshalStrings(v []string) graphql.Marshaler {
	out := make(graphql.Array, len(v))
	for i, s := range v {
		out[i] = graphql.MarshalString(s)
	}
	return out
}

// unmarshalRoommateProfileInput decodes an already validated input object,
// given either as a literal or through variables.
func unmarshalRoommateProfileInput(v any) (model.RoommateProfileInput, error) {
	var in model.RoommateProfileInput
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      &in,
		ErrorUnused: true,
	})
	if err != nil {
		return in, err
	}
	if err := dec.Decode(v); err != nil {
		return in, fmt.Errorf("input: %w", err)
	}
	return in, nil
}
