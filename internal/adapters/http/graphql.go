package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
	"github.com/rvlionxz/absensi-kiosk/internal/core/usecases"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/timefmt"
)

// buildSchema creates the GraphQL schema wired to our services.
// Fields resolve through the json tags of the domain types.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	attendanceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Attendance",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"nama_lengkap": &graphql.Field{Type: graphql.String},
			"jabatan":      &graphql.Field{Type: graphql.String},
			"waktu_absen":  &graphql.Field{Type: graphql.String},
			"waktu_tampil": &graphql.Field{Type: graphql.String},
			"lokasi":       &graphql.Field{Type: graphql.String},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"nama_lengkap": &graphql.Field{Type: graphql.String},
			"username":     &graphql.Field{Type: graphql.String},
			"role":         &graphql.Field{Type: graphql.String},
			"jabatan":      &graphql.Field{Type: graphql.String},
			"device_id":    &graphql.Field{Type: graphql.String},
			"device_label": &graphql.Field{Type: graphql.String},
			"manageable":   &graphql.Field{Type: graphql.Boolean},
		},
	})

	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"latitude":        &graphql.Field{Type: graphql.Float},
			"longitude":       &graphql.Field{Type: graphql.Float},
			"accuracy":        &graphql.Field{Type: graphql.Float},
			"distance_meters": &graphql.Field{Type: graphql.Float},
			"admissible":      &graphql.Field{Type: graphql.Boolean},
			"error":           &graphql.Field{Type: graphql.String},
			"banner":          &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"attendance": &graphql.Field{
				Type:        graphql.NewList(attendanceType),
				Description: "Attendance history for a period",
				Args: graphql.FieldConfigArgument{
					"filter":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: string(domain.FilterToday)},
					"date":     &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"tzOffset": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := domain.HistoryQuery{
						Filter:   domain.HistoryFilter(p.Args["filter"].(string)),
						Date:     p.Args["date"].(string),
						TZOffset: timefmt.ClientOffset(time.Now()),
					}
					if off, ok := p.Args["tzOffset"].(int); ok {
						q.TZOffset = off
					}
					return deps.History.List(p.Context, q)
				},
			},
			"users": &graphql.Field{
				Type:        graphql.NewList(userType),
				Description: "Employee and admin accounts",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Users.List(p.Context)
				},
			},
			"location": &graphql.Field{
				Type:        locationType,
				Description: "Latest kiosk location against the clinic geofence",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					snap := deps.Monitor.Snapshot()
					m := map[string]interface{}{
						"latitude":        snap.Location.Latitude,
						"longitude":       snap.Location.Longitude,
						"accuracy":        snap.Location.Accuracy,
						"distance_meters": snap.DistanceMeters,
						"admissible":      snap.Admissible,
						"banner":          usecases.Banner(snap),
					}
					if snap.Location.Error != nil {
						m["error"] = snap.Location.Error.Message
					}
					return m, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
