package http

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"github.com/tidwall/gjson"

	"github.com/wanderly/wanderly/internal/adapters/mapping"
	"github.com/wanderly/wanderly/internal/core/domain"
	"github.com/wanderly/wanderly/internal/core/openhours"
	"github.com/wanderly/wanderly/internal/core/usecases"
	"github.com/wanderly/wanderly/internal/pkg/geospatial"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	intervalType := graphql.NewObject(graphql.ObjectConfig{
		Name: "HoursInterval",
		Fields: graphql.Fields{
			"start": &graphql.Field{Type: graphql.String},
			"end":   &graphql.Field{Type: graphql.String},
		},
	})

	dailyHoursType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DailyHours",
		Fields: graphql.Fields{
			"weekday":   &graphql.Field{Type: graphql.Int},
			"closed":    &graphql.Field{Type: graphql.Boolean},
			"intervals": &graphql.Field{Type: graphql.NewList(intervalType)},
		},
	})

	transitionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Transition",
		Fields: graphql.Fields{
			"kind":       &graphql.Field{Type: graphql.String},
			"time":       &graphql.Field{Type: graphql.String},
			"day_offset": &graphql.Field{Type: graphql.Int},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"category":   &graphql.Field{Type: graphql.String},
			"location":   &graphql.Field{Type: geoPointType},
			"address":    &graphql.Field{Type: graphql.String},
			"phone":      &graphql.Field{Type: graphql.String},
			"website":    &graphql.Field{Type: graphql.String},
			"timezone":   &graphql.Field{Type: graphql.String},
			"hours":      &graphql.Field{Type: graphql.NewList(dailyHoursType)},
			"hours_text": &graphql.Field{Type: graphql.String},
			"rating":     &graphql.Field{Type: graphql.Float},
		},
	})

	statusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PlaceStatus",
		Fields: graphql.Fields{
			"place":           &graphql.Field{Type: placeType},
			"is_open":         &graphql.Field{Type: graphql.Boolean},
			"next_transition": &graphql.Field{Type: transitionType},
			"label":           &graphql.Field{Type: graphql.String},
			"closing_soon":    &graphql.Field{Type: graphql.Boolean},
			"distance_meters": &graphql.Field{Type: graphql.Float},
			"distance_label":  &graphql.Field{Type: graphql.String},
			"evaluated_at":    &graphql.Field{Type: graphql.String},
		},
	})

	evaluationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "HoursEvaluation",
		Fields: graphql.Fields{
			"is_open":         &graphql.Field{Type: graphql.Boolean},
			"next_transition": &graphql.Field{Type: transitionType},
			"label":           &graphql.Field{Type: graphql.String},
			"closing_soon":    &graphql.Field{Type: graphql.Boolean},
			"evaluated_at":    &graphql.Field{Type: graphql.String},
		},
	})

	distanceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Distance",
		Fields: graphql.Fields{
			"meters": &graphql.Field{Type: graphql.Float},
			"label":  &graphql.Field{Type: graphql.String},
			"unit":   &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"place": &graphql.Field{
				Type:        placeType,
				Description: "Get a place by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					place, err := deps.Places.GetByID(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return placeMap(place), nil
				},
			},
			"placeStatus": &graphql.Field{
				Type:        statusType,
				Description: "Open/closed status of a place, with distance when lat and lon are given",
				Args: graphql.FieldConfigArgument{
					"id":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lat":  &graphql.ArgumentConfig{Type: graphql.Float},
					"lon":  &graphql.ArgumentConfig{Type: graphql.Float},
					"unit": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := usecases.StatusQuery{Unit: argUnit(p), PrecisionKm: -1, PrecisionMi: -1}
					lat, okLat := p.Args["lat"].(float64)
					lon, okLon := p.Args["lon"].(float64)
					if okLat && okLon {
						q.Origin = &domain.GeoPoint{Lat: lat, Lon: lon}
					}
					status, err := deps.Places.Status(p.Context, p.Args["id"].(string), q)
					if err != nil {
						return nil, err
					}
					return statusMap(status), nil
				},
			},
			"nearbyPlaces": &graphql.Field{
				Type:        graphql.NewList(statusType),
				Description: "Place cards near a location, nearest first",
				Args: graphql.FieldConfigArgument{
					"lat":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius":   &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 1000.0},
					"limit":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
					"open_now": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
					"unit":     &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					statuses, err := deps.Places.Nearby(p.Context, usecases.NearbyQuery{
						Center:       domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)},
						RadiusMeters: p.Args["radius"].(float64),
						Limit:        p.Args["limit"].(int),
						OpenNow:      p.Args["open_now"].(bool),
						Unit:         argUnit(p),
					})
					if err != nil {
						return nil, err
					}
					result := make([]map[string]interface{}, 0, len(statuses))
					for i := range statuses {
						result = append(result, statusMap(&statuses[i]))
					}
					return result, nil
				},
			},
			"evaluateHours": &graphql.Field{
				Type:        evaluationType,
				Description: "Evaluate a weekly schedule given as JSON in any supported shape",
				Args: graphql.FieldConfigArgument{
					"hours":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"now":      &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"timezone": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					weekly := mapping.Hours(gjson.Parse(p.Args["hours"].(string)))
					now := deps.now()
					if raw := p.Args["now"].(string); raw != "" {
						t, err := time.Parse(time.RFC3339, raw)
						if err != nil {
							return nil, err
						}
						now = t
					}
					if tz := p.Args["timezone"].(string); tz != "" {
						loc, err := time.LoadLocation(tz)
						if err != nil {
							return nil, err
						}
						now = now.In(loc)
					}
					res := deps.Schedule.Evaluate(weekly, now)
					return map[string]interface{}{
						"is_open":         res.IsOpen,
						"next_transition": transitionMap(res.Next),
						"label":           res.Label,
						"closing_soon":    res.ClosingSoon,
						"evaluated_at":    res.EvaluatedAt.Format(time.RFC3339),
					}, nil
				},
			},
			"distance": &graphql.Field{
				Type:        distanceType,
				Description: "Great-circle distance between two points, formatted for display",
				Args: graphql.FieldConfigArgument{
					"from_lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"from_lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"to_lat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"to_lon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"unit":     &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					d := deps.Schedule.Distance(
						domain.GeoPoint{Lat: p.Args["from_lat"].(float64), Lon: p.Args["from_lon"].(float64)},
						domain.GeoPoint{Lat: p.Args["to_lat"].(float64), Lon: p.Args["to_lon"].(float64)},
						argUnit(p), -1, -1,
					)
					return map[string]interface{}{
						"meters": d.Meters,
						"label":  d.Label,
						"unit":   string(d.Unit),
					}, nil
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
		if err := json.Unmarshal(c.Body(), &req); err != nil || req.Query == "" {
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

func argUnit(p graphql.ResolveParams) domain.Unit {
	if u, _ := p.Args["unit"].(string); u != "" {
		return geospatial.ParseUnit(u)
	}
	return ""
}

func transitionMap(t *domain.Transition) interface{} {
	if t == nil {
		return nil
	}
	return map[string]interface{}{
		"kind":       string(t.Kind),
		"time":       t.Time.String(),
		"day_offset": t.DayOffset,
	}
}

func placeMap(p *domain.Place) map[string]interface{} {
	m := map[string]interface{}{
		"id":         p.ID,
		"name":       p.Name,
		"category":   p.Category,
		"address":    p.Address,
		"phone":      p.Phone,
		"website":    p.Website,
		"timezone":   p.Timezone,
		"hours_text": p.HoursText,
	}
	if p.HasLocation {
		m["location"] = map[string]interface{}{"lat": p.Location.Lat, "lon": p.Location.Lon}
	}
	if p.Rating != nil {
		m["rating"] = *p.Rating
	}

	days := make([]map[string]interface{}, 0, len(p.Hours))
	for _, d := range openhours.Normalize(p.Hours) {
		intervals := make([]map[string]interface{}, 0, len(d.Intervals))
		for _, iv := range d.Intervals {
			intervals = append(intervals, map[string]interface{}{"start": iv.Start.String(), "end": iv.End.String()})
		}
		days = append(days, map[string]interface{}{"weekday": d.Weekday, "closed": d.Closed, "intervals": intervals})
	}
	m["hours"] = days
	return m
}

func statusMap(s *domain.PlaceStatus) map[string]interface{} {
	m := map[string]interface{}{
		"place":           placeMap(s.Place),
		"is_open":         s.IsOpen,
		"next_transition": transitionMap(s.Next),
		"label":           s.Label,
		"closing_soon":    s.ClosingSoon,
		"distance_label":  s.DistanceLabel,
		"evaluated_at":    s.EvaluatedAt.Format(time.RFC3339),
	}
	if s.DistanceMeters != nil {
		m["distance_meters"] = *s.DistanceMeters
	}
	return m
}
