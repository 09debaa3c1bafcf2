package http

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/couchcryptid/flood-impact-service/internal/domain"
	"github.com/couchcryptid/flood-impact-service/internal/pipeline"
	"github.com/couchcryptid/flood-impact-service/internal/present"
	"github.com/go-playground/validator/v10"
)

// dashboardQuery mirrors the sidebar controls as query parameters.
type dashboardQuery struct {
	Scenario   string   `query:"scenario" validate:"omitempty,scenario"`
	Sectors    []string `query:"sector" validate:"max=100,dive,max=200"`
	Subsectors []string `query:"subsector" validate:"max=500,dive,max=200"`
	Statuses   []string `query:"status" validate:"max=50,dive,max=100"`
}

// Layer checkboxes accepted in the query string.
var visibilityParams = []string{
	present.LayerNeighborhoods,
	present.LayerBlocks,
	present.LayerStreets,
	present.LayerLots,
	present.LayerBusinesses,
}

type queryParser struct {
	validate *validator.Validate
}

func newQueryParser(hasScenario func(string) bool) *queryParser {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	//nolint:errcheck // tag name is static and non-empty
	v.RegisterValidation("scenario", func(fl validator.FieldLevel) bool {
		return hasScenario(fl.Field().String())
	})
	return &queryParser{validate: v}
}

// parse overlays the query string on defaults. It returns one message per
// invalid parameter.
func (p *queryParser) parse(q url.Values, defaults pipeline.Selection) (pipeline.Selection, []string) {
	sel := defaults
	sel.Visible = make(map[string]bool, len(visibilityParams))
	for k, v := range defaults.Visible {
		sel.Visible[k] = v
	}

	var errs []string
	for _, key := range visibilityParams {
		if !q.Has(key) {
			continue
		}
		b, err := strconv.ParseBool(q.Get(key))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s must be a boolean", key))
			continue
		}
		sel.Visible[key] = b
	}
	if q.Has("affected_only") {
		b, err := strconv.ParseBool(q.Get("affected_only"))
		if err != nil {
			errs = append(errs, "affected_only must be a boolean")
		}
		sel.AffectedOnly = b
	}

	dq := dashboardQuery{
		Scenario:   strings.TrimSpace(q.Get("scenario")),
		Sectors:    nonEmpty(q["sector"]),
		Subsectors: nonEmpty(q["subsector"]),
		Statuses:   nonEmpty(q["status"]),
	}
	if err := p.validate.Struct(dq); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				errs = append(errs, formatFieldError(fe))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return pipeline.Selection{}, errs
	}

	if dq.Scenario != "" {
		sel.Scenario = dq.Scenario
	}
	sel.Constraints = domain.Constraints{
		Sectors:    dq.Sectors,
		Subsectors: dq.Subsectors,
		Statuses:   dq.Statuses,
	}
	// "status=" with no value is an explicit empty choice.
	sel.StatusExplicit = q.Has("status")
	return sel, nil
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "scenario":
		return fmt.Sprintf("%s %q is not a known scenario", field, fe.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
