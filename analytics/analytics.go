// Package analytics validates analytics queries before they are relayed to the gateway
package analytics

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jrsteele09/social-connect/gateway"
	"github.com/jrsteele09/social-connect/internal/validation"
)

// MaxPostIDs is the largest id list the gateway accepts in one request
const MaxPostIDs = 100

const dateLayout = "2006-01-02"

var numericID = regexp.MustCompile(`^\d+$`)

// DateRange is the optional start_date/end_date pair. Both are inclusive YYYY-MM-DD.
type DateRange struct {
	StartDate string `query:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `query:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// Validate checks both formats and that start is not after end
func (r DateRange) Validate() error {
	if err := validation.Get().ValidateStruct(r); err != nil {
		return gateway.NewValidationError(validation.FirstMessage(err, "start_date", "end_date"))
	}
	if r.StartDate == "" || r.EndDate == "" {
		return nil
	}
	start, _ := time.Parse(dateLayout, r.StartDate)
	end, _ := time.Parse(dateLayout, r.EndDate)
	if start.After(end) {
		return gateway.NewValidationError("start_date cannot be after end_date")
	}
	return nil
}

// ParsePostIDs splits a comma separated id list, dropping blanks. Tweet ids
// (numeric) must be all digits.
func ParsePostIDs(raw string, numeric bool) ([]string, error) {
	noun := "post"
	if numeric {
		noun = "tweet"
	}

	if strings.TrimSpace(raw) == "" {
		return nil, gateway.NewValidationError(fmt.Sprintf("%s IDs parameter is required", titleNoun(noun)))
	}

	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return nil, gateway.NewValidationError(fmt.Sprintf("At least one valid %s ID is required", noun))
	}
	if len(ids) > MaxPostIDs {
		return nil, gateway.NewValidationError(fmt.Sprintf("Maximum %d %s IDs allowed per request", MaxPostIDs, noun))
	}

	if numeric {
		var invalid []string
		for _, id := range ids {
			if !numericID.MatchString(id) {
				invalid = append(invalid, id)
			}
		}
		if len(invalid) > 0 {
			return nil, gateway.NewValidationError(fmt.Sprintf("Invalid tweet ID format: %s. Tweet IDs must be numeric.", strings.Join(invalid, ", ")))
		}
	}
	return ids, nil
}

// NewQuery validates the date range and, when idsRaw is non-nil, the id list
func NewQuery(start, end string, idsRaw *string, numeric bool) (gateway.AnalyticsQuery, error) {
	dates := DateRange{StartDate: start, EndDate: end}
	if err := dates.Validate(); err != nil {
		return gateway.AnalyticsQuery{}, err
	}
	query := gateway.AnalyticsQuery{StartDate: start, EndDate: end}
	if idsRaw != nil {
		ids, err := ParsePostIDs(*idsRaw, numeric)
		if err != nil {
			return gateway.AnalyticsQuery{}, err
		}
		query.PostIDs = ids
	}
	return query, nil
}

func titleNoun(noun string) string {
	return strings.ToUpper(noun[:1]) + noun[1:]
}
