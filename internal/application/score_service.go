package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ddlabs/dd-mcp-service/internal/domain"
)

const dateLayout = "2006-01-02"

// ValidationError indicates the caller supplied an invalid parameter
// combination. It is raised before any upstream call is made and maps to a
// 422 at the HTTP boundary.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

// ScoreRequest selects exactly one of three request modes: a single date, a
// date plus a trailing number of days, or an inclusive start/end range.
// Days is a pointer so that "absent" and "zero" are distinguishable.
type ScoreRequest struct {
	Date      string
	StartDate string
	EndDate   string
	Days      *int
}

// ScoreFetchError is the per-date error entry stored in the result map when
// the upstream answers a non-2xx status for that date.
type ScoreFetchError struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
}

// ScoreService expands a date or date-range request into one upstream call
// per date, collecting per-date results or per-date errors without
// short-circuiting on individual HTTP failures.
type ScoreService struct {
	logger   domain.Logger
	identity *IdentityService
	upstream domain.UpstreamClient
}

// NewScoreService creates a new ScoreService.
func NewScoreService(logger domain.Logger, identity *IdentityService, upstream domain.UpstreamClient) *ScoreService {
	if logger == nil {
		panic("logger is nil in NewScoreService")
	}
	if identity == nil {
		panic("identity service is nil in NewScoreService")
	}
	if upstream == nil {
		panic("upstream client is nil in NewScoreService")
	}
	return &ScoreService{
		logger:   logger,
		identity: identity,
		upstream: upstream,
	}
}

// GetScores returns a map with exactly one entry per requested date. A
// non-2xx upstream response for one date degrades to a ScoreFetchError entry
// for that date only; transport-level failures propagate and abort the
// remaining dates. The fan-out is sequential so results map 1:1 onto the
// requested dates.
func (s *ScoreService) GetScores(ctx context.Context, creds domain.Credentials, req ScoreRequest) (map[string]any, error) {
	dates, err := ExpandDates(req)
	if err != nil {
		return nil, err
	}

	userID, err := s.identity.ResolveUserID(ctx, creds)
	if err != nil {
		return nil, err
	}

	results := make(map[string]any, len(dates))
	for _, date := range dates {
		payload, err := s.upstream.GetScore(ctx, creds, userID, date)
		if err != nil {
			var statusErr *domain.UpstreamStatusError
			if errors.As(err, &statusErr) {
				s.logger.Warn(ctx, "Score fetch degraded for date",
					"date", date, "status_code", statusErr.StatusCode)
				results[date] = ScoreFetchError{
					Error:      fmt.Sprintf("Failed to fetch score for %s", date),
					StatusCode: statusErr.StatusCode,
				}
				continue
			}
			// Transport failures are not caught; they abort the whole request.
			return nil, err
		}
		results[date] = payload
	}
	return results, nil
}

// ExpandDates validates the request mode and computes the inclusive,
// chronologically ascending list of calendar dates it covers. Exactly one of
// {date}, {date, days}, {start_date, end_date} must be selected; every other
// combination fails with a ValidationError before any network call.
func ExpandDates(req ScoreRequest) ([]string, error) {
	if req.Date == "" && !(req.StartDate != "" && req.EndDate != "") {
		return nil, &ValidationError{Detail: "You must provide either 'date' or both 'start_date' and 'end_date'."}
	}
	if req.Date != "" && (req.StartDate != "" || req.EndDate != "") {
		return nil, &ValidationError{Detail: "Provide either 'date' or ('start_date' and 'end_date'), not both."}
	}
	if (req.StartDate != "" && req.EndDate == "") || (req.EndDate != "" && req.StartDate == "") {
		return nil, &ValidationError{Detail: "Both 'start_date' and 'end_date' must be provided together."}
	}
	if req.Days != nil && req.Date == "" {
		return nil, &ValidationError{Detail: "'days' can only be used with 'date'."}
	}

	switch {
	case req.Date != "" && req.Days != nil:
		if *req.Days < 1 {
			return nil, &ValidationError{Detail: "'days' must be a positive integer."}
		}
		end, err := parseDate(req.Date)
		if err != nil {
			return nil, err
		}
		start := end.AddDate(0, 0, -(*req.Days - 1))
		return dateRange(start, end), nil

	case req.StartDate != "":
		start, err := parseDate(req.StartDate)
		if err != nil {
			return nil, err
		}
		end, err := parseDate(req.EndDate)
		if err != nil {
			return nil, err
		}
		if start.After(end) {
			return nil, &ValidationError{Detail: "'start_date' must not be after 'end_date'."}
		}
		return dateRange(start, end), nil

	default:
		if _, err := parseDate(req.Date); err != nil {
			return nil, err
		}
		return []string{req.Date}, nil
	}
}

func parseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &ValidationError{Detail: fmt.Sprintf("'%s' is not a valid YYYY-MM-DD date.", value)}
	}
	return parsed, nil
}

// dateRange yields every calendar day from start through end inclusive.
func dateRange(start, end time.Time) []string {
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(dateLayout))
	}
	return dates
}
