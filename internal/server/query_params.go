package server

import (
	"strings"
	"time"

	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
)

// parseOptionalDate reads a calendar date in the property timezone.
func (s *Server) parseOptionalDate(value string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(bookingdomain.DateLayout, trimmed, s.cfg.Location())
	if err != nil {
		return nil, err
	}
	date := bookingdomain.DateOf(parsed)
	return &date, nil
}
