// Package validation checks run requests before any API call is made.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ad-tracker/trendmeter/internal/models"
)

// Bounds of a run request.
const (
	MinDays       = 1
	MaxDays       = 90
	MinResults    = 1
	MaxResults    = 50
	MaxKeywords   = 50
	MaxKeywordLen = 200
)

var countryCodeRegex = regexp.MustCompile(`^[A-Za-z]{2}$`)

// Validator checks RunRequest values against the accepted bounds.
type Validator struct {
	maxKeywords int
}

// New returns a Validator accepting at most maxKeywords keywords per run.
// Values <= 0 use MaxKeywords.
func New(maxKeywords int) *Validator {
	if maxKeywords <= 0 {
		maxKeywords = MaxKeywords
	}
	return &Validator{maxKeywords: maxKeywords}
}

// ValidateRunRequest returns the first problem found in req, or nil.
func (v *Validator) ValidateRunRequest(req *models.RunRequest) error {
	if len(req.Keywords) == 0 {
		return fmt.Errorf("no keywords provided")
	}
	if len(req.Keywords) > v.maxKeywords {
		return fmt.Errorf("too many keywords: %d (max %d)", len(req.Keywords), v.maxKeywords)
	}
	for _, kw := range req.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("keywords must not be blank")
		}
		if len([]rune(kw)) > MaxKeywordLen {
			return fmt.Errorf("keyword exceeds %d characters: %.20s...", MaxKeywordLen, kw)
		}
	}

	if req.Days < MinDays || req.Days > MaxDays {
		return fmt.Errorf("days must be between %d and %d, got %d", MinDays, MaxDays, req.Days)
	}
	if req.MaxResults < MinResults || req.MaxResults > MaxResults {
		return fmt.Errorf("results per keyword must be between %d and %d, got %d", MinResults, MaxResults, req.MaxResults)
	}

	if err := ValidateCriteria(req.Criteria); err != nil {
		return err
	}

	if req.CountryCode != "" && !v.IsValidCountryCode(req.CountryCode) {
		return fmt.Errorf("invalid country code format: %s", req.CountryCode)
	}

	return nil
}

// ValidateCriteria rejects negative thresholds.
func ValidateCriteria(c models.FilterCriteria) error {
	switch {
	case c.MinViews < 0:
		return fmt.Errorf("min views must not be negative")
	case c.MinSubs < 0:
		return fmt.Errorf("min subscribers must not be negative")
	case c.MaxSubs < 0:
		return fmt.Errorf("max subscribers must not be negative")
	case c.MinChannelAgeMonths < 0:
		return fmt.Errorf("min channel age must not be negative")
	}
	return nil
}

// IsValidCountryCode reports whether code looks like an ISO 3166 alpha-2 code.
func (v *Validator) IsValidCountryCode(code string) bool {
	return countryCodeRegex.MatchString(code)
}
