package prospect

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule represents a single filtering rule in the scope system.
// It contains a compiled regular expression and the type of matching to perform.
type Rule struct {
	Pattern   *regexp.Regexp // Compiled regular expression pattern
	MatchType string         // Type of matching: "host" or "url"
}

// Scope represents the inclusion/exclusion rules and default behavior for
// filtering search results. It manages sets of rules and determines whether a
// candidate should be kept based on host or URL patterns.
type Scope struct {
	IncludeRules map[string]Rule // Map of inclusion rules, key format: "pattern|matchType"
	ExcludeRules map[string]Rule // Map of exclusion rules, key format: "pattern|matchType"
	DefaultAllow bool            // Default behavior for items not matching any rule
}

// NewScope creates a new Scope with the specified default behavior and empty
// rule sets.
func NewScope(defaultAllow bool) *Scope {
	return &Scope{
		IncludeRules: make(map[string]Rule),
		ExcludeRules: make(map[string]Rule),
		DefaultAllow: defaultAllow,
	}
}

// MatchesString determines if a given string is in scope based on matchType
func (s *Scope) MatchesString(input string, matchType string) bool {
	matchType = strings.ToLower(matchType)

	// Validate matchType
	if matchType != "host" && matchType != "url" {
		return s.DefaultAllow
	}

	target := strings.ToLower(input)

	// Check exclusion rules first
	for _, rule := range s.ExcludeRules {
		if rule.MatchType != matchType {
			continue
		}
		if rule.Pattern.MatchString(target) {
			return false // Denied by exclude rule
		}
	}

	// Check inclusion rules. Once any include rule exists for this match
	// type the scope narrows: only matching inputs stay in.
	hasIncludeRule := false
	for _, rule := range s.IncludeRules {
		if rule.MatchType != matchType {
			continue
		}
		hasIncludeRule = true
		if rule.Pattern.MatchString(target) {
			return true // Allowed by include rule
		}
	}
	if hasIncludeRule {
		return false
	}

	// Default behavior
	return s.DefaultAllow
}

// MatchesResult determines if a search candidate is in scope, checking the
// host and the full URL against their respective rule sets.
func (s *Scope) MatchesResult(host, url string) bool {
	return s.MatchesString(host, "host") && s.MatchesString(url, "url")
}

// ClearRules clears all inclusion and exclusion rules from the scope
func (s *Scope) ClearRules() {
	s.IncludeRules = make(map[string]Rule)
	s.ExcludeRules = make(map[string]Rule)
}

// AddRule adds a rule to the scope
func (s *Scope) AddRule(pattern, matchType string, exclude bool) error {
	matchType = strings.ToLower(matchType)
	if matchType != "host" && matchType != "url" {
		return fmt.Errorf("invalid match type: %s", matchType)
	}

	trimmedPattern := strings.TrimPrefix(pattern, "-")
	compiled, err := regexp.Compile(trimmedPattern)
	if err != nil {
		return fmt.Errorf("invalid regex pattern: %w", err)
	}
	rule := Rule{
		Pattern:   compiled,
		MatchType: matchType,
	}
	key := fmt.Sprintf("%s|%s", compiled.String(), matchType)

	if exclude {
		if _, exists := s.ExcludeRules[key]; exists {
			return fmt.Errorf("rule already exists in exclude list")
		}
		s.ExcludeRules[key] = rule
	} else {
		if _, exists := s.IncludeRules[key]; exists {
			return fmt.Errorf("rule already exists in include list")
		}
		s.IncludeRules[key] = rule
	}

	return nil
}

// RemoveRule removes a rule from the scope
func (s *Scope) RemoveRule(pattern, matchType string, exclude bool) error {
	matchType = strings.ToLower(matchType)
	key := fmt.Sprintf("%s|%s", strings.TrimPrefix(pattern, "-"), matchType)

	if exclude {
		if _, exists := s.ExcludeRules[key]; !exists {
			return fmt.Errorf("rule not found in exclude list")
		}
		delete(s.ExcludeRules, key)
	} else {
		if _, exists := s.IncludeRules[key]; !exists {
			return fmt.Errorf("rule not found in include list")
		}
		delete(s.IncludeRules, key)
	}

	return nil
}
