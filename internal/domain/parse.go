package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// legisNumPattern matches free-text legislative numbers such as
// "H R 153", "S 5", "H RES 24", "S J RES 1", "H CON RES 5", with or
// without internal spaces.
var legisNumPattern = regexp.MustCompile(`^(H|S)\s*(J\s*|CON\s*)?(R(?:ES)?|)\s*(\d+)$`)

// proceduralTerms mark roll calls with no associated legislation
var proceduralTerms = []string{"QUORUM", "JOURNAL", "MOTION", "ADJOURN"}

// ParseLegisNum extracts a bill reference from a free-text legislative
// number. Procedural strings (quorum calls, journal approvals) and
// unparseable values yield no reference.
func ParseLegisNum(legisNum string, congress int) (*BillRef, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(legisNum))
	if normalized == "" {
		return nil, false
	}

	for _, term := range proceduralTerms {
		if strings.Contains(normalized, term) {
			return nil, false
		}
	}

	match := legisNumPattern.FindStringSubmatch(normalized)
	if match == nil {
		return nil, false
	}

	chamber, modifier, resType, num := match[1], match[2], match[3], match[4]
	billType := strings.ToLower(chamber)
	switch {
	case strings.Contains(modifier, "J"):
		billType += "jres"
	case strings.Contains(modifier, "CON"):
		billType += "conres"
	case resType == "RES":
		billType += "res"
	case resType == "R":
		// "H R" is a House bill. A bare "S" is a Senate bill.
		billType += "r"
	}

	number, err := strconv.Atoi(num)
	if err != nil {
		return nil, false
	}

	return &BillRef{Congress: congress, Type: billType, Number: number}, true
}

// NormalizeVotePosition maps the spellings used by the chamber archives
// onto the canonical four-value enum. Values that are neither a
// recognized word nor blank (a candidate name on a Speaker-election
// roll call) pass through verbatim.
func NormalizeVotePosition(raw string) VotePosition {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yea", "aye", "yes":
		return PositionYea
	case "nay", "no":
		return PositionNay
	case "present":
		return PositionPresent
	case "not voting", "not-voting", "absent", "abstain", "":
		return PositionNotVoting
	}
	return VotePosition(strings.TrimSpace(raw))
}

// voteDateLayouts covers the formats observed across the two chamber
// archives: ISO, House Clerk "13-Jul-2023", Senate "January 3, 2025".
var voteDateLayouts = []string{
	"2006-01-02",
	"2-Jan-2006",
	"January 2, 2006, 3:04 PM",
	"January 2, 2006",
	"January 2 2006",
}

// ParseVoteDate parses a vote date in any of the archive formats. The
// boolean reports whether parsing succeeded; on failure the supplied
// fallback (today) is returned so one bad date never fails the record.
func ParseVoteDate(raw string, fallback time.Time) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fallback, false
	}

	// ISO datetimes carry a time suffix the layouts above do not expect
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
	}

	for _, layout := range voteDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return fallback, false
}

// NormalizeDistrict maps the various at-large encodings onto "AL".
// Non-at-large district numbers are returned unchanged.
func NormalizeDistrict(raw string) string {
	d := strings.TrimSpace(raw)
	if d == "" || d == "0" || d == "00" || d == "98" {
		return "AL"
	}
	return d
}

// NormalizeStateCode resolves a state given either as a 2-letter postal
// code or a full name. Anything else is an error: member records with
// an unresolvable state are rejected rather than stored inconsistently.
func NormalizeStateCode(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty state", ErrInvalidStateCode)
	}

	if len(s) == 2 {
		code := strings.ToUpper(s)
		if _, ok := stateNames[code]; ok {
			return code, nil
		}
		return "", fmt.Errorf("%w: %q", ErrInvalidStateCode, raw)
	}

	if code, ok := stateNameToCode[s]; ok {
		return code, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidStateCode, raw)
}

// NormalizeParty maps free-text party names onto the three-value enum.
// Caucusing independents and minor parties all fold into Independent.
func NormalizeParty(raw string) Party {
	switch {
	case strings.Contains(raw, "Republican"):
		return PartyRepublican
	case strings.Contains(raw, "Democrat"):
		return PartyDemocrat
	default:
		return PartyIndependent
	}
}

// billTypeSlugs maps bill type codes to the path segments used by
// congress.gov bill pages.
var billTypeSlugs = map[string]string{
	"hr":      "house-bill",
	"s":       "senate-bill",
	"hres":    "house-resolution",
	"sres":    "senate-resolution",
	"hjres":   "house-joint-resolution",
	"sjres":   "senate-joint-resolution",
	"hconres": "house-concurrent-resolution",
	"sconres": "senate-concurrent-resolution",
}

// FullTextURL derives the congress.gov text page for a bill. The URL is
// constructed, never fetched, so an unknown bill type yields "".
func FullTextURL(ref BillRef) string {
	slug, ok := billTypeSlugs[ref.Type]
	if !ok {
		return ""
	}
	return fmt.Sprintf("https://www.congress.gov/bill/%s/%s/%d/text", congressOrdinal(ref.Congress), slug, ref.Number)
}

func congressOrdinal(congress int) string {
	suffix := "th"
	switch congress % 10 {
	case 1:
		if congress%100 != 11 {
			suffix = "st"
		}
	case 2:
		if congress%100 != 12 {
			suffix = "nd"
		}
	case 3:
		if congress%100 != 13 {
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s-congress", congress, suffix)
}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes markup from bill summary text, which the upstream
// API returns as HTML fragments.
func StripHTML(s string) string {
	stripped := htmlTagPattern.ReplaceAllString(s, "")
	stripped = strings.ReplaceAll(stripped, "&nbsp;", " ")
	stripped = strings.ReplaceAll(stripped, "&amp;", "&")
	stripped = strings.ReplaceAll(stripped, "&lt;", "<")
	stripped = strings.ReplaceAll(stripped, "&gt;", ">")
	stripped = strings.ReplaceAll(stripped, "&quot;", `"`)
	stripped = strings.ReplaceAll(stripped, "&#39;", "'")
	return strings.TrimSpace(stripped)
}
