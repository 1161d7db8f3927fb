package arbeitsagentur

import (
	"fmt"
	"net/url"
	"strings"
)

const DetailsPath = "/jobdetails"

// Details is the enriched record behind a single job posting.
type Details struct {
	Key          string
	RefNr        string
	Titel        string
	Arbeitgeber  string
	Beschreibung string
	URL          string
}

// getDetails fetches the description of one posting. The detail payload is
// looser than the search response (nested or flat description, employer as
// string or object), so it is normalized field by field.
func (c *Client) getDetails(ref string) (*Details, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("job reference is required")
	}

	var raw map[string]interface{}
	if err := c.getJSON(c.APIURL+DetailsPath+"/"+url.PathEscape(ref), nil, &raw); err != nil {
		return nil, fmt.Errorf("job details for %q: %w", ref, err)
	}

	key := ref
	for _, field := range []string{"hashId", "id", "kennnummer", "refnr"} {
		if v := stringField(raw, field); v != "" {
			key = v
			break
		}
	}

	details := &Details{
		Key:          key,
		RefNr:        stringField(raw, "refnr"),
		Titel:        stringField(raw, "titel"),
		Arbeitgeber:  employerFrom(raw),
		Beschreibung: descriptionFrom(raw),
		URL:          stringField(raw, "externeUrl"),
	}
	if details.RefNr == "" {
		details.RefNr = ref
	}
	if details.URL == "" {
		details.URL = PublicJobURL(key, "", "", 0)
	}

	return details, nil
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func employerFrom(raw map[string]interface{}) string {
	switch v := raw["arbeitgeber"].(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]interface{}:
		return stringField(v, "name")
	}
	return ""
}

func descriptionFrom(raw map[string]interface{}) string {
	if nested, ok := raw["stellenbeschreibung"].(map[string]interface{}); ok {
		if s := stringField(nested, "beschreibung"); s != "" {
			return s
		}
	}
	if s := stringField(raw, "stellenbeschreibung"); s != "" {
		return s
	}
	return stringField(raw, "beschreibung")
}
