package arbeitsagentur

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	SearchPath = "/jobs"

	defaultPageSize = 25
)

type SearchParams struct {
	// baparam is the custom tag mapping fields onto the API's German
	// query parameter names. Please see buildParams below.
	Query    string `yaml:"query" baparam:"was"`
	Location string `yaml:"location" baparam:"wo"`
	RadiusKM int    `yaml:"radius_km" mapstructure:"radius_km" baparam:"umkreis"`
	Size     int    `yaml:"size" baparam:"size"`
	Page     int    `yaml:"page" baparam:"page"`
}

func (c *Client) search(params *SearchParams) (*Jobs, error) {
	if params.Size <= 0 {
		params.Size = defaultPageSize
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.RadiusKM > maxRadiusKM {
		params.RadiusKM = maxRadiusKM
	}

	var response struct {
		Stellenangebote []map[string]interface{} `json:"stellenangebote"`
	}
	if err := c.getJSON(c.APIURL+SearchPath, buildParams(params), &response); err != nil {
		return nil, fmt.Errorf("search jobs: %w", err)
	}

	var items []*Job
	cfg := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           &items,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(response.Stellenangebote); err != nil {
		return nil, fmt.Errorf("decode job items: %w", err)
	}

	for _, job := range items {
		if job.URL == "" {
			job.URL = PublicJobURL(job.Key(), params.Query, params.Location, params.RadiusKM)
		}
	}

	c.logger.Debug("got response from arbeitsagentur",
		zap.Int("jobs", len(items)),
		zap.String("query", params.Query),
		zap.String("location", params.Location),
	)

	return &Jobs{Items: items}, nil
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	fields := reflect.VisibleFields(reflect.TypeOf(*params))
	for _, field := range fields {
		// Our custom tag is using here.
		key := field.Tag.Get("baparam")
		if key == "" {
			// Failover to default tag if our tag do not exist.
			key = field.Tag.Get("yaml")
		}

		value := fmt.Sprintf("%v", reflect.ValueOf(params).Elem().FieldByIndex(field.Index).Interface())
		if value != "" && value != "0" {
			q.Set(key, value)
		}
	}

	return q
}

// PublicJobURL builds a stable link to the public job page. The search
// context parameters are optional and only aid reproducing the result in a
// browser.
func PublicJobURL(jobID, query, location string, radiusKM int) string {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return ""
	}

	q := url.Values{}
	q.Set("id", jobID)
	if query != "" {
		q.Set("angebotsart", "1")
		q.Set("was", query)
	}
	if location != "" {
		q.Set("wo", location)
	}
	if radiusKM > 0 {
		if radiusKM > maxRadiusKM {
			radiusKM = maxRadiusKM
		}
		q.Set("umkreis", strconv.Itoa(radiusKM))
	}

	return jobsucheURL + "?" + q.Encode()
}
