package arbeitsagentur

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL      = "https://rest.arbeitsagentur.de/jobboerse/jobsuche-service/pc/v4"
	jobsucheURL = "https://www.arbeitsagentur.de/jobsuche/suche"
	// Public key of the jobsuche API, no registration needed.
	apiKey    = "jobboerse-jobsuche"
	userAgent = "career-agent/1.0"

	// The API rejects larger search radii.
	maxRadiusKM = 200
)

type Client struct {
	// ctx used only for http requests right now
	ctx        context.Context
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	APIKey     string
}

func New(ctx context.Context, logger *zap.Logger) *Client {
	return &Client{
		ctx:    ctx,
		APIURL: apiURL,
		APIKey: apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

func (c *Client) Search(params *SearchParams) (*Jobs, error) {
	return c.search(params)
}

func (c *Client) GetDetails(ref string) (*Details, error) {
	return c.getDetails(ref)
}
