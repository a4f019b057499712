package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/abevier/tsk/ratelimiter"

	movies "github.com/Helioviewer-Project/go-movies"
	"github.com/Helioviewer-Project/go-movies/models"
)

const DefaultRateLimit = 10
const DefaultQueueDepthLimit = 100

var nullBody = []byte("null")

// Client talks to the Helioviewer JSON API ("action="-style requests against
// a single endpoint). Calls are funneled through a rate limiter so that a
// burst of status polls cannot flood the rendering backend.
type Client struct {
	url     string
	client  *http.Client
	limiter *ratelimiter.RateLimiter[url.Values, []byte]
	logger  models.Logger
}

var _ models.MovieApi = &Client{}

func NewClient(apiUrl string, logger models.Logger) *Client {
	rlOpts := ratelimiter.Opts{
		Limit:             DefaultRateLimit,
		Burst:             DefaultRateLimit,
		MaxQueueDepth:     DefaultQueueDepthLimit,
		FullQueueStrategy: ratelimiter.BlockWhenFull,
	}
	client := &Client{url: apiUrl, client: &http.Client{}, logger: logger}
	client.limiter = ratelimiter.New(rlOpts, func(ctx context.Context, params url.Values) ([]byte, error) {
		return client.do(ctx, params)
	})
	return client
}

func (c *Client) QueueMovie(ctx context.Context, request *models.MovieRequest, format string) (*models.ServerAck, error) {
	params := requestParams(request)
	params.Set("action", "queueMovie")
	params.Set("format", format)
	ack := new(models.ServerAck)
	if err := c.submit(ctx, params, ack); err != nil {
		return nil, err
	}
	return ack, nil
}

func (c *Client) ReQueueMovie(ctx context.Context, id string) (*models.ServerAck, error) {
	params := url.Values{}
	params.Set("action", "reQueueMovie")
	params.Set("id", id)
	params.Set("force", "true")
	ack := new(models.ServerAck)
	if err := c.submit(ctx, params, ack); err != nil {
		return nil, err
	}
	return ack, nil
}

func (c *Client) GetMovieStatus(ctx context.Context, id, format string, verbose bool, token string) (*models.MovieStatusResponse, error) {
	params := url.Values{}
	params.Set("action", "getMovieStatus")
	params.Set("id", id)
	params.Set("format", format)
	if verbose {
		params.Set("verbose", "true")
	}
	if len(token) > 0 {
		params.Set("token", token)
	}
	status := new(models.MovieStatusResponse)
	if err := c.submit(ctx, params, status); err != nil {
		return nil, err
	}
	return status, nil
}

func (c *Client) GetETAForMovie(ctx context.Context, request *models.MovieRequest) (*models.MovieETAResponse, error) {
	params := requestParams(request)
	params.Set("action", "getETAForMovie")
	eta := new(models.MovieETAResponse)
	if err := c.submit(ctx, params, eta); err != nil {
		return nil, err
	}
	return eta, nil
}

func (c *Client) GetMovie(ctx context.Context, id string) (*models.MoviePollResponse, error) {
	params := url.Values{}
	params.Set("action", "getMovie")
	params.Set("id", id)
	poll := new(models.MoviePollResponse)
	if err := c.submit(ctx, params, poll); err != nil {
		return nil, err
	}
	return poll, nil
}

func (c *Client) submit(ctx context.Context, params url.Values, response any) error {
	body, err := c.limiter.Submit(ctx, params)
	if err != nil {
		return err
	}
	body = bytes.TrimSpace(body)
	if (len(body) == 0) || bytes.Equal(body, nullBody) {
		return fmt.Errorf("api: %s returned an empty response", params.Get("action"))
	}
	return json.Unmarshal(body, response)
}

func (c *Client) do(ctx context.Context, params url.Values) ([]byte, error) {
	body, retryable, err := c.doOnce(ctx, params)
	if err != nil && retryable {
		// One-shot retry on transport failure only. An HTTP response, even a
		// bad one, is never retried from here.
		c.logger.Warnf("api: retrying %s after transport error: %v", params.Get("action"), err)
		body, _, err = c.doOnce(ctx, params)
	}
	return body, err
}

func (c *Client) doOnce(ctx context.Context, params url.Values) ([]byte, bool, error) {
	httpCtx, httpCancel := context.WithTimeout(ctx, movies.DefaultHttpWaitTime)
	defer httpCancel()

	req, err := http.NewRequestWithContext(httpCtx, "GET", c.url+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("api: %s returned http %d", params.Get("action"), resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	return body, false, err
}

func requestParams(request *models.MovieRequest) url.Values {
	params := url.Values{}
	params.Set("x1", formatFloat(request.Region.X1))
	params.Set("x2", formatFloat(request.Region.X2))
	params.Set("y1", formatFloat(request.Region.Y1))
	params.Set("y2", formatFloat(request.Region.Y2))
	params.Set("imageScale", formatFloat(request.ImageScale))
	params.Set("layers", request.Layers.String())
	if len(request.Events) > 0 {
		params.Set("events", request.Events)
		params.Set("eventsLabels", strconv.FormatBool(request.EventsLabels))
	}
	if request.Scale {
		params.Set("scale", "true")
		params.Set("scaleType", request.ScaleType)
		params.Set("scaleX", formatFloat(request.ScaleX))
		params.Set("scaleY", formatFloat(request.ScaleY))
	}
	params.Set("startTime", models.FormatUTCDate(request.StartTime))
	params.Set("endTime", models.FormatUTCDate(request.EndTime))
	// Exactly one of the two speed settings is forwarded
	if request.FrameRate != nil {
		params.Set("frameRate", strconv.Itoa(*request.FrameRate))
	} else if request.MovieLength != nil {
		params.Set("movieLength", strconv.Itoa(*request.MovieLength))
	}
	return params
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}
