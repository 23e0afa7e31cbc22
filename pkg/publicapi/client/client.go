package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/maps"

	"github.com/bacalhau-project/cryri/pkg/config/types"
	"github.com/bacalhau-project/cryri/pkg/cryerrors"
	"github.com/bacalhau-project/cryri/pkg/lib/marshaller"
	"github.com/bacalhau-project/cryri/pkg/models"
	"github.com/bacalhau-project/cryri/pkg/publicapi/apimodels"
	"github.com/bacalhau-project/cryri/pkg/util/closer"
)

const (
	RequestIDHeader = "X-Request-ID"

	defaultTimeout      = 5 * time.Minute
	defaultRetryWaitMin = 500 * time.Millisecond
	defaultRetryWaitMax = 5 * time.Second
)

// Gateway is the control plane as seen by the CLI. Every call names its
// region explicitly.
type Gateway interface {
	Submit(ctx context.Context, job *models.JobRequest) (string, error)
	List(ctx context.Context, region string) ([]models.JobSummary, error)
	// Logs returns the raw log stream of a job. The caller closes it.
	Logs(ctx context.Context, region string, jobID string) (io.ReadCloser, error)
	Kill(ctx context.Context, region string, jobID string) error
	InstanceTypes(ctx context.Context, region string) ([]models.InstanceType, error)
}

// APIError is returned by read-only calls that the control plane rejects.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("control plane returned HTTP %d: %s", e.StatusCode, e.Message)
}

type Config struct {
	Timeout      time.Duration
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Token        string
	Headers      map[string]string
}

type OptionFn func(*Config)

func WithTimeout(timeout time.Duration) OptionFn {
	return func(c *Config) { c.Timeout = timeout }
}

// WithRetries sets how many times List, Logs and InstanceTypes are retried on
// connection errors and 5xx responses. Submit and Kill are never retried.
func WithRetries(retries int) OptionFn {
	return func(c *Config) { c.Retries = retries }
}

func WithRetryWait(minWait, maxWait time.Duration) OptionFn {
	return func(c *Config) {
		c.RetryWaitMin = minWait
		c.RetryWaitMax = maxWait
	}
}

func WithToken(token string) OptionFn {
	return func(c *Config) { c.Token = token }
}

func WithHeader(key, value string) OptionFn {
	return func(c *Config) { c.Headers[key] = value }
}

// WithSettings applies the api section of the tool settings.
func WithSettings(settings types.APIConfig) OptionFn {
	return func(c *Config) {
		if settings.Timeout > 0 {
			c.Timeout = settings.Timeout
		}
		c.Retries = settings.Retries
		c.Token = settings.Token
	}
}

// APIClient talks JSON over HTTP to the control plane under /api/v1.
type APIClient struct {
	BaseURI        *url.URL
	DefaultHeaders map[string]string

	client      *http.Client
	retryClient *retryablehttp.Client
}

func NewAPIClient(endpoint string, optFns ...OptionFn) (*APIClient, error) {
	cfg := Config{
		Timeout:      defaultTimeout,
		RetryWaitMin: defaultRetryWaitMin,
		RetryWaitMax: defaultRetryWaitMax,
		Headers:      map[string]string{},
	}
	for _, fn := range optFns {
		fn(&cfg)
	}

	baseURI, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid api endpoint %q", endpoint)
	}
	if baseURI.Scheme == "" || baseURI.Host == "" {
		return nil, errors.Errorf("invalid api endpoint %q: expected scheme://host[:port]", endpoint)
	}

	headers := maps.Clone(cfg.Headers)
	if cfg.Token != "" {
		headers["Authorization"] = "Bearer " + cfg.Token
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: otelhttp.NewTransport(nil,
			otelhttp.WithSpanOptions(
				trace.WithAttributes(
					attribute.String("cryri.endpoint", baseURI.Host),
				),
			),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return fmt.Sprintf("cryri %s %s", r.Method, r.URL.Path)
			}),
		),
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = retryLogger{}
	// hand the final response back so the remote error text can be surfaced
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &APIClient{
		BaseURI:        baseURI,
		DefaultHeaders: headers,
		client:         httpClient,
		retryClient:    retryClient,
	}, nil
}

func (c *APIClient) Submit(ctx context.Context, job *models.JobRequest) (string, error) {
	if job == nil {
		return "", errors.New("cannot submit a nil job")
	}
	body, err := json.Marshal(job)
	if err != nil {
		return "", errors.Wrap(err, "encoding job request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("regions", job.Region, "jobs"), bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "creating submit request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.do(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "submitting job")
	}
	defer closer.CloseWithLogOnError(ctx, "submit response", res.Body)

	data, err := readBody(res)
	if err != nil {
		return "", err
	}
	if !isSuccess(res.StatusCode) {
		return "", cryerrors.NewSubmissionError(res.StatusCode, remoteMessage(res.StatusCode, data))
	}

	var resp apimodels.SubmitJobResponse
	if err = marshaller.JSONUnmarshalWithMax(data, &resp); err != nil {
		return "", errors.Wrap(err, "decoding submit response")
	}
	if resp.ID == "" {
		return "", cryerrors.NewSubmissionError(res.StatusCode, "control plane accepted the job but returned no job id")
	}
	return resp.ID, nil
}

func (c *APIClient) List(ctx context.Context, region string) ([]models.JobSummary, error) {
	var resp apimodels.ListJobsResponse
	if err := c.getJSON(ctx, &resp, "regions", region, "jobs"); err != nil {
		return nil, errors.Wrapf(err, "listing jobs in region %s", region)
	}
	return resp.Jobs, nil
}

func (c *APIClient) InstanceTypes(ctx context.Context, region string) ([]models.InstanceType, error) {
	var resp apimodels.ListInstanceTypesResponse
	if err := c.getJSON(ctx, &resp, "regions", region, "instance-types"); err != nil {
		return nil, errors.Wrapf(err, "listing instance types in region %s", region)
	}
	return resp.InstanceTypes, nil
}

func (c *APIClient) Logs(ctx context.Context, region string, jobID string) (io.ReadCloser, error) {
	res, err := c.get(ctx, "regions", region, "jobs", jobID, "logs")
	if err != nil {
		return nil, errors.Wrapf(err, "fetching logs of job %s", jobID)
	}
	if !isSuccess(res.StatusCode) {
		defer closer.CloseWithLogOnError(ctx, "logs response", res.Body)
		data, readErr := readBody(res)
		if readErr != nil {
			return nil, readErr
		}
		return nil, errors.Wrapf(&APIError{StatusCode: res.StatusCode, Message: remoteMessage(res.StatusCode, data)},
			"fetching logs of job %s", jobID)
	}
	return res.Body, nil
}

func (c *APIClient) Kill(ctx context.Context, region string, jobID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint("regions", region, "jobs", jobID), nil)
	if err != nil {
		return errors.Wrap(err, "creating kill request")
	}
	res, err := c.do(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "killing job %s", jobID)
	}
	defer closer.CloseWithLogOnError(ctx, "kill response", res.Body)

	data, err := readBody(res)
	if err != nil {
		return err
	}
	if !isSuccess(res.StatusCode) {
		return cryerrors.NewKillError(jobID, res.StatusCode, remoteMessage(res.StatusCode, data))
	}
	return nil
}

func (c *APIClient) getJSON(ctx context.Context, out interface{}, segments ...string) error {
	res, err := c.get(ctx, segments...)
	if err != nil {
		return err
	}
	defer closer.CloseWithLogOnError(ctx, "response body", res.Body)

	data, err := readBody(res)
	if err != nil {
		return err
	}
	if !isSuccess(res.StatusCode) {
		return &APIError{StatusCode: res.StatusCode, Message: remoteMessage(res.StatusCode, data)}
	}
	return errors.Wrap(marshaller.JSONUnmarshalWithMax(data, out), "decoding response")
}

// get issues a read-only request through the retrying client.
func (c *APIClient) get(ctx context.Context, segments ...string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(segments...), nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	c.setHeaders(req.Header)
	log.Ctx(ctx).Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("request_id", req.Header.Get(RequestIDHeader)).
		Msg("calling control plane")
	return c.retryClient.Do(req)
}

func (c *APIClient) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	c.setHeaders(req.Header)
	log.Ctx(ctx).Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("request_id", req.Header.Get(RequestIDHeader)).
		Msg("calling control plane")
	return c.client.Do(req)
}

func (c *APIClient) setHeaders(h http.Header) {
	for header, value := range c.DefaultHeaders {
		h.Set(header, value)
	}
	h.Set("Accept", "application/json")
	h.Set(RequestIDHeader, uuid.NewString())
}

// endpoint builds /api/v1/<segments...> below the base URI. Segments are path
// escaped, so IDs and regions cannot add path elements.
func (c *APIClient) endpoint(segments ...string) string {
	escaped := lo.Map(segments, func(s string, _ int) string {
		return url.PathEscape(s)
	})
	return c.BaseURI.JoinPath(append([]string{"api", "v1"}, escaped...)...).String()
}

func readBody(res *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(res.Body, int64(marshaller.MaxSerializedInput)+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}
	return data, nil
}

func remoteMessage(statusCode int, body []byte) string {
	var decoded apimodels.ErrorResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return apimodels.RemoteMessage(statusCode, body, nil)
	}
	return apimodels.RemoteMessage(statusCode, body, &decoded)
}

func isSuccess(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}

var _ Gateway = (*APIClient)(nil)
