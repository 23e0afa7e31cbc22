//go:build unit || !integration

package client

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/bacalhau-project/cryri/pkg/config/types"
	"github.com/bacalhau-project/cryri/pkg/cryerrors"
	"github.com/bacalhau-project/cryri/pkg/logger"
	"github.com/bacalhau-project/cryri/pkg/models"
	"github.com/bacalhau-project/cryri/pkg/publicapi/fake"
)

type ClientSuite struct {
	suite.Suite
	ctx    context.Context
	server *fake.ControlPlane
	client *APIClient
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
	s.ctx = context.Background()
	s.server = fake.NewControlPlane()
	s.T().Cleanup(s.server.Close)
	s.client = s.newClient()
}

func (s *ClientSuite) newClient(optFns ...OptionFn) *APIClient {
	optFns = append([]OptionFn{WithToken("secret"), WithRetryWait(time.Millisecond, 5*time.Millisecond)}, optFns...)
	c, err := NewAPIClient(s.server.URL, optFns...)
	s.Require().NoError(err)
	return c
}

func (s *ClientSuite) job() *models.JobRequest {
	return &models.JobRequest{
		Image:    "cr.x/job-custom-image-demo",
		Command:  "python a.py",
		Script:   `bash -c "cd '/w' && python a.py"`,
		Region:   "SR006",
		NWorkers: 1,
		Priority: models.PriorityMedium,
		Type:     models.JobTypeBinary,
	}
}

func (s *ClientSuite) TestSubmit() {
	id, err := s.client.Submit(s.ctx, s.job())
	s.Require().NoError(err)
	s.NotEmpty(id)

	requests := s.server.Requests()
	s.Require().Len(requests, 1)
	s.Equal(http.MethodPost, requests[0].Method)
	s.Equal("/api/v1/regions/SR006/jobs", requests[0].Path)
	s.Equal("Bearer secret", requests[0].Header.Get("Authorization"))
	_, err = uuid.Parse(requests[0].Header.Get(RequestIDHeader))
	s.NoError(err)
	s.Equal(s.job(), requests[0].Submitted)

	s.Len(s.server.Jobs("SR006"), 1)
}

func (s *ClientSuite) TestSubmitSurfacesRemoteErrorVerbatim() {
	for _, tc := range []struct {
		name     string
		body     string
		expected string
	}{
		{name: "json", body: `{"message": "image cr.x/nope not found in registry"}`, expected: "image cr.x/nope not found in registry"},
		{name: "text", body: "quota exceeded for team nlp\n", expected: "quota exceeded for team nlp"},
	} {
		s.Run(tc.name, func() {
			s.server.Fail(http.MethodPost, "/jobs", fake.Failure{Status: http.StatusUnprocessableEntity, Body: tc.body, Remaining: 1})

			_, err := s.client.Submit(s.ctx, s.job())
			var submissionErr cryerrors.SubmissionError
			s.Require().ErrorAs(err, &submissionErr)
			s.Equal(http.StatusUnprocessableEntity, submissionErr.StatusCode)
			s.Equal(tc.expected, submissionErr.Message)
		})
	}
}

func (s *ClientSuite) TestSubmitIsNeverRetried() {
	s.server.Fail(http.MethodPost, "/jobs", fake.Failure{Status: http.StatusServiceUnavailable, Body: "busy", Remaining: 1})
	c := s.newClient(WithRetries(3))

	_, err := c.Submit(s.ctx, s.job())
	s.ErrorAs(err, new(cryerrors.SubmissionError))
	s.Len(s.server.Requests(), 1)
}

func (s *ClientSuite) TestSubmitWithoutID() {
	s.server.Fail(http.MethodPost, "/jobs", fake.Failure{Status: http.StatusOK, Body: `{}`, Remaining: 1})
	_, err := s.client.Submit(s.ctx, s.job())
	s.ErrorAs(err, new(cryerrors.SubmissionError))
}

func (s *ClientSuite) TestList() {
	s.server.AddJob(models.JobSummary{ID: "abc123", State: "Running", Region: "SR006"})
	s.server.AddJob(models.JobSummary{ID: "def456", State: "Pending", Region: "SR004"})

	jobs, err := s.client.List(s.ctx, "SR006")
	s.Require().NoError(err)
	s.Require().Len(jobs, 1)
	s.Equal("abc123", jobs[0].ID)
	s.Equal("Running", jobs[0].State)

	jobs, err = s.client.List(s.ctx, "SR008")
	s.Require().NoError(err)
	s.Empty(jobs)
}

func (s *ClientSuite) TestReadsAreRetriedWhenConfigured() {
	s.server.Fail(http.MethodGet, "/jobs", fake.Failure{Status: http.StatusBadGateway, Body: "upstream", Remaining: 2})
	s.server.AddJob(models.JobSummary{ID: "abc123", Region: "SR006"})

	jobs, err := s.newClient(WithRetries(2)).List(s.ctx, "SR006")
	s.Require().NoError(err)
	s.Len(jobs, 1)
	s.Len(s.server.Requests(), 3)
}

func (s *ClientSuite) TestReadsAreNotRetriedByDefault() {
	s.server.Fail(http.MethodGet, "/jobs", fake.Failure{Status: http.StatusBadGateway, Body: "upstream", Remaining: 1})

	_, err := s.client.List(s.ctx, "SR006")
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusBadGateway, apiErr.StatusCode)
	s.Equal("upstream", apiErr.Message)
	s.Len(s.server.Requests(), 1)
}

func (s *ClientSuite) TestInstanceTypes() {
	s.server.AddInstanceType("SR006", models.InstanceType{Name: "a100.1gpu", GPU: 1, CPU: 16, Memory: "243G"})

	instanceTypes, err := s.client.InstanceTypes(s.ctx, "SR006")
	s.Require().NoError(err)
	s.Equal([]models.InstanceType{{Name: "a100.1gpu", GPU: 1, CPU: 16, Memory: "243G"}}, instanceTypes)
	s.Equal("/api/v1/regions/SR006/instance-types", s.server.Requests()[0].Path)
}

func (s *ClientSuite) TestLogs() {
	s.server.SetLogs("abc123", "epoch 1\nepoch 2\n")

	body, err := s.client.Logs(s.ctx, "SR006", "abc123")
	s.Require().NoError(err)
	defer body.Close()
	data, err := io.ReadAll(body)
	s.Require().NoError(err)
	s.Equal("epoch 1\nepoch 2\n", string(data))

	_, err = s.client.Logs(s.ctx, "SR006", "missing")
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusNotFound, apiErr.StatusCode)
	s.Equal("job missing not found", apiErr.Message)
}

func (s *ClientSuite) TestKill() {
	s.server.AddJob(models.JobSummary{ID: "abc123", State: "Running", Region: "SR006"})
	s.server.AddJob(models.JobSummary{ID: "abc456", State: "Completed", Region: "SR006"})

	s.Require().NoError(s.client.Kill(s.ctx, "SR006", "abc123"))
	s.Equal("Killed", s.server.Jobs("SR006")[0].State)

	err := s.client.Kill(s.ctx, "SR006", "abc456")
	var killErr cryerrors.KillError
	s.Require().ErrorAs(err, &killErr)
	s.Equal("abc456", killErr.JobID)
	s.Equal(http.StatusConflict, killErr.StatusCode)
	s.Equal("job abc456 is already completed", killErr.Message)
}

func (s *ClientSuite) TestPathSegmentsAreEscaped() {
	_, err := s.client.Logs(s.ctx, "SR006", "a/b")
	s.Error(err)
	s.Equal("/api/v1/regions/SR006/jobs/a/b/logs", s.server.Requests()[0].Path)
}

func (s *ClientSuite) TestTransportErrors() {
	c := s.newClient()
	s.server.Close()

	_, err := c.Submit(s.ctx, s.job())
	s.Require().Error(err)
	s.NotErrorIs(err, context.Canceled)
	s.ErrorContains(err, "submitting job")
}

func (s *ClientSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.client.List(ctx, "SR006")
	s.ErrorIs(err, context.Canceled)
}

func (s *ClientSuite) TestSettings() {
	c, err := NewAPIClient(s.server.URL, WithSettings(types.APIConfig{Token: "t", Timeout: time.Second, Retries: 4}))
	s.Require().NoError(err)
	s.Equal("Bearer t", c.DefaultHeaders["Authorization"])
	s.Equal(time.Second, c.client.Timeout)
	s.Equal(4, c.retryClient.RetryMax)

	c, err = NewAPIClient(s.server.URL, WithHeader("X-Team", "nlp"))
	s.Require().NoError(err)
	s.NotContains(c.DefaultHeaders, "Authorization")
	s.Equal("nlp", c.DefaultHeaders["X-Team"])
}

func (s *ClientSuite) TestInvalidEndpoint() {
	for _, endpoint := range []string{"", "localhost:8080", "://bad"} {
		_, err := NewAPIClient(endpoint)
		s.Error(err, endpoint)
	}
}
