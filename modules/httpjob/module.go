// Package httpjob provides the 'http_check' job kind: a pure
// verification job that succeeds when an HTTP endpoint answers with the
// expected status code. Its run phase does nothing, so a failing
// endpoint only converges if something else in the graph fixes it.
package httpjob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"resty.dev/v3"

	"github.com/vk/dojobber/internal/ctxlog"
	"github.com/vk/dojobber/internal/job"
	"github.com/vk/dojobber/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the jobfile attributes for an 'http_check' job.
type Input struct {
	URL          string `hcl:"url"`
	Method       string `hcl:"method,optional"`
	ExpectStatus int    `hcl:"expect_status,optional"`
	Timeout      string `hcl:"timeout,optional"`
}

type httpCheckJob struct {
	client       *resty.Client
	url          string
	method       string
	expectStatus int
}

func (j *httpCheckJob) Check(ctx context.Context, _ *job.Context) (any, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Probing HTTP endpoint.", "method", j.method, "url", j.url)

	res, err := j.client.R().SetContext(ctx).Execute(j.method, j.url)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", j.url, err)
	}
	if res.StatusCode() != j.expectStatus {
		return nil, fmt.Errorf("%s returned status %d, want %d", j.url, res.StatusCode(), j.expectStatus)
	}
	return res.StatusCode(), nil
}

func (j *httpCheckJob) Run(_ context.Context, _ *job.Context) (any, error) {
	// Nothing to act on: the endpoint either answers or it does not.
	return nil, nil
}

func (j *httpCheckJob) Cleanup(_ context.Context) error {
	j.client.Close()
	return nil
}

func newHTTPCheckJob(in *Input) (job.Job, error) {
	if in.URL == "" {
		return nil, errors.New("http_check job requires a url")
	}
	method := in.Method
	if method == "" {
		method = http.MethodGet
	}
	expect := in.ExpectStatus
	if expect == 0 {
		expect = http.StatusOK
	}

	client := resty.New()
	if in.Timeout != "" {
		timeout, err := time.ParseDuration(in.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout: %w", err)
		}
		client.SetTimeout(timeout)
	}

	return &httpCheckJob{
		client:       client,
		url:          in.URL,
		method:       method,
		expectStatus: expect,
	}, nil
}

// Register registers the 'http_check' kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind("http_check", &registry.Kind{
		NewInput: func() any { return new(Input) },
		Make: func(input any) (job.Job, error) {
			return newHTTPCheckJob(input.(*Input))
		},
	})
}
