// Package fake provides an in-process control plane for tests.
package fake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/bacalhau-project/cryri/pkg/models"
	"github.com/bacalhau-project/cryri/pkg/publicapi/apimodels"
)

// Failure makes the control plane answer matching requests with an error.
// Remaining counts down; a negative value fails forever.
type Failure struct {
	Status    int
	Body      string
	Remaining int
}

// Request is what the control plane saw of one call.
type Request struct {
	Method    string
	Path      string
	Header    http.Header
	Submitted *models.JobRequest
}

type ControlPlane struct {
	*httptest.Server

	mu            sync.Mutex
	jobs          map[string][]models.JobSummary
	instanceTypes map[string][]models.InstanceType
	logs          map[string]string
	failures      map[string]*Failure
	requests      []Request
	nextID        int
}

func NewControlPlane() *ControlPlane {
	cp := &ControlPlane{
		jobs:          map[string][]models.JobSummary{},
		instanceTypes: map[string][]models.InstanceType{},
		logs:          map[string]string{},
		failures:      map[string]*Failure{},
	}
	cp.Server = httptest.NewServer(http.HandlerFunc(cp.serve))
	return cp
}

func (cp *ControlPlane) AddJob(job models.JobSummary) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.jobs[job.Region] = append(cp.jobs[job.Region], job)
}

func (cp *ControlPlane) AddInstanceType(region string, it models.InstanceType) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.instanceTypes[region] = append(cp.instanceTypes[region], it)
}

func (cp *ControlPlane) SetLogs(jobID string, logs string) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.logs[jobID] = logs
}

// Fail injects a failure for requests with the given method whose path ends
// with suffix, for example Fail(http.MethodPost, "/jobs", ...).
func (cp *ControlPlane) Fail(method string, suffix string, f Failure) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.failures[method+" "+suffix] = &f
}

func (cp *ControlPlane) Requests() []Request {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return append([]Request(nil), cp.requests...)
}

func (cp *ControlPlane) Jobs(region string) []models.JobSummary {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return append([]models.JobSummary(nil), cp.jobs[region]...)
}

func (cp *ControlPlane) serve(w http.ResponseWriter, r *http.Request) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	seen := Request{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone()}
	if r.Method == http.MethodPost {
		seen.Submitted = new(models.JobRequest)
		if err := json.NewDecoder(r.Body).Decode(seen.Submitted); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	cp.requests = append(cp.requests, seen)

	if f := cp.failure(r); f != nil {
		w.WriteHeader(f.Status)
		_, _ = w.Write([]byte(f.Body))
		return
	}

	// /api/v1/regions/{region}/...
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/regions/"), "/")
	if !strings.HasPrefix(r.URL.Path, "/api/v1/regions/") || len(parts) < 2 {
		writeError(w, http.StatusNotFound, "no such endpoint")
		return
	}
	region := parts[0]

	switch {
	case r.Method == http.MethodGet && len(parts) == 2 && parts[1] == "instance-types":
		writeJSON(w, apimodels.ListInstanceTypesResponse{InstanceTypes: cp.instanceTypes[region]})
	case r.Method == http.MethodGet && len(parts) == 2 && parts[1] == "jobs":
		writeJSON(w, apimodels.ListJobsResponse{Jobs: cp.jobs[region]})
	case r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "jobs":
		cp.nextID++
		id := fmt.Sprintf("lm-mpi-job-%08x", cp.nextID)
		cp.jobs[region] = append(cp.jobs[region], models.JobSummary{
			ID:          id,
			State:       "Pending",
			Region:      region,
			Description: seen.Submitted.Description,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(apimodels.SubmitJobResponse{ID: id})
	case r.Method == http.MethodGet && len(parts) == 4 && parts[1] == "jobs" && parts[3] == "logs":
		logs, ok := cp.logs[parts[2]]
		if !ok {
			writeError(w, http.StatusNotFound, "job "+parts[2]+" not found")
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(logs))
	case r.Method == http.MethodDelete && len(parts) == 3 && parts[1] == "jobs":
		cp.kill(w, region, parts[2])
	default:
		writeError(w, http.StatusNotFound, "no such endpoint")
	}
}

func (cp *ControlPlane) kill(w http.ResponseWriter, region string, id string) {
	for i, job := range cp.jobs[region] {
		if job.ID != id {
			continue
		}
		if job.State == "Completed" || job.State == "Killed" {
			writeError(w, http.StatusConflict, "job "+id+" is already "+strings.ToLower(job.State))
			return
		}
		cp.jobs[region][i].State = "Killed"
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeError(w, http.StatusNotFound, "job "+id+" not found")
}

func (cp *ControlPlane) failure(r *http.Request) *Failure {
	for key, f := range cp.failures {
		method, suffix, _ := strings.Cut(key, " ")
		if method != r.Method || !strings.HasSuffix(r.URL.Path, suffix) || f.Remaining == 0 {
			continue
		}
		if f.Remaining > 0 {
			f.Remaining--
		}
		return f
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apimodels.ErrorResponse{Message: message})
}
