package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelgrohs/ccviz/internal/common"
	"github.com/michaelgrohs/ccviz/internal/model"
)

func fastRetry() Option {
	return WithRetry(common.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	})
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

// fakeService serves every analysis endpoint with a small dataset.
func fakeService(t *testing.T, outcomeStatus int) (*httptest.Server, *OutcomeRequest) {
	t.Helper()
	var gotOutcome OutcomeRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/api/unique-sequences", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, []map[string]any{{"sequences": [][]string{{"A", "B"}}, "uniqueSequences": 1}})
	})
	mux.HandleFunc("/api/trace-sequences", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, []map[string]any{{"trace": "Trace 1", "sequence": []string{"A", "B"}}})
	})
	mux.HandleFunc("/api/fitness", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, []map[string]any{{"trace": "Trace 1", "conformance": 0.42}})
	})
	mux.HandleFunc("/api/conformance-bins", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, []map[string]any{{"averageConformance": 0.42, "traceCount": 1}})
	})
	mux.HandleFunc("/api/activity-deviations", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"deviations": []string{}, "total_traces": 1})
	})
	mux.HandleFunc("/api/outcome-distribution", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotOutcome))
		if outcomeStatus != http.StatusOK {
			http.Error(w, "no outcome", outcomeStatus)
			return
		}
		writeJSON(t, w, map[string]any{
			"bins":            []map[string]any{{"range": []float64{0.4, 0.5}, "count": 1, "percentageEndingCorrectly": 100}},
			"desiredOutcomes": []string{"B"},
			"matching_mode":   "end",
		})
	})
	mux.HandleFunc("/api/conformance-by-event_attribute", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"org:resource": map[string]float64{"112": 0.9}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &gotOutcome
}

func TestClient_Fetch(t *testing.T) {
	srv, gotOutcome := fakeService(t, http.StatusOK)
	c := NewClient(srv.URL+"/", fastRetry())

	var steps []string
	b, err := c.Fetch(context.Background(), OutcomeRequest{
		MatchingMode:       model.MatchContains,
		SelectedActivities: []string{"B"},
	}, func(step string) { steps = append(steps, step) })
	require.NoError(t, err)

	assert.Len(t, steps, FetchSteps)
	require.Len(t, b.Fitness, 1)
	assert.InDelta(t, 0.42, b.Fitness[0].Conformance.Value, 1e-12)
	assert.Len(t, b.ConformanceBins, 1)
	assert.Len(t, b.UniqueSequences, 1)
	assert.Len(t, b.TraceSequences, 1)
	require.NotNil(t, b.ActivityDeviations)
	assert.Equal(t, 1, b.ActivityDeviations.TotalTraces)
	require.NotNil(t, b.Outcome)
	assert.Equal(t, []string{"B"}, b.Outcome.DesiredOutcomes)
	assert.NotNil(t, b.AttributeConformance)

	assert.Equal(t, model.MatchContains, gotOutcome.MatchingMode)
	assert.Equal(t, []string{"B"}, gotOutcome.SelectedActivities)
}

func TestClient_Fetch_OutcomeFailureIsNotFatal(t *testing.T) {
	srv, _ := fakeService(t, http.StatusBadRequest)
	c := NewClient(srv.URL, fastRetry())

	b, err := c.Fetch(context.Background(), OutcomeRequest{MatchingMode: model.MatchEnd}, nil)
	require.NoError(t, err)
	assert.Nil(t, b.Outcome)
	assert.Len(t, b.Fitness, 1)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "waking up", http.StatusServiceUnavailable)
			return
		}
		writeJSON(t, w, []map[string]any{{"trace": "Trace 1", "conformance": 1}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastRetry())
	var out []map[string]any
	require.NoError(t, c.getJSON(context.Background(), pathFitness, &out))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "no dataset uploaded", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastRetry())
	_, err := c.Fetch(context.Background(), OutcomeRequest{}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrBackendResponse)
	assert.Contains(t, err.Error(), "no dataset uploaded")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastRetry())
	var out any
	err := c.getJSON(context.Background(), pathFitness, &out)

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMaxRetries)
	assert.ErrorIs(t, err, common.ErrBackendUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWithMaxAttempts_KeepsDefaultDelays(t *testing.T) {
	defaults := NewClient("http://localhost").retry

	tests := []struct {
		name     string
		attempts int
		want     int
	}{
		{name: "override", attempts: 7, want: 7},
		{name: "zero keeps default", attempts: 0, want: defaults.MaxAttempts},
		{name: "negative keeps default", attempts: -1, want: defaults.MaxAttempts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewClient("http://localhost", WithMaxAttempts(tt.attempts)).retry
			assert.Equal(t, tt.want, got.MaxAttempts)
			assert.Equal(t, 10*time.Second, got.MaxDelay)
			assert.Equal(t, defaults.InitialDelay, got.InitialDelay)
			assert.Equal(t, defaults.Multiplier, got.Multiplier)
		})
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html>sleeping</html>")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastRetry())
	var out []any
	err := c.getJSON(context.Background(), pathFitness, &out)
	assert.ErrorIs(t, err, common.ErrBackendResponse)
}

func TestClient_Upload(t *testing.T) {
	var modelName, logName, logContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		if files := r.MultipartForm.File["bpmn"]; len(files) == 1 {
			modelName = files[0].Filename
		}
		if files := r.MultipartForm.File["xes"]; len(files) == 1 {
			logName = files[0].Filename
			f, err := files[0].Open()
			if assert.NoError(t, err) {
				content, _ := io.ReadAll(f)
				logContent = string(content)
				_ = f.Close()
			}
		}
		writeJSON(t, w, map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastRetry())
	err := c.Upload(context.Background(),
		File{Name: "model.bpmn", Content: []byte("<definitions/>")},
		File{Name: "log.xes", Content: []byte("<log/>")})
	require.NoError(t, err)

	assert.Equal(t, "model.bpmn", modelName)
	assert.Equal(t, "log.xes", logName)
	assert.Equal(t, "<log/>", logContent)
}

func TestClient_Activities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathActivities, r.URL.Path)
		writeJSON(t, w, map[string][]string{"activities": {"Register", "Approve"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastRetry())
	acts, err := c.Activities(context.Background(), File{Name: "m.bpmn", Content: []byte("<x/>")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Register", "Approve"}, acts)
}

func TestClient_PingAndPreload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case pathPing:
			_, _ = io.WriteString(w, "pong")
		case pathPreload + SampleLog:
			_, _ = io.WriteString(w, "case,activity\n1,A\n")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastRetry(), WithTimeout(time.Second))

	elapsed, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Less(t, elapsed, time.Second)

	f, err := c.Preload(context.Background(), SampleLog)
	require.NoError(t, err)
	assert.Equal(t, SampleLog, f.Name)
	assert.Contains(t, string(f.Content), "case,activity")

	_, err = c.Preload(context.Background(), "missing.bpmn")
	assert.ErrorIs(t, err, common.ErrBackendResponse)
}

func TestClient_PingUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL).Ping(context.Background())
	assert.ErrorIs(t, err, common.ErrBackendUnavailable)
}

func TestClient_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "30")
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		writeJSON(t, w, []map[string]any{})
	}))
	defer srv.Close()

	// The requested 30s wait is capped at the policy's MaxDelay.
	c := NewClient(srv.URL, fastRetry())
	var out []map[string]any
	require.NoError(t, c.getJSON(context.Background(), pathFitness, &out))
	assert.Equal(t, int32(2), calls.Load())
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{value: "", want: 0},
		{value: "5", want: 5 * time.Second},
		{value: " 2 ", want: 2 * time.Second},
		{value: "-1", want: 0},
		{value: "Wed, 21 Oct 2015 07:28:00 GMT", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRetryAfter(tt.value))
		})
	}
}
