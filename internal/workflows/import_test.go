package workflows_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/wanderly/wanderly/internal/adapters/mapping"
	"github.com/wanderly/wanderly/internal/adapters/memory"
	"github.com/wanderly/wanderly/internal/adapters/upstream"
	"github.com/wanderly/wanderly/internal/core/domain"
	"github.com/wanderly/wanderly/internal/core/ports"
	"github.com/wanderly/wanderly/internal/core/usecases"
	"github.com/wanderly/wanderly/internal/workflows"
)

type stubSource struct {
	records [][]byte
}

func (s *stubSource) FetchUpdated(ctx context.Context, since time.Time) ([][]byte, error) {
	return s.records, nil
}

func (s *stubSource) FetchByID(ctx context.Context, id string) ([]byte, error) {
	return nil, errors.New("not used")
}

type failingPublisher struct{}

func (failingPublisher) PublishPlaceUpdated(ctx context.Context, place *domain.Place) error {
	return nil
}

func (failingPublisher) PublishImportCompleted(ctx context.Context, summary *domain.ImportSummary) error {
	return errors.New("broker unavailable")
}

// activityLog records which activities ran and what they were called with.
type activityLog struct {
	mu     sync.Mutex
	names  []string
	inputs []workflows.ImportInput
}

func (l *activityLog) started(info *activity.Info, _ context.Context, args converter.EncodedValues) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, info.ActivityType.Name)
	if info.ActivityType.Name == "SyncRecords" {
		var in workflows.ImportInput
		if err := args.Get(&in); err == nil {
			l.inputs = append(l.inputs, in)
		}
	}
}

func execute(t *testing.T, repo *memory.PlaceRepo, src ports.RecordSource) (*testsuite.TestWorkflowEnvironment, *domain.ImportSummary, *activityLog) {
	t.Helper()
	svc := usecases.NewImportService(repo, mapping.Decoder{}, failingPublisher{}, nil, src, nil)

	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflows.PlaceImportWorkflow)
	env.RegisterActivity(&workflows.ImportActivities{Imports: svc})

	log := &activityLog{}
	env.SetOnActivityStartedListener(log.started)

	env.ExecuteWorkflow(workflows.PlaceImportWorkflow, workflows.ImportInput{Since: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.True(t, env.IsWorkflowCompleted())

	var summary *domain.ImportSummary
	if env.GetWorkflowError() == nil {
		require.NoError(t, env.GetWorkflowResult(&summary))
	}
	return env, summary, log
}

func run(t *testing.T, repo *memory.PlaceRepo, records ...string) (*testsuite.TestWorkflowEnvironment, *domain.ImportSummary) {
	t.Helper()
	src := &stubSource{}
	for _, r := range records {
		src.records = append(src.records, []byte(r))
	}
	env, summary, _ := execute(t, repo, src)
	return env, summary
}

func TestPlaceImportWorkflow_StoresRecords(t *testing.T) {
	repo := memory.NewPlaceRepo()
	env, summary := run(t, repo,
		`{"id":"a","name":"Alhóndiga"}`,
		`{"id":"b","name":"Mercado de la Ribera"}`,
		`{"id":"c"}`,
	)

	require.NoError(t, env.GetWorkflowError())
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.Accepted)
	assert.Equal(t, 1, summary.Rejected)
	assert.Equal(t, 2, repo.Len())
}

func TestPlaceImportWorkflow_NothingToImport(t *testing.T) {
	repo := memory.NewPlaceRepo()
	env, summary := run(t, repo)

	require.NoError(t, env.GetWorkflowError())
	require.NotNil(t, summary)
	assert.Zero(t, summary.Accepted)
	assert.Equal(t, 0, repo.Len())
}

func TestPlaceImportWorkflow_RefusesMostlyBrokenBatch(t *testing.T) {
	repo := memory.NewPlaceRepo()
	env, _ := run(t, repo,
		`{"id":"a","name":"Alhóndiga"}`,
		`{"id":"b"}`,
		`not json`,
	)

	err := env.GetWorkflowError()
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, workflows.ErrTypeTooManyRejected, appErr.Type())
	assert.Equal(t, 0, repo.Len())
}

func TestPlaceImportWorkflow_PagedUpstreamStaysInWorker(t *testing.T) {
	const pages, perPage = 5, 40
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := 1
		fmt.Sscan(r.URL.Query().Get("page"), &page)
		fmt.Fprint(w, `{"data":[`)
		for i := 0; i < perPage; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			if page == pages && i == perPage-1 {
				fmt.Fprintf(w, `{"id":"p%d-%d"}`, page, i)
				continue
			}
			fmt.Fprintf(w, `{"id":"p%d-%d","name":"Place %d-%d","address":"Gran Vía %d, Bilbao"}`, page, i, page, i, i)
		}
		if page < pages {
			fmt.Fprintf(w, `],"next":"/v2/places?page=%d"}`, page+1)
			return
		}
		fmt.Fprint(w, `],"next":null}`)
	}))
	defer server.Close()

	client, err := upstream.New(upstream.Config{
		BaseURL:         server.URL + "/v2",
		Timeout:         2 * time.Second,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     20 * time.Millisecond,
	})
	require.NoError(t, err)

	repo := memory.NewPlaceRepo()
	env, summary, log := execute(t, repo, client)

	require.NoError(t, env.GetWorkflowError())
	require.NotNil(t, summary)
	assert.Equal(t, pages*perPage-1, summary.Accepted)
	assert.Equal(t, 1, summary.Rejected)
	assert.Equal(t, pages*perPage-1, repo.Len())

	// Records never travel as activity arguments: the sync activity gets
	// the cut-off only and the announcement gets the summary.
	require.NotEmpty(t, log.names)
	assert.Equal(t, "SyncRecords", log.names[0])
	for _, name := range log.names[1:] {
		assert.Equal(t, "PublishSummary", name)
	}
	require.Len(t, log.inputs, 1)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), log.inputs[0].Since.UTC())
	assert.Equal(t, workflows.DefaultMaxRejectRatio, log.inputs[0].MaxRejectRatio)
}
