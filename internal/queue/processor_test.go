package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumescore/internal/analysis"
	"resumescore/internal/blob"
	"resumescore/internal/errors"
	"resumescore/internal/store"
)

const janeResume = "Jane Doe\njane@x.com\n9876543210\nSummary: Frontend engineer.\nSkills: React, JavaScript, CSS\nExperience: Worked at Acme as Developer 2020-2022\nEducation: B.Tech from XYZ University 2020"

type recordingPublisher struct {
	mu      sync.Mutex
	updates []Update
	failN   int
}

func (r *recordingPublisher) Publish(_ context.Context, u Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failN > 0 {
		r.failN--
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "broker unavailable", nil)
	}
	r.updates = append(r.updates, u)
	return nil
}

func (r *recordingPublisher) statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, len(r.updates))
	for i, u := range r.updates {
		out[i] = u.Status
	}
	return out
}

type fakeFetcher struct {
	objects map[string]*blob.Object
	calls   int
	failN   int
}

func (f *fakeFetcher) Fetch(_ context.Context, key string) (*blob.Object, error) {
	f.calls++
	if f.failN > 0 {
		f.failN--
		return nil, errors.NewNetworkError(errors.ErrCodeBlobFailed, "timeout", nil)
	}
	obj, ok := f.objects[key]
	if !ok {
		return nil, errors.NewStorageError(errors.ErrCodeNotFound, "object not found", nil)
	}
	return obj, nil
}

func newTestProcessor(pub Publisher, opts ...ProcessorOption) *Processor {
	opts = append([]ProcessorOption{WithRetry(3, time.Millisecond)}, opts...)
	return NewProcessor(analysis.NewAnalyzer(nil, nil, analysis.Options{}, nil), pub, nil, opts...)
}

func TestHandleTextJob(t *testing.T) {
	pub := &recordingPublisher{}
	p := newTestProcessor(pub)

	err := p.HandleMessage(context.Background(), []byte(`{"id":"j1","targetRole":"Frontend Developer","text":`+fmt.Sprintf("%q", janeResume)+`}`))
	require.NoError(t, err)

	assert.Equal(t, []Status{StatusProcessing, StatusCompleted}, pub.statuses())
	final := pub.updates[1]
	require.NotNil(t, final.Report)
	assert.Equal(t, "j1", final.JobID)
	assert.Equal(t, 41, final.Report.Score.TotalScore)
	assert.False(t, final.Time.IsZero())
}

func TestHandleObjectJobWithRetryAndStore(t *testing.T) {
	pub := &recordingPublisher{}
	fetcher := &fakeFetcher{
		failN: 2,
		objects: map[string]*blob.Object{
			"uploads/jane.txt": {Key: "uploads/jane.txt", ContentType: "text/plain", Data: []byte(janeResume)},
		},
	}
	s, err := store.OpenSQLite(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	p := newTestProcessor(pub, WithFetcher(fetcher), WithStore(s))
	require.NoError(t, p.Handle(context.Background(), Job{ID: "j2", UserID: "u1", TargetRole: "Frontend Developer", ObjectKey: "uploads/jane.txt"}))

	assert.Equal(t, 3, fetcher.calls)
	assert.Equal(t, []Status{StatusProcessing, StatusCompleted}, pub.statuses())

	saved, err := s.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", saved.Profile.FullName)
}

func TestHandleFailures(t *testing.T) {
	tests := []struct {
		name string
		job  Job
		code string
	}{
		{"too short", Job{ID: "a", Text: "short"}, errors.ErrCodeInputTooShort},
		{"no input", Job{ID: "b"}, errors.ErrCodeInvalidRequest},
		{"missing object", Job{ID: "c", ObjectKey: "nope.pdf"}, errors.ErrCodeNotFound},
		{"unsupported", Job{ID: "d", ObjectKey: "photo.png"}, errors.ErrCodeUnsupportedDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			fetcher := &fakeFetcher{objects: map[string]*blob.Object{
				"photo.png": {Key: "photo.png", ContentType: "image/png", Data: []byte{0x89}},
			}}
			p := newTestProcessor(pub, WithFetcher(fetcher))

			require.NoError(t, p.Handle(context.Background(), tt.job))
			require.Equal(t, []Status{StatusProcessing, StatusFailed}, pub.statuses())
			assert.Equal(t, tt.code, pub.updates[1].ErrorCode)
			assert.Nil(t, pub.updates[1].Report)
		})
	}
}

func TestHandleMessageMalformed(t *testing.T) {
	p := newTestProcessor(&recordingPublisher{})
	assert.True(t, errors.HasCode(p.HandleMessage(context.Background(), []byte("{")), errors.ErrCodeInvalidRequest))
	assert.True(t, errors.HasCode(p.HandleMessage(context.Background(), []byte(`{"text":"x"}`)), errors.ErrCodeInvalidRequest))
}

func TestPublishRetries(t *testing.T) {
	pub := &recordingPublisher{failN: 2}
	p := newTestProcessor(pub)

	require.NoError(t, p.Handle(context.Background(), Job{ID: "r", Text: janeResume}))
	// processing is retried into place, then completed goes straight through
	assert.Equal(t, []Status{StatusProcessing, StatusCompleted}, pub.statuses())
}

func TestRetryStopsOnPermanentErrors(t *testing.T) {
	calls := 0
	_, err := retry(context.Background(), 5, time.Millisecond, func() (int, error) {
		calls++
		return 0, errors.NewValidationError(errors.ErrCodeInvalidRequest, "bad", nil)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	calls = 0
	_, err = retry(context.Background(), 3, time.Millisecond, func() (int, error) {
		calls++
		return 0, fmt.Errorf("flaky")
	})
	assert.EqualError(t, err, "after 3 attempts: flaky")
	assert.Equal(t, 3, calls)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "analysis.abc", RoutingKey("abc"))
}
