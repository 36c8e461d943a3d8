package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/SamuelLess/carakube/internal/correlator"
	"github.com/SamuelLess/carakube/internal/fetcher"
	"github.com/SamuelLess/carakube/internal/graph"
	"github.com/SamuelLess/carakube/internal/rules"
	"github.com/SamuelLess/carakube/internal/snapshot"
	"github.com/SamuelLess/carakube/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newScheduler(t *testing.T, f fetcher.Fetcher) (*Scheduler, *snapshot.Publisher) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	publisher := snapshot.New(logger)
	s := New(
		f,
		rules.NewEngine(rules.DefaultConfig()),
		correlator.New(logger),
		graph.New(logger),
		publisher,
		time.Minute,
		logger,
	)
	return s, publisher
}

func clusterObjects() []runtime.Object {
	return []runtime.Object{
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "default"}},
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "nginx"},
			Spec: corev1.PodSpec{
				Containers: []corev1.Container{{Name: "nginx", Image: "nginx:1.25.4"}},
			},
		},
	}
}

func TestRunPass_PublishesSuccess(t *testing.T) {
	client := fake.NewSimpleClientset(clusterObjects()...)
	f := fetcher.New(client, time.Second, zaptest.NewLogger(t))
	s, publisher := newScheduler(t, f)

	s.RunPass(context.Background())

	snap := publisher.Latest()
	require.Equal(t, types.StatusSuccess, snap.Status)
	require.NotNil(t, snap.Data)
	assert.Equal(t, 2, snap.Data.Stats.TotalNodes)
}

func TestRunPass_UnreachableMarksInitializing(t *testing.T) {
	client := fake.NewSimpleClientset()
	client.PrependReactor("*", "*", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, assert.AnError
	})
	f := fetcher.New(client, time.Second, zaptest.NewLogger(t))
	s, publisher := newScheduler(t, f)

	s.RunPass(context.Background())

	assert.Equal(t, types.StatusInitializing, publisher.Latest().Status)
}

func TestRunPass_CategoryIsolation(t *testing.T) {
	client := fake.NewSimpleClientset(clusterObjects()...)
	client.PrependReactor("list", "clusterroles", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, assert.AnError
	})
	f := fetcher.New(client, time.Second, zaptest.NewLogger(t))
	s, publisher := newScheduler(t, f)

	s.RunPass(context.Background())

	snap := publisher.Latest()
	require.Equal(t, types.StatusSuccess, snap.Status)
	assert.Equal(t, 2, snap.Data.Stats.TotalNodes)

	// Pod findings from the other categories are still present.
	var pod types.PodNode
	for _, n := range snap.Data.Nodes {
		if p, ok := n.(types.PodNode); ok {
			pod = p
		}
	}
	assert.NotEmpty(t, pod.Findings)
}

func TestRunPass_FailedListingSkipsDependentCategory(t *testing.T) {
	client := fake.NewSimpleClientset(clusterObjects()...)
	client.PrependReactor("list", "networkpolicies", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, assert.AnError
	})
	f := fetcher.New(client, time.Second, zaptest.NewLogger(t))
	s, publisher := newScheduler(t, f)

	s.RunPass(context.Background())

	snap := publisher.Latest()
	require.Equal(t, types.StatusSuccess, snap.Status)

	// The namespace must not be flagged as unprotected when the
	// NetworkPolicy listing itself failed.
	for _, n := range snap.Data.Nodes {
		ns, ok := n.(types.NamespaceNode)
		if !ok {
			continue
		}
		for _, finding := range ns.Findings {
			assert.NotEqual(t, types.FindingNoNetworkPolicy, finding.Type)
		}
	}

	// The categories that do not depend on the failed listing still run.
	var pod types.PodNode
	for _, n := range snap.Data.Nodes {
		if p, ok := n.(types.PodNode); ok {
			pod = p
		}
	}
	assert.NotEmpty(t, pod.Findings)
}

func TestRunPass_EmptyCluster(t *testing.T) {
	client := fake.NewSimpleClientset()
	f := fetcher.New(client, time.Second, zaptest.NewLogger(t))
	s, publisher := newScheduler(t, f)

	s.RunPass(context.Background())

	snap := publisher.Latest()
	require.Equal(t, types.StatusEmpty, snap.Status)
	require.NotNil(t, snap.Data)
	assert.Empty(t, snap.Data.Nodes)
}

// blockingFetcher serves one Fetch at a time and blocks until released.
type blockingFetcher struct {
	entered  chan struct{}
	release  chan struct{}
	delegate fetcher.Fetcher
}

func (b *blockingFetcher) Fetch(ctx context.Context) (*fetcher.ResourceSet, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.delegate.Fetch(ctx)
}

func TestRunPass_SingleFlight(t *testing.T) {
	inner := fetcher.New(fake.NewSimpleClientset(clusterObjects()...), time.Second, zaptest.NewLogger(t))
	blocking := &blockingFetcher{
		entered:  make(chan struct{}, 1),
		release:  make(chan struct{}),
		delegate: inner,
	}
	s, publisher := newScheduler(t, blocking)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.RunPass(context.Background())
	}()
	<-blocking.entered

	// Second pass must return immediately while the first is in flight.
	s.RunPass(context.Background())
	assert.Equal(t, types.StatusWaiting, publisher.Latest().Status)

	close(blocking.release)
	<-done
	assert.Equal(t, types.StatusSuccess, publisher.Latest().Status)
}

// cancellingFetcher cancels the pass context before returning its set.
type cancellingFetcher struct {
	cancel   context.CancelFunc
	delegate fetcher.Fetcher
}

func (c *cancellingFetcher) Fetch(ctx context.Context) (*fetcher.ResourceSet, error) {
	set, err := c.delegate.Fetch(ctx)
	c.cancel()
	return set, err
}

func TestRunPass_CancelledPassDoesNotPublish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	inner := fetcher.New(fake.NewSimpleClientset(clusterObjects()...), time.Second, zaptest.NewLogger(t))
	s, publisher := newScheduler(t, &cancellingFetcher{cancel: cancel, delegate: inner})

	s.RunPass(ctx)

	assert.Equal(t, types.StatusWaiting, publisher.Latest().Status)
}

func TestTriggerScan_Coalesces(t *testing.T) {
	f := fetcher.New(fake.NewSimpleClientset(), time.Second, zaptest.NewLogger(t))
	s, _ := newScheduler(t, f)

	assert.True(t, s.TriggerScan())
	assert.False(t, s.TriggerScan())
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	f := fetcher.New(fake.NewSimpleClientset(clusterObjects()...), time.Second, zaptest.NewLogger(t))
	s, publisher := newScheduler(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx)
	}()

	// The immediate first pass publishes before we stop.
	require.Eventually(t, func() bool {
		return publisher.Latest().Status == types.StatusSuccess
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
