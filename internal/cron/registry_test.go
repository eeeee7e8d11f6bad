package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	jobA := &stubJob{name: "a"}
	jobB := &stubJob{name: "b"}
	registry := NewRegistry(jobA, nil)
	registry.Register(nil)
	registry.Register(jobB)

	jobs := registry.Jobs()
	require.Equal(t, []Job{jobA, jobB}, jobs)

	jobs[0] = nil
	require.NotNil(t, registry.Jobs()[0])
}

func TestRegistryReplacesJobWithSameName(t *testing.T) {
	first := &stubJob{name: "offer_window_transitions"}
	other := &stubJob{name: "other"}
	replacement := &stubJob{name: "offer_window_transitions"}

	registry := NewRegistry(first, other)
	registry.Register(replacement)

	require.Equal(t, []Job{replacement, other}, registry.Jobs())

	job, ok := registry.Lookup("offer_window_transitions")
	require.True(t, ok)
	require.Same(t, replacement, job)

	_, ok = registry.Lookup("missing")
	require.False(t, ok)
}
