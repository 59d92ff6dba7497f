package module

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingModule struct {
	Base
	name      string
	failOn    string
	befores   *[]string
	afters    *[]string
}

func (m *recordingModule) Name() string { return m.name }

func (m *recordingModule) BeforeInvoke(Context, *Invocation) error {
	*m.befores = append(*m.befores, m.name)
	if m.failOn == "before" {
		return errors.New("boom")
	}
	return nil
}

func (m *recordingModule) AfterInvoke(Context, int, bool) error {
	*m.afters = append(*m.afters, m.name)
	return nil
}

func TestPipelineForwardStopsOnError(t *testing.T) {
	var befores, afters []string
	a := &recordingModule{name: "a", befores: &befores, afters: &afters}
	b := &recordingModule{name: "b", failOn: "before", befores: &befores, afters: &afters}
	c := &recordingModule{name: "c", befores: &befores, afters: &afters}

	p := NewPipeline(a, b, c)
	fired, err := p.Forward(func(m SystemModule) error {
		return m.BeforeInvoke(nil, &Invocation{})
	})
	require.Error(t, err)
	require.Equal(t, 1, fired, "only module a should have completed before b failed")
	require.Equal(t, []string{"a", "b"}, befores, "b's own before_invoke still runs and fails")
}

func TestPipelineReverseRunsAllDespiteErrors(t *testing.T) {
	var befores, afters []string
	a := &recordingModule{name: "a", befores: &befores, afters: &afters}
	b := &recordingModule{name: "b", befores: &befores, afters: &afters}
	c := &recordingModule{name: "c", befores: &befores, afters: &afters}

	p := NewPipeline(a, b, c)
	err := p.Reverse(2, func(m SystemModule) error {
		return m.AfterInvoke(nil, 0, false)
	})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, afters, "only the first 2 fired modules clean up, in reverse order")
}
