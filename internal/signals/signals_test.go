package signals

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendInRegistrationOrder(t *testing.T) {
	bus := NewBus()
	var order []string
	bus.Connect(ContentWritten, func(*Payload) error {
		order = append(order, "first")
		return nil
	})
	bus.Connect(ContentWritten, func(*Payload) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, bus.Send(ContentWritten, &Payload{Path: "index.html"}))
	require.Equal(t, []string{"first", "second"}, order)
}

func TestSendWithoutReceivers(t *testing.T) {
	require.NoError(t, NewBus().Send(PipelineFinalized, &Payload{}))
}

func TestReceiverErrorAbortsDispatch(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")
	reached := false
	bus.Connect(FeedGenerated, func(*Payload) error { return boom })
	bus.Connect(FeedGenerated, func(*Payload) error { reached = true; return nil })

	err := bus.Send(FeedGenerated, &Payload{})
	require.ErrorIs(t, err, boom)
	require.False(t, reached, "receivers after the failing one must not run")
}

func TestSignalsAreIndependent(t *testing.T) {
	bus := NewBus()
	hits := 0
	bus.Connect(ArticleGeneratorInit, func(*Payload) error { hits++; return nil })

	require.NoError(t, bus.Send(PageGeneratorInit, &Payload{}))
	require.Zero(t, hits)
}

type testPlugin struct {
	name       string
	registered *bool
}

func (p testPlugin) Name() string { return p.name }
func (p testPlugin) Register(bus *Bus) error {
	*p.registered = true
	bus.Connect(PipelineInitialized, func(*Payload) error { return nil })
	return nil
}

func TestEnablePlugins(t *testing.T) {
	registered := false
	require.NoError(t, RegisterPlugin(testPlugin{name: "test-plugin", registered: &registered}))

	bus := NewBus()
	require.NoError(t, EnablePlugins(bus, []string{"test-plugin"}))
	require.True(t, registered)
	require.Contains(t, RegisteredPlugins(), "test-plugin")

	require.Error(t, EnablePlugins(bus, []string{"no-such-plugin"}))
	require.Error(t, RegisterPlugin(testPlugin{name: "test-plugin", registered: &registered}),
		"duplicate plugin names are rejected")
}
