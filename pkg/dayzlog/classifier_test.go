package dayzlog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog"
	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

func TestDefaultClassifier_StandardLog(t *testing.T) {
	c := dayzlog.DefaultClassifier{}
	ctx := context.Background()

	tests := []struct {
		name      string
		line      string
		wantMatch bool
		wantKind  event.Kind
	}{
		{
			name:      "connect",
			line:      `19:22:10 Player "moglef" is connected (steamID=76561198067078615)`,
			wantMatch: true,
			wantKind:  event.Connected,
		},
		{
			name:      "disconnect",
			line:      "15:52:07 Player moglef disconnected.",
			wantMatch: true,
			wantKind:  event.Disconnected,
		},
		{
			name:      "state_machine_kick",
			line:      "19:22:37 [StateMachine]: Kick player Survivor (dpnid 178538990 uid ) State AuthPlayerLoginState",
			wantMatch: true,
			wantKind:  event.Kicked,
		},
		{
			name:      "unstable_connection_kick",
			line:      "09:03:08 Player moglef (20582534) kicked from server: 10 (Possible speedhack or very unstable connection.)",
			wantMatch: true,
			wantKind:  event.KickedUnstableConnection,
		},
		{
			name:      "restart",
			line:      "03:00:01 Reading mission ...",
			wantMatch: true,
			wantKind:  event.ServerRestart,
		},
		{
			name:      "unrecognized",
			line:      "17:11:02 Mission read.",
			wantMatch: false,
		},
		{
			name:      "empty",
			line:      "",
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.ClassifyLine(ctx, tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMatch, result.Matched)
			if tt.wantMatch {
				require.Len(t, result.Lines, 1)
				assert.Equal(t, tt.wantKind, result.Lines[0].Kind)
			} else {
				assert.Empty(t, result.Lines)
			}
		})
	}
}

func TestClassifierFunc(t *testing.T) {
	called := false
	fn := dayzlog.ClassifierFunc(func(_ context.Context, line string) (dayzlog.Result, error) {
		called = true
		assert.Equal(t, "input", line)
		return dayzlog.Result{Matched: true}, nil
	})

	result, err := fn.ClassifyLine(context.Background(), "input")
	require.NoError(t, err)
	assert.True(t, called)
	assert.True(t, result.Matched)
}

func matchKind(k event.Kind) dayzlog.Classifier {
	return dayzlog.ClassifierFunc(func(_ context.Context, line string) (dayzlog.Result, error) {
		return dayzlog.Result{
			Lines:   []event.ParsedLine{{Kind: k, Raw: line}},
			Matched: true,
		}, nil
	})
}

func matchNothing() dayzlog.Classifier {
	return dayzlog.ClassifierFunc(func(context.Context, string) (dayzlog.Result, error) {
		return dayzlog.Result{}, nil
	})
}

func failWith(err error) dayzlog.Classifier {
	return dayzlog.ClassifierFunc(func(context.Context, string) (dayzlog.Result, error) {
		return dayzlog.Result{}, err
	})
}

func TestChain_All(t *testing.T) {
	chain := &dayzlog.Chain{
		Mode: dayzlog.ChainAll,
		Classifiers: []dayzlog.Classifier{
			matchNothing(),
			matchKind(event.Connected),
			matchKind(event.Disconnected),
		},
	}

	result, err := chain.ClassifyLine(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	require.Len(t, result.Lines, 2)
	assert.Equal(t, event.Connected, result.Lines[0].Kind)
	assert.Equal(t, event.Disconnected, result.Lines[1].Kind)
}

func TestChain_First(t *testing.T) {
	chain := &dayzlog.Chain{
		Mode: dayzlog.ChainFirst,
		Classifiers: []dayzlog.Classifier{
			matchNothing(),
			matchKind(event.Connected),
			matchKind(event.Disconnected),
		},
	}

	result, err := chain.ClassifyLine(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	require.Len(t, result.Lines, 1)
	assert.Equal(t, event.Connected, result.Lines[0].Kind)
}

func TestChain_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	chain := &dayzlog.Chain{
		Mode: dayzlog.ChainAll,
		Classifiers: []dayzlog.Classifier{
			matchKind(event.Connected),
			failWith(boom),
			matchKind(event.Disconnected),
		},
	}

	result, err := chain.ClassifyLine(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.False(t, result.Matched)
	assert.Empty(t, result.Lines)
}

func TestChain_ContinueOnError(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	chain := &dayzlog.Chain{
		Mode: dayzlog.ChainContinueOnError,
		Classifiers: []dayzlog.Classifier{
			failWith(errA),
			matchKind(event.Connected),
			failWith(errB),
		},
	}

	result, err := chain.ClassifyLine(context.Background(), "x")
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.True(t, result.Matched)
	require.Len(t, result.Lines, 1)
	assert.Equal(t, event.Connected, result.Lines[0].Kind)
}

func TestChain_NilClassifierSkipped(t *testing.T) {
	chain := &dayzlog.Chain{
		Classifiers: []dayzlog.Classifier{nil, matchKind(event.Connected)},
	}

	result, err := chain.ClassifyLine(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Len(t, result.Lines, 1)
}

func TestChain_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := &dayzlog.Chain{
		Classifiers: []dayzlog.Classifier{matchKind(event.Connected)},
	}

	_, err := chain.ClassifyLine(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChain_Empty(t *testing.T) {
	chain := &dayzlog.Chain{}

	result, err := chain.ClassifyLine(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Empty(t, result.Lines)
}
