package wire

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/inklive/internal/issues"
)

func TestEncoder_CompileOmitsProject(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	instr := CompileInstruction{
		MainName:     "main.ink",
		UpdatedFiles: map[string]string{"main.ink": "<b>Hi</b>"},
		SessionID:    "ns_1",
		Namespace:    "ns",
		Play:         true,
	}
	require.NoError(t, enc.Encode(Compile(instr)))

	line := buf.String()
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, `"kind":"compile"`)
	assert.Contains(t, line, `"<b>Hi</b>"`, "HTML is not escaped")
	assert.NotContains(t, line, "Project")
}

func TestEncoder_OutboundFieldsPerKind(t *testing.T) {
	tests := []struct {
		name string
		msg  Outbound
		want string
	}{
		{"first choice", ContinueWithChoice(0, "ns_1"), `{"kind":"play-continue-with-choice-number","sessionId":"ns_1","choiceNumber":0}`},
		{"later choice", ContinueWithChoice(2, "ns_1"), `{"kind":"play-continue-with-choice-number","sessionId":"ns_1","choiceNumber":2}`},
		{"offset zero", GetLocationInSource(0, "ns_1"), `{"kind":"get-location-in-source","sessionId":"ns_1","offset":0}`},
		{"runtime path", GetRuntimePathInSource("knot.0", "ns_1"), `{"kind":"get-runtime-path-in-source","sessionId":"ns_1","runtimePath":"knot.0"}`},
		{"expression", EvaluateExpression("x > 1", "ns_1"), `{"kind":"evaluate-expression","sessionId":"ns_1","expression":"x > 1"}`},
		{"stop", Stop("ns_1"), `{"kind":"play-stop-ink","sessionId":"ns_1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewEncoder(&buf).Encode(tt.msg))
			assert.Equal(t, tt.want+"\n", buf.String())
		})
	}
}

func TestDecoder_Inbound(t *testing.T) {
	src := `{"kind":"play-generated-text","sessionId":"ns_1","text":{"text":"Hello"}}

{"kind":"play-generated-errors","sessionId":"ns_1","errors":[{"filename":"main.ink","lineNumber":2,"message":"bad","type":"ERROR"}]}
{"kind":"return-stats","sessionId":"ns_3","stats":{"words":12}}
`
	dec := NewDecoder(strings.NewReader(src))

	m, err := dec.DecodeInbound()
	require.NoError(t, err)
	assert.Equal(t, KindGeneratedText, m.Kind)
	require.NotNil(t, m.Text)
	assert.Equal(t, "Hello", m.Text.Text)

	m, err = dec.DecodeInbound()
	require.NoError(t, err, "blank lines are skipped")
	require.Len(t, m.Errors, 1)
	assert.Equal(t, issues.Issue{Filename: "main.ink", LineNumber: 2, Message: "bad", Type: issues.TypeError}, m.Errors[0])

	m, err = dec.DecodeInbound()
	require.NoError(t, err)
	assert.Equal(t, float64(12), m.Stats["words"])

	_, err = dec.DecodeInbound()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoder_MalformedLineRecoverable(t *testing.T) {
	src := "not json\n{\"sessionId\":\"x\"}\n{\"kind\":\"compile-complete\",\"sessionId\":\"ns_1\"}\n"
	dec := NewDecoder(strings.NewReader(src))

	_, err := dec.DecodeInbound()
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 1, de.Line)

	_, err = dec.DecodeInbound()
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 2, de.Line)
	assert.ErrorContains(t, err, "missing kind")

	m, err := dec.DecodeInbound()
	require.NoError(t, err)
	assert.Equal(t, KindCompileComplete, m.Kind)
}

func TestDecoder_Outbound(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.Encode(ContinueWithChoice(0, "ns_4")))
	require.NoError(t, enc.Encode(Stop("ns_4")))

	dec := NewDecoder(&buf)
	m, err := dec.DecodeOutbound()
	require.NoError(t, err)
	assert.Equal(t, ContinueWithChoice(0, "ns_4"), m)

	m, err = dec.DecodeOutbound()
	require.NoError(t, err)
	assert.Equal(t, Stop("ns_4"), m)
}

func TestChanSupervisor(t *testing.T) {
	s := NewChanSupervisor(1)
	require.NoError(t, s.Send(Stop("ns_1")))
	assert.ErrorIs(t, s.Send(Stop("ns_2")), ErrSupervisorFull)

	assert.Equal(t, Stop("ns_1"), <-s.Outbox())
}

func TestSupervisorFunc(t *testing.T) {
	var got []Outbound
	s := SupervisorFunc(func(m Outbound) error {
		got = append(got, m)
		return nil
	})
	require.NoError(t, s.Send(Stop("a")))
	assert.Equal(t, []Outbound{Stop("a")}, got)
}
