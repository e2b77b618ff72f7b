package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with the given args and returns its
// combined output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

// writeTranscriptFixture writes a small two-phase sales call transcript and
// returns its path.
func writeTranscriptFixture(t *testing.T) string {
	t.Helper()

	transcript := map[string]any{
		"transcript_id": "call-042",
		"turns": []map[string]any{
			{"speaker": "agent", "text": "Thanks for joining, how is the evaluation going?", "timestamp": "00:00"},
			{"speaker": "customer", "text": "Going well, the team likes the dashboard module.", "timestamp": "00:15"},
			{"speaker": "agent", "text": "What would a successful rollout look like for you?", "timestamp": "00:30"},
			{"speaker": "customer", "text": "We need reporting consolidated before the fiscal year ends.", "timestamp": "00:45"},
			{"speaker": "agent", "text": "That timeline is workable with our standard onboarding.", "timestamp": "01:00"},
			{"speaker": "customer", "text": "Good, the analysts are tired of maintaining spreadsheets.", "timestamp": "01:15"},
			{"speaker": "agent", "text": "Moving to pricing, the enterprise plan runs 48000 dollars a year.", "timestamp": "02:00"},
			{"speaker": "customer", "text": "Does that price include support and onboarding?", "timestamp": "02:15"},
			{"speaker": "agent", "text": "Support yes, onboarding is a separate 5000 dollar fee.", "timestamp": "02:30"},
			{"speaker": "customer", "text": "We were quoted less by a competitor last quarter.", "timestamp": "02:45"},
			{"speaker": "agent", "text": "I can ask finance about flexibility on the annual number.", "timestamp": "03:00"},
			{"speaker": "customer", "text": "Please do, budget approval needs a final figure.", "timestamp": "03:15"},
		},
		"phases": []map[string]any{
			{"phase": "discovery", "start_timestamp": "00:00"},
			{"phase": "pricing discussion", "start_timestamp": "02:00"},
		},
	}

	data, err := json.Marshal(transcript)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "call.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRootCmd_Help(t *testing.T) {
	output, err := executeCommand(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, output, "convosearch")
	assert.Contains(t, output, "chunk")
	assert.Contains(t, output, "search")
	assert.Contains(t, output, "route")
}

func TestRootCmd_Version(t *testing.T) {
	output, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, output, "convosearch version")
}

func TestLoadTranscript_MissingFile(t *testing.T) {
	_, err := loadTranscript(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadTranscript_EmptyTurnsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"transcript_id":"x","turns":[]}`), 0o644))

	_, err := loadTranscript(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no turns")
}

func TestLoadTranscript_DefaultsIDToPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "call.json")
	content := `{"turns":[{"speaker":"agent","text":"hello","timestamp":"00:00"}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tf, err := loadTranscript(path)
	require.NoError(t, err)
	assert.Equal(t, path, tf.TranscriptID)
}
