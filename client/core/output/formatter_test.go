package output

import (
	"bytes"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	CollectionID uint32 `json:"collectionId"`
	Publisher    string `json:"publisher"`
	Verified     bool   `json:"verified"`
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"json", "PRETTY", "table", "text"} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON, &buf).Print(sample{CollectionID: 7, Publisher: "alice"}))
	assert.Equal(t, `{"collectionId":7,"publisher":"alice","verified":false}`+"\n", buf.String())
}

func TestPrintText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatText, &buf).Print(sample{CollectionID: 7, Publisher: "alice", Verified: true}))
	assert.Equal(t, "collectionId: 7\npublisher: alice\nverified: true\n", buf.String())

	buf.Reset()
	require.NoError(t, NewFormatter(FormatText, &buf).Print("0x1234"))
	assert.Equal(t, "0x1234\n", buf.String())
}

func TestPrintTable(t *testing.T) {
	pterm.DisableStyling()
	t.Cleanup(pterm.EnableStyling)

	var buf bytes.Buffer
	rows := []sample{{CollectionID: 1, Publisher: "alice"}, {CollectionID: 3, Publisher: "bob", Verified: true}}
	require.NoError(t, NewFormatter(FormatTable, &buf).Print(rows))
	out := buf.String()
	assert.Contains(t, out, "collectionId")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")

	buf.Reset()
	require.NoError(t, NewFormatter(FormatTable, &buf).Print([]sample{}))
	assert.Empty(t, buf.String())
}

func TestSilent(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(FormatJSON, &buf)
	f.SetSilent(true)
	require.NoError(t, f.Print(sample{}))
	assert.Empty(t, buf.String())
}
