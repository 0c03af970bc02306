package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBundleRoundTripsMainAndCoreFiles(t *testing.T) {
	b := Bundle{
		Main: "def main():\n\tpass\n",
		Core: []Unit{
			{Name: "io.rns", Text: "def println(s: &str):\n\tpass\n"},
		},
	}

	units, err := ParseBundle(b.Format())
	assert.NoError(t, err)
	assert.Len(t, units, 2)
	assert.Equal(t, "main.rns", units[0].Name)
	assert.Equal(t, b.Main, units[0].Text)
	assert.Equal(t, "io.rns", units[1].Name)
	assert.Equal(t, b.Core[0].Text, units[1].Text)
}

func TestParseBundleRejectsEmptyArchive(t *testing.T) {
	_, err := ParseBundle([]byte{})
	assert.Error(t, err)
}
