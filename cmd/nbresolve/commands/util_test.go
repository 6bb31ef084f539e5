package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbios-go/nbtresolve/internal/netbios"
)

func TestParseName_DefaultsToWorkstationSuffix(t *testing.T) {
	name, err := parseName("FILESERVER")
	require.NoError(t, err)
	assert.Equal(t, netbios.Name{Label: "FILESERVER", Suffix: netbios.SuffixWorkstation}, name)
}

func TestParseName_ParsesHexSuffix(t *testing.T) {
	name, err := parseName("EXAMPLE#1b")
	require.NoError(t, err)
	assert.Equal(t, netbios.Name{Label: "EXAMPLE", Suffix: netbios.SuffixPDC}, name)
}

func TestParseName_RejectsNonHexSuffix(t *testing.T) {
	_, err := parseName("EXAMPLE#zz")
	assert.Error(t, err)
}
