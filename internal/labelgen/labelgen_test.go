package labelgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode128Points(t *testing.T) {
	// Worked example for "AB": start 104, A=33, B=34,
	// checksum = (104 + 33*1 + 34*2) % 103 = 205 % 103 = 102, stop 106.
	points, err := Code128Points("AB")
	require.NoError(t, err)
	assert.Equal(t, "104 33 34 102 106", points)
}

func TestCode128PointsOrderNumber(t *testing.T) {
	points, err := Code128Points("V-B260001")
	require.NoError(t, err)

	parts := strings.Fields(points)
	require.Len(t, parts, 12) // start + 9 data + checksum + stop
	assert.Equal(t, "104", parts[0])
	assert.Equal(t, "106", parts[len(parts)-1])
	// 'V' = 86 - 32 = 54, '-' = 45 - 32 = 13
	assert.Equal(t, "54", parts[1])
	assert.Equal(t, "13", parts[2])
}

func TestCode128PointsRejectsNonASCII(t *testing.T) {
	_, err := Code128Points("V-é6")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	g, err := New()
	require.NoError(t, err)

	out, err := g.Render(Job{
		OrderNumber: "V-B260001",
		Material:    "walnut",
		Lines: []Line{
			{Text: "V-B260001", Height: 6},
			{Text: "Acme Corp", Height: 4},
		},
	})
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, `material="walnut"`)
	assert.Contains(t, s, `value="V-B260001"`)
	assert.Contains(t, s, `<TextLine height="6.0">V-B260001</TextLine>`)
	assert.Contains(t, s, `<TextLine height="4.0">Acme Corp</TextLine>`)
	// Default label dimensions apply when the job leaves them zero.
	assert.Contains(t, s, `width="70.0" height="25.0"`)
}

func TestRenderRequiresOrderNumber(t *testing.T) {
	g, err := New()
	require.NoError(t, err)

	_, err = g.Render(Job{Material: "acrylic"})
	assert.Error(t, err)
}
