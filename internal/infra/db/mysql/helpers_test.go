package mysql

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/carbon-validator/internal/domain/projects"
)

func TestStatements(t *testing.T) {
	stmts := statements(schema)
	require.Len(t, stmts, 6)
	for _, s := range stmts {
		assert.Contains(t, s, "CREATE TABLE IF NOT EXISTS")
		assert.NotContains(t, s, ";")
	}
}

func TestRecommendationsCodec(t *testing.T) {
	enc, err := encodeRecommendations(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", enc)

	in := []projects.Recommendation{{Action: "Add buffer", Priority: "high"}}
	enc, err = encodeRecommendations(in)
	require.NoError(t, err)
	out, err := decodeRecommendations(enc)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	out, err = decodeRecommendations("")
	require.NoError(t, err)
	assert.NotNil(t, out)

	_, err = decodeRecommendations("{bad")
	assert.Error(t, err)
}

func TestNullHelpers(t *testing.T) {
	assert.Equal(t, "-", stringOrDash("  "))
	assert.Equal(t, "", dashToEmpty("-"))
	assert.Equal(t, sql.NullString{}, nullString(""))
	assert.Equal(t, sql.NullString{String: "REDD+", Valid: true}, nullString("REDD+"))

	lat, lng := coordinateArgs(nil)
	assert.Nil(t, coordinates(lat, lng))
	lat, lng = coordinateArgs(&projects.Coordinates{Lat: 1.5, Lng: -2})
	assert.Equal(t, &projects.Coordinates{Lat: 1.5, Lng: -2}, coordinates(lat, lng))
}
