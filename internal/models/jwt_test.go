package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTClaims_HasRole(t *testing.T) {
	claims := &JWTClaims{Roles: []string{"leads:viewer", "leads:admin"}}

	assert.True(t, claims.HasRole("leads:admin"))
	assert.False(t, claims.HasRole("leads"))
	assert.False(t, (&JWTClaims{}).HasRole("leads:admin"))
}

func TestJWTClaims_JSON(t *testing.T) {
	raw := `{"sub":"u1","name":"Operator","email":"op@agency.com","roles":["leads:admin"],"exp":1900000000}`

	var claims JWTClaims
	require.NoError(t, json.Unmarshal([]byte(raw), &claims))

	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "Operator", claims.Name)
	assert.Equal(t, []string{"leads:admin"}, claims.Roles)
	require.NotNil(t, claims.ExpiresAt)
	assert.Equal(t, int64(1900000000), claims.ExpiresAt.Unix())
}
