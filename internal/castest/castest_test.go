// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package castest_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"casfa.io/core/internal/castest"
)

func TestPlanet_HealthAndInfo(t *testing.T) {
	planet := castest.NewPlanet(t)
	srv := planet.NewTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/api/info")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestPlanet_RootTokensMintDelegate(t *testing.T) {
	planet := castest.NewPlanet(t)
	srv := planet.NewTestServer()
	defer srv.Close()

	userID := [16]byte(uuidv7(t))
	jwtToken, realm, err := planet.BootstrapRootJWT(userID)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/tokens/root", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+jwtToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tokens))
	require.NotEmpty(t, tokens.AccessToken)

	depotReq, err := http.NewRequest(http.MethodGet, srv.URL+"/api/realm/"+realm.String()+"/depots", nil)
	require.NoError(t, err)
	depotReq.Header.Set("Authorization", "Bearer "+tokens.AccessToken)

	depotResp, err := http.DefaultClient.Do(depotReq)
	require.NoError(t, err)
	defer depotResp.Body.Close()
	require.Equal(t, http.StatusOK, depotResp.StatusCode)
}

func uuidv7(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id
}
