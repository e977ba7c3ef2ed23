package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synchrony-app/apiserver/types"
)

func TestConnectionCreateAndList(t *testing.T) {
	api := newTestAPI(t)
	token, adaID := api.registerUser(t, "Ada", "ada@example.com")
	_, bobID := api.registerUser(t, "Bob", "bob@example.com")

	var created CreateConnectionResponse
	rec := api.do(t, http.MethodPost, "/api/connections/", token, CreateConnectionRequest{
		UserID:          adaID,
		ConnectedUserID: bobID,
		SharedPatterns:  "both keep seeing 11:11",
	}, &created)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Connection created successfully.", created.Message)

	var connections []types.ConnectionWithUser
	rec = api.do(t, http.MethodGet, fmt.Sprintf("/api/connections/%d", adaID), token, nil, &connections)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, connections, 1)
	assert.Equal(t, bobID, connections[0].ConnectedUserID)
	assert.Equal(t, "Bob", connections[0].ConnectedUser.Name)
	assert.Equal(t, "bob@example.com", connections[0].ConnectedUser.Email)
}

func TestConnectionCreateDuplicate(t *testing.T) {
	api := newTestAPI(t)
	token, adaID := api.registerUser(t, "Ada", "ada@example.com")
	_, bobID := api.registerUser(t, "Bob", "bob@example.com")

	req := CreateConnectionRequest{UserID: adaID, ConnectedUserID: bobID}
	rec := api.do(t, http.MethodPost, "/api/connections/", token, req, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp MessageResponse
	rec = api.do(t, http.MethodPost, "/api/connections/", token, req, &resp)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Connection already exists.", resp.Message)
}

func TestConnectionListEmpty(t *testing.T) {
	api := newTestAPI(t)
	token, adaID := api.registerUser(t, "Ada", "ada@example.com")

	var resp MessageResponse
	rec := api.do(t, http.MethodGet, fmt.Sprintf("/api/connections/%d", adaID), token, nil, &resp)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No connections found for this user.", resp.Message)
}
