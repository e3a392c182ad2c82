package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/BradenHooton/realmadmin/internal/query"
	"github.com/BradenHooton/realmadmin/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFixture = "../../internal/repositories/testdata/test-realm.json"

func TestParseQueryArgs(t *testing.T) {
	params, err := parseQueryArgs([]string{"groupId=g-top", "groupId=g-rich", "lastName=doh%", "search="})
	require.NoError(t, err)
	assert.Equal(t, url.Values{
		"groupId":  {"g-top", "g-rich"},
		"lastName": {"doh%"},
		"search":   {""},
	}, params)

	_, err = parseQueryArgs([]string{"groupId"})
	assert.Error(t, err)

	_, err = parseQueryArgs([]string{"=value"})
	assert.Error(t, err)
}

func TestValidateOutputFormat(t *testing.T) {
	assert.NoError(t, validateOutputFormat("table"))
	assert.NoError(t, validateOutputFormat("JSON"))
	assert.Error(t, validateOutputFormat("yaml"))
}

func queryFixture(t *testing.T, params url.Values) *query.Page {
	t.Helper()
	dir, closeDir, err := openDirectory(context.Background(), testFixture)
	require.NoError(t, err)
	defer closeDir()

	svc := services.NewUserQueryService(dir, query.MatchAll, query.ParseOptions{}, newLogger())
	page, err := svc.QueryUsers(context.Background(), "test", params)
	require.NoError(t, err)
	return page
}

func TestPrintPage_Table(t *testing.T) {
	page := queryFixture(t, url.Values{"groupId": {"g-top"}})

	var buf bytes.Buffer
	require.NoError(t, printPage(&buf, page, "table"))

	out := buf.String()
	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, "topgroupuser2")
	assert.Contains(t, out, "Showing 2 of 2 user(s).")
}

func TestPrintPage_Empty(t *testing.T) {
	page := queryFixture(t, url.Values{"first": {"20"}})

	var buf bytes.Buffer
	require.NoError(t, printPage(&buf, page, "table"))
	assert.Equal(t, "No users found (count 8).\n", buf.String())
}

func TestPrintPage_JSON(t *testing.T) {
	page := queryFixture(t, url.Values{"max": {"2"}})

	var buf bytes.Buffer
	require.NoError(t, printPage(&buf, page, "json"))

	var body struct {
		Users []userRow `json:"users"`
		Count int       `json:"count"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &body))
	assert.Equal(t, 8, body.Count)
	require.Len(t, body.Users, 2)
	assert.Equal(t, "john-doh@localhost", body.Users[0].Username)
}
