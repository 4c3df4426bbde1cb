package testkit

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunSuite(t *testing.T) {
	index := []SuiteEntry{{
		ServiceName:       "CategoryEcho",
		FilePath:          "categories",
		ScenariosFileName: "scenarios.json",
		ServiceURL:        "api/categories/{slug}",
		HTTPMethodType:    "PUT",
		WorkflowService:   "UpdateCategory",
	}}
	scenarios := []Scenario{
		{
			Name:             "Rename",
			RequestURL:       "/api/categories/women",
			ExpectedCode:     200,
			RequestFileName:  "req.json",
			ResponseFileName: "res.json",
		},
		{
			Name:          "Wrong method",
			RequestURL:    "/api/categories/women",
			RequestMethod: "POST",
			ExpectedCode:  405,
		},
	}

	dir := t.TempDir()
	indexPath := filepath.Join(dir, "suite.json")
	writeJSON(t, indexPath, index)

	apiDir := filepath.Join(dir, "categories")
	require.NoError(t, os.MkdirAll(apiDir, 0o755))
	writeJSON(t, filepath.Join(apiDir, "scenarios.json"), scenarios)
	require.NoError(t, os.WriteFile(filepath.Join(apiDir, "req.json"), []byte(`{"name":"Women"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(apiDir, "res.json"), []byte(`{"slug":"women","name":"Women"}`), 0o644))

	handlers := map[string]http.HandlerFunc{
		"UpdateCategory": func(w http.ResponseWriter, r *http.Request) {
			var in map[string]string
			_ = json.NewDecoder(r.Body).Decode(&in)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"slug": "women", "name": in["name"]})
		},
	}

	RunSuite(t, indexPath, handlers)
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}
