package testkit

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shashiranjanraj/storefront/pkg/router"
)

// SuiteEntry is one endpoint in a suite index file. Its scenarios live in
// FilePath/ScenariosFileName as a JSON array.
type SuiteEntry struct {
	ServiceName       string `json:"serviceName"`
	FilePath          string `json:"filePath"`
	ScenariosFileName string `json:"scenariosFileName"`
	ServiceURL        string `json:"serviceUrl"`
	HTTPMethodType    string `json:"httpMethodType"`
	WorkflowService   string `json:"workflowService"` // key into the handlers map
}

// RunSuite mounts each entry's handler on a fresh router and runs its
// scenarios against it. Scenario paths are resolved relative to the index
// file first, then to the working directory.
func RunSuite(t *testing.T, indexPath string, handlers map[string]http.HandlerFunc, opts ...Option) {
	t.Helper()

	absIndex, err := filepath.Abs(indexPath)
	if err != nil {
		t.Fatalf("testkit: resolve suite index %q: %v", indexPath, err)
	}

	data, err := os.ReadFile(absIndex)
	if err != nil {
		t.Fatalf("testkit: read suite index %q: %v", absIndex, err)
	}

	var entries []SuiteEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("testkit: parse suite index %q: %v", absIndex, err)
	}

	cfg := newRunConfig(opts)
	baseDir := filepath.Dir(absIndex)

	for _, entry := range entries {
		t.Run(entry.ServiceName, func(t *testing.T) {
			h, ok := handlers[entry.WorkflowService]
			if !ok {
				t.Fatalf("testkit: handler %q not found", entry.WorkflowService)
			}

			url := entry.ServiceURL
			if !strings.HasPrefix(url, "/") {
				url = "/" + url
			}
			r := router.New()
			mount(r, strings.ToUpper(entry.HTTPMethodType), url, entry.WorkflowService, h)

			path := filepath.Join(baseDir, entry.FilePath, entry.ScenariosFileName)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				path = filepath.Join(entry.FilePath, entry.ScenariosFileName)
			}

			scenarios, err := LoadScenarioArray(path)
			if err != nil {
				t.Fatalf("testkit: load scenario array %q: %v", path, err)
			}

			for _, s := range scenarios {
				if s.RequestURL == "" {
					s.RequestURL = url
				}
				if s.RequestMethod == "" {
					s.RequestMethod = entry.HTTPMethodType
				}
				t.Run(s.Name, func(t *testing.T) {
					runScenario(t, r.Handler(), s, cfg)
				})
			}
		})
	}
}

func mount(r *router.Router, method, url, name string, h http.HandlerFunc) {
	switch method {
	case http.MethodPost:
		r.Post(url, name, h)
	case http.MethodPut:
		r.Put(url, name, h)
	case http.MethodPatch:
		r.Patch(url, name, h)
	case http.MethodDelete:
		r.Delete(url, name, h)
	default:
		r.Get(url, name, h)
	}
}
