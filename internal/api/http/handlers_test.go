package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arkui-x/app-framework-sub003/internal/domain/app"
	"github.com/arkui-x/app-framework-sub003/internal/domain/appcontext"
	"github.com/arkui-x/app-framework-sub003/internal/domain/bundle"
	"github.com/arkui-x/app-framework-sub003/internal/domain/configuration"
	"github.com/arkui-x/app-framework-sub003/internal/domain/level"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, *app.Application) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := bundle.NewRegistry()
	require.NoError(t, registry.Register(bundle.HapModuleInfo{
		Name:      "entry",
		Abilities: []string{"MainAbility"},
	}))

	application := app.New(appcontext.New("com.example.app", nil), registry, nil, nil)
	initial := configuration.New()
	initial.Add(configuration.KeyColorMode, configuration.ValueLight)
	initial.Add(configuration.KeyLanguage, "en-US")
	application.InitConfiguration(initial)
	t.Cleanup(application.Close)

	router := gin.New()
	NewHandlers(application, registry, nil).Register(router)
	return router, application
}

func do(t *testing.T, router *gin.Engine, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestRootAndHealth(t *testing.T) {
	router, _ := setupRouter(t)

	code, body := do(t, router, "GET", "/", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "online", body["status"])

	code, body = do(t, router, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(1), body["modules"])
}

func TestGetConfiguration(t *testing.T) {
	router, _ := setupRouter(t)

	code, body := do(t, router, "GET", "/configuration", "")
	require.Equal(t, http.StatusOK, code)

	cfg := body["configuration"].(map[string]interface{})
	assert.Equal(t, configuration.ValueLight, cfg[configuration.KeyColorMode])
	precedence := body["precedence"].(map[string]interface{})
	assert.NotEmpty(t, precedence)
	assert.Len(t, body["fingerprint"], 64)
}

func TestGetConfigurationETag(t *testing.T) {
	router, application := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/configuration", nil))
	tag := w.Header().Get("ETag")
	require.NotEmpty(t, tag)

	req := httptest.NewRequest("GET", "/configuration", nil)
	req.Header.Set("If-None-Match", tag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotModified, w.Code)

	delta := configuration.New()
	delta.Add(configuration.KeyColorMode, configuration.ValueDark)
	require.True(t, application.OnConfigurationUpdate(delta, level.Application))

	req = httptest.NewRequest("GET", "/configuration", nil)
	req.Header.Set("If-None-Match", tag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, tag, w.Header().Get("ETag"))
}

func TestUpdateConfiguration(t *testing.T) {
	router, application := setupRouter(t)

	code, body := do(t, router, "POST", "/configuration",
		`{"level":"application","items":{"`+configuration.KeyColorMode+`":"dark"}}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["applied"])
	assert.Equal(t, level.Application, application.Precedence().ColorModeLevel)

	// Lower level loses; the filtered delta comes back empty.
	code, body = do(t, router, "POST", "/configuration",
		`{"items":{"`+configuration.KeyColorMode+`":"light"}}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["applied"])
	assert.Empty(t, body["delta"])
	assert.Equal(t, configuration.ColorModeDark, application.Configuration().ColorMode())
}

func TestUpdateConfigurationValidation(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed body", `{`},
		{"unknown level", `{"level":"root","items":{}}`},
		{"invalid key", `{"items":{"bad key":"x"}}`},
		{"invalid value", `{"items":{"` + configuration.KeyDensityDPI + `":"-1"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, router, "POST", "/configuration", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestContextEndpoints(t *testing.T) {
	router, application := setupRouter(t)

	code, _ := do(t, router, "POST", "/context/color-mode", `{"mode":"dark"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, configuration.ColorModeDark, application.Configuration().ColorMode())
	assert.Equal(t, level.Application, application.Precedence().ColorModeLevel)

	code, _ = do(t, router, "POST", "/context/language", `{"language":"de-DE"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "de-DE", application.Configuration().Get(configuration.KeyLanguage))

	code, _ = do(t, router, "POST", "/context/font", `{"font":"Serif"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Serif", application.Configuration().Get(configuration.KeyFont))

	code, _ = do(t, router, "POST", "/context/font-size-scale", `{"scale":1.5}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1.5", application.Configuration().Get(configuration.KeyAppFontSizeScale))

	code, _ = do(t, router, "POST", "/context/font-size-scale", `{"follow_system":true}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, configuration.ValueFollowSystem, application.Configuration().Get(configuration.KeyAppFontSizeScale))
}

func TestContextValidation(t *testing.T) {
	router, _ := setupRouter(t)

	code, _ := do(t, router, "POST", "/context/color-mode", `{"mode":"purple"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, router, "POST", "/context/color-mode", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, router, "POST", "/context/language", `{"language":"??"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, router, "POST", "/context/font-size-scale", `{"scale":0}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStageEndpoints(t *testing.T) {
	router, _ := setupRouter(t)

	code, _ := do(t, router, "POST", "/stages/entry/abilities/MainAbility", "")
	require.Equal(t, http.StatusOK, code)

	code, body := do(t, router, "GET", "/stages", "")
	require.Equal(t, http.StatusOK, code)
	stages := body["stages"].([]interface{})
	require.Len(t, stages, 1)
	assert.Equal(t, "entry", stages[0].(map[string]interface{})["name"])

	code, _ = do(t, router, "POST", "/stages/missing/abilities/MainAbility", "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, router, "POST", "/stages/entry/abilities/Other", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, router, "DELETE", "/stages/entry/abilities/MainAbility", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, router, "DELETE", "/stages/entry/abilities/MainAbility", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestLifecycleEndpoints(t *testing.T) {
	router, application := setupRouter(t)

	code, body := do(t, router, "POST", "/lifecycle/foreground", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["foreground"])
	assert.True(t, application.IsForeground())

	_, body = do(t, router, "POST", "/lifecycle/background", "")
	assert.Equal(t, false, body["foreground"])
}
