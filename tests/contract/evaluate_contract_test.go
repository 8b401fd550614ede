package contract_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-code-evaluator/internal/config"
	"github.com/noah-isme/gema-code-evaluator/internal/handler"
	"github.com/noah-isme/gema-code-evaluator/internal/router"
	"github.com/noah-isme/gema-code-evaluator/internal/service"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()

	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)
	return schema
}

func newEvaluatorApp() *fiber.App {
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := service.NewEvaluationService(nil, nil, nil, validate, zerolog.Nop(), service.EvaluationServiceConfig{})

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Contract"}, router.Dependencies{
		EvaluationHandler: handler.NewEvaluationHandler(svc, validate, zerolog.Nop()),
	})
	return app
}

func evaluate(t *testing.T, app *fiber.App, body string) (int, interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/evaluate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	return resp.StatusCode, payload
}

func TestEvaluateContract(t *testing.T) {
	schema := compileSchema(t, "evaluate_response.schema.json")
	app := newEvaluatorApp()

	bodies := []string{
		`{"code":"x = 1","language":"Python"}`,
		`{"code":"// c\nfunction f() { for (;;) {} while (x) {} }"}`,
		`{"code":"#include <iostream>\nint main() {\n  return 0;\n}","language":"C++"}`,
		`{"code":"def f():\n  prnt(1)","language":"Python"}`,
		`{"code":"public class Main {}","language":"Java"}`,
	}

	for _, body := range bodies {
		status, payload := evaluate(t, app, body)
		require.Equal(t, http.StatusOK, status)
		require.NoError(t, schema.Validate(payload), body)
	}
}

func TestEvaluateErrorContract(t *testing.T) {
	schema := compileSchema(t, "error_response.schema.json")
	app := newEvaluatorApp()

	status, payload := evaluate(t, app, `{"language":"Python"}`)
	require.Equal(t, http.StatusBadRequest, status)
	require.NoError(t, schema.Validate(payload))

	status, payload = evaluate(t, app, `not json`)
	require.Equal(t, http.StatusInternalServerError, status)
	require.NoError(t, schema.Validate(payload))
}
