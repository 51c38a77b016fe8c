package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zapflowhq/zapflow/pkg/models"
)

func testContext() *models.ExecutionContext {
	execCtx := models.NewExecutionContext()
	execCtx.Input["message"] = map[string]any{"text": "hello", "contactId": "c-1"}
	execCtx.Variables["name"] = "Alice"
	execCtx.Variables["age"] = 30.0
	execCtx.Variables["vip"] = true
	execCtx.Output["api"] = map[string]any{"status": 200.0}

	return execCtx
}

func TestRender_SimpleToken(t *testing.T) {
	execCtx := testContext()

	assert.Equal(t, "Hi Alice!", Render("Hi {{variables.name}}!", execCtx))
	assert.Equal(t, "Alice", Render("{{ variables.name }}", execCtx))
}

func TestRender_NestedPath(t *testing.T) {
	execCtx := testContext()

	assert.Equal(t, "you said hello", Render("you said {{input.message.text}}", execCtx))
	assert.Equal(t, "status 200", Render("status {{output.api.status}}", execCtx))
}

func TestRender_UnresolvedTokenRendersEmpty(t *testing.T) {
	execCtx := testContext()

	assert.Equal(t, "value: ", Render("value: {{variables.missing}}", execCtx))
	assert.Equal(t, "value: ", Render("value: {{nonsense}}", execCtx))
}

func TestRender_NumbersWithoutDecimalPoint(t *testing.T) {
	execCtx := testContext()

	assert.Equal(t, "30", Render("{{variables.age}}", execCtx))

	execCtx.Variables["score"] = 7.5
	assert.Equal(t, "7.5", Render("{{variables.score}}", execCtx))
}

func TestRender_UnclosedTokenKeptVerbatim(t *testing.T) {
	execCtx := testContext()

	assert.Equal(t, "oops {{variables.name", Render("oops {{variables.name", execCtx))
}

func TestRender_NoTokens(t *testing.T) {
	execCtx := testContext()

	assert.Equal(t, "plain text", Render("plain text", execCtx))
}

func TestResolveValue_SingleTokenKeepsType(t *testing.T) {
	execCtx := testContext()

	assert.Equal(t, 30.0, ResolveValue("{{variables.age}}", execCtx))
	assert.Equal(t, true, ResolveValue("{{variables.vip}}", execCtx))

	nested := ResolveValue("{{input.message}}", execCtx)
	assert.Equal(t, map[string]any{"text": "hello", "contactId": "c-1"}, nested)
}

func TestResolveValue_MissingTokenIsEmptyString(t *testing.T) {
	execCtx := testContext()

	assert.Equal(t, "", ResolveValue("{{variables.missing}}", execCtx))
}

func TestResolveValue_MixedContentRendersString(t *testing.T) {
	execCtx := testContext()

	assert.Equal(t, "Alice is 30", ResolveValue("{{variables.name}} is {{variables.age}}", execCtx))
}
