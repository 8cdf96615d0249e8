package prompts

import (
	"strings"
	"testing"
)

func TestBuildBasePrompt(t *testing.T) {
	prompt := Build("")

	for _, want := range []string{
		"car damage assessor",
		"bbox",
		"severity",
		"Return ONLY valid JSON",
		`"damages": []`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("base prompt missing %q", want)
		}
	}

	if strings.Contains(prompt, "ADDITIONAL INSTRUCTIONS") {
		t.Error("base prompt should not contain the additional-instructions heading")
	}
}

func TestBuildAppendsCustomInstructions(t *testing.T) {
	custom := "Pay special attention to the wheel rims."
	prompt := Build(custom)

	if !strings.HasSuffix(prompt, custom) {
		t.Error("custom instructions must be appended verbatim at the end")
	}
	if !strings.Contains(prompt, "ADDITIONAL INSTRUCTIONS:\n"+custom) {
		t.Error("custom instructions must sit under the additional-instructions heading")
	}
	if !strings.HasPrefix(prompt, Build("")) {
		t.Error("base prompt must be unchanged when custom instructions are added")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	if Build("x") != Build("x") {
		t.Error("Build must be a pure function of its input")
	}
}
