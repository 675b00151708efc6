package sexy

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func fence(lang, body string) string {
	return "```" + lang + "\n" + body + "\n```\n"
}

func TestExtractTestCases_BasicTest(t *testing.T) {
	markdown := "# Arithmetic\n\n## Test: multiply\n" +
		fence("basic-ast", "(program (main (let (var X%) (* (int 2) (int 3)))))") +
		fence("il-contains", "imul.ovf i16 2, 3") +
		"\n## Test: concat\n" +
		fence("basic-ast", `(program (main (let (var S$) (& (str "A") (str "B")))))`) +
		fence("features", "rt_concat")

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 2)

	tc1 := testCases[0]
	be.Equal(t, tc1.Name, "multiply")
	be.Equal(t, tc1.InputType, InputTypeBasicAST)
	be.Equal(t, tc1.Input, "(program (main (let (var X%) (* (int 2) (int 3)))))")
	be.Equal(t, tc1.Line, 5)
	be.Equal(t, len(tc1.Assertions), 1)
	be.Equal(t, tc1.Assertions[0].Type, AssertionTypeILContains)
	be.Equal(t, tc1.Assertions[0].Content, "imul.ovf i16 2, 3")

	tc2 := testCases[1]
	be.Equal(t, tc2.Name, "concat")
	be.Equal(t, tc2.Assertions[0].Type, AssertionTypeFeatures)
}

func TestExtractTestCases_MultipleAssertions(t *testing.T) {
	markdown := "## Test: many\n" +
		fence("basic-ast", "(program (main (end)))") +
		fence("il", "il 0.1.2") +
		fence("il-absent", "eh.push") +
		fence("diagnostics", "")

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)
	types := []AssertionType{}
	for _, a := range testCases[0].Assertions {
		types = append(types, a.Type)
	}
	be.Equal(t, types, []AssertionType{AssertionTypeIL, AssertionTypeILAbsent, AssertionTypeDiagnostics})
}

func TestExtractTestCases_PlainBlocksAllowed(t *testing.T) {
	markdown := "Notes:\n\n```\nanything\n```\n\n## Test: x\n" +
		fence("basic-ast", "(program)") +
		"```\nunlabeled blocks are prose\n```\n" +
		fence("il-contains", "ret")

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)
	be.Equal(t, len(testCases[0].Assertions), 1)
}

func TestExtractTestCases_Errors(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		message  string
	}{
		{
			"fence outside test",
			fence("basic-ast", "(program)"),
			"fence found outside of test case",
		},
		{
			"unknown fence",
			"## Test: x\n" + fence("basic-ast", "(program)") + fence("c-expr", "1"),
			"unknown fence language 'c-expr'",
		},
		{
			"two inputs",
			"## Test: x\n" + fence("basic-ast", "(program)") + fence("basic-ast", "(program)"),
			"multiple input fences",
		},
		{
			"no input",
			"## Test: x\n" + fence("il", "il 0.1.2"),
			"has no input fence",
		},
		{
			"no assertions",
			"## Test: x\n" + fence("basic-ast", "(program)"),
			"has no assertion fences",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ExtractTestCases(test.markdown)
			be.True(t, err != nil)
			be.True(t, strings.Contains(err.Error(), test.message))
		})
	}
}
