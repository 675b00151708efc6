package sexy

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"X%", "X%"},
		{"NAME$", "NAME$"},
		{"<>", "<>"},
		{`\`, `\`},
		{"-", "-"},
		{"on-error-goto", "on-error-goto"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeSymbol)
		be.Equal(t, result.Text, test.expected)
		be.Equal(t, result.String(), test.expected)
	}
}

func TestParseString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		output   string
	}{
		{`"hello"`, "hello", `"hello"`},
		{`""`, "", `""`},
		{`"test\"quote"`, `test"quote`, `"test\"quote"`},
		{`"a\nb"`, "a\nb", `"a\nb"`},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeString)
		be.Equal(t, result.Text, test.expected)
		be.Equal(t, result.String(), test.output)
	}
}

func TestParseNumbers(t *testing.T) {
	tests := []struct {
		input string
		typ   NodeType
		value float64
	}{
		{"42", NodeInteger, 42},
		{"-32768", NodeInteger, -32768},
		{"2_147_483_648", NodeInteger, 2147483648},
		{"1.5", NodeFloat, 1.5},
		{"-0.25", NodeFloat, -0.25},
		{"1e3", NodeFloat, 1000},
		{".5", NodeFloat, 0.5},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)
		be.Equal(t, result.Type, test.typ)
		f, err := result.Float()
		be.Err(t, err, nil)
		be.Equal(t, f, test.value)
	}

	n, err := Parse("2_147_483_648")
	be.Err(t, err, nil)
	v, err := n.Int()
	be.Err(t, err, nil)
	be.Equal(t, v, int64(2147483648))
}

func TestParseList(t *testing.T) {
	result, err := Parse(`(let (var X%) (* (int 1000) (int 1000)))`)
	be.Err(t, err, nil)
	be.Equal(t, result.Type, NodeList)
	be.Equal(t, result.Head(), "let")
	be.Equal(t, len(result.Items), 3)
	be.Equal(t, result.Items[2].Head(), "*")
	be.Equal(t, result.String(), `(let (var X%) (* (int 1000) (int 1000)))`)
}

func TestParseMeta(t *testing.T) {
	result, err := Parse(`(print ^{line: 10, col: 3} (str "A"))`)
	be.Err(t, err, nil)
	be.Equal(t, result.Head(), "print")
	be.Equal(t, len(result.Items), 2)
	be.Equal(t, result.Meta("line").Text, "10")
	be.Equal(t, result.Meta("col").Text, "3")
	be.True(t, result.Meta("file") == nil)
	be.Equal(t, result.String(), `(print ^{line: 10, col: 3} (str "A"))`)
}

func TestParseMetaMerging(t *testing.T) {
	result, err := Parse(`(goto ^{line: 10} 100 ^{line: 20, col: 1})`)
	be.Err(t, err, nil)
	be.Equal(t, result.MetaKeys, []string{"line", "col"})
	be.Equal(t, result.Meta("line").Text, "20")
}

func TestParseComments(t *testing.T) {
	result, err := Parse("; program\n(end) ; trailing")
	be.Err(t, err, nil)
	be.Equal(t, result.Head(), "end")
}

func TestParseOffsets(t *testing.T) {
	result, err := Parse(`(a  (b))`)
	be.Err(t, err, nil)
	be.Equal(t, result.Offset, 0)
	be.Equal(t, result.Items[1].Offset, 4)
}

func TestParserErrors(t *testing.T) {
	tests := []string{
		"(unclosed",
		`"unterminated`,
		"(a [b])",
		"(a ^(b))",
		"{a 1}",
		"(a) (b)",
		"",
	}

	for _, input := range tests {
		_, err := Parse(input)
		be.True(t, err != nil)
	}
}
