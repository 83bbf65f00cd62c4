package compiler

import (
	"fmt"
	"go/format"
	"os"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/trre-go/trre/internal/ast"
	"github.com/trre-go/trre/internal/codegen"
)

// Generate compiles the expression and writes Go source that embeds the
// transducer's transition table and exposes a Match function for it.
func (c *Compiler) Generate() error {
	if !codegen.IsIdentifier(c.config.Name) {
		return fmt.Errorf("name %q is not a Go identifier", c.config.Name)
	}
	if c.config.Package == "" || c.config.OutputFile == "" {
		return fmt.Errorf("package and output file are required")
	}
	prog, err := c.Compile()
	if err != nil {
		return err
	}

	c.logger.Section("Code Generation")
	c.logger.Log("Writing %s (package %s, %d transitions)", c.config.OutputFile, c.config.Package, len(prog.Trans))

	file := c.transducerFile(prog)
	if err := file.Save(c.config.OutputFile); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	if err := formatFile(c.config.OutputFile); err != nil {
		return fmt.Errorf("failed to format file: %w", err)
	}

	if c.config.GenerateTestFile {
		if err := c.generateTestFile(); err != nil {
			return fmt.Errorf("failed to generate test file: %w", err)
		}
	}
	return nil
}

// describe returns the expression text used in generated comments.
func (c *Compiler) describe() string {
	if c.config.Pattern != "" {
		return c.config.Pattern
	}
	return c.config.Expr.String()
}

func (c *Compiler) transducerFile(prog *Program) *jen.File {
	f := jen.NewFile(c.config.Package)
	f.ImportName(codegen.RuntimePath, codegen.RuntimeName)
	f.HeaderComment("Code generated by trre. DO NOT EDIT.")
	f.HeaderComment("Expression: " + oneLine(c.describe()))

	// One row per line: {From: 0, In: 'a', Out: 'x', To: 1},
	rows := make([]jen.Code, 0, len(prog.Trans)+1)
	for _, t := range prog.Trans {
		rows = append(rows, jen.Line().Values(
			jen.Id("From").Op(":").Lit(t.From),
			jen.Id("In").Op(":").Add(symbol(t.In)),
			jen.Id("Out").Op(":").Add(symbol(t.Out)),
			jen.Id("To").Op(":").Lit(t.To),
		))
	}
	rows = append(rows, jen.Line())
	table := codegen.TableName(c.config.Name)
	f.Var().Id(table).Op("=").Index().Qual(codegen.RuntimePath, "Transition").Values(rows...)
	f.Line()

	f.Commentf("%s is the transducer compiled from %s.", c.name(""), oneLine(c.describe()))
	f.Var().Id(c.name("")).Op("=").Qual(codegen.RuntimePath, "MustFromTable").Call(
		jen.Lit(prog.NumStates),
		jen.Id(table),
		jen.Lit(prog.Start),
		jen.Lit(prog.Accept),
	)
	f.Line()

	f.Commentf("%s transduces the whole of input with %s.", c.name("Match"), c.name(""))
	f.Func().Id(c.name("Match")).
		Params(jen.Id(codegen.InputName).String()).
		Params(jen.Qual(codegen.RuntimePath, "Result"), jen.Error()).
		Block(
			jen.Return(jen.Id(c.name("")).Dot("Match").Call(jen.Id(codegen.InputName))),
		)
	return f
}

// generateTestFile writes <output>_test.go checking the generated transducer
// against one compiled at test time from the same pattern.
func (c *Compiler) generateTestFile() error {
	if c.config.Pattern == "" {
		return fmt.Errorf("a source pattern is required for the test file")
	}
	inputs := make([]jen.Code, 0, len(c.config.TestFileInputs))
	for _, in := range c.config.TestFileInputs {
		inputs = append(inputs, jen.Lit(in))
	}

	f := jen.NewFile(c.config.Package)
	f.ImportName(codegen.RuntimePath, codegen.RuntimeName)
	f.HeaderComment("Code generated by trre. DO NOT EDIT.")

	f.Func().Id("Test"+c.name("Match")).Params(jen.Id("t").Op("*").Qual("testing", "T")).Block(
		jen.Id(codegen.ReferenceName).Op(":=").Qual(codegen.RuntimePath, "MustCompileString").Call(jen.Lit(c.config.Pattern)),
		jen.Id(codegen.InputsName).Op(":=").Index().String().Values(inputs...),
		jen.For(jen.List(jen.Id("_"), jen.Id(codegen.InputName)).Op(":=").Range().Id(codegen.InputsName)).Block(
			jen.List(jen.Id("got"), jen.Id("err")).Op(":=").Id(c.name("Match")).Call(jen.Id(codegen.InputName)),
			jen.If(jen.Err().Op("!=").Nil()).Block(
				jen.Id("t").Dot("Fatalf").Call(jen.Lit("%q: %v"), jen.Id(codegen.InputName), jen.Err()),
			),
			jen.List(jen.Id("want"), jen.Id("err")).Op(":=").Id(codegen.ReferenceName).Dot("Match").Call(jen.Id(codegen.InputName)),
			jen.If(jen.Err().Op("!=").Nil()).Block(
				jen.Id("t").Dot("Fatalf").Call(jen.Lit("%q: %v"), jen.Id(codegen.InputName), jen.Err()),
			),
			jen.If(jen.Op("!").Qual("reflect", "DeepEqual").Call(jen.Id("got"), jen.Id("want"))).Block(
				jen.Id("t").Dot("Errorf").Call(jen.Lit("%q: got %+v, want %+v"), jen.Id(codegen.InputName), jen.Id("got"), jen.Id("want")),
			),
		),
	)

	path := strings.TrimSuffix(c.config.OutputFile, ".go") + "_test.go"
	if err := f.Save(path); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	return formatFile(path)
}

func symbol(s ast.Symbol) jen.Code {
	if s == ast.Epsilon {
		return jen.Qual(codegen.RuntimePath, "Epsilon")
	}
	return jen.LitRune(rune(s))
}

func oneLine(s string) string {
	return strings.NewReplacer("\n", `\n`, "\r", `\r`).Replace(s)
}

// formatFile reads a file, formats it with go/format, and writes it back.
func formatFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	formatted, err := format.Source(src)
	if err != nil {
		return err
	}

	return os.WriteFile(path, formatted, 0644)
}
