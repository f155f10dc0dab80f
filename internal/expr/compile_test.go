package expr_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mapsim/internal/dynamo"
	"github.com/san-kum/mapsim/internal/expr"
)

func symbols(names ...string) *dynamo.Symbols {
	syms, err := dynamo.NewSymbols(names...)
	Expect(err).NotTo(HaveOccurred())
	return syms
}

var _ = Describe("Compile", func() {
	var (
		syms *dynamo.Symbols
		st   *dynamo.State
	)

	BeforeEach(func() {
		syms = symbols("q", "p", "K", "k2")
		st = dynamo.NewState(syms)
		Expect(st.Set("q", 0.5)).To(Succeed())
		Expect(st.Set("p", 0.25)).To(Succeed())
		Expect(st.Set("K", 2)).To(Succeed())
		Expect(st.Set("k2", 3)).To(Succeed())
	})

	eval := func(src string) float64 {
		e, err := expr.Compile(src, syms)
		Expect(err).NotTo(HaveOccurred())
		v, err := e.Eval(st)
		Expect(err).NotTo(HaveOccurred())
		return v
	}

	DescribeTable("arithmetic",
		func(src string, want float64) {
			Expect(eval(src)).To(BeNumerically("~", want, 1e-12))
		},
		Entry("sum", "q + p", 0.75),
		Entry("precedence", "q + p * K", 1.0),
		Entry("parentheses", "(q + p) * K", 1.5),
		Entry("left associative minus", "K - q - p", 1.25),
		Entry("left associative divide", "k2 / K / 2", 0.75),
		Entry("unary minus", "-q + 1", 0.5),
		Entry("double unary", "--q", 0.5),
		Entry("floored modulo", "-q % K", 1.5),
		Entry("exponent literal", "1e-1 * K", 0.2),
		Entry("leading dot", ".5 + q", 1.0),
		Entry("sin", "p + K*sin(q)", 0.25+2*math.Sin(0.5)),
		Entry("cos nested", "cos(sin(q) - p)", math.Cos(math.Sin(0.5)-0.25)),
		Entry("prefix names stay distinct", "K + k2", 5.0),
	)

	It("lists referenced names on token boundaries", func() {
		e, err := expr.Compile("q - K*sin(p) + q", syms)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Names()).To(Equal([]string{"K", "p", "q"}))
	})

	It("prints a fully parenthesised form", func() {
		e, err := expr.Compile("q + p * K", syms)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.String()).To(Equal("(q + (p * K))"))
		Expect(e.Source()).To(Equal("q + p * K"))
	})

	DescribeTable("rejects anything that is not a pure expression",
		func(src string) {
			_, err := expr.Compile(src, syms)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, expr.ErrInvalidExpression)).To(BeTrue())
			var ie *expr.InvalidExpressionError
			Expect(errors.As(err, &ie)).To(BeTrue())
			Expect(ie.Source).To(Equal(src))
		},
		Entry("empty", ""),
		Entry("blank", "   "),
		Entry("import statement", "import os"),
		Entry("assignment", "q = 1"),
		Entry("statement separator", "q; p"),
		Entry("dunder call", "__import__('os')"),
		Entry("attribute access", "os.system"),
		Entry("string literal", "\"rm\""),
		Entry("substring of a declared name", "sq + 1"),
		Entry("unknown identifier", "q + x"),
		Entry("unknown function", "tan(q)"),
		Entry("calling a variable", "q(p)"),
		Entry("bare function name", "sin + q"),
		Entry("power operator", "q ** 2"),
		Entry("unbalanced open", "(q + p"),
		Entry("unbalanced close", "q + p)"),
		Entry("dangling operator", "q +"),
		Entry("juxtaposition", "q p"),
		Entry("number glued to name", "2q"),
		Entry("two dots", "1.2.3"),
		Entry("comma", "sin(q, p)"),
	)

	It("reports the offset of the offending token", func() {
		_, err := expr.Compile("q + x", syms)
		var ie *expr.InvalidExpressionError
		Expect(errors.As(err, &ie)).To(BeTrue())
		Expect(ie.Offset).To(Equal(4))
	})

	It("rejects absurd nesting instead of recursing without bound", func() {
		src := ""
		for i := 0; i < 1000; i++ {
			src += "("
		}
		src += "q"
		for i := 0; i < 1000; i++ {
			src += ")"
		}
		_, err := expr.Compile(src, syms)
		Expect(errors.Is(err, expr.ErrInvalidExpression)).To(BeTrue())
	})

	Context("evaluation errors", func() {
		It("reports a missing value as a validation error", func() {
			e, err := expr.Compile("q + K", syms)
			Expect(err).NotTo(HaveOccurred())
			fresh := dynamo.NewState(syms)
			Expect(fresh.Set("q", 1)).To(Succeed())
			_, err = e.Eval(fresh)
			Expect(errors.Is(err, dynamo.ErrValidation)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("K"))
		})

		It("reports division by zero", func() {
			e, err := expr.Compile("q / (p - p)", syms)
			Expect(err).NotTo(HaveOccurred())
			_, err = e.Eval(st)
			Expect(errors.Is(err, dynamo.ErrValidation)).To(BeTrue())
		})

		It("refuses a state built on another symbol table", func() {
			e, err := expr.Compile("q", syms)
			Expect(err).NotTo(HaveOccurred())
			other := dynamo.NewState(symbols("q"))
			Expect(other.Set("q", 1)).To(Succeed())
			_, err = e.Eval(other)
			Expect(errors.Is(err, dynamo.ErrValidation)).To(BeTrue())
		})
	})

	It("knows its function set", func() {
		Expect(expr.Functions()).To(Equal([]string{"cos", "sin"}))
		Expect(expr.IsFunction("sin")).To(BeTrue())
		Expect(expr.IsFunction("q")).To(BeFalse())
	})
})
