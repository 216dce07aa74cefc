package builtins

import "formula/internal/function"

// Operator definitions are independent copies of the named functions they
// alias, so the function table can change without affecting the syntax.
var (
	OperAt         = FuncAt.Clone()
	OperBy         = FuncBy.Clone()
	OperLen        = FuncLen.Clone()
	OperNot        = FuncNot.Clone()
	OperAnd        = FuncAnd.Clone()
	OperOr         = FuncOr.Clone()
	OperGt         = FuncGt.Clone()
	OperLt         = FuncLt.Clone()
	OperGe         = FuncGe.Clone()
	OperLe         = FuncLe.Clone()
	OperEqual      = FuncEqual.Clone()
	OperNotEqual   = FuncNotEqual.Clone()
	OperLike       = FuncLike.Clone()
	OperNotLike    = FuncNotLike.Clone()
	OperNullco     = FuncNullco.Clone()
	OperIfThenElse = FuncIfThenElse.Clone()
	OperAdd        = FuncAdd.Clone()
	OperSub        = FuncSub.Clone()
	OperNeg        = FuncNeg.Clone()
	OperMul        = FuncMul.Clone()
	OperDiv        = FuncDiv.Clone()
	OperPct        = FuncPct.Clone()
	OperPow        = FuncPow.Clone()
	OperArray      = FuncArray.Clone()
	OperObject     = FuncObject.Clone()
	OperKey        = FuncKey.Clone()
)

// Operator pairs an operator definition with the name used in diagnostics.
type Operator struct {
	Name string
	Fn   *function.Definition
}

// Prefix operators by token literal.
var Prefix = map[string]Operator{
	"-": {"neg", OperNeg},
	"!": {"not", OperNot},
	"#": {"len", OperLen},
}

// Infix operators by token literal. The conditional and index operators are
// built by the parser directly.
var Infix = map[string]Operator{
	"??": {"nullco", OperNullco},
	"||": {"or", OperOr},
	"&&": {"and", OperAnd},
	"==": {"equal", OperEqual},
	"!=": {"notEqual", OperNotEqual},
	"~":  {"like", OperLike},
	"!~": {"notLike", OperNotLike},
	"<":  {"lt", OperLt},
	"<=": {"le", OperLe},
	">":  {"gt", OperGt},
	">=": {"ge", OperGe},
	"+":  {"add", OperAdd},
	"-":  {"sub", OperSub},
	"*":  {"mul", OperMul},
	"/":  {"div", OperDiv},
	"%":  {"pct", OperPct},
	"^":  {"pow", OperPow},
}
