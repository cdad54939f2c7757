package stdlib

import (
	"math"
	"strconv"

	"github.com/ardnew/dioscript/lang"
)

func registerNumber(reg *lang.Registry) {
	register(reg, "number", []function{
		{"abs", 1, numberFunc(math.Abs)},
		{"floor", 1, numberFunc(math.Floor)},
		{"ceil", 1, numberFunc(math.Ceil)},
		{"round", 1, numberFunc(math.Round)},
		{"min", lang.Variadic, extreme(math.Min)},
		{"max", lang.Variadic, extreme(math.Max)},
		{"format", 2, formatNumber},
	})
}

func numberFunc(fn func(float64) float64) lang.Callable {
	return func(inv *lang.Invocation) (lang.Value, error) {
		n, err := inv.Number(0)
		if err != nil {
			return lang.None, err
		}

		return lang.NumberValue(fn(n)), nil
	}
}

// extreme folds one or more numbers with pick.
func extreme(pick func(a, b float64) float64) lang.Callable {
	return func(inv *lang.Invocation) (lang.Value, error) {
		if len(inv.Args) == 0 {
			return lang.None, arityError(inv, "at least 1")
		}

		acc, err := inv.Number(0)
		if err != nil {
			return lang.None, err
		}

		for i := 1; i < len(inv.Args); i++ {
			n, err := inv.Number(i)
			if err != nil {
				return lang.None, err
			}

			acc = pick(acc, n)
		}

		return lang.NumberValue(acc), nil
	}
}

// formatNumber renders a number with a fixed count of fractional digits.
func formatNumber(inv *lang.Invocation) (lang.Value, error) {
	n, err := inv.Number(0)
	if err != nil {
		return lang.None, err
	}

	digits, err := inv.Int(1)
	if err != nil {
		return lang.None, err
	}

	if digits < 0 || digits > 20 {
		return lang.None, typeError(inv, 1, "digit count between 0 and 20")
	}

	return lang.StringValue(strconv.FormatFloat(n, 'f', digits, 64)), nil
}
