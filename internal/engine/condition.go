package engine

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Operator — оператор сравнения условного узла.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpContains    Operator = "contains"
)

// Operators возвращает все поддерживаемые операторы.
func Operators() []Operator {
	return []Operator{OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpContains}
}

// ParseOperator возвращает оператор и признак того, что он известен.
func ParseOperator(s string) (Operator, bool) {
	op := Operator(strings.TrimSpace(s))
	for _, known := range Operators() {
		if op == known {
			return op, true
		}
	}
	return op, false
}

// undefinedValue — результат разрешения пути, которого нет во входных данных.
// Отличается от nil (JSON null) при сравнении и приведении к строке.
type undefinedValue struct{}

var undefined = undefinedValue{}

// Evaluate вычисляет условие над входными данными.
//
// path — путь через точку ("order.amount"), literal — строка из конфига узла.
// Литерал и найденное значение независимо приводятся к числу: если приведение
// удалось, сравнение числовое, иначе строковое или нестрогое.
// Функция никогда не паникует; неизвестный оператор даёт false.
func Evaluate(input any, path string, op Operator, literal string) bool {
	actual := Lookup(input, path)

	var compare any = literal
	if n := ToNumber(literal); !math.IsNaN(n) {
		compare = n
	}

	typed := actual
	if n := ToNumber(actual); !math.IsNaN(n) {
		typed = n
	}

	switch op {
	case OpEquals:
		return looseEquals(actual, compare)
	case OpNotEquals:
		return !looseEquals(actual, compare)
	case OpGreaterThan:
		return relational(typed, compare, func(c int) bool { return c > 0 })
	case OpLessThan:
		return relational(typed, compare, func(c int) bool { return c < 0 })
	case OpContains:
		return strings.Contains(strings.ToLower(ToString(actual)), strings.ToLower(ToString(compare)))
	default:
		return false
	}
}

// Lookup разрешает путь через точку.
//
// Объекты обходятся по ключу, массивы по числовому индексу.
// Отсутствующий или null промежуточный элемент даёт undefined.
func Lookup(input any, path string) any {
	cur := input
	for _, part := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[part]
			if !ok {
				return undefined
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(v) {
				return undefined
			}
			cur = v[i]
		default:
			return undefined
		}
	}
	return cur
}

// IsUndefined возвращает true для результата Lookup по отсутствующему пути.
func IsUndefined(v any) bool {
	_, ok := v.(undefinedValue)
	return ok
}

// looseEquals — нестрогое равенство между исходным значением и литералом.
// compare всегда float64 или string.
func looseEquals(actual, compare any) bool {
	switch a := actual.(type) {
	case undefinedValue, nil:
		return false
	case string:
		if c, ok := compare.(string); ok {
			return a == c
		}
		return ToNumber(a) == compare.(float64)
	case bool:
		if c, ok := compare.(float64); ok {
			return ToNumber(a) == c
		}
		return false
	case map[string]any, []any:
		s := ToString(a)
		if c, ok := compare.(string); ok {
			return s == c
		}
		return ToNumber(s) == compare.(float64)
	default:
		n := ToNumber(a)
		if c, ok := compare.(float64); ok {
			return n == c
		}
		return false
	}
}

// relational сравнивает два значения по правилам операторов < и >:
// две строки сравниваются лексически, остальное как числа (NaN даёт false).
func relational(a, b any, accept func(int) bool) bool {
	pa, pb := toPrimitive(a), toPrimitive(b)

	sa, aStr := pa.(string)
	sb, bStr := pb.(string)
	if aStr && bStr {
		return accept(strings.Compare(sa, sb))
	}

	na, nb := ToNumber(pa), ToNumber(pb)
	if math.IsNaN(na) || math.IsNaN(nb) {
		return false
	}
	switch {
	case na < nb:
		return accept(-1)
	case na > nb:
		return accept(1)
	default:
		return accept(0)
	}
}

// toPrimitive сворачивает объекты и массивы в их строковую форму.
func toPrimitive(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		return ToString(v)
	default:
		return v
	}
}

var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ToNumber приводит значение к числу.
//
// Пустая строка и null дают 0, undefined и объекты дают NaN,
// массив приводится через свою строковую форму.
func ToNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case undefinedValue:
		return math.NaN()
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case uint:
		return float64(x)
	case uint64:
		return float64(x)
	case string:
		return parseNumber(x)
	case []any:
		return parseNumber(ToString(x))
	default:
		return math.NaN()
	}
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}

	if !decimalLiteral.MatchString(s) {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// ErrRange: ParseFloat уже вернул ±Inf или 0
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

// ToString возвращает строковую форму значения в том виде,
// в каком её показывает редактор (массивы через запятую, объекты как [object Object]).
func ToString(v any) string {
	switch x := v.(type) {
	case undefinedValue:
		return "undefined"
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			if item == nil || IsUndefined(item) {
				continue
			}
			parts[i] = ToString(item)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	default:
		n := ToNumber(x)
		if math.IsNaN(n) {
			return "NaN"
		}
		return formatNumber(n)
	}
}

// formatNumber печатает число в кратчайшей форме:
// фиксированная запись для 1e-6 <= |n| < 1e21, иначе экспоненциальная.
func formatNumber(n float64) string {
	switch {
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}

	abs := math.Abs(n)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(n, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
