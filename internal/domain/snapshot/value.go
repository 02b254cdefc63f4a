package snapshot

import (
	"math"
	"strconv"
	"strings"
)

// Kind определяет вариант значения snapshot'а
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

// String возвращает название варианта
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value представляет узел MetricSnapshot (Value Object).
// Иммутабельное дерево: скаляр, упорядоченная последовательность или
// mapping с сохранением порядка вставки ключей.
type Value struct {
	kind     Kind
	boolean  bool
	number   float64
	integer  int64
	integral bool
	text     string
	items    []Value
	fields   []Field
}

// Field - пара ключ/значение внутри mapping
type Field struct {
	Key   string
	Value Value
}

// Null возвращает пустое значение
func Null() Value {
	return Value{kind: KindNull}
}

// Bool создает логическое значение
func Bool(b bool) Value {
	return Value{kind: KindBool, boolean: b}
}

// Int создает целое число. Значение хранится точно, без потери
// разрядов за пределами 2^53.
func Int(i int64) Value {
	return Value{kind: KindNumber, number: float64(i), integer: i, integral: true}
}

// Float создает число с плавающей точкой. NaN и Inf не сериализуемы в JSON
// и превращаются в Null.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{kind: KindNumber, number: f}
}

// String создает строковое значение
func String(s string) Value {
	return Value{kind: KindString, text: s}
}

// Seq создает упорядоченную последовательность
func Seq(items ...Value) Value {
	copied := make([]Value, len(items))
	copy(copied, items)
	return Value{kind: KindSequence, items: copied}
}

// F - короткий конструктор Field
func F(key string, value Value) Field {
	return Field{Key: key, Value: value}
}

// Map создает mapping. Повторный ключ заменяет значение на исходной позиции.
func Map(fields ...Field) Value {
	result := make([]Field, 0, len(fields))
	index := make(map[string]int, len(fields))

	for _, f := range fields {
		if pos, ok := index[f.Key]; ok {
			result[pos].Value = f.Value
			continue
		}
		index[f.Key] = len(result)
		result = append(result, f)
	}

	return Value{kind: KindMapping, fields: result}
}

// Kind возвращает вариант значения
func (v Value) Kind() Kind {
	return v.kind
}

// IsScalar сообщает, является ли значение листом (не контейнером)
func (v Value) IsScalar() bool {
	return v.kind != KindSequence && v.kind != KindMapping
}

// AsBool возвращает логическое значение
func (v Value) AsBool() (bool, bool) {
	return v.boolean, v.kind == KindBool
}

// AsFloat возвращает числовое значение
func (v Value) AsFloat() (float64, bool) {
	return v.number, v.kind == KindNumber
}

// AsInt возвращает точное целое значение, созданное через Int
func (v Value) AsInt() (int64, bool) {
	return v.integer, v.kind == KindNumber && v.integral
}

// AsString возвращает строковое значение
func (v Value) AsString() (string, bool) {
	return v.text, v.kind == KindString
}

// Len возвращает количество элементов последовательности или полей mapping
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.items)
	case KindMapping:
		return len(v.fields)
	default:
		return 0
	}
}

// Items возвращает копию элементов последовательности
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	result := make([]Value, len(v.items))
	copy(result, v.items)
	return result
}

// Fields возвращает копию полей mapping в порядке вставки
func (v Value) Fields() []Field {
	if v.kind != KindMapping {
		return nil
	}
	result := make([]Field, len(v.fields))
	copy(result, v.fields)
	return result
}

// Keys возвращает ключи mapping в порядке вставки
func (v Value) Keys() []string {
	if v.kind != KindMapping {
		return nil
	}
	keys := make([]string, len(v.fields))
	for i, f := range v.fields {
		keys[i] = f.Key
	}
	return keys
}

// Get возвращает значение по ключу mapping
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	for _, f := range v.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Lookup ищет значение по пути через точку ("data.materialsRecovered.Metals").
// Сегмент пути для последовательности - индекс элемента. Точка внутри ключа
// экранируется обратным слэшем, как в Flatten.
func (v Value) Lookup(path string) (Value, bool) {
	if path == "" {
		return v, true
	}

	segments, err := SplitPath(path)
	if err != nil {
		return Value{}, false
	}

	current := v
	for _, segment := range segments {
		switch current.kind {
		case KindMapping:
			next, ok := current.Get(segment)
			if !ok {
				return Value{}, false
			}
			current = next
		case KindSequence:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(current.items) {
				return Value{}, false
			}
			current = current.items[idx]
		default:
			return Value{}, false
		}
	}

	return current, true
}

// Equal выполняет структурное сравнение. Числа сравниваются по значению,
// поэтому Int(3) и Float(3) равны.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.boolean == other.boolean
	case KindNumber:
		if v.integral && other.integral {
			return v.integer == other.integer
		}
		return v.number == other.number
	case KindString:
		return v.text == other.text
	case KindSequence:
		if len(v.items) != len(other.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.fields) != len(other.fields) {
			return false
		}
		for i := range v.fields {
			if v.fields[i].Key != other.fields[i].Key || !v.fields[i].Value.Equal(other.fields[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Text возвращает строковое представление скаляра для табличных форматов.
// Целые числа печатаются без дробной части, остальные - в кратчайшей форме.
// Последовательность скаляров печатается через запятую.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.boolean)
	case KindNumber:
		if v.integral {
			return strconv.FormatInt(v.integer, 10)
		}
		if v.number == math.Trunc(v.number) && math.Abs(v.number) < 1e15 {
			return strconv.FormatInt(int64(v.number), 10)
		}
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	case KindString:
		return v.text
	case KindSequence:
		parts := make([]string, len(v.items))
		for i, item := range v.items {
			parts[i] = item.Text()
		}
		return strings.Join(parts, ",")
	case KindMapping:
		return "[object]"
	default:
		return ""
	}
}
