package snapshot

import (
	"fmt"
	"strconv"
	"strings"
)

// PathSeparator соединяет сегменты пути при flattening
const PathSeparator = "."

// PathEscape экранирует в сегменте пути точку и сам себя:
// ключ `a.b` превращается в сегмент `a\.b`, ключ `a\b` - в `a\\b`.
const PathEscape = `\`

var segmentEscaper = strings.NewReplacer(PathEscape, PathEscape+PathEscape, PathSeparator, PathEscape+PathSeparator)

// EscapeSegment экранирует ключ mapping для использования в пути
func EscapeSegment(key string) string {
	return segmentEscaper.Replace(key)
}

// JoinPath собирает путь из неэкранированных сегментов
func JoinPath(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, segment := range segments {
		escaped[i] = EscapeSegment(segment)
	}
	return strings.Join(escaped, PathSeparator)
}

// SplitPath разбирает путь на сегменты, снимая экранирование.
// Висячий escape в конце пути считается ошибкой.
func SplitPath(path string) ([]string, error) {
	segments := make([]string, 0, strings.Count(path, PathSeparator)+1)
	var current strings.Builder

	for i := 0; i < len(path); i++ {
		switch path[i] {
		case PathEscape[0]:
			if i+1 >= len(path) {
				return nil, fmt.Errorf("dangling escape at end of path %q", path)
			}
			i++
			current.WriteByte(path[i])
		case PathSeparator[0]:
			segments = append(segments, current.String())
			current.Reset()
		default:
			current.WriteByte(path[i])
		}
	}

	return append(segments, current.String()), nil
}

// Row - одна строка плоского представления: полный путь к листу и его значение
type Row struct {
	Key   string
	Value Value
}

// LeafFunc вызывается для каждого листа дерева
type LeafFunc func(path []string, leaf Value) error

// Walk обходит дерево в глубину в порядке вставки и вызывает fn для каждого листа.
//
// Правила:
//   - mapping: рекурсия по ключам; пустой mapping листьев не дает;
//   - последовательность только из скаляров (в том числе пустая) - один лист;
//   - иначе последовательность обходится по индексам "0", "1", ...;
//   - скаляр - лист.
func Walk(v Value, fn LeafFunc) error {
	return walk(v, nil, fn)
}

func walk(v Value, path []string, fn LeafFunc) error {
	switch v.kind {
	case KindNull, KindBool, KindNumber, KindString:
		return fn(path, v)
	case KindSequence:
		if isScalarSequence(v) {
			return fn(path, v)
		}
		for i, item := range v.items {
			if err := walk(item, appendPath(path, strconv.Itoa(i)), fn); err != nil {
				return err
			}
		}
		return nil
	case KindMapping:
		for _, f := range v.fields {
			if err := walk(f.Value, appendPath(path, f.Key), fn); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported snapshot kind: %s", v.kind)
	}
}

// Flatten превращает дерево в список строк с ключами-путями через точку.
// Сегменты экранируются через EscapeSegment, поэтому пути листьев уникальны.
func Flatten(v Value) ([]Row, error) {
	rows := make([]Row, 0)
	err := Walk(v, func(path []string, leaf Value) error {
		rows = append(rows, Row{Key: JoinPath(path...), Value: leaf})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// LeafCount возвращает количество листьев по тем же правилам, что и Walk
func LeafCount(v Value) int {
	count := 0
	_ = Walk(v, func([]string, Value) error {
		count++
		return nil
	})
	return count
}

// IsRecordSequence сообщает, является ли значение непустой последовательностью mapping'ов
func IsRecordSequence(v Value) bool {
	if v.kind != KindSequence || len(v.items) == 0 {
		return false
	}
	for _, item := range v.items {
		if item.kind != KindMapping {
			return false
		}
	}
	return true
}

func isScalarSequence(v Value) bool {
	for _, item := range v.items {
		if !item.IsScalar() {
			return false
		}
	}
	return true
}

func appendPath(path []string, segment string) []string {
	next := make([]string, len(path)+1)
	copy(next, path)
	next[len(path)] = segment
	return next
}
