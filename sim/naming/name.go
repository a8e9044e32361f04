package naming

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Separator separates the elements of a hierarchical name.
const Separator = "."

// Named describes an object that has a name.
type Named interface {
	// Name returns the name of the object.
	Name() string
}

// A Name is a hierarchical name that includes a series of tokens separated
// by dots, for example "Top.Cell[2].Gen".
type Name struct {
	Tokens []NameToken
}

// NameToken is a token of a name.
type NameToken struct {
	ElemName string
	Index    []int
}

// String rebuilds the textual form of the name.
func (n Name) String() string {
	parts := make([]string, len(n.Tokens))
	for i, t := range n.Tokens {
		parts[i] = t.String()
	}

	return strings.Join(parts, Separator)
}

// String rebuilds the textual form of the token.
func (t NameToken) String() string {
	s := t.ElemName
	for _, i := range t.Index {
		s += "[" + strconv.Itoa(i) + "]"
	}

	return s
}

// ParseName parses a name string and returns a Name object. Every token must
// be a valid element.
func ParseName(sname string) (Name, error) {
	if sname == "" {
		return Name{}, errors.New("name must not be empty")
	}

	tokens := strings.Split(sname, Separator)
	name := Name{Tokens: make([]NameToken, len(tokens))}

	for i, token := range tokens {
		t, err := parseNameToken(token)
		if err != nil {
			return Name{}, fmt.Errorf("name %q is not valid: %w", sname, err)
		}

		name.Tokens[i] = t
	}

	return name, nil
}

func parseNameToken(token string) (NameToken, error) {
	if err := bracketMustMatch(token); err != nil {
		return NameToken{}, err
	}

	ts := strings.Split(token, "[")
	elemName := ts[0]

	if err := elementMustBeValid(elemName); err != nil {
		return NameToken{}, err
	}

	indices := make([]int, len(ts)-1)
	for i := 1; i < len(ts); i++ {
		if !strings.HasSuffix(ts[i], "]") {
			return NameToken{}, errors.New("name index must be closed")
		}

		index, err := strconv.Atoi(ts[i][0 : len(ts[i])-1])
		if err != nil {
			return NameToken{}, errors.New("name index must be integer")
		}

		indices[i-1] = index
	}

	return NameToken{ElemName: elemName, Index: indices}, nil
}

func bracketMustMatch(name string) error {
	openBracketCount := 0

	for _, c := range name {
		switch c {
		case '[':
			openBracketCount++
			if openBracketCount > 1 {
				return errors.New("name bracket must not nest")
			}
		case ']':
			openBracketCount--
			if openBracketCount < 0 {
				return errors.New("name bracket must match")
			}
		}
	}

	if openBracketCount != 0 {
		return errors.New("name bracket must match")
	}

	return nil
}

// ValidateElement checks a single element name, such as the name of a model
// inside its parent or the name of a port. There are several rules that an
// element must follow.
//  1. It must not be empty.
//  2. It must start with a letter.
//  3. It may only contain letters, digits, '_' and '-'.
//
// A trailing series index such as "Gen[3]" is accepted.
func ValidateElement(name string) error {
	_, err := parseNameToken(name)
	if err != nil {
		return fmt.Errorf("element %q is not valid: %w", name, err)
	}

	return nil
}

func elementMustBeValid(elemName string) error {
	if elemName == "" {
		return errors.New("name element must not be empty")
	}

	first := elemName[0]
	if !isLetter(first) {
		return errors.New("name element must start with a letter")
	}

	for i := 0; i < len(elemName); i++ {
		c := elemName[i]
		if isLetter(c) || isDigit(c) || c == '_' || c == '-' {
			continue
		}

		return fmt.Errorf("name element must not contain %q", c)
	}

	return nil
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// BuildName builds a name from a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + Separator + elementName
}

// BuildNameWithIndex builds a name from a parent name, an element name and an
// index.
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildName(parentName, elementName+"["+strconv.Itoa(index)+"]")
}

// Split returns the elements of a hierarchical name.
func Split(name string) []string {
	if name == "" {
		return nil
	}

	return strings.Split(name, Separator)
}
