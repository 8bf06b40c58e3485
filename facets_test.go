package xsd

import "testing"

func TestPatternFacet(t *testing.T) {
	f := &PatternFacet{Patterns: []string{`[A-Z]\d{3}`}}
	if err := f.Validate("A123", nil); err != nil {
		t.Errorf("expected A123 to match, got %v", err)
	}
	if err := f.Validate("a123", nil); err == nil {
		t.Error("expected a123 to fail the pattern")
	}
}

func TestEnumerationFacet(t *testing.T) {
	f := &EnumerationFacet{Values: []string{"red", "green", "blue"}}
	if err := f.Validate("green", nil); err != nil {
		t.Errorf("expected green to be allowed, got %v", err)
	}
	if err := f.Validate("purple", nil); err == nil {
		t.Error("expected purple to be rejected")
	}
}

func TestLengthFacets(t *testing.T) {
	length := &LengthFacet{Value: 3}
	if err := length.Validate("abc", nil); err != nil {
		t.Errorf("abc should satisfy length=3: %v", err)
	}
	if err := length.Validate("ab", nil); err == nil {
		t.Error("ab should violate length=3")
	}

	minLen := &MinLengthFacet{Value: 2}
	if err := minLen.Validate("a", nil); err == nil {
		t.Error("'a' should violate minLength=2")
	}

	maxLen := &MaxLengthFacet{Value: 2}
	if err := maxLen.Validate("abc", nil); err == nil {
		t.Error("'abc' should violate maxLength=2")
	}
}

func TestGetLengthForListAndBinary(t *testing.T) {
	listType := &SimpleType{Variant: VariantList}
	if n := getLength("one two three", listType); n != 3 {
		t.Errorf("list length = %d, want 3", n)
	}

	hexType := &SimpleType{Primitive: PrimitiveHexBinary}
	if n := getLength("DEADBEEF", hexType); n != 4 {
		t.Errorf("hexBinary length = %d, want 4", n)
	}

	b64Type := &SimpleType{Primitive: PrimitiveBase64Binary}
	if n := getLength("YWJj", b64Type); n != 3 {
		t.Errorf("base64Binary length(YWJj) = %d, want 3", n)
	}
}

func TestMinMaxInclusiveExclusive(t *testing.T) {
	intType := &SimpleType{Primitive: PrimitiveInteger}

	minIncl := &MinInclusiveFacet{Value: "10"}
	if err := minIncl.Validate("10", intType); err != nil {
		t.Errorf("10 >= 10 should pass: %v", err)
	}
	if err := minIncl.Validate("9", intType); err == nil {
		t.Error("9 should violate minInclusive=10")
	}

	maxExcl := &MaxExclusiveFacet{Value: "10"}
	if err := maxExcl.Validate("10", intType); err == nil {
		t.Error("10 should violate maxExclusive=10")
	}
	if err := maxExcl.Validate("9", intType); err != nil {
		t.Errorf("9 < 10 should pass: %v", err)
	}
}

func TestTotalAndFractionDigits(t *testing.T) {
	total := &TotalDigitsFacet{Value: 4}
	if err := total.Validate("12.34", nil); err != nil {
		t.Errorf("12.34 has 4 significant digits: %v", err)
	}
	if err := total.Validate("123.45", nil); err == nil {
		t.Error("123.45 has 5 significant digits, should violate totalDigits=4")
	}

	frac := &FractionDigitsFacet{Value: 2}
	if err := frac.Validate("1.23", nil); err != nil {
		t.Errorf("1.23 has 2 fraction digits: %v", err)
	}
	if err := frac.Validate("1.234", nil); err == nil {
		t.Error("1.234 has 3 fraction digits, should violate fractionDigits=2")
	}
}

func TestNormalizeWhiteSpace(t *testing.T) {
	if got := NormalizeWhiteSpace("a\tb\nc", "replace"); got != "a b c" {
		t.Errorf("replace: got %q", got)
	}
	if got := NormalizeWhiteSpace("  a   b  ", "collapse"); got != "a b" {
		t.Errorf("collapse: got %q", got)
	}
	if got := NormalizeWhiteSpace("  a   b  ", "preserve"); got != "  a   b  " {
		t.Errorf("preserve: got %q", got)
	}
}

func TestFacetSetAddAccumulatesEnumerationAndPattern(t *testing.T) {
	fs := newFacetSet()
	if err := fs.Add(&EnumerationFacet{Values: []string{"a"}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := fs.Add(&EnumerationFacet{Values: []string{"b"}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, _ := fs.Get(FacetEnumeration)
	enum := got.(*EnumerationFacet)
	if len(enum.Values) != 2 {
		t.Errorf("expected accumulated enumeration values, got %v", enum.Values)
	}
}

func TestFacetSetAddDuplicateNonAccumulatingKind(t *testing.T) {
	fs := newFacetSet()
	if err := fs.Add(&MinLengthFacet{Value: 1}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := fs.Add(&MinLengthFacet{Value: 2}); err == nil {
		t.Error("expected a DuplicateFacet error for a second minLength facet")
	}
}

func TestFacetSetMergeInheritsButNotEnumerationOrPattern(t *testing.T) {
	base := newFacetSet()
	base.Add(&MinLengthFacet{Value: 1})
	base.Add(&EnumerationFacet{Values: []string{"x"}})

	derived := newFacetSet()
	derived.Add(&EnumerationFacet{Values: []string{"y"}})
	derived.Merge(base)

	if _, ok := derived.Get(FacetMinLength); !ok {
		t.Error("expected minLength to be inherited via Merge")
	}
	enum, _ := derived.Get(FacetEnumeration)
	if len(enum.(*EnumerationFacet).Values) != 1 || enum.(*EnumerationFacet).Values[0] != "y" {
		t.Errorf("enumeration should not inherit through Merge, got %+v", enum)
	}
}

func TestValidateFacetsAppliesWhiteSpaceThenChecks(t *testing.T) {
	fs := newFacetSet()
	fs.Add(&WhiteSpaceFacet{Value: "collapse"})
	fs.Add(&EnumerationFacet{Values: []string{"a b"}})

	if err := ValidateFacets("  a   b  ", fs, nil); err != nil {
		t.Errorf("expected collapsed value to satisfy enumeration, got %v", err)
	}
	if err := ValidateFacets("a b c", fs, nil); err == nil {
		t.Error("expected a value outside the enumeration to fail")
	}
}
