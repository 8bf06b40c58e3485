package xsd

import "testing"

func TestValidateBoolean(t *testing.T) {
	for _, v := range []string{"true", "false", "1", "0"} {
		if err := validateBoolean(v); err != nil {
			t.Errorf("validateBoolean(%q) = %v, want nil", v, err)
		}
	}
	if err := validateBoolean("yes"); err == nil {
		t.Error("expected an error for 'yes'")
	}
}

func TestValidateDecimal(t *testing.T) {
	for _, v := range []string{"1", "-1", "1.5", ".5", "+3.14"} {
		if err := validateDecimal(v); err != nil {
			t.Errorf("validateDecimal(%q) = %v, want nil", v, err)
		}
	}
	if err := validateDecimal("abc"); err == nil {
		t.Error("expected an error for 'abc'")
	}
}

func TestValidateFloatDoubleSpecialValues(t *testing.T) {
	for _, v := range []string{"INF", "-INF", "NaN", "3.14"} {
		if err := validateFloat(v); err != nil {
			t.Errorf("validateFloat(%q) = %v", v, err)
		}
		if err := validateDouble(v); err != nil {
			t.Errorf("validateDouble(%q) = %v", v, err)
		}
	}
}

func TestValidateDuration(t *testing.T) {
	for _, v := range []string{"P1Y2M3DT4H5M6S", "PT1H", "P1D", "P0Y", "PT0S"} {
		if err := validateDuration(v); err != nil {
			t.Errorf("validateDuration(%q) = %v, want nil", v, err)
		}
	}
	for _, v := range []string{"P", "PT", "1Y"} {
		if err := validateDuration(v); err == nil {
			t.Errorf("validateDuration(%q) expected error", v)
		}
	}
}

func TestValidateDateTime(t *testing.T) {
	for _, v := range []string{"2024-01-02T03:04:05", "2024-01-02T03:04:05Z", "2024-01-02T03:04:05.123-07:00"} {
		if err := validateDateTime(v); err != nil {
			t.Errorf("validateDateTime(%q) = %v, want nil", v, err)
		}
	}
	if err := validateDateTime("not-a-date"); err == nil {
		t.Error("expected error for invalid dateTime")
	}
}

func TestValidateTimeBounds(t *testing.T) {
	if err := validateTime("23:59:59"); err != nil {
		t.Errorf("23:59:59 should be valid: %v", err)
	}
	if err := validateTime("24:00:00"); err == nil {
		t.Error("hour 24 should be invalid")
	}
}

func TestValidateDateNegativeYear(t *testing.T) {
	if err := validateDate("2024-01-02"); err != nil {
		t.Errorf("2024-01-02 should be valid: %v", err)
	}
	if err := validateDate("-0044-01-02"); err != nil {
		t.Errorf("negative year date should be accepted: %v", err)
	}
	if err := validateDate("2024-13-01"); err == nil {
		t.Error("month 13 should be invalid")
	}
}

func TestValidateGRegionTypes(t *testing.T) {
	if err := validateGYearMonth("2024-01"); err != nil {
		t.Errorf("gYearMonth: %v", err)
	}
	if err := validateGYearMonth("2024-13"); err == nil {
		t.Error("gYearMonth month 13 should be invalid")
	}
	if err := validateGYear("2024"); err != nil {
		t.Errorf("gYear: %v", err)
	}
	if err := validateGMonthDay("--01-15"); err != nil {
		t.Errorf("gMonthDay: %v", err)
	}
	if err := validateGMonthDay("--13-01"); err == nil {
		t.Error("gMonthDay month 13 should be invalid")
	}
	if err := validateGDay("---15"); err != nil {
		t.Errorf("gDay: %v", err)
	}
	if err := validateGDay("---32"); err == nil {
		t.Error("gDay 32 should be invalid")
	}
	if err := validateGMonth("--01"); err != nil {
		t.Errorf("gMonth: %v", err)
	}
}

func TestValidateHexAndBase64Binary(t *testing.T) {
	if err := validateHexBinary("DEADBEEF"); err != nil {
		t.Errorf("hexBinary: %v", err)
	}
	if err := validateHexBinary("ABC"); err == nil {
		t.Error("odd-length hexBinary should be invalid")
	}
	if err := validateHexBinary("ZZ"); err == nil {
		t.Error("non-hex hexBinary should be invalid")
	}
	if err := validateBase64Binary("YWJj"); err != nil {
		t.Errorf("base64Binary: %v", err)
	}
	if err := validateBase64Binary("not base64!!"); err == nil {
		t.Error("invalid base64 should error")
	}
}

func TestValidateQName(t *testing.T) {
	if err := validateQName("foo"); err != nil {
		t.Errorf("unprefixed QName: %v", err)
	}
	if err := validateQName("ex:foo"); err != nil {
		t.Errorf("prefixed QName: %v", err)
	}
	if err := validateQName("a:b:c"); err == nil {
		t.Error("too many colons should be invalid")
	}
}

func TestValidateNameFamily(t *testing.T) {
	if err := validateName("_foo.bar-1"); err != nil {
		t.Errorf("validateName: %v", err)
	}
	if err := validateName("1foo"); err == nil {
		t.Error("Name cannot start with a digit")
	}
	if err := validateNCName("foo:bar"); err == nil {
		t.Error("NCName cannot contain a colon")
	}
	if err := validateNMTOKEN("123-abc"); err != nil {
		t.Errorf("NMTOKEN may start with a digit: %v", err)
	}
}

func TestValidateToken(t *testing.T) {
	if err := validateToken("hello world"); err != nil {
		t.Errorf("token: %v", err)
	}
	if err := validateToken(" leading"); err == nil {
		t.Error("leading space should be invalid")
	}
	if err := validateToken("double  space"); err == nil {
		t.Error("double space should be invalid")
	}
}

func TestValidateIntegerFamily(t *testing.T) {
	if err := validateNonPositiveInteger("-5"); err != nil {
		t.Errorf("nonPositiveInteger(-5): %v", err)
	}
	if err := validateNonPositiveInteger("5"); err == nil {
		t.Error("nonPositiveInteger(5) should be invalid")
	}
	if err := validateNegativeInteger("0"); err == nil {
		t.Error("negativeInteger(0) should be invalid")
	}
	if err := validatePositiveInteger("0"); err == nil {
		t.Error("positiveInteger(0) should be invalid")
	}
	if err := validateNonNegativeInteger("0"); err != nil {
		t.Errorf("nonNegativeInteger(0): %v", err)
	}
}

func TestValidateFixedWidthIntegers(t *testing.T) {
	if err := validateByte("127"); err != nil {
		t.Errorf("byte(127): %v", err)
	}
	if err := validateByte("128"); err == nil {
		t.Error("byte(128) out of range")
	}
	if err := validateUnsignedByte("255"); err != nil {
		t.Errorf("unsignedByte(255): %v", err)
	}
	if err := validateUnsignedByte("-1"); err == nil {
		t.Error("unsignedByte(-1) should be invalid")
	}
	if err := validateShort("32767"); err != nil {
		t.Errorf("short(32767): %v", err)
	}
	if err := validateInt("2147483647"); err != nil {
		t.Errorf("int(max): %v", err)
	}
}

func TestIsBuiltinName(t *testing.T) {
	if !IsBuiltinName("string") {
		t.Error("string should be a builtin name")
	}
	if !IsBuiltinName("NMTOKENS") {
		t.Error("NMTOKENS should be a builtin list name")
	}
	if IsBuiltinName("widget") {
		t.Error("widget should not be a builtin name")
	}
}

func TestSeedBuiltinsPopulatesHierarchy(t *testing.T) {
	g := NewGlobals()
	builtins := seedBuiltins(g)

	str, ok := builtins["string"]
	if !ok {
		t.Fatal("expected 'string' to be seeded")
	}
	if !str.Builtin || str.Primitive != PrimitiveString {
		t.Errorf("string builtin = %+v", str)
	}

	token, ok := builtins["token"]
	if !ok || token.BaseType == nil || token.BaseType.Name().Local != "normalizedString" {
		t.Fatalf("token should derive from normalizedString, got %+v", token)
	}

	nmtokens, ok := builtins["NMTOKENS"]
	if !ok || nmtokens.Variant != VariantList || nmtokens.ItemType == nil || nmtokens.ItemType.Name().Local != "NMTOKEN" {
		t.Fatalf("NMTOKENS should be a list over NMTOKEN, got %+v", nmtokens)
	}

	if _, ok := g.globalMap.stores[StoreTypes][QName{Namespace: XSDNamespace, Local: "string"}]; !ok {
		t.Error("expected 'string' to be registered in the GlobalMap")
	}
}
