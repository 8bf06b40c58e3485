package xsd

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/rangetable"
)

// PrimitiveKind names one of the 19 XSD primitive datatypes plus the three
// ur-types (anyType, anySimpleType, anyAtomicType) and the handful of
// derived-but-ubiquitous string/numeric kinds the facet engine needs to
// special-case.
type PrimitiveKind string

const (
	PrimitiveAnyType       PrimitiveKind = "anyType"
	PrimitiveAnySimpleType PrimitiveKind = "anySimpleType"
	PrimitiveAnyAtomicType PrimitiveKind = "anyAtomicType"

	PrimitiveString       PrimitiveKind = "string"
	PrimitiveBoolean      PrimitiveKind = "boolean"
	PrimitiveDecimal      PrimitiveKind = "decimal"
	PrimitiveFloat        PrimitiveKind = "float"
	PrimitiveDouble       PrimitiveKind = "double"
	PrimitiveDuration     PrimitiveKind = "duration"
	PrimitiveDateTime     PrimitiveKind = "dateTime"
	PrimitiveTime         PrimitiveKind = "time"
	PrimitiveDate         PrimitiveKind = "date"
	PrimitiveGYearMonth   PrimitiveKind = "gYearMonth"
	PrimitiveGYear        PrimitiveKind = "gYear"
	PrimitiveGMonthDay    PrimitiveKind = "gMonthDay"
	PrimitiveGDay         PrimitiveKind = "gDay"
	PrimitiveGMonth       PrimitiveKind = "gMonth"
	PrimitiveHexBinary    PrimitiveKind = "hexBinary"
	PrimitiveBase64Binary PrimitiveKind = "base64Binary"
	PrimitiveAnyURI       PrimitiveKind = "anyURI"
	PrimitiveQName        PrimitiveKind = "QName"
	PrimitiveNOTATION     PrimitiveKind = "NOTATION"

	PrimitiveInteger            PrimitiveKind = "integer"
	PrimitiveNonPositiveInteger PrimitiveKind = "nonPositiveInteger"
	PrimitiveNegativeInteger    PrimitiveKind = "negativeInteger"
	PrimitiveLong               PrimitiveKind = "long"
	PrimitiveInt                PrimitiveKind = "int"
	PrimitiveShort              PrimitiveKind = "short"
	PrimitiveByte               PrimitiveKind = "byte"
	PrimitiveNonNegativeInteger PrimitiveKind = "nonNegativeInteger"
	PrimitiveUnsignedLong       PrimitiveKind = "unsignedLong"
	PrimitiveUnsignedInt        PrimitiveKind = "unsignedInt"
	PrimitiveUnsignedShort      PrimitiveKind = "unsignedShort"
	PrimitiveUnsignedByte       PrimitiveKind = "unsignedByte"
	PrimitivePositiveInteger    PrimitiveKind = "positiveInteger"
)

// lexicalValidator checks a value's lexical space for one builtin kind,
// independent of any user-supplied facet.
type lexicalValidator func(value string) error

// builtinSpec is one row of the builtin seeding table: the local name, its
// base (by local name; "" for the three ur-types), the primitive it maps
// to for facet/comparison purposes, and its lexical-space check.
type builtinSpec struct {
	name      string
	base      string
	primitive PrimitiveKind
	check     lexicalValidator
}

// builtinOrder lists every builtin ancestor-before-descendant, mirroring
// the seeding order load_xsd_globals expects from xsd_builtin_types_factory:
// ur-types first, then the 19 primitives, then their derived hierarchy.
var builtinOrder = []builtinSpec{
	{"anyType", "", PrimitiveAnyType, nil},
	{"anySimpleType", "anyType", PrimitiveAnySimpleType, nil},
	{"anyAtomicType", "anySimpleType", PrimitiveAnyAtomicType, nil},

	{"string", "anyAtomicType", PrimitiveString, validateString},
	{"boolean", "anyAtomicType", PrimitiveBoolean, validateBoolean},
	{"decimal", "anyAtomicType", PrimitiveDecimal, validateDecimal},
	{"float", "anyAtomicType", PrimitiveFloat, validateFloat},
	{"double", "anyAtomicType", PrimitiveDouble, validateDouble},
	{"duration", "anyAtomicType", PrimitiveDuration, validateDuration},
	{"dateTime", "anyAtomicType", PrimitiveDateTime, validateDateTime},
	{"time", "anyAtomicType", PrimitiveTime, validateTime},
	{"date", "anyAtomicType", PrimitiveDate, validateDate},
	{"gYearMonth", "anyAtomicType", PrimitiveGYearMonth, validateGYearMonth},
	{"gYear", "anyAtomicType", PrimitiveGYear, validateGYear},
	{"gMonthDay", "anyAtomicType", PrimitiveGMonthDay, validateGMonthDay},
	{"gDay", "anyAtomicType", PrimitiveGDay, validateGDay},
	{"gMonth", "anyAtomicType", PrimitiveGMonth, validateGMonth},
	{"hexBinary", "anyAtomicType", PrimitiveHexBinary, validateHexBinary},
	{"base64Binary", "anyAtomicType", PrimitiveBase64Binary, validateBase64Binary},
	{"anyURI", "anyAtomicType", PrimitiveAnyURI, validateAnyURI},
	{"QName", "anyAtomicType", PrimitiveQName, validateQName},
	{"NOTATION", "anyAtomicType", PrimitiveNOTATION, validateNOTATION},

	{"normalizedString", "string", PrimitiveString, validateNormalizedString},
	{"token", "normalizedString", PrimitiveString, validateToken},
	{"language", "token", PrimitiveString, validateLanguage},
	{"Name", "token", PrimitiveString, validateName},
	{"NMTOKEN", "token", PrimitiveString, validateNMTOKEN},
	{"NCName", "Name", PrimitiveString, validateNCName},
	{"ID", "NCName", PrimitiveString, validateNCName},
	{"IDREF", "NCName", PrimitiveString, validateNCName},
	{"ENTITY", "NCName", PrimitiveString, validateNCName},

	{"integer", "decimal", PrimitiveInteger, validateInteger},
	{"nonPositiveInteger", "integer", PrimitiveNonPositiveInteger, validateNonPositiveInteger},
	{"negativeInteger", "nonPositiveInteger", PrimitiveNegativeInteger, validateNegativeInteger},
	{"long", "integer", PrimitiveLong, validateLong},
	{"int", "long", PrimitiveInt, validateInt},
	{"short", "int", PrimitiveShort, validateShort},
	{"byte", "short", PrimitiveByte, validateByte},
	{"nonNegativeInteger", "integer", PrimitiveNonNegativeInteger, validateNonNegativeInteger},
	{"unsignedLong", "nonNegativeInteger", PrimitiveUnsignedLong, validateUnsignedLong},
	{"unsignedInt", "unsignedLong", PrimitiveUnsignedInt, validateUnsignedInt},
	{"unsignedShort", "unsignedInt", PrimitiveUnsignedShort, validateUnsignedShort},
	{"unsignedByte", "unsignedShort", PrimitiveUnsignedByte, validateUnsignedByte},
	{"positiveInteger", "nonNegativeInteger", PrimitivePositiveInteger, validatePositiveInteger},
}

// builtinListSpec names the three built-in list types over a built-in
// atomic item type.
var builtinListSpec = map[string]string{
	"NMTOKENS": "NMTOKEN",
	"IDREFS":   "IDREF",
	"ENTITIES": "ENTITY",
}

// seedBuiltins populates globals' GlobalMap with every built-in SimpleType,
// in dependency order, and returns a local-name -> *SimpleType table of
// those same types, which resolveTypeRef and resolveSimpleTypeRef consult
// for XSD-namespace names before the GlobalMap.
func seedBuiltins(g *Globals) map[string]*SimpleType {
	out := make(map[string]*SimpleType, len(builtinOrder)+len(builtinListSpec))

	for _, spec := range builtinOrder {
		st := &SimpleType{Ref: newRef(KindSimpleType, nil, nil, nil)}
		st.setName(QName{Namespace: XSDNamespace, Local: spec.name})
		st.Variant = VariantAtomic
		st.Primitive = spec.primitive
		st.Builtin = true
		st.lexical = spec.check
		if base, ok := out[spec.base]; ok {
			st.BaseType = base
			st.Facets = newFacetSet()
			st.Facets.Merge(base.Facets)
		} else {
			st.Facets = newFacetSet()
		}
		st.state = StateChecked
		out[spec.name] = st
		g.globalMap.seedBuiltin(StoreTypes, st.Name(), st)
	}

	for listName, itemName := range builtinListSpec {
		item := out[itemName]
		st := &SimpleType{Ref: newRef(KindSimpleType, nil, nil, nil)}
		st.setName(QName{Namespace: XSDNamespace, Local: listName})
		st.Variant = VariantList
		st.Primitive = PrimitiveString
		st.Builtin = true
		st.ItemType = item
		st.Facets = newFacetSet()
		st.state = StateChecked
		out[listName] = st
		g.globalMap.seedBuiltin(StoreTypes, st.Name(), st)
	}

	return out
}

// IsBuiltinName reports whether local is one of the built-in XSD Schema
// namespace type names. The factories do not call it; they use the table
// seedBuiltins returns.
func IsBuiltinName(local string) bool {
	for _, spec := range builtinOrder {
		if spec.name == local {
			return true
		}
	}
	_, ok := builtinListSpec[local]
	return ok
}

// Primitive lexical-space validators, ported from the source's hand-rolled
// regexes and time.Parse formats.

func validateString(value string) error { return nil }

func validateBoolean(value string) error {
	switch value {
	case "true", "false", "1", "0":
		return nil
	default:
		return fmt.Errorf("invalid boolean value: %s", value)
	}
}

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

func validateDecimal(value string) error {
	if !decimalPattern.MatchString(value) {
		return fmt.Errorf("invalid decimal value: %s", value)
	}
	if _, _, err := new(big.Float).Parse(value, 10); err != nil {
		return fmt.Errorf("invalid decimal value: %s", value)
	}
	return nil
}

func validateFloat(value string) error {
	switch value {
	case "INF", "+INF", "-INF", "NaN":
		return nil
	}
	if _, err := strconv.ParseFloat(value, 32); err != nil {
		return fmt.Errorf("invalid float value: %s", value)
	}
	return nil
}

func validateDouble(value string) error {
	switch value {
	case "INF", "+INF", "-INF", "NaN":
		return nil
	}
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		return fmt.Errorf("invalid double value: %s", value)
	}
	return nil
}

var durationPattern = regexp.MustCompile(`^-?P(\d+Y)?(\d+M)?(\d+D)?(T(\d+H)?(\d+M)?(\d+(\.\d+)?S)?)?$`)

func validateDuration(value string) error {
	if !durationPattern.MatchString(value) && value != "P0Y" && value != "PT0S" && value != "P" {
		return fmt.Errorf("invalid duration value: %s", value)
	}
	switch value {
	case "P", "-P", "PT", "-PT":
		return fmt.Errorf("duration must have at least one time component: %s", value)
	}
	return nil
}

var dateTimeFormats = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05.999",
	"2006-01-02T15:04:05.999Z",
	"2006-01-02T15:04:05.999-07:00",
}

func validateDateTime(value string) error {
	for _, format := range dateTimeFormats {
		if _, err := time.Parse(format, value); err == nil {
			return nil
		}
	}
	return fmt.Errorf("invalid dateTime value: %s", value)
}

var timePattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)

func validateTime(value string) error {
	if !timePattern.MatchString(value) {
		return fmt.Errorf("invalid time value: %s", value)
	}
	parts := strings.Split(value, ":")
	hour, _ := strconv.Atoi(parts[0])
	minute, _ := strconv.Atoi(parts[1])
	secondPart := parts[2]
	if idx := strings.IndexAny(secondPart, ".Z+-"); idx >= 0 {
		secondPart = secondPart[:idx]
	}
	second, _ := strconv.Atoi(secondPart)
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return fmt.Errorf("invalid time value: %s", value)
	}
	return nil
}

var datePattern = regexp.MustCompile(`^-?\d{4,}-\d{2}-\d{2}(Z|[+-]\d{2}:\d{2})?$`)

func validateDate(value string) error {
	if !datePattern.MatchString(value) {
		return fmt.Errorf("invalid date value: %s", value)
	}
	datePart := value
	if strings.HasSuffix(value, "Z") {
		datePart = value[:len(value)-1]
	} else if len(value) >= 6 &&
		(value[len(value)-6] == '+' || value[len(value)-6] == '-') &&
		value[len(value)-3] == ':' {
		datePart = value[:len(value)-6]
	}
	if strings.HasPrefix(datePart, "-") {
		return nil // negative years: pattern match is sufficient
	}
	if _, err := time.Parse("2006-01-02", datePart); err != nil {
		return fmt.Errorf("invalid date value: %s", value)
	}
	return nil
}

var gYearMonthPattern = regexp.MustCompile(`^-?\d{4,}-\d{2}(Z|[+-]\d{2}:\d{2})?$`)

func validateGYearMonth(value string) error {
	if !gYearMonthPattern.MatchString(value) {
		return fmt.Errorf("invalid gYearMonth value: %s", value)
	}
	parts := strings.Split(value, "-")
	monthStr := parts[len(parts)-1]
	if idx := strings.IndexAny(monthStr, "Z+-"); idx >= 0 {
		monthStr = monthStr[:idx]
	}
	month, _ := strconv.Atoi(monthStr)
	if month < 1 || month > 12 {
		return fmt.Errorf("invalid month in gYearMonth: %s", value)
	}
	return nil
}

var gYearPattern = regexp.MustCompile(`^-?\d{4,}(Z|[+-]\d{2}:\d{2})?$`)

func validateGYear(value string) error {
	if !gYearPattern.MatchString(value) {
		return fmt.Errorf("invalid gYear value: %s", value)
	}
	return nil
}

var gMonthDayPattern = regexp.MustCompile(`^--\d{2}-\d{2}(Z|[+-]\d{2}:\d{2})?$`)

func validateGMonthDay(value string) error {
	if !gMonthDayPattern.MatchString(value) {
		return fmt.Errorf("invalid gMonthDay value: %s", value)
	}
	parts := strings.Split(value[2:], "-")
	month, _ := strconv.Atoi(parts[0])
	dayStr := parts[1]
	if idx := strings.IndexAny(dayStr, "Z+-"); idx >= 0 {
		dayStr = dayStr[:idx]
	}
	day, _ := strconv.Atoi(dayStr)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return fmt.Errorf("invalid gMonthDay value: %s", value)
	}
	return nil
}

var gDayPattern = regexp.MustCompile(`^---\d{2}(Z|[+-]\d{2}:\d{2})?$`)

func validateGDay(value string) error {
	if !gDayPattern.MatchString(value) {
		return fmt.Errorf("invalid gDay value: %s", value)
	}
	dayStr := value[3:]
	if idx := strings.IndexAny(dayStr, "Z+-"); idx >= 0 {
		dayStr = dayStr[:idx]
	}
	day, _ := strconv.Atoi(dayStr)
	if day < 1 || day > 31 {
		return fmt.Errorf("invalid gDay value: %s", value)
	}
	return nil
}

var gMonthPattern = regexp.MustCompile(`^--\d{2}(Z|[+-]\d{2}:\d{2})?$`)

func validateGMonth(value string) error {
	if !gMonthPattern.MatchString(value) {
		return fmt.Errorf("invalid gMonth value: %s", value)
	}
	monthStr := value[2:]
	if idx := strings.IndexAny(monthStr, "Z+-"); idx >= 0 {
		monthStr = monthStr[:idx]
	}
	month, _ := strconv.Atoi(monthStr)
	if month < 1 || month > 12 {
		return fmt.Errorf("invalid gMonth value: %s", value)
	}
	return nil
}

func validateHexBinary(value string) error {
	if len(value)%2 != 0 {
		return fmt.Errorf("hexBinary must have even number of characters: %s", value)
	}
	if _, err := hex.DecodeString(value); err != nil {
		return fmt.Errorf("invalid hexBinary value: %s", value)
	}
	return nil
}

func validateBase64Binary(value string) error {
	if _, err := base64.StdEncoding.DecodeString(value); err != nil {
		return fmt.Errorf("invalid base64Binary value: %s", value)
	}
	return nil
}

func validateAnyURI(value string) error { return nil }

func validateQName(value string) error {
	parts := strings.Split(value, ":")
	if len(parts) > 2 {
		return fmt.Errorf("invalid QName: too many colons: %s", value)
	}
	for _, part := range parts {
		if err := validateNCName(part); err != nil {
			return fmt.Errorf("invalid QName: %s", value)
		}
	}
	return nil
}

func validateNOTATION(value string) error { return validateQName(value) }

func validateNormalizedString(value string) error {
	for _, r := range value {
		if r == '\r' || r == '\n' || r == '\t' {
			return fmt.Errorf("normalizedString cannot contain CR, LF, or TAB")
		}
	}
	return nil
}

func validateToken(value string) error {
	if err := validateNormalizedString(value); err != nil {
		return err
	}
	if strings.HasPrefix(value, " ") || strings.HasSuffix(value, " ") {
		return fmt.Errorf("token cannot have leading or trailing spaces")
	}
	if strings.Contains(value, "  ") {
		return fmt.Errorf("token cannot have multiple consecutive spaces")
	}
	return nil
}

var languagePattern = regexp.MustCompile(`^[a-zA-Z]{1,8}(-[a-zA-Z0-9]{1,8})*$`)

func validateLanguage(value string) error {
	if !languagePattern.MatchString(value) {
		return fmt.Errorf("invalid language tag: %s", value)
	}
	return nil
}

// nameExtraChars is the rangetable of punctuation NCName/Name characters
// allow beyond unicode.Letter/unicode.Digit, built once via
// golang.org/x/text/unicode/rangetable rather than a hand-rolled switch.
var nameExtraChars = rangetable.New('.', '-', '_', ':')

func isNameStartChar(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == ':'
}

func isNameChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(nameExtraChars, r)
}

func validateName(value string) error {
	if value == "" {
		return fmt.Errorf("Name cannot be empty")
	}
	first := []rune(value)[0]
	if !isNameStartChar(first) {
		return fmt.Errorf("Name must start with letter, underscore, or colon: %s", value)
	}
	for _, r := range value[1:] {
		if !isNameChar(r) {
			return fmt.Errorf("invalid character in Name: %s", string(r))
		}
	}
	return nil
}

func validateNCName(value string) error {
	if err := validateName(value); err != nil {
		return err
	}
	if strings.Contains(value, ":") {
		return fmt.Errorf("NCName cannot contain colons: %s", value)
	}
	return nil
}

func validateNMTOKEN(value string) error {
	if value == "" {
		return fmt.Errorf("NMTOKEN cannot be empty")
	}
	for _, r := range value {
		if !isNameChar(r) {
			return fmt.Errorf("invalid character in NMTOKEN: %s", string(r))
		}
	}
	return nil
}

func validateInteger(value string) error {
	if _, ok := new(big.Int).SetString(value, 10); !ok {
		return fmt.Errorf("invalid integer value: %s", value)
	}
	return nil
}

func validateNonPositiveInteger(value string) error {
	i := new(big.Int)
	if _, ok := i.SetString(value, 10); !ok {
		return fmt.Errorf("invalid nonPositiveInteger value: %s", value)
	}
	if i.Sign() > 0 {
		return fmt.Errorf("nonPositiveInteger must be <= 0: %s", value)
	}
	return nil
}

func validateNegativeInteger(value string) error {
	i := new(big.Int)
	if _, ok := i.SetString(value, 10); !ok {
		return fmt.Errorf("invalid negativeInteger value: %s", value)
	}
	if i.Sign() >= 0 {
		return fmt.Errorf("negativeInteger must be < 0: %s", value)
	}
	return nil
}

func validateLong(value string) error {
	if _, err := strconv.ParseInt(value, 10, 64); err != nil {
		return fmt.Errorf("invalid long value: %s", value)
	}
	return nil
}

func validateInt(value string) error {
	v, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid int value: %s", value)
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return fmt.Errorf("int value out of range: %s", value)
	}
	return nil
}

func validateShort(value string) error {
	v, err := strconv.ParseInt(value, 10, 16)
	if err != nil {
		return fmt.Errorf("invalid short value: %s", value)
	}
	if v < math.MinInt16 || v > math.MaxInt16 {
		return fmt.Errorf("short value out of range: %s", value)
	}
	return nil
}

func validateByte(value string) error {
	v, err := strconv.ParseInt(value, 10, 8)
	if err != nil {
		return fmt.Errorf("invalid byte value: %s", value)
	}
	if v < math.MinInt8 || v > math.MaxInt8 {
		return fmt.Errorf("byte value out of range: %s", value)
	}
	return nil
}

func validateNonNegativeInteger(value string) error {
	i := new(big.Int)
	if _, ok := i.SetString(value, 10); !ok {
		return fmt.Errorf("invalid nonNegativeInteger value: %s", value)
	}
	if i.Sign() < 0 {
		return fmt.Errorf("nonNegativeInteger must be >= 0: %s", value)
	}
	return nil
}

func validateUnsignedLong(value string) error {
	if _, err := strconv.ParseUint(value, 10, 64); err != nil {
		return fmt.Errorf("invalid unsignedLong value: %s", value)
	}
	return nil
}

func validateUnsignedInt(value string) error {
	v, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid unsignedInt value: %s", value)
	}
	if v > math.MaxUint32 {
		return fmt.Errorf("unsignedInt value out of range: %s", value)
	}
	return nil
}

func validateUnsignedShort(value string) error {
	v, err := strconv.ParseUint(value, 10, 16)
	if err != nil {
		return fmt.Errorf("invalid unsignedShort value: %s", value)
	}
	if v > math.MaxUint16 {
		return fmt.Errorf("unsignedShort value out of range: %s", value)
	}
	return nil
}

func validateUnsignedByte(value string) error {
	v, err := strconv.ParseUint(value, 10, 8)
	if err != nil {
		return fmt.Errorf("invalid unsignedByte value: %s", value)
	}
	if v > math.MaxUint8 {
		return fmt.Errorf("unsignedByte value out of range: %s", value)
	}
	return nil
}

func validatePositiveInteger(value string) error {
	i := new(big.Int)
	if _, ok := i.SetString(value, 10); !ok {
		return fmt.Errorf("invalid positiveInteger value: %s", value)
	}
	if i.Sign() <= 0 {
		return fmt.Errorf("positiveInteger must be > 0: %s", value)
	}
	return nil
}
