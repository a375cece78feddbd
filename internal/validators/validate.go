package validators

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const suiAddressHexLength = 64

var (
	coinTypeRegex   = regexp.MustCompile(`^0x[a-fA-F0-9]+::[a-zA-Z0-9_]+::[a-zA-Z0-9_]+$`)
	suiAddressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{1,64}$`)
)

// IsValidCoinType reports whether coinType has the `0xPACKAGE::MODULE::TOKEN` shape.
func IsValidCoinType(coinType string) bool {
	return coinTypeRegex.MatchString(coinType)
}

// IsValidSuiAddress reports whether address is a 0x-prefixed hex address of at most 32 bytes.
func IsValidSuiAddress(address string) bool {
	return suiAddressRegex.MatchString(address)
}

// NormalizeSuiAddress returns the canonical form of a valid address: lowercase, left-padded to 64 hex digits.
// This is the form the indexer reports owners in.
func NormalizeSuiAddress(address string) string {
	hex := strings.ToLower(strings.TrimPrefix(address, "0x"))
	return "0x" + strings.Repeat("0", suiAddressHexLength-len(hex)) + hex
}

func NewValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("sui_address", suiAddressValidation)
	return validate
}

func suiAddressValidation(fl validator.FieldLevel) bool {
	return IsValidSuiAddress(fl.Field().String())
}

func ParseValidationError(errors validator.ValidationErrors) map[string]interface{} {
	fieldErrors := make(map[string]interface{})
	for _, err := range errors {
		fieldErrors[getFieldName(err)] = msgForFieldError(err)
	}
	return fieldErrors
}

// msgForFieldError gets the message for the given validation error (tag).
func msgForFieldError(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "This field is required"
	case "sui_address":
		return "Invalid Sui address provided"
	case "uuid", "uuid4":
		return "Invalid id provided"
	case "oneof":
		params := strings.Join(strings.Split(fieldError.Param(), " "), ", ")
		return fmt.Sprintf("Unexpected value %q. Expected one of the following values: %s", fieldError.Value(), params)
	case "gt":
		if fieldError.Kind() == reflect.Slice || fieldError.Kind() == reflect.Array {
			return "Should have at least 1 element"
		}
		return fmt.Sprintf("Should be greater than %s", fieldError.Param())
	case "gte":
		return fmt.Sprintf("Should be greater than or equal %s", fieldError.Param())
	case "lte":
		return fmt.Sprintf("Should be less than or equal %s", fieldError.Param())
	case "max":
		if isNumberKind(fieldError.Kind()) {
			return fmt.Sprintf("Should be less than or equal %s", fieldError.Param())
		}
		return fmt.Sprintf("Should be at most %s characters long", fieldError.Param())
	case "min":
		if isNumberKind(fieldError.Kind()) {
			return fmt.Sprintf("Should be greater than or equal %s", fieldError.Param())
		}
		return fmt.Sprintf("Should be at least %s characters long", fieldError.Param())
	default:
		return "Invalid value"
	}
}

func isNumberKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func getFieldName(fieldError validator.FieldError) string {
	// Ex.: structName.FieldName, structName.nestedStructName.nestedStructFieldName, structName.nestedStructName.nestedStructName....
	namespace := strings.Split(fieldError.StructNamespace(), ".")
	length := len(namespace)
	if length == 2 {
		return lcFirst(namespace[1])
	}

	if length > 2 {
		return fmt.Sprintf("%s.%s", lcFirst(namespace[length-2]), lcFirst(namespace[length-1]))
	}

	return lcFirst(namespace[0])
}

// lcFirst lowers the case of the first letter of the given string.
//
//	Example: Address -> address
func lcFirst(str string) string {
	for index, letter := range str {
		return string(unicode.ToLower(letter)) + str[index+1:]
	}
	return ""
}
