package validators

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validOwner = "0x00000000000000000000000000000000000000000000000000000000000000a1"

func TestIsValidCoinType(t *testing.T) {
	assert.True(t, IsValidCoinType("0x2::sui::SUI"))
	assert.True(t, IsValidCoinType("0xAbC123::my_mod::TOKEN_2"))
	assert.False(t, IsValidCoinType(""))
	assert.False(t, IsValidCoinType("0x2::sui"))
	assert.False(t, IsValidCoinType("2::sui::SUI"))
	assert.False(t, IsValidCoinType("0x2::sui::SUI::X"))
	assert.False(t, IsValidCoinType("0xg::sui::SUI"))

	assert.True(t, IsValidCoinType("0x1::sui::SUI"))
	assert.False(t, IsValidCoinType("sui::SUI"))
	assert.False(t, IsValidCoinType("0x1::sui"))
}

func TestIsValidSuiAddress(t *testing.T) {
	assert.True(t, IsValidSuiAddress(validOwner))
	assert.True(t, IsValidSuiAddress("0x2"))
	assert.False(t, IsValidSuiAddress(""))
	assert.False(t, IsValidSuiAddress("0x"))
	assert.False(t, IsValidSuiAddress("a1"))
	assert.False(t, IsValidSuiAddress("0x"+strings.Repeat("a", 65)))
	assert.False(t, IsValidSuiAddress("0xzz"))
}

func TestNormalizeSuiAddress(t *testing.T) {
	assert.Equal(t, validOwner, NormalizeSuiAddress(validOwner))
	assert.Equal(t, validOwner, NormalizeSuiAddress("0x00000000000000000000000000000000000000000000000000000000000000A1"))
	assert.Equal(t, validOwner, NormalizeSuiAddress("0xa1"))
	assert.Equal(t, "0x"+strings.Repeat("0", 63)+"2", NormalizeSuiAddress("0x2"))
}

func TestParseValidationError(t *testing.T) {
	type testStructNested struct {
		NestedRequiredField string `validate:"required"`
		NestedEnumField     string `validate:"oneof=foo bar"`
	}

	type testStruct struct {
		RequiredField      string             `validate:"required"`
		RequiredArrayField []string           `validate:"required,gt=0,dive,required"`
		EnumField          string             `validate:"oneof=foo bar"`
		LimitField         int                `validate:"omitempty,min=1,max=500"`
		NameField          string             `validate:"omitempty,min=2,max=4"`
		AddressField       string             `validate:"sui_address"`
		UnknownTagField    string             `validate:"len=3"`
		NestedField        []testStructNested `validate:"dive"`
	}

	valid := func() testStruct {
		return testStruct{
			RequiredField:      "foo",
			RequiredArrayField: []string{"bar"},
			EnumField:          "bar",
			AddressField:       validOwner,
			UnknownTagField:    "abc",
		}
	}

	testCases := []struct {
		name                string
		stc                 func() testStruct
		expectedFieldErrors map[string]interface{}
	}{
		{
			name: "top_level_fields",
			stc: func() testStruct {
				s := valid()
				s.RequiredField = ""
				s.RequiredArrayField = []string{}
				s.EnumField = "invalid"
				s.AddressField = "nope"
				return s
			},
			expectedFieldErrors: map[string]interface{}{
				"requiredField":      "This field is required",
				"requiredArrayField": "Should have at least 1 element",
				"enumField":          `Unexpected value "invalid". Expected one of the following values: foo, bar`,
				"addressField":       "Invalid Sui address provided",
			},
		},
		{
			name: "numeric_bounds",
			stc: func() testStruct {
				s := valid()
				s.LimitField = 501
				s.NameField = "toolong"
				return s
			},
			expectedFieldErrors: map[string]interface{}{
				"limitField": "Should be less than or equal 500",
				"nameField":  "Should be at most 4 characters long",
			},
		},
		{
			name: "lower_bounds",
			stc: func() testStruct {
				s := valid()
				s.LimitField = -1
				s.NameField = "a"
				return s
			},
			expectedFieldErrors: map[string]interface{}{
				"limitField": "Should be greater than or equal 1",
				"nameField":  "Should be at least 2 characters long",
			},
		},
		{
			name: "unknown_tag",
			stc: func() testStruct {
				s := valid()
				s.UnknownTagField = "abcd"
				return s
			},
			expectedFieldErrors: map[string]interface{}{
				"unknownTagField": "Invalid value",
			},
		},
		{
			name: "nested_fields",
			stc: func() testStruct {
				s := valid()
				s.NestedField = []testStructNested{{NestedRequiredField: "", NestedEnumField: "invalid"}}
				return s
			},
			expectedFieldErrors: map[string]interface{}{
				"nestedField[0].nestedRequiredField": "This field is required",
				"nestedField[0].nestedEnumField":     `Unexpected value "invalid". Expected one of the following values: foo, bar`,
			},
		},
	}

	val := NewValidator()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stc := tc.stc()
			err := val.Struct(&stc)
			require.Error(t, err)
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok)
			fieldErrors := ParseValidationError(vErrs)
			assert.Equal(t, tc.expectedFieldErrors, fieldErrors)
		})
	}

	s := valid()
	require.NoError(t, val.Struct(&s))
}

func TestGetFieldName(t *testing.T) {
	type testStructNested struct {
		Name     string             `validate:"required"`
		Children []testStructNested `validate:"dive"`
	}

	type testStruct struct {
		Address     string             `validate:"sui_address"`
		NestedField []testStructNested `validate:"required,dive"`
	}

	stc := &testStruct{
		Address: "",
		NestedField: []testStructNested{
			{
				Name: "first",
				Children: []testStructNested{
					{
						Name: "second",
						Children: []testStructNested{
							{
								Name:     "children1",
								Children: []testStructNested{},
							},
							{
								Name: "children2",
								Children: []testStructNested{
									{
										Name:     "",
										Children: []testStructNested{},
									},
								},
							},
						},
					},
				},
			},
		},
	}
	val := NewValidator()
	err := val.Struct(stc)
	require.Error(t, err)

	vErrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)
	require.Len(t, vErrs, 2)

	assert.Equal(t, "address", getFieldName(vErrs[0]))
	assert.Equal(t, "children[0].name", getFieldName(vErrs[1]))
}

func TestLCFist(t *testing.T) {
	got := lcFirst("Address")
	assert.Equal(t, "address", got)
	got = lcFirst("CoinType")
	assert.Equal(t, "coinType", got)
	got = lcFirst("A")
	assert.Equal(t, "a", got)
	got = lcFirst("")
	assert.Equal(t, "", got)
}
