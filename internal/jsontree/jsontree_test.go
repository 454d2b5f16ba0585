package jsontree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{
	"properties": {
		"textDescription": "Mostly Cloudy",
		"temperature": {"unitCode": "wmoUnit:degC", "value": 20.5},
		"windChill": {"unitCode": "wmoUnit:degC", "value": null},
		"visibility": {"value": 16090},
		"pressure": {"value": 101320.7},
		"negative": {"value": -3.9},
		"huge": {"value": 1e300},
		"tooBigInt": {"value": 9223372036854775808},
		"cloudLayers": [{"amount": "BKN"}, {"amount": "OVC"}],
		"flag": true
	}
}`

func mustParse(t *testing.T, doc string) Value {
	t.Helper()
	v, err := Parse([]byte(doc))
	require.NoError(t, err)
	return v
}

func requireFieldError(t *testing.T, err error, reason Reason) *FieldError {
	t.Helper()
	var fe *FieldError
	require.True(t, errors.As(err, &fe), "expected *FieldError, got %v", err)
	assert.Equal(t, reason, fe.Reason)
	return fe
}

func TestParse_Kinds(t *testing.T) {
	tests := []struct {
		doc  string
		kind Kind
	}{
		{`null`, KindNull},
		{`true`, KindBool},
		{`12.5`, KindNumber},
		{`"x"`, KindString},
		{`[1,2]`, KindArray},
		{`{"a":1}`, KindObject},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			v := mustParse(t, tt.doc)
			assert.Equal(t, tt.kind, v.Kind())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, doc := range []string{``, `{`, `<html></html>`, `{"a":1} {"b":2}`, `{"a":1} trailing`} {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, "doc %q", doc)
	}
}

func TestParse_TrailingWhitespaceAllowed(t *testing.T) {
	v := mustParse(t, "{\"a\":1}\n\n")
	assert.Equal(t, KindObject, v.Kind())
}

func TestObject_Path(t *testing.T) {
	root := mustParse(t, sampleDoc)
	props, err := root.Object("properties")
	require.NoError(t, err)
	temp, err := props.Object("temperature")
	require.NoError(t, err)
	assert.Equal(t, "properties.temperature", temp.Path())
}

func TestFloat64(t *testing.T) {
	props, err := mustParse(t, sampleDoc).Object("properties")
	require.NoError(t, err)

	temp, err := props.Object("temperature")
	require.NoError(t, err)
	f, err := temp.Float64("value")
	require.NoError(t, err)
	assert.InDelta(t, 20.5, f, 1e-9)

	chill, err := props.Object("windChill")
	require.NoError(t, err)
	_, err = chill.Float64("value")
	fe := requireFieldError(t, err, ReasonNull)
	assert.Equal(t, "value", fe.Field)
	assert.Equal(t, "properties.windChill.value", fe.Path)
	assert.True(t, IsAbsent(err))

	_, err = chill.Float64("qualityControl")
	requireFieldError(t, err, ReasonMissing)
	assert.True(t, IsAbsent(err))

	_, err = props.Float64("textDescription")
	fe = requireFieldError(t, err, ReasonWrongType)
	assert.Equal(t, KindNumber, fe.Want)
	assert.Equal(t, KindString, fe.Got)
	assert.False(t, IsAbsent(err))
}

func TestInt_TruncatesTowardZero(t *testing.T) {
	props, err := mustParse(t, sampleDoc).Object("properties")
	require.NoError(t, err)

	tests := []struct {
		field string
		want  int
	}{
		{"visibility", 16090},
		{"pressure", 101320},
		{"negative", -3},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			node, err := props.Object(tt.field)
			require.NoError(t, err)
			n, err := node.Int("value")
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestInt_OutOfRange(t *testing.T) {
	props, err := mustParse(t, sampleDoc).Object("properties")
	require.NoError(t, err)

	for _, field := range []string{"huge", "tooBigInt"} {
		node, err := props.Object(field)
		require.NoError(t, err)
		_, err = node.Int("value")
		requireFieldError(t, err, ReasonOutOfRange)
	}
}

func TestInt_ExactForLargeIntegers(t *testing.T) {
	v := mustParse(t, `{"n": 9007199254740993}`)
	n, err := v.Int("n")
	require.NoError(t, err)
	assert.Equal(t, 9007199254740993, n)
}

func TestFloat64_OverflowLiteral(t *testing.T) {
	v := mustParse(t, `{"n": 1e400}`)
	_, err := v.Float64("n")
	requireFieldError(t, err, ReasonOutOfRange)
}

func TestArray(t *testing.T) {
	props, err := mustParse(t, sampleDoc).Object("properties")
	require.NoError(t, err)

	layers, err := props.Array("cloudLayers")
	require.NoError(t, err)
	require.Len(t, layers, 2)

	amount, err := layers[1].String("amount")
	require.NoError(t, err)
	assert.Equal(t, "OVC", amount)
	assert.Equal(t, "properties.cloudLayers[1]", layers[1].Path())

	_, err = props.Array("temperature")
	requireFieldError(t, err, ReasonWrongType)
}

func TestMemberOfNonObject(t *testing.T) {
	v := mustParse(t, `{"list": [1, 2]}`)
	list, ok := v.Get("list")
	require.True(t, ok)

	_, err := list.String("x")
	fe := requireFieldError(t, err, ReasonWrongType)
	assert.Equal(t, KindObject, fe.Want)
	assert.Equal(t, KindArray, fe.Got)
}

func TestLookup(t *testing.T) {
	root := mustParse(t, sampleDoc)

	v, err := root.Lookup("properties", "temperature", "unitCode")
	require.NoError(t, err)
	s, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, "wmoUnit:degC", s)

	_, err = root.Lookup("properties", "windChill", "value")
	requireFieldError(t, err, ReasonNull)

	_, err = root.Lookup("properties", "nope", "value")
	fe := requireFieldError(t, err, ReasonMissing)
	assert.Equal(t, "properties.nope", fe.Path)

	_, err = root.Lookup("properties", "textDescription", "value")
	requireFieldError(t, err, ReasonWrongType)
}

func TestScalarViews(t *testing.T) {
	props, err := mustParse(t, sampleDoc).Object("properties")
	require.NoError(t, err)

	flag, ok := props.Get("flag")
	require.True(t, ok)
	b, ok := flag.AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = flag.AsFloat64()
	assert.False(t, ok)

	huge, err := props.Lookup("huge", "value")
	require.NoError(t, err)
	f, ok := huge.AsFloat64()
	assert.True(t, ok)
	assert.Equal(t, 1e300, f)
	_, ok = huge.AsInt()
	assert.False(t, ok)

	assert.Equal(t, 10, props.Len())
	_, ok = props.Index(0)
	assert.False(t, ok)
}

func TestZeroValueIsNull(t *testing.T) {
	var v Value
	assert.True(t, v.IsNull())
	_, err := v.Object("properties")
	requireFieldError(t, err, ReasonWrongType)
}
