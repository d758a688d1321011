package utils

import (
	"testing"

	"go.viam.com/test"
)

type someStruct struct{}

func TestNewUnexpectedTypeError(t *testing.T) {
	for _, tc := range []struct {
		name     string
		expected interface{}
		actual   interface{}
		errStr   string
	}{
		{"one", "exp1", 1, "expected string but got int"},
		{"two", (*someStruct)(nil), someStruct{}, "expected *utils.someStruct but got utils.someStruct"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := NewUnexpectedTypeError(tc.expected, tc.actual)
			test.That(t, err.Error(), test.ShouldEqual, tc.errStr)
		})
	}

	err := NewUnimplementedInterfaceError("pin.PinFunc", 3)
	test.That(t, err.Error(), test.ShouldEqual, "expected implementation of pin.PinFunc but got int")
}

type pinGroup struct {
	Pin      string `json:"pin"`
	Function string `json:"function"`
}

type groupConfig struct {
	States map[string][]pinGroup `json:"states"`
	Delay  int                   `json:"delay_ms"`
}

func TestTransformAttributeMapToStruct(t *testing.T) {
	attrs := AttributeMap{
		"states": map[string]interface{}{
			"uart": []interface{}{
				map[string]interface{}{"pin": "GPIO14", "function": "UART0_TX"},
			},
		},
		"delay_ms": float64(5),
	}
	conf, err := TransformAttributeMapToStruct(&groupConfig{}, attrs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.Delay, test.ShouldEqual, 5)
	test.That(t, conf.States["uart"], test.ShouldResemble, []pinGroup{{Pin: "GPIO14", Function: "UART0_TX"}})

	_, err = TransformAttributeMapToStruct(&groupConfig{}, AttributeMap{"bogus": true})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bogus")
}

func TestAttributeMapAccessors(t *testing.T) {
	attrs := AttributeMap{"name": "uart2", "strict": true}
	test.That(t, attrs.Has("name"), test.ShouldBeTrue)
	test.That(t, attrs.Has("missing"), test.ShouldBeFalse)
	test.That(t, attrs.String("name"), test.ShouldEqual, "uart2")
	test.That(t, attrs.String("strict"), test.ShouldEqual, "")
	test.That(t, attrs.Bool("strict", false), test.ShouldBeTrue)
	test.That(t, attrs.Bool("missing", true), test.ShouldBeTrue)
}
