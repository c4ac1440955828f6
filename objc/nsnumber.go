package objc

import (
	"github.com/rubiojr/objcbridge/bridge"
	"github.com/rubiojr/objcbridge/objcrt"
)

type NSNumber struct {
	NSValue
}

type NSNumberMeta struct {
	*objcrt.ClassObject
}

var NSNumberClass = &NSNumberMeta{objcrt.NewClassObject("NSNumber")}

func init() {
	objcrt.Register(&objcrt.Mirror{
		Name:  objcrt.MirrorName("NSNumber"),
		Class: NSNumberClass,
		New: func(ptr uintptr) objcrt.ID {
			return &NSNumber{NSValue{NSObject{objcrt.MakeObject(ptr)}}}
		},
		Doc: "boxed C scalar (char, short, int, long long, float, double, BOOL)",
	})
}

func (m *NSNumberMeta) NumberWithInt(ctx *bridge.Context, v int32) (*NSNumber, error) {
	return bridge.Send[*NSNumber](ctx, m, "numberWithInt:", v)
}

func (m *NSNumberMeta) NumberWithShort(ctx *bridge.Context, v int16) (*NSNumber, error) {
	return bridge.Send[*NSNumber](ctx, m, "numberWithShort:", v)
}

func (m *NSNumberMeta) NumberWithLongLong(ctx *bridge.Context, v int64) (*NSNumber, error) {
	return bridge.Send[*NSNumber](ctx, m, "numberWithLongLong:", v)
}

func (m *NSNumberMeta) NumberWithChar(ctx *bridge.Context, v uint8) (*NSNumber, error) {
	return bridge.Send[*NSNumber](ctx, m, "numberWithChar:", v)
}

func (m *NSNumberMeta) NumberWithBool(ctx *bridge.Context, v bool) (*NSNumber, error) {
	return bridge.Send[*NSNumber](ctx, m, "numberWithBool:", v)
}

func (m *NSNumberMeta) NumberWithFloat(ctx *bridge.Context, v float32) (*NSNumber, error) {
	return bridge.Send[*NSNumber](ctx, m, "numberWithFloat:", v)
}

func (m *NSNumberMeta) NumberWithDouble(ctx *bridge.Context, v float64) (*NSNumber, error) {
	return bridge.Send[*NSNumber](ctx, m, "numberWithDouble:", v)
}

func (n *NSNumber) IntValue(ctx *bridge.Context) (int32, error) {
	return bridge.Send[int32](ctx, n, "intValue")
}

func (n *NSNumber) ShortValue(ctx *bridge.Context) (int16, error) {
	return bridge.Send[int16](ctx, n, "shortValue")
}

func (n *NSNumber) LongLongValue(ctx *bridge.Context) (int64, error) {
	return bridge.Send[int64](ctx, n, "longLongValue")
}

func (n *NSNumber) CharValue(ctx *bridge.Context) (uint8, error) {
	return bridge.Send[uint8](ctx, n, "charValue")
}

func (n *NSNumber) BoolValue(ctx *bridge.Context) (bool, error) {
	return bridge.Send[bool](ctx, n, "boolValue")
}

func (n *NSNumber) FloatValue(ctx *bridge.Context) (float32, error) {
	return bridge.Send[float32](ctx, n, "floatValue")
}

func (n *NSNumber) DoubleValue(ctx *bridge.Context) (float64, error) {
	return bridge.Send[float64](ctx, n, "doubleValue")
}

// Compare returns -1, 0 or 1 as n is less than, equal to or greater than other.
func (n *NSNumber) Compare(ctx *bridge.Context, other *NSNumber) (int64, error) {
	return bridge.Send[int64](ctx, n, "compare:", other)
}

func (n *NSNumber) IsEqualToNumber(ctx *bridge.Context, other *NSNumber) (bool, error) {
	return bridge.Send[bool](ctx, n, "isEqualToNumber:", other)
}
