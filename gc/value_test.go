package gc

import (
	"math"
	"testing"
)

func Test_Value_BoxingRoundTrips(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		check func(t *testing.T, v Value)
	}{
		{
			name:  "empty",
			value: EmptyValue(),
			check: func(t *testing.T, v Value) {
				if !v.IsEmpty() {
					t.Fatalf("expected empty, got %s", v)
				}
			},
		},
		{
			name:  "undefined",
			value: UndefinedValue(),
			check: func(t *testing.T, v Value) {
				if !v.IsUndefined() {
					t.Fatalf("expected undefined, got %s", v)
				}
			},
		},
		{
			name:  "null",
			value: NullValue(),
			check: func(t *testing.T, v Value) {
				if !v.IsNull() {
					t.Fatalf("expected null, got %s", v)
				}
			},
		},
		{
			name:  "bool true",
			value: BoolValue(true),
			check: func(t *testing.T, v Value) {
				if !v.IsBool() || !v.AsBool() {
					t.Fatalf("expected true, got %s", v)
				}
			},
		},
		{
			name:  "bool false",
			value: BoolValue(false),
			check: func(t *testing.T, v Value) {
				if !v.IsBool() || v.AsBool() {
					t.Fatalf("expected false, got %s", v)
				}
			},
		},
		{
			name:  "int32 positive",
			value: Int32Value(42),
			check: func(t *testing.T, v Value) {
				if !v.IsInt32() || v.AsInt32() != 42 {
					t.Fatalf("expected 42, got %s", v)
				}
			},
		},
		{
			name:  "int32 negative",
			value: Int32Value(-7),
			check: func(t *testing.T, v Value) {
				if !v.IsInt32() || v.AsInt32() != -7 {
					t.Fatalf("expected -7, got %s", v)
				}
			},
		},
		{
			name:  "float64",
			value: Float64Value(3.25),
			check: func(t *testing.T, v Value) {
				if !v.IsFloat64() || v.AsFloat64() != 3.25 {
					t.Fatalf("expected 3.25, got %s", v)
				}
			},
		},
		{
			name:  "float64 zero",
			value: Float64Value(0),
			check: func(t *testing.T, v Value) {
				if !v.IsFloat64() || v.AsFloat64() != 0 {
					t.Fatalf("expected 0, got %s", v)
				}
			},
		},
		{
			name:  "float64 negative infinity",
			value: Float64Value(math.Inf(-1)),
			check: func(t *testing.T, v Value) {
				if !v.IsFloat64() || !math.IsInf(v.AsFloat64(), -1) {
					t.Fatalf("expected -Inf, got %s", v)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.value)
		})
	}
}

func Test_Value_NaNCanonicalized(t *testing.T) {
	// A NaN whose payload bits collide with the int32 tag must not decode
	// as anything but a float.
	hostile := math.Float64frombits(0xFFF9_0000_0000_002A)
	v := Float64Value(hostile)
	if !v.IsFloat64() {
		t.Fatalf("canonicalized NaN is not a float: %s", v)
	}
	if v.IsInt32() {
		t.Fatal("NaN payload decoded as int32")
	}
	if !math.IsNaN(v.AsFloat64()) {
		t.Fatalf("expected NaN back, got %v", v.AsFloat64())
	}
}

func Test_Value_CellRoundTrip(t *testing.T) {
	h := newTestHeap(t)
	o := newObject(t, h, "boxed")

	v := CellValue(o)
	if !v.IsCell() {
		t.Fatalf("expected cell value, got %s", v)
	}
	if v.CellAddress() != o.Address() {
		t.Fatalf("address mismatch: value 0x%x, cell 0x%x", v.CellAddress(), o.Address())
	}
	back := v.Cell(h)
	if !SameCell(back, o) {
		t.Fatal("unboxed cell is not the boxed cell")
	}
}

func Test_Value_NilCellBoxesAsEmpty(t *testing.T) {
	var o *object
	v := CellValue(o)
	if !v.IsEmpty() {
		t.Fatalf("nil cell should box as empty, got %s", v)
	}
}

func Test_Value_WrongVariantPanics(t *testing.T) {
	expectPanic(t, "gc: value is not a bool", func() {
		Int32Value(1).AsBool()
	})
	expectPanic(t, "gc: value is not an int32", func() {
		BoolValue(true).AsInt32()
	})
	expectPanic(t, "gc: value is not a float64", func() {
		NullValue().AsFloat64()
	})
	expectPanic(t, "gc: value is not a cell", func() {
		UndefinedValue().CellAddress()
	})
}
