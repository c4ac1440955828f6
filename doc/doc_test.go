package doc

import (
	"reflect"
	"strings"
	"testing"

	_ "github.com/rubiojr/objcbridge/objc"
	"github.com/rubiojr/objcbridge/objcrt"
)

func TestExtract_Superclass(t *testing.T) {
	tests := []struct {
		name  string
		super string
	}{
		{"objc/NSObject", ""},
		{"objc/NSValue", "objc/NSObject"},
		{"objc/NSNumber", "objc/NSValue"},
		{"objc/NSMutableArray", "objc/NSArray"},
	}
	for _, tt := range tests {
		d, err := Lookup(objcrt.Default, tt.name)
		if err != nil {
			t.Fatalf("Lookup(%s): %v", tt.name, err)
		}
		if d.Super != tt.super {
			t.Errorf("%s super = %q, want %q", tt.name, d.Super, tt.super)
		}
	}
}

func TestExtract_OwnMethodsOnly(t *testing.T) {
	d, err := Lookup(objcrt.Default, "NSMutableArray")
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "objc/NSMutableArray" || d.Native != "NSMutableArray" {
		t.Errorf("names = %q %q", d.Name, d.Native)
	}

	want := []FuncDoc{
		{Name: "AddObject", Params: []string{"objcrt.ID"}},
		{Name: "RemoveAllObjects"},
		{Name: "SortUsingFunction", Params: []string{"any", "objcrt.Pointer"}},
	}
	if !reflect.DeepEqual(d.Methods, want) {
		t.Errorf("methods = %+v", d.Methods)
	}

	class := []FuncDoc{{Name: "Array", Results: []string{"objc.NSMutableArray"}}}
	if !reflect.DeepEqual(d.ClassMethods, class) {
		t.Errorf("class methods = %+v", d.ClassMethods)
	}
}

func TestLookup_Unknown(t *testing.T) {
	if _, err := Lookup(objcrt.Default, "NSWindow"); err == nil {
		t.Error("expected error for unregistered class")
	}
}

func TestFormat(t *testing.T) {
	d, err := Lookup(objcrt.Default, "objc/NSValue")
	if err != nil {
		t.Fatal(err)
	}
	got := Format(d)
	for _, line := range []string{
		"class NSValue (objc/NSValue) : objc/NSObject\n",
		"+ValueWithPointer(objcrt.Pointer) objc.NSValue\n",
		"-PointerValue() objcrt.Pointer\n",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("Format missing %q in:\n%s", line, got)
		}
	}
	if strings.Contains(got, "-Ptr(") {
		t.Errorf("Format lists embedded methods:\n%s", got)
	}
}

func TestFormatAll(t *testing.T) {
	got := FormatAll(objcrt.Default)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != objcrt.Default.Len() {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), objcrt.Default.Len(), got)
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[0]), "objc/NSArray") {
		t.Errorf("first line = %q", lines[0])
	}
}
