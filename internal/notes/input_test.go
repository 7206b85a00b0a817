package notes

import (
	"encoding/json"
	"testing"
)

func TestParentRefDecoding(t *testing.T) {
	cases := []struct {
		raw  string
		want *int64
	}{
		{`null`, nil},
		{`0`, nil},
		{`-1`, nil},
		{`""`, nil},
		{`"None"`, nil},
		{`"none"`, nil},
		{`"0"`, nil},
		{`"garbage"`, nil},
		{`7`, ptr(7)},
		{`"7"`, ptr(7)},
	}
	for _, tc := range cases {
		var p ParentRef
		if err := json.Unmarshal([]byte(tc.raw), &p); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.raw, err)
		}
		switch {
		case tc.want == nil && p.ID != nil:
			t.Fatalf("%s: expected nil, got %d", tc.raw, *p.ID)
		case tc.want != nil && (p.ID == nil || *p.ID != *tc.want):
			t.Fatalf("%s: expected %d, got %v", tc.raw, *tc.want, p.ID)
		}
	}
}

func TestSaveInputOmittedParent(t *testing.T) {
	var in SaveInput
	if err := json.Unmarshal([]byte(`{"title":"x"}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if in.ParentID.ID != nil {
		t.Fatalf("omitted parent should be nil, got %d", *in.ParentID.ID)
	}
}

func ptr(v int64) *int64 {
	return &v
}
