package transport

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestStringSetAcceptsStringOrList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want StringSet
	}{
		{name: "single string", raw: `"taxes"`, want: StringSet{"taxes"}},
		{name: "list", raw: `["winters","taxes"]`, want: StringSet{"taxes", "winters"}},
		{name: "duplicates and blanks", raw: `["taxes"," taxes ",""]`, want: StringSet{"taxes"}},
		{name: "empty string", raw: `""`, want: StringSet{}},
		{name: "null", raw: `null`, want: nil},
	}

	for _, tt := range tests {
		var got StringSet
		if err := json.Unmarshal([]byte(tt.raw), &got); err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("%s: got %#v, want %#v", tt.name, got, tt.want)
		}
	}
}

func TestStringSetRejectsOtherShapes(t *testing.T) {
	var got StringSet
	if err := json.Unmarshal([]byte(`{"a":1}`), &got); err == nil {
		t.Fatalf("expected error for object input")
	}
	if err := json.Unmarshal([]byte(`[1,2]`), &got); err == nil {
		t.Fatalf("expected error for numeric list")
	}
}

func TestQuizRequestNormalizesMultiSelect(t *testing.T) {
	raw := `{
		"session_id": "sess-12345678",
		"first_name": "Ana",
		"email": "ana@example.com",
		"sms_consent": false,
		"answers": {
			"housing_status": "rent",
			"monthly_cost": "4000_6000",
			"income_bracket": "250k_400k",
			"frustration": "taxes",
			"benefit": ["weather", "no state income tax"],
			"timeline": "0-6mo"
		}
	}`

	var req QuizSubmissionRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(req.Answers.Frustration, StringSet{"taxes"}) {
		t.Fatalf("unexpected frustration: %v", req.Answers.Frustration)
	}
	if !reflect.DeepEqual(req.Answers.Benefit, StringSet{"no state income tax", "weather"}) {
		t.Fatalf("unexpected benefit: %v", req.Answers.Benefit)
	}
}
