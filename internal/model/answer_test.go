package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestAnswerUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Answer
	}{
		{"scalar", `"A"`, Answer{Scalar: "A"}},
		{"empty scalar", `""`, Answer{Scalar: ""}},
		{"list", `["Đ","S","Đ"]`, Answer{Parts: []string{"Đ", "S", "Đ"}}},
		{"empty list", `[]`, Answer{Parts: []string{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Answer
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAnswerUnmarshalRejectsObjects(t *testing.T) {
	var a Answer
	if err := json.Unmarshal([]byte(`{"x":1}`), &a); err == nil {
		t.Fatal("expected error for object value")
	}
}

func TestAnswerMapRoundTrip(t *testing.T) {
	in := AnswerMap{
		1: {Scalar: "A"},
		2: {Parts: []string{"Đúng", "Sai"}},
		3: {Scalar: "x = 42"},
		7: {Parts: []string{}},
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out AnswerMap
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip changed the map:\n in: %+v\nout: %+v", in, out)
	}

	// A second pass must be byte-identical, so repeated autosaves of an
	// unchanged map never look like an edit.
	again, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if string(data) != string(again) {
		t.Errorf("marshal not stable:\nfirst:  %s\nsecond: %s", data, again)
	}
}

func TestAnswerMapWireFormat(t *testing.T) {
	var m AnswerMap
	if err := json.Unmarshal([]byte(`{"1":"A","2":["Đ","S"]}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m[1].Scalar != "A" {
		t.Errorf("q1 = %+v, want scalar A", m[1])
	}
	if !m[2].IsMulti() || len(m[2].Parts) != 2 {
		t.Errorf("q2 = %+v, want two parts", m[2])
	}
}
