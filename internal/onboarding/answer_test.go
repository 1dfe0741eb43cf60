package onboarding

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAnswersJSONShape(t *testing.T) {
	answers := Answers{
		"age":       Single("18-34 (Young Adult)"),
		"interests": Multi("Cooking", "Music"),
	}
	data, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"age":"18-34 (Young Adult)","interests":["Cooking","Music"]}`
	if string(data) != want {
		t.Fatalf("json = %s, want %s", data, want)
	}
}

func TestAnswersJSONRoundTrip(t *testing.T) {
	flow := newDefaultFlow(t)
	flow = flow.Select("35-54 (Adult)").Next()
	flow = flow.Select("Life Skills").Select("Arts & Crafts").Next()
	flow = flow.Select("Voice messages").Next()
	flow = flow.Select(GoalBoth)
	answers := flow.Answers()

	data, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored Answers
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(answers, restored); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
	for id, answer := range answers {
		if restored[id].IsMulti() != answer.IsMulti() {
			t.Fatalf("%s lost its shape", id)
		}
	}
}

func TestEmptyMultiAnswerKeepsShape(t *testing.T) {
	data, err := json.Marshal(Answers{"interests": Multi()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"interests":[]}` {
		t.Fatalf("json = %s", data)
	}
	var restored Answers
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !restored["interests"].IsMulti() || restored["interests"].Satisfied() {
		t.Fatalf("restored = %v", restored["interests"])
	}
}

func TestAnswerRejectsOtherJSONTypes(t *testing.T) {
	for _, input := range []string{`{"age":3}`, `{"age":null}`, `{"age":{"x":"y"}}`, `{"age":[1,2]}`} {
		var answers Answers
		err := json.Unmarshal([]byte(input), &answers)
		if err == nil {
			t.Fatalf("expected error for %s", input)
		}
		if !strings.Contains(err.Error(), "answer") {
			t.Fatalf("unexpected error for %s: %v", input, err)
		}
	}
}

func TestAnswerSatisfied(t *testing.T) {
	cases := map[string]struct {
		answer Answer
		want   bool
	}{
		"zero":         {Answer{}, false},
		"empty single": {Single(""), false},
		"single":       {Single("Music"), true},
		"empty multi":  {Multi(), false},
		"multi":        {Multi("Music"), true},
	}
	for name, tc := range cases {
		if got := tc.answer.Satisfied(); got != tc.want {
			t.Fatalf("%s: satisfied = %v, want %v", name, got, tc.want)
		}
	}
}

func TestMultiCopiesInput(t *testing.T) {
	values := []string{"a", "b"}
	answer := Multi(values...)
	values[0] = "z"
	if answer.Values()[0] != "a" {
		t.Fatalf("Multi kept a reference to its input")
	}
	out := answer.Values()
	out[1] = "z"
	if answer.Values()[1] != "b" {
		t.Fatalf("Values leaked internal storage")
	}
}
