package caption

import "testing"

func TestEstimate(t *testing.T) {
	for _, tt := range []struct {
		name    string
		update  Update
		want    int64
		wantOK  bool
	}{
		{"empty", nil, 0, false},
		{"untimed", Update{TextFragment("a"), TextFragment("b")}, 0, false},
		{"single timed", Update{TimedFragment{Body: "a", End: 500}}, 500, true},
		{
			"mixed takes latest",
			Update{TextFragment("a"), TimedFragment{Body: "b", End: 300}, TimedFragment{Body: "c", End: 900}},
			900, true,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Estimate(tt.update)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Estimate() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
